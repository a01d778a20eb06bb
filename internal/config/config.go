package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	Debug      = "debug"
	ConfigFile = "config"
	Network    = "network"

	ProjectFile         = "project.file"
	ProjectContractName = "project.contract_name"

	AirdropRecipientsFile      = "airdrop.recipients_file"
	AirdropAccountId           = "airdrop.account_id"
	AirdropAmount              = "airdrop.amount"
	AirdropGasLimit            = "airdrop.gas_limit"
	AirdropGasPrice            = "airdrop.gas_price"
	AirdropStrictBalanceCheck  = "airdrop.strict_balance_check"
	AirdropReportFile          = "airdrop.report_file"
	AirdropReceiptTimeout      = "airdrop.receipt_timeout"
	AirdropReceiptPollInterval = "airdrop.receipt_poll_interval"

	Mnemonic           = "mnemonic"
	InfuraProjectId    = "infura.project_id"
	WalletPrivateKeys  = "wallet.private_keys"
	WalletAccountCount = "wallet.accounts"

	EthereumRpcUrl = "ethereum.rpc_url"

	LedgerDriver     = "ledger.driver"
	LedgerSqlitePath = "ledger.sqlite_path"

	DatabaseHost       = "database.host"
	DatabasePort       = "database.port"
	DatabaseUser       = "database.user"
	DatabasePassword   = "database.password"
	DatabaseDbName     = "database.db_name"
	DatabaseSchemaName = "database.schema_name"
	DatabaseSSLMode    = "database.ssl_mode"

	DataDogStatsdEnabled    = "datadog.statsd.enabled"
	DataDogStatsdUrl        = "datadog.statsd.url"
	DataDogStatsdSampleRate = "datadog.statsd.sample_rate"

	PrometheusEnabled        = "prometheus.enabled"
	PrometheusPushGatewayUrl = "prometheus.push_gateway_url"
	PrometheusJobName        = "prometheus.job_name"
)

const (
	DefaultNetwork             = "development"
	DefaultProjectFile         = ".openzeppelin/project.json"
	DefaultContractName        = "Token"
	DefaultRecipientsFile      = "recipients.txt"
	DefaultAirdropGasLimit     = 6500000
	DefaultReceiptTimeout      = 5 * time.Minute
	DefaultReceiptPollInterval = time.Second
	DefaultWalletAccountCount  = 10
	DefaultLedgerSqlitePath    = "ledger.db"
	DefaultPrometheusJobName   = "airdrop"
)

type LedgerDriverKind string

const (
	LedgerDriver_Sqlite   LedgerDriverKind = "sqlite"
	LedgerDriver_Postgres LedgerDriverKind = "postgres"
)

type Config struct {
	Debug            bool
	ConfigFile       string
	Network          string
	ProjectConfig    ProjectConfig
	AirdropConfig    AirdropConfig
	WalletConfig     WalletConfig
	EthereumRpc      EthereumRpcConfig
	LedgerConfig     LedgerConfig
	DatabaseConfig   DatabaseConfig
	DataDogConfig    DataDogConfig
	PrometheusConfig PrometheusConfig

	Networks map[string]*NetworkConfig
}

type ProjectConfig struct {
	File         string
	ContractName string
}

type AirdropConfig struct {
	RecipientsFile      string
	AccountId           int
	Amount              string
	GasLimit            uint64
	GasPrice            string
	StrictBalanceCheck  bool
	ReportFile          string
	ReceiptTimeout      time.Duration
	ReceiptPollInterval time.Duration
}

type WalletConfig struct {
	Mnemonic        string
	InfuraProjectId string
	PrivateKeys     []string
	AccountCount    int
}

type EthereumRpcConfig struct {
	// Url overrides the url of the selected network when set
	Url string
}

type LedgerConfig struct {
	Driver     LedgerDriverKind
	SqlitePath string
}

type DatabaseConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	DbName     string
	SchemaName string
	SSLMode    string
}

type StatsdConfig struct {
	Enabled    bool
	Url        string
	SampleRate float64
}

type DataDogConfig struct {
	StatsdConfig StatsdConfig
}

type PrometheusConfig struct {
	Enabled        bool
	PushGatewayUrl string
	JobName        string
}

// SetDefaults registers the fallback value of every key so that a Config built without
// cobra flags (tests, library use) matches the CLI defaults.
func SetDefaults() {
	viper.SetDefault(Network, DefaultNetwork)
	viper.SetDefault(ProjectFile, DefaultProjectFile)
	viper.SetDefault(ProjectContractName, DefaultContractName)
	viper.SetDefault(AirdropRecipientsFile, DefaultRecipientsFile)
	viper.SetDefault(AirdropAccountId, 0)
	viper.SetDefault(AirdropAmount, "0")
	viper.SetDefault(AirdropGasLimit, DefaultAirdropGasLimit)
	viper.SetDefault(AirdropReceiptTimeout, DefaultReceiptTimeout)
	viper.SetDefault(AirdropReceiptPollInterval, DefaultReceiptPollInterval)
	viper.SetDefault(WalletAccountCount, DefaultWalletAccountCount)
	viper.SetDefault(LedgerDriver, string(LedgerDriver_Sqlite))
	viper.SetDefault(LedgerSqlitePath, DefaultLedgerSqlitePath)
	viper.SetDefault(DatabaseHost, "localhost")
	viper.SetDefault(DatabasePort, 5432)
	viper.SetDefault(DatabaseUser, "airdrop")
	viper.SetDefault(DatabaseDbName, "airdrop")
	viper.SetDefault(DataDogStatsdSampleRate, 1.0)
	viper.SetDefault(PrometheusJobName, DefaultPrometheusJobName)
}

// InitViper maps every key onto an unprefixed environment variable, e.g.
// airdrop.recipients_file -> AIRDROP_RECIPIENTS_FILE.
func InitViper() {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
	SetDefaults()
}

func NewConfig() *Config {
	cfg := &Config{
		Debug:      viper.GetBool(Debug),
		ConfigFile: viper.GetString(ConfigFile),
		Network:    viper.GetString(Network),

		ProjectConfig: ProjectConfig{
			File:         viper.GetString(ProjectFile),
			ContractName: viper.GetString(ProjectContractName),
		},

		AirdropConfig: AirdropConfig{
			RecipientsFile:      viper.GetString(AirdropRecipientsFile),
			AccountId:           viper.GetInt(AirdropAccountId),
			Amount:              viper.GetString(AirdropAmount),
			GasLimit:            viper.GetUint64(AirdropGasLimit),
			GasPrice:            viper.GetString(AirdropGasPrice),
			StrictBalanceCheck:  viper.GetBool(AirdropStrictBalanceCheck),
			ReportFile:          viper.GetString(AirdropReportFile),
			ReceiptTimeout:      viper.GetDuration(AirdropReceiptTimeout),
			ReceiptPollInterval: viper.GetDuration(AirdropReceiptPollInterval),
		},

		WalletConfig: WalletConfig{
			Mnemonic:        viper.GetString(Mnemonic),
			InfuraProjectId: viper.GetString(InfuraProjectId),
			PrivateKeys:     parseListEnvVar(viper.GetString(WalletPrivateKeys)),
			AccountCount:    viper.GetInt(WalletAccountCount),
		},

		EthereumRpc: EthereumRpcConfig{
			Url: viper.GetString(EthereumRpcUrl),
		},

		LedgerConfig: LedgerConfig{
			Driver:     LedgerDriverKind(strings.ToLower(viper.GetString(LedgerDriver))),
			SqlitePath: viper.GetString(LedgerSqlitePath),
		},

		DatabaseConfig: DatabaseConfig{
			Host:       viper.GetString(DatabaseHost),
			Port:       viper.GetInt(DatabasePort),
			User:       viper.GetString(DatabaseUser),
			Password:   viper.GetString(DatabasePassword),
			DbName:     viper.GetString(DatabaseDbName),
			SchemaName: viper.GetString(DatabaseSchemaName),
			SSLMode:    viper.GetString(DatabaseSSLMode),
		},

		DataDogConfig: DataDogConfig{
			StatsdConfig: StatsdConfig{
				Enabled:    viper.GetBool(DataDogStatsdEnabled),
				Url:        viper.GetString(DataDogStatsdUrl),
				SampleRate: viper.GetFloat64(DataDogStatsdSampleRate),
			},
		},

		PrometheusConfig: PrometheusConfig{
			Enabled:        viper.GetBool(PrometheusEnabled),
			PushGatewayUrl: viper.GetString(PrometheusPushGatewayUrl),
			JobName:        viper.GetString(PrometheusJobName),
		},

		Networks: DefaultNetworks(),
	}

	if cfg.Network == "" {
		cfg.Network = DefaultNetwork
	}
	return cfg
}

// LoadConfigFile reads the optional YAML config file and merges any network definitions
// found under "networks" over the built-in ones.
func (c *Config) LoadConfigFile() error {
	if c.ConfigFile == "" {
		return nil
	}
	viper.SetConfigFile(c.ConfigFile)
	if err := viper.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file '%s'", c.ConfigFile)
	}

	overrides := map[string]*NetworkConfig{}
	if err := viper.UnmarshalKey("networks", &overrides); err != nil {
		return errors.Wrap(err, "failed to parse networks")
	}
	for name, n := range overrides {
		n.Name = name
		c.Networks[name] = n
	}
	return nil
}

func (c *Config) GetNetwork(name string) (*NetworkConfig, error) {
	n, ok := c.Networks[name]
	if !ok {
		return nil, fmt.Errorf("network '%s' is not defined", name)
	}
	return n, nil
}

// GetRpcUrl returns the JSON-RPC url for the named network, honoring the rpc url override.
func (c *Config) GetRpcUrl(network *NetworkConfig) string {
	if c.EthereumRpc.Url != "" {
		return c.EthereumRpc.Url
	}
	return network.RpcUrl(c.WalletConfig.InfuraProjectId)
}

func KebabToSnakeCase(str string) string {
	return strings.ReplaceAll(str, "-", "_")
}

func parseListEnvVar(envVar string) []string {
	if envVar == "" {
		return []string{}
	}
	stringList := strings.Split(envVar, ",")

	l := make([]string, 0)
	for _, s := range stringList {
		s = strings.TrimSpace(s)
		if s != "" {
			l = append(l, s)
		}
	}
	return l
}

// LoadDotEnv copies the variables of a dotenv file into the process environment. Variables
// that are already set win over the file.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read env file '%s'", path)
	}

	for key, value := range v.AllSettings() {
		envKey := strings.ToUpper(key)
		if _, exists := os.LookupEnv(envKey); exists {
			continue
		}
		if err := os.Setenv(envKey, fmt.Sprintf("%v", value)); err != nil {
			return err
		}
	}
	return nil
}
