package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/staketoken/airdrop/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "airdrop",
	Short:         "Airdrop tokens to a list of recipients and operate a local token ledger",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI. Any error is printed as "ERROR <message>" and exits with status 1.
func Execute() {
	os.Exit(execute(context.Background(), ".env", os.Stderr))
}

func execute(ctx context.Context, dotEnvPath string, stderr io.Writer) int {
	if err := config.LoadDotEnv(dotEnvPath); err != nil {
		fmt.Fprintln(stderr, "ERROR", err.Error())
		return 1
	}
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "ERROR", err.Error())
		return 1
	}
	return 0
}

func init() {
	config.InitViper()

	rootCmd.PersistentFlags().Bool(config.Debug, false, `"true" or "false"`)
	rootCmd.PersistentFlags().String(config.ConfigFile, "", `Optional YAML file with network definitions under "networks"`)

	rootCmd.PersistentFlags().String("project.file", config.DefaultProjectFile, `Path to the OpenZeppelin project file`)
	rootCmd.PersistentFlags().String("project.contract-name", config.DefaultContractName, `Name of the token contract in the manifest`)

	rootCmd.PersistentFlags().String("airdrop.recipients-file", config.DefaultRecipientsFile, `Newline separated list of recipient addresses`)
	rootCmd.PersistentFlags().Int("airdrop.account-id", 0, `Index of the operator account`)
	rootCmd.PersistentFlags().String("airdrop.amount", "0", `Amount sent to every recipient, in base units`)
	rootCmd.PersistentFlags().Uint64("airdrop.gas-limit", config.DefaultAirdropGasLimit, `Gas limit of the airdrop transaction`)
	rootCmd.PersistentFlags().String("airdrop.gas-price", "", `Gas price in wei, defaults to the network gas price`)
	rootCmd.PersistentFlags().Bool("airdrop.strict-balance-check", false, `Fail unless the balance covers every recipient`)
	rootCmd.PersistentFlags().String("airdrop.report-file", "", `Write a CSV report of the airdrop to this file`)
	rootCmd.PersistentFlags().Duration("airdrop.receipt-timeout", config.DefaultReceiptTimeout, `How long to wait for the transaction receipt`)
	rootCmd.PersistentFlags().Duration("airdrop.receipt-poll-interval", config.DefaultReceiptPollInterval, `How often to poll for the transaction receipt`)

	rootCmd.PersistentFlags().String("ethereum.rpc-url", "", `e.g. "http://<hostname>:8545", overrides the network url`)
	rootCmd.PersistentFlags().Int("wallet.accounts", config.DefaultWalletAccountCount, `Number of accounts derived from MNEMONIC`)

	rootCmd.PersistentFlags().String("ledger.driver", string(config.LedgerDriver_Sqlite), `Ledger database driver, "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("ledger.sqlite-path", config.DefaultLedgerSqlitePath, `Path of the sqlite ledger database`)

	rootCmd.PersistentFlags().String(config.DatabaseHost, "localhost", `PostgreSQL host`)
	rootCmd.PersistentFlags().Int(config.DatabasePort, 5432, `PostgreSQL port`)
	rootCmd.PersistentFlags().String(config.DatabaseUser, "airdrop", `PostgreSQL username`)
	rootCmd.PersistentFlags().String(config.DatabasePassword, "", `PostgreSQL password`)
	rootCmd.PersistentFlags().String("database.db-name", "airdrop", `PostgreSQL database name`)
	rootCmd.PersistentFlags().String("database.schema-name", "", `PostgreSQL schema name (default "public")`)
	rootCmd.PersistentFlags().String("database.ssl-mode", "", `PostgreSQL ssl mode (default "disable")`)

	rootCmd.PersistentFlags().Bool("datadog.statsd.enabled", false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().String("datadog.statsd.url", "", `e.g. "localhost:8125"`)
	rootCmd.PersistentFlags().Float64("datadog.statsd.sample-rate", 1.0, `The sample rate to use for statsd metrics`)

	rootCmd.PersistentFlags().Bool("prometheus.enabled", false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().String("prometheus.push-gateway-url", "", `Pushgateway url to push metrics to when the command exits`)
	rootCmd.PersistentFlags().String("prometheus.job-name", config.DefaultPrometheusJobName, `Pushgateway job name`)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(deploymentsCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(runVersionCmd)

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		viper.BindPFlag(key, f) //nolint:errcheck
		viper.BindEnv(key)      //nolint:errcheck
	})
}
