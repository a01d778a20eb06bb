package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/staketoken/airdrop/internal/config"
	"github.com/staketoken/airdrop/internal/logger"
	"github.com/staketoken/airdrop/internal/metrics"
	"github.com/staketoken/airdrop/internal/metrics/metricsTypes"
	"github.com/staketoken/airdrop/internal/sqlite"
	"github.com/staketoken/airdrop/pkg/eventBus"
	"github.com/staketoken/airdrop/pkg/ledger"
	"github.com/staketoken/airdrop/pkg/ledger/store"
	"github.com/staketoken/airdrop/pkg/postgres"
	"github.com/staketoken/airdrop/pkg/wallet"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.MetricsSink
}

// newRuntime loads the configuration for the given network and sets up logging and metrics.
func newRuntime(network string) (*runtime, error) {
	if network != "" {
		viper.Set(config.Network, network)
	}
	cfg := config.NewConfig()
	if err := cfg.LoadConfigFile(); err != nil {
		return nil, err
	}

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug, Console: true})
	if err != nil {
		return nil, err
	}

	clients, err := metrics.InitMetricsSinksFromConfig(cfg, l)
	if err != nil {
		return nil, errors.Wrap(err, "failed to setup metrics")
	}
	sink, err := metrics.NewMetricsSink(&metrics.MetricsSinkConfig{
		DefaultLabels: []metricsTypes.MetricsLabel{
			{Name: "network", Value: cfg.Network},
		},
	}, clients)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:     cfg,
		logger:  l,
		metrics: sink,
	}, nil
}

func (r *runtime) close() {
	if err := r.metrics.Flush(); err != nil {
		r.logger.Sugar().Warnw("Failed to flush metrics", zap.Error(err))
	}
	_ = r.logger.Sync()
}

func openLedgerDb(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	switch cfg.LedgerConfig.Driver {
	case config.LedgerDriver_Sqlite, "":
		return sqlite.NewGormSqliteFromSqlite(sqlite.NewSqlite(&sqlite.SqliteConfig{
			Path: cfg.LedgerConfig.SqlitePath,
		}, l))
	case config.LedgerDriver_Postgres:
		pgConfig := postgres.PostgresConfigFromDbConfig(&cfg.DatabaseConfig)
		pgConfig.CreateDbIfNotExists = true

		pg, err := postgres.NewPostgres(pgConfig, l)
		if err != nil {
			return nil, errors.Wrap(err, "failed to setup postgres connection")
		}
		return postgres.NewGormFromPostgresConnection(pg.Db)
	default:
		return nil, fmt.Errorf("unsupported ledger driver '%s'", cfg.LedgerConfig.Driver)
	}
}

// openLedger returns the token over the configured ledger database. Events of every call are
// published on the returned bus.
func openLedger(r *runtime) (*ledger.Token, store.Store, *eventBus.EventBus, error) {
	grm, err := openLedgerDb(r.cfg, r.logger)
	if err != nil {
		return nil, nil, nil, err
	}
	s, err := store.NewGormStore(grm, r.logger)
	if err != nil {
		return nil, nil, nil, err
	}
	bus := eventBus.NewEventBus(r.logger)
	return ledger.NewToken(s, ledger.SystemClock{}, bus, r.metrics, r.logger), s, bus, nil
}

// configuredAccounts returns the addresses of the configured private keys or, failing that, of
// the accounts derived from MNEMONIC. It returns nil when neither is set.
func configuredAccounts(ctx context.Context, cfg *config.Config, l *zap.Logger) ([]common.Address, error) {
	if len(cfg.WalletConfig.PrivateKeys) > 0 {
		kw, err := wallet.NewKeyWalletFromHex(nil, cfg.WalletConfig.PrivateKeys, l)
		if err != nil {
			return nil, err
		}
		return kw.Accounts(ctx)
	}
	if cfg.WalletConfig.Mnemonic != "" {
		keys, err := wallet.DeriveHDKeys(cfg.WalletConfig.Mnemonic, cfg.WalletConfig.AccountCount)
		if err != nil {
			return nil, err
		}
		kw := wallet.NewKeyWallet(nil, keys, l)
		return kw.Accounts(ctx)
	}
	return nil, nil
}

func parseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address '%s'", s)
	}
	return common.HexToAddress(s), nil
}
