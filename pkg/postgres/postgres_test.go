package postgres

import (
	"errors"
	"testing"

	"github.com/staketoken/airdrop/internal/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ConnectionString(t *testing.T) {
	t.Run("Should build a connection string", func(t *testing.T) {
		s, err := getPostgresConnectionString(&PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			Username: "airdrop",
			Password: "secret",
			DbName:   "ledger",
		})
		require.Nil(t, err)
		assert.Equal(t, "host=localhost user=airdrop password=secret dbname=ledger port=5432 sslmode=disable TimeZone=UTC", s)
	})
	t.Run("Should append the schema as search path", func(t *testing.T) {
		s, err := getPostgresConnectionString(&PostgresConfig{
			Host:       "db",
			Port:       5433,
			DbName:     "ledger",
			SchemaName: "airdrop",
			SSLMode:    "require",
		})
		require.Nil(t, err)
		assert.Equal(t, "host=db dbname=ledger port=5433 sslmode=require TimeZone=UTC search_path=airdrop", s)
	})
	t.Run("Should reject unknown ssl modes", func(t *testing.T) {
		_, err := getPostgresConnectionString(&PostgresConfig{SSLMode: "sometimes"})
		assert.NotNil(t, err)
	})
}

func Test_Postgres(t *testing.T) {
	dbCfg := tests.GetDbConfigFromEnv()
	if dbCfg == nil {
		t.Skip("postgres is not configured")
	}
	l := tests.GetLogger()

	dbName := tests.GenerateTestDbName()
	pgConfig := PostgresConfigFromDbConfig(dbCfg)
	pgConfig.DbName = dbName
	pgConfig.CreateDbIfNotExists = true

	pg, err := NewPostgres(pgConfig, l)
	require.Nil(t, err)
	t.Cleanup(func() {
		_ = pg.Db.Close()
		_ = DeleteDatabase(pgConfig, dbName)
	})

	grm, err := NewGormFromPostgresConnection(pg.Db)
	require.Nil(t, err)

	t.Run("Should detect duplicate keys", func(t *testing.T) {
		require.Nil(t, grm.Exec(`CREATE TABLE dupes (id integer primary key)`).Error)
		require.Nil(t, grm.Exec(`INSERT INTO dupes (id) VALUES (1)`).Error)
		err := grm.Exec(`INSERT INTO dupes (id) VALUES (1)`).Error
		require.NotNil(t, err)
		assert.True(t, IsDuplicateKeyError(err))
	})
	t.Run("Should ignore other errors", func(t *testing.T) {
		assert.False(t, IsDuplicateKeyError(errors.New("connection refused")))
	})
}
