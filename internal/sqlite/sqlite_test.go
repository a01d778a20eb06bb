package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/staketoken/airdrop/internal/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Sqlite(t *testing.T) {
	l := tests.GetLogger()

	t.Run("Should share an in-memory database between connections", func(t *testing.T) {
		path := InMemoryPath()

		first, err := NewGormSqliteFromSqlite(NewSqlite(&SqliteConfig{Path: path}, l))
		require.Nil(t, err)
		res := first.Exec(`create table balances (address text primary key, amount text not null)`)
		require.Nil(t, res.Error)
		res = first.Exec(`insert into balances (address, amount) values (?, ?)`, "0x01", "100")
		require.Nil(t, res.Error)

		second, err := NewGormSqliteFromSqlite(NewSqlite(&SqliteConfig{Path: path}, l))
		require.Nil(t, err)

		var amount string
		res = second.Raw(`select amount from balances where address = ?`, "0x01").Scan(&amount)
		assert.Nil(t, res.Error)
		assert.Equal(t, "100", amount)

		other, err := NewGormSqliteFromSqlite(NewSqlite(&SqliteConfig{Path: InMemoryPath()}, l))
		require.Nil(t, err)
		res = other.Exec(`select amount from balances`)
		assert.NotNil(t, res.Error)
	})
	t.Run("Should open a file database with the pragmas applied", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ledger.db")
		grm, err := NewGormSqliteFromSqlite(NewSqlite(&SqliteConfig{Path: path}, l))
		require.Nil(t, err)

		var journalMode string
		res := grm.Raw(`PRAGMA journal_mode;`).Scan(&journalMode)
		assert.Nil(t, res.Error)
		assert.Equal(t, "wal", journalMode)

		var foreignKeys int
		res = grm.Raw(`PRAGMA foreign_keys;`).Scan(&foreignKeys)
		assert.Nil(t, res.Error)
		assert.Equal(t, 1, foreignKeys)

		sqlDB, err := grm.DB()
		require.Nil(t, err)
		assert.Nil(t, sqlDB.Close())
	})
}
