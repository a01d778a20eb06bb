package _202501141200_ledgerTables

import (
	"database/sql"

	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS ledger_params (
			id integer not null primary key,
			name varchar not null,
			symbol varchar not null,
			decimals integer not null,
			owner varchar not null,
			total_supply varchar not null,
			base_period bigint not null,
			hold_period bigint not null,
			annual_percent bigint not null,
			annual_period bigint not null
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_balances (
			address varchar not null primary key,
			amount varchar not null
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_allowances (
			owner varchar not null,
			spender varchar not null,
			amount varchar not null,
			primary key (owner, spender)
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_minters (
			address varchar not null primary key
		)`,
	}
	for _, query := range queries {
		if res := grm.Exec(query); res.Error != nil {
			return res.Error
		}
	}
	return nil
}

func (m *Migration) GetName() string {
	return "202501141200_ledgerTables"
}
