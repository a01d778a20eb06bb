package _202501141230_ledgerStakes

import (
	"database/sql"

	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS ledger_stakes (
			staker varchar not null primary key,
			amount varchar not null,
			start_time bigint not null,
			cancel_time bigint not null default 0,
			reward varchar not null default '0'
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
	return "202501141230_ledgerStakes"
}
