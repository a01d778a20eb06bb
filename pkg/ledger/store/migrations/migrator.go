package migrations

import (
	"database/sql"
	"fmt"
	"time"

	_202501141200_ledgerTables "github.com/staketoken/airdrop/pkg/ledger/store/migrations/202501141200_ledgerTables"
	_202501141230_ledgerStakes "github.com/staketoken/airdrop/pkg/ledger/store/migrations/202501141230_ledgerStakes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Migration interface {
	Up(db *sql.DB, grm *gorm.DB) error
	GetName() string
}

type Migrator struct {
	Db     *sql.DB
	GDb    *gorm.DB
	Logger *zap.Logger
}

func NewMigrator(db *sql.DB, gDb *gorm.DB, l *zap.Logger) (*Migrator, error) {
	if err := gDb.AutoMigrate(&Migrations{}); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}
	return &Migrator{
		Db:     db,
		GDb:    gDb,
		Logger: l,
	}, nil
}

func (m *Migrator) MigrateAll() error {
	migrations := []Migration{
		&_202501141200_ledgerTables.Migration{},
		&_202501141230_ledgerStakes.Migration{},
	}

	for _, migration := range migrations {
		if err := m.Migrate(migration); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) Migrate(migration Migration) error {
	name := migration.GetName()

	var migrationRecord Migrations
	result := m.GDb.Where("name = ?", name).Limit(1).Find(&migrationRecord)

	if result.Error != nil {
		m.Logger.Sugar().Errorw(fmt.Sprintf("Failed to find migration '%s'", name), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected > 0 {
		m.Logger.Sugar().Debugf("Migration %s already run", name)
		return nil
	}

	m.Logger.Sugar().Infof("Running migration '%s'", name)
	if err := migration.Up(m.Db, m.GDb); err != nil {
		m.Logger.Sugar().Errorw(fmt.Sprintf("Failed to run migration '%s'", name), zap.Error(err))
		return err
	}

	migrationRecord = Migrations{
		Name: name,
	}
	result = m.GDb.Create(&migrationRecord)
	if result.Error != nil {
		m.Logger.Sugar().Errorw(fmt.Sprintf("Failed to record migration '%s'", name), zap.Error(result.Error))
		return result.Error
	}
	return nil
}

type Migrations struct {
	Name      string    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
