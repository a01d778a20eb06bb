package sqlite

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type SqliteConfig struct {
	// Path is a file path or a sqlite URI such as "file:name?mode=memory&cache=shared"
	Path string
}

func NewSqlite(cfg *SqliteConfig, l *zap.Logger) gorm.Dialector {
	l.Sugar().Debugw("Opening sqlite database", zap.String("path", cfg.Path))
	return sqlite.Open(cfg.Path)
}

// InMemoryPath returns a uniquely named shared-cache in-memory database so that every
// connection of the pool sees the same data.
func InMemoryPath() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
}

func NewGormSqliteFromSqlite(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		`PRAGMA foreign_keys = ON;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA busy_timeout = 5000;`,
	}

	for _, pragma := range pragmas {
		res := db.Exec(pragma)
		if res.Error != nil {
			return nil, res.Error
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
