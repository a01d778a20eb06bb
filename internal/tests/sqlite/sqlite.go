package sqlite

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	sqlite2 "github.com/staketoken/airdrop/internal/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func GetInMemorySqliteDatabaseConnection(l *zap.Logger) (*gorm.DB, error) {
	return sqlite2.NewGormSqliteFromSqlite(sqlite2.NewSqlite(&sqlite2.SqliteConfig{
		Path: sqlite2.InMemoryPath(),
	}, l))
}

// GetFileBasedSqliteDatabaseConnection creates a database file under a fresh temp directory
// and returns its path.
func GetFileBasedSqliteDatabaseConnection(l *zap.Logger) (string, *gorm.DB, error) {
	basePath := filepath.Join(os.TempDir(), uuid.New().String())
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		return "", nil, err
	}

	filePath := filepath.Join(basePath, "test.db")
	db, err := sqlite2.NewGormSqliteFromSqlite(sqlite2.NewSqlite(&sqlite2.SqliteConfig{
		Path: filePath,
	}, l))
	if err != nil {
		return "", nil, err
	}
	return filePath, db, nil
}

func DeleteTestSqliteDB(filePath string) {
	_ = os.RemoveAll(filepath.Dir(filePath))
}
