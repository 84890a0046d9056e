package db

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/songmatch/internal/config"
)

// NewDB opens the configured database and migrates the schema.
// DB_DRIVER selects MySQL (default) or a SQLite file for local runs.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DB.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DB.SQLitePath)
	case "mysql", "":
		dialector = mysql.Open(cfg.DB.DSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DB.Driver)
	}

	level := logger.Warn
	if cfg.DB.LogQueries {
		level = logger.Info // log SQL queries
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// AutoMigrate ensures schema is in sync with models.
	if err := db.AutoMigrate(All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}
