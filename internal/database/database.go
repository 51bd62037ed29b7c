package database

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codyseavey/grading-arbitrage/internal/config"
	"github.com/codyseavey/grading-arbitrage/internal/models"
)

// Open connects to the configured database. Schema and data migrations are
// run separately by Migrate.
func Open(cfg config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite", "":
		dialector = sqlite.Open(cfg.Path)
	case "postgres":
		dialector = postgres.Open(cfg.URL)
	case "mysql":
		dialector = mysql.Open(cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	level := logger.Warn
	if debug {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(&log.Logger, logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("driver", cfg.Driver).Msg("Database connected successfully")
	return db, nil
}

// Migrate creates or updates the schema and normalises existing rows
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Product{},
		&models.TradeHistory{},
		&models.GradingStat{},
		&models.GradingMapping{},
		&models.AppSettings{},
	)
	if err != nil {
		return err
	}
	if err := RunMigrations(db); err != nil {
		return err
	}

	log.Info().Msg("Database migration completed")
	return nil
}
