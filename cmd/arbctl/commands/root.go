package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/codyseavey/grading-arbitrage/internal/config"
	"github.com/codyseavey/grading-arbitrage/internal/database"
	"github.com/codyseavey/grading-arbitrage/internal/logger"
	"github.com/codyseavey/grading-arbitrage/internal/services"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "arbctl",
	Short: "Grading arbitrage dashboard CLI",
	Long: `Query the grading arbitrage product list from the command line.

Database settings are read from the same environment as the server
(DB_DRIVER, DB_PATH, DATABASE_URL, .env).

Examples:
  arbctl list --sort expectedProfit --min-profit 3000
  arbctl export --sort roi --out roi.xlsx
  arbctl product 12345
  arbctl migrate`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
}

// openDB loads config, configures logging and connects
func openDB() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger.Setup(logLevel, "console", cfg.Env)

	db, err := database.Open(cfg.Database, logLevel == "debug")
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return cfg, db, nil
}

func openStore() (services.Store, func(), error) {
	_, db, err := openDB()
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return database.NewGormStore(db), closeFn, nil
}
