package main

import (
	"fmt"
	"os"
	"work-allocation/internal/config"
	"work-allocation/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "planner",
	Short:        "Work allocation planning server",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, purgeCmd)
}

// setup читает конфигурацию и настраивает логгер по ней
func setup() (*config.Config, *logrus.Logger, error) {
	logrus.Info("Initializing config...")
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(cfg.LogLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if cfg.UsesDevSecret() {
		logger.Warn("JWT_SECRET is not set, tokens are signed with the development secret")
	}
	logger.WithField("env", cfg.AppEnv).Info("Config initialized")
	return cfg, logger, nil
}

// openStore открывает базу и применяет миграции
func openStore(cfg *config.Config, logger *logrus.Logger) (*repository.Store, error) {
	db, err := repository.Open(cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}

	store, err := repository.NewStore(db, logger)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return store, nil
}
