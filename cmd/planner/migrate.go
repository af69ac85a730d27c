package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		store, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		logger.WithField("database", cfg.DatabaseURL).Info("Database migrated")
		return nil
	},
}
