package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fingerprint_access/internal/feature/recognition/adapters"
	infradb "fingerprint_access/internal/platform/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg := infradb.LoadConfigFromEnv()
	cfg.Migrate = true

	db, err := infradb.OpenDB(cfg, adapters.Models()...)
	if err != nil {
		return fmt.Errorf("migrate failed: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	cmd.Printf("Migrated %d tables (%s).\n", len(adapters.Models()), cfg.Driver)
	return nil
}
