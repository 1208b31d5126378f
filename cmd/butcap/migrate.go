package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/butcapp/butcap/internal/cli"
	"github.com/butcapp/butcap/internal/common"
	"github.com/butcapp/butcap/internal/config"
	"github.com/butcapp/butcap/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Other commands migrate automatically; this command exists to inspect the
schema version or prepare a database ahead of time.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current schema version without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")

	dbPath, err := config.DatabasePath()
	if err != nil {
		return fmt.Errorf("failed to resolve database path: %w", err)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if status {
		version, err := store.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Schema version %d of %d (%s)\n", version, storage.ExpectedSchemaVersion, dbPath)
		return nil
	}

	common.LogInfo("Starting database migration", common.Fields{"database": dbPath})
	if err := store.Migrate(ctx); err != nil {
		common.LogError(err, "migration failed", common.Fields{"database": dbPath})
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Println(cli.FormatSuccess("Database schema is up to date."))
	return nil
}
