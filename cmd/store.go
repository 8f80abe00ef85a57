package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/internal/iostore"
	"github.com/huangsam/waypoint/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeSetup loads minimal configuration needed for store operations.
// This is used by commands that need store access without full shared setup.
func storeSetup() error {
	backend, connStr, err := storeBackendConfig()
	if err != nil {
		return err
	}
	if err := iostore.InitStores(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeRawSetup resolves the store settings without opening the store, so
// clear and migrate can run against a broken or fresh database.
func storeRawSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := storeBackendConfig()
	if err != nil {
		return err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetDBFilePath()
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return nil
}

// storeCmd focused on migration state management.
//
// Note: Store subcommands use minimal initialization instead of the full
// sharedSetup. This avoids workspace validation for simple store operations.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the persisted migration state",
	Long: `Manage the database holding workspaces, units, batches and projects.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (in-memory)

Subcommands:
  status  - Show store statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all migration state
  migrate - Run database schema migrations`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display store statistics and connection details",
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iostore.Manager.GetMigrationStore().GetStatus(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		iostore.PrintStoreStatus(os.Stdout, status)
	},
}

// storeClearCmd clears the migration state.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all persisted migration state",
	Long: `Delete every workspace, unit, batch and project.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  waypoint store export --output-file backup
  waypoint store clear`,
	PreRunE: storeRawSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iostore.ClearStore(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear migration state", err)
		}
		fmt.Println("Migration state cleared successfully.")
	},
}

// storeExportCmd exports migration state to Parquet files.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export migration state to Parquet for BI tools and analytics",
	Long: `Export units, batches and projects to Parquet files.

Requires: --output-file parameter

Examples:
  waypoint store export --output-file waypoint
  duckdb -c "SELECT status, count(*) FROM read_parquet('waypoint.units.parquet') GROUP BY 1"`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iostore.ExecuteExport(rootCtx, os.Stdout, iostore.Manager.GetMigrationStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export migration state", err)
		}
	},
}

// storeMigrateCmd runs database migrations for the store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions of the migration store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  waypoint store migrate

  # Rollback to initial state
  waypoint store migrate --target-version 0`,
	PreRunE: storeRawSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		result, err := iostore.Migrate(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		if !result.Changed {
			fmt.Printf("Schema already at version %d.\n", result.To)
			return
		}
		fmt.Printf("Migrated schema from version %d to %d.\n", result.From, result.To)
	},
}
