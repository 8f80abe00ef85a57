// Package cmd defines the command-line interface for waypoint.
package cmd

import (
	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(failCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(batchesCmd)
	rootCmd.AddCommand(relatedCmd)
	rootCmd.AddCommand(cyclesCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storeExportCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().Int("budget", contract.DefaultBudget, "Batch budget in abstract resource units")
	rootCmd.PersistentFlags().Int("related-limit", contract.DefaultRelatedLimit, "Maximum number of related units in a context")
	rootCmd.PersistentFlags().Int("related-floor", contract.DefaultRelatedFloor, "Minimum related units before the evidence window widens")
	rootCmd.PersistentFlags().String("evidence-window", contract.DefaultEvidenceWindow.String(), "How recent an artifact must be to count as evidence")
	rootCmd.PersistentFlags().String("evidence-widened-window", contract.DefaultEvidenceWidenedWindow.String(), "Evidence window used when too few artifacts are recent")
	rootCmd.PersistentFlags().Int("cache-size", contract.DefaultCacheSize, "Number of parsed units kept in memory")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of scanCmd to Viper
	scanCmd.Flags().Bool("recurse", true, "Descend into subdirectories")
	scanCmd.Flags().String("extensions", "", "Comma-separated list of source extensions to scan")
	scanCmd.Flags().String("exclude", "", "Comma-separated list of path prefixes or patterns to ignore")
	scanCmd.Flags().String("scan-timeout", contract.DefaultScanTimeout.String(), "Upper bound on the duration of a scan")
	scanCmd.Flags().String("naming-strategy", "", "Path to a YAML file overriding the classification rules")
	if err := viper.BindPFlags(scanCmd.Flags()); err != nil {
		contract.LogFatal("Error binding scan flags", err)
	}

	// Bind all flags of startCmd to Viper
	startCmd.Flags().String("data-root", "", "Output root for the data layer (default <root>/migrated/data)")
	startCmd.Flags().String("business-root", "", "Output root for the business layer (default <root>/migrated/business)")
	startCmd.Flags().Bool("create-outputs", true, "Create missing output roots")
	if err := viper.BindPFlags(startCmd.Flags()); err != nil {
		contract.LogFatal("Error binding start flags", err)
	}

	// Unit commands take the project as a flag since the unit is positional
	for _, c := range []*cobra.Command{completeCmd, failCmd, retryCmd, relatedCmd} {
		c.Flags().String("project", "", "Project id or workspace id (defaults to the latest project)")
	}
	completeCmd.Flags().String("notes", "", "Free-form notes about the migration")
	failCmd.Flags().String("reason", "", "Why the unit could not be migrated")
	_ = failCmd.MarkFlagRequired("reason")

	// Filters of listCmd are command-local
	listCmd.Flags().String("status", "", "Comma-separated statuses (pending, in-progress, completed, failed)")
	listCmd.Flags().String("kind", "", "Comma-separated unit kinds")
	listCmd.Flags().String("path-prefix", "", "Only units whose path starts with this prefix")
	listCmd.Flags().Bool("migratable-only", false, "Skip unknown and model units")
	listCmd.Flags().IntP("limit", "l", 0, "Maximum number of units to display (0 = all)")

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}
