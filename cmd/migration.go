package cmd

import (
	"fmt"
	"strings"

	"github.com/huangsam/waypoint/core"
	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
	"github.com/spf13/cobra"
)

// scanCmd classifies a legacy source tree into a workspace.
var scanCmd = &cobra.Command{
	Use:   "scan [root]",
	Short: "Scan a legacy source tree and classify every file",
	Long: `Walk the legacy tree, classify each source file by kind and layer and
store the result as a new workspace.

Classification uses folder and file naming conventions first and falls back
to the declared types of a file when the name is ambiguous.

Examples:
  # Scan the current directory
  waypoint scan

  # Scan a tree without descending into subdirectories
  waypoint scan ./LegacyApp --recurse=false

  # Scan VB.NET sources only
  waypoint scan ./LegacyApp --extensions .vb,.aspx`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(_ *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		return sharedSetup(rootCtx, root)
	},
	Run: func(_ *cobra.Command, _ []string) {
		run(core.ExecuteScan, core.Request{Target: cfg.RootPath}, "Failed to scan workspace")
	},
}

// startCmd creates the migration project of a workspace.
var startCmd = &cobra.Command{
	Use:   "start [workspace-id]",
	Short: "Start migrating a workspace and plan its batches",
	Long: `Create the migration project of a workspace, resolve its output roots and
plan budget-bounded batches over the migratable units.

Starting twice is safe: the existing project is returned unchanged.
Without a workspace id, the most recent scan is used.

Examples:
  waypoint start
  waypoint start 1c7d... --data-root ./out/data --business-root ./out/business`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		run(core.ExecuteStart, core.Request{Target: optionalArg(args)}, "Failed to start migration")
	},
}

// nextCmd claims the next pending unit.
var nextCmd = &cobra.Command{
	Use:   "next [project]",
	Short: "Claim the next pending unit with its migration context",
	Long: `Claim the next pending unit in dependency order and print its source
together with related completed units, recent artifacts and dependencies.

Examples:
  waypoint next
  waypoint next --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		run(core.ExecuteNext, core.Request{Target: optionalArg(args)}, "Failed to claim next unit")
	},
}

// completeCmd records a migrated unit.
var completeCmd = &cobra.Command{
	Use:   "complete <unit-id>",
	Short: "Mark a unit completed once its artifacts are written",
	Long: `Mark a unit completed. At least one artifact must have been written under
the output roots recently, otherwise the unit is marked failed.

Examples:
  waypoint complete 5f0e... --notes "ported to repository pattern"`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		project, _ := cmd.Flags().GetString("project")
		notes, _ := cmd.Flags().GetString("notes")
		run(core.ExecuteComplete, core.Request{Target: project, UnitID: args[0], Message: notes}, "Failed to complete unit")
	},
}

// failCmd records a unit that could not be migrated.
var failCmd = &cobra.Command{
	Use:   "fail <unit-id>",
	Short: "Mark a unit failed with a reason",
	Long: `Mark a pending or in-progress unit failed. Failed units can be returned
to pending with the retry command.

Examples:
  waypoint fail 5f0e... --reason "depends on a COM component"`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		project, _ := cmd.Flags().GetString("project")
		reason, _ := cmd.Flags().GetString("reason")
		run(core.ExecuteFail, core.Request{Target: project, UnitID: args[0], Message: reason}, "Failed to fail unit")
	},
}

// retryCmd returns failed units to pending.
var retryCmd = &cobra.Command{
	Use:   "retry [unit-id]",
	Short: "Return failed units to pending",
	Long: `Return every failed unit of a project to pending, or only the given unit.

Examples:
  waypoint retry
  waypoint retry 5f0e...`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		project, _ := cmd.Flags().GetString("project")
		run(core.ExecuteRetry, core.Request{Target: project, UnitID: optionalArg(args)}, "Failed to retry units")
	},
}

// statusCmd prints migration progress.
var statusCmd = &cobra.Command{
	Use:     "status [project]",
	Short:   "Show migration progress and ETA",
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		run(core.ExecuteStatus, core.Request{Target: optionalArg(args)}, "Failed to get migration status")
	},
}

// listCmd prints the units of a project.
var listCmd = &cobra.Command{
	Use:   "list [project]",
	Short: "List the units of a project",
	Long: `List units with their kind, layer, complexity and status.

Examples:
  waypoint list --status failed
  waypoint list --kind data-access,business-logic --path-prefix DAL/`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		filter, err := unitFilterFromFlags(cmd)
		if err != nil {
			contract.LogFatal("Invalid list filter", err)
		}
		run(core.ExecuteList, core.Request{Target: optionalArg(args), Filter: filter}, "Failed to list units")
	},
}

// batchesCmd prints the batch plan of a workspace.
var batchesCmd = &cobra.Command{
	Use:     "batches [workspace-id]",
	Short:   "Plan or show the budget-bounded batches of a workspace",
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		run(core.ExecuteBatches, core.Request{Target: optionalArg(args)}, "Failed to plan batches")
	},
}

// relatedCmd prints the migration context of a unit without claiming it.
var relatedCmd = &cobra.Command{
	Use:     "related <unit-id>",
	Short:   "Show related units and dependencies of a unit",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		project, _ := cmd.Flags().GetString("project")
		run(core.ExecuteRelated, core.Request{Target: project, UnitID: args[0]}, "Failed to build unit context")
	},
}

// cyclesCmd prints reference cycles among outstanding units.
var cyclesCmd = &cobra.Command{
	Use:     "cycles [project]",
	Short:   "Report reference cycles among outstanding units",
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		run(core.ExecuteCycles, core.Request{Target: optionalArg(args)}, "Failed to detect cycles")
	},
}

// unitFilterFromFlags parses the filter flags of the list command.
func unitFilterFromFlags(cmd *cobra.Command) (schema.UnitFilter, error) {
	var filter schema.UnitFilter
	statuses, _ := cmd.Flags().GetString("status")
	kinds, _ := cmd.Flags().GetString("kind")
	filter.PathPrefix, _ = cmd.Flags().GetString("path-prefix")
	filter.MigratableOnly, _ = cmd.Flags().GetBool("migratable-only")
	filter.Limit, _ = cmd.Flags().GetInt("limit")

	for _, s := range splitCSV(statuses) {
		status := schema.UnitStatus(strings.ToLower(s))
		if _, ok := schema.ValidUnitStatuses[status]; !ok {
			return filter, fmt.Errorf("unknown status %q", s)
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, k := range splitCSV(kinds) {
		kind := schema.UnitKind(strings.ToLower(k))
		if _, ok := schema.ValidUnitKinds[kind]; !ok {
			return filter, fmt.Errorf("unknown kind %q", k)
		}
		filter.Kinds = append(filter.Kinds, kind)
	}
	if filter.Limit < 0 {
		return filter, fmt.Errorf("limit cannot be negative (received %d)", filter.Limit)
	}
	return filter, nil
}

func splitCSV(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
