// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const projectDescription = "Project id or workspace id (defaults to the most recently started project)."

// NewMCPServer initializes and configures the Waypoint MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Waypoint Migration Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: scan_workspace ---
	s.AddTool(mcp.NewTool("scan_workspace",
		mcp.WithDescription("Scan a legacy source tree, classify every file and store the result as a workspace."),
		mcp.WithString("root_path", mcp.Description("Root directory of the legacy application."), mcp.Required()),
	), h.handleScanWorkspace)

	// --- 2. Tool: start_migration ---
	s.AddTool(mcp.NewTool("start_migration",
		mcp.WithDescription("Create the migration project of a workspace and plan its batches. Idempotent per workspace."),
		mcp.WithString("workspace_id", mcp.Description("Workspace returned by scan_workspace."), mcp.Required()),
		mcp.WithString("data_root", mcp.Description("Output root for the data layer (defaults to <root>/migrated/data).")),
		mcp.WithString("business_root", mcp.Description("Output root for the business layer (defaults to <root>/migrated/business).")),
		mcp.WithNumber("budget", mcp.Description("Batch budget in abstract resource units.")),
		mcp.WithBoolean("create_outputs", mcp.Description("Create missing output roots.")),
	), h.handleStartMigration)

	// --- 3. Tool: next_unit ---
	s.AddTool(mcp.NewTool("next_unit",
		mcp.WithDescription("Claim the next pending unit and return its content with related context and progress."),
		mcp.WithString("project", mcp.Description(projectDescription)),
	), h.handleNextUnit)

	// --- 4. Tool: complete_unit ---
	s.AddTool(mcp.NewTool("complete_unit",
		mcp.WithDescription("Mark a unit completed. Artifacts must have been written under the output roots recently."),
		mcp.WithString("unit_id", mcp.Description("Unit returned by next_unit."), mcp.Required()),
		mcp.WithString("notes", mcp.Description("Free-form notes about the migration.")),
		mcp.WithString("project", mcp.Description(projectDescription)),
	), h.handleCompleteUnit)

	// --- 5. Tool: fail_unit ---
	s.AddTool(mcp.NewTool("fail_unit",
		mcp.WithDescription("Mark a unit failed with a reason so it can be retried later."),
		mcp.WithString("unit_id", mcp.Description("Unit to fail."), mcp.Required()),
		mcp.WithString("reason", mcp.Description("Why the unit could not be migrated."), mcp.Required()),
		mcp.WithString("project", mcp.Description(projectDescription)),
	), h.handleFailUnit)

	// --- 6. Tool: retry_failed ---
	s.AddTool(mcp.NewTool("retry_failed",
		mcp.WithDescription("Return failed units to pending. Retries one unit when unit_id is given, otherwise all."),
		mcp.WithString("unit_id", mcp.Description("Single failed unit to retry.")),
		mcp.WithString("project", mcp.Description(projectDescription)),
	), h.handleRetryFailed)

	// --- 7. Tool: migration_status ---
	s.AddTool(mcp.NewTool("migration_status",
		mcp.WithDescription("Report migration progress, percent complete and ETA."),
		mcp.WithString("project", mcp.Description(projectDescription)),
	), h.handleMigrationStatus)

	// --- 8. Tool: list_units ---
	s.AddTool(mcp.NewTool("list_units",
		mcp.WithDescription("List units of a project, optionally filtered."),
		mcp.WithString("project", mcp.Description(projectDescription)),
		mcp.WithString("status", mcp.Description("Comma-separated statuses (pending, in-progress, completed, failed).")),
		mcp.WithString("kind", mcp.Description("Comma-separated unit kinds.")),
		mcp.WithString("path_prefix", mcp.Description("Only units whose path starts with this prefix.")),
		mcp.WithBoolean("migratable_only", mcp.Description("Skip unknown and model units.")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of units returned.")),
	), h.handleListUnits)

	// --- 9. Tool: plan_batches ---
	s.AddTool(mcp.NewTool("plan_batches",
		mcp.WithDescription("Partition outstanding units into budget-bounded batches. Existing plans are returned unchanged."),
		mcp.WithString("workspace_id", mcp.Description("Workspace to plan (defaults to the latest scan).")),
		mcp.WithNumber("budget", mcp.Description("Batch budget in abstract resource units.")),
		mcp.WithBoolean("include_content", mcp.Description("Include the assembled text of every batch.")),
	), h.handlePlanBatches)

	// --- 10. Tool: related_units ---
	s.AddTool(mcp.NewTool("related_units",
		mcp.WithDescription("Rank completed units and recent artifacts related to a unit without claiming it."),
		mcp.WithString("unit_id", mcp.Description("Unit to build context for."), mcp.Required()),
		mcp.WithString("project", mcp.Description(projectDescription)),
	), h.handleRelatedUnits)

	// --- 11. Tool: detect_cycles ---
	s.AddTool(mcp.NewTool("detect_cycles",
		mcp.WithDescription("Report reference cycles among outstanding units. Advisory only."),
		mcp.WithString("project", mcp.Description(projectDescription)),
	), h.handleDetectCycles)

	return s
}

// StartMCPServer starts the Waypoint MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
