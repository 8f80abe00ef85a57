package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/huangsam/waypoint/core"
	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/internal/probe"
	"github.com/huangsam/waypoint/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager

	once sync.Once
	orch *core.Orchestrator
	err  error
}

// orchestrator builds the shared orchestrator on first use, so its caches
// live as long as the server.
func (h *toolHandler) orchestrator() (*core.Orchestrator, error) {
	h.once.Do(func() {
		if h.mgr == nil {
			h.err = contract.NewOpError(contract.KindStore, "", "migration store is not initialized", nil)
			return
		}
		h.orch, h.err = core.New(h.baseCfg, h.mgr.GetMigrationStore(), probe.New())
	})
	return h.orch, h.err
}

// respond renders an operation outcome as an envelope. Failures become MCP
// error results carrying the failure envelope.
func respond(data any, err error) (*mcp.CallToolResult, error) {
	env := core.Envelop(data, err)
	body, marshalErr := json.MarshalIndent(env, "", "  ")
	if marshalErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", marshalErr)), nil
	}
	if !env.OK {
		return mcp.NewToolResultError(string(body)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

// invalid reports a missing or malformed argument.
func invalid(op string, err error) (*mcp.CallToolResult, error) {
	return respond(nil, contract.NewOpError(contract.KindInvalidInput, op, "invalid arguments", err))
}

// call resolves the orchestrator and runs fn against it.
func call[T any](h *toolHandler, fn func(*core.Orchestrator) (T, error)) (*mcp.CallToolResult, error) {
	o, err := h.orchestrator()
	if err != nil {
		return respond(nil, err)
	}
	data, err := fn(o)
	return respond(data, err)
}

// splitList parses a comma-separated argument.
func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (h *toolHandler) handleScanWorkspace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := request.RequireString("root_path")
	if err != nil {
		return invalid("scan", err)
	}
	return call(h, func(o *core.Orchestrator) (schema.Workspace, error) {
		return o.Scan(ctx, root)
	})
}

func (h *toolHandler) handleStartMigration(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspaceID, err := request.RequireString("workspace_id")
	if err != nil {
		return invalid("start", err)
	}
	opts := core.StartOptions{
		DataRoot:      request.GetString("data_root", h.baseCfg.DataRoot),
		BusinessRoot:  request.GetString("business_root", h.baseCfg.BusinessRoot),
		Budget:        request.GetInt("budget", h.baseCfg.Budget),
		CreateOutputs: request.GetBool("create_outputs", h.baseCfg.CreateOutputs),
	}
	return call(h, func(o *core.Orchestrator) (schema.MigrationProject, error) {
		return o.Start(ctx, workspaceID, opts)
	})
}

func (h *toolHandler) handleNextUnit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := request.GetString("project", "")
	return call(h, func(o *core.Orchestrator) (schema.NextUnitResult, error) {
		return o.NextUnit(ctx, project)
	})
}

func (h *toolHandler) handleCompleteUnit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	unitID, err := request.RequireString("unit_id")
	if err != nil {
		return invalid("complete", err)
	}
	project := request.GetString("project", "")
	notes := request.GetString("notes", "")
	return call(h, func(o *core.Orchestrator) (schema.ProgressSnapshot, error) {
		return o.CompleteUnit(ctx, project, unitID, notes)
	})
}

func (h *toolHandler) handleFailUnit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	unitID, err := request.RequireString("unit_id")
	if err != nil {
		return invalid("fail", err)
	}
	reason, err := request.RequireString("reason")
	if err != nil {
		return invalid("fail", err)
	}
	project := request.GetString("project", "")
	return call(h, func(o *core.Orchestrator) (schema.ProgressSnapshot, error) {
		return o.FailUnit(ctx, project, unitID, reason)
	})
}

// retryResult is the payload of retry_failed.
type retryResult struct {
	Retried  int                     `json:"retried"`
	Progress schema.ProgressSnapshot `json:"progress"`
}

func (h *toolHandler) handleRetryFailed(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := request.GetString("project", "")
	unitID := request.GetString("unit_id", "")
	return call(h, func(o *core.Orchestrator) (retryResult, error) {
		var result retryResult
		var err error
		if unitID != "" {
			if _, err = o.RetryUnit(ctx, project, unitID); err == nil {
				result.Retried = 1
			}
		} else {
			result.Retried, err = o.RetryFailed(ctx, project)
		}
		if err != nil {
			return result, err
		}
		result.Progress, err = o.Status(ctx, project)
		return result, err
	})
}

func (h *toolHandler) handleMigrationStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := request.GetString("project", "")
	return call(h, func(o *core.Orchestrator) (schema.ProgressSnapshot, error) {
		return o.Status(ctx, project)
	})
}

func (h *toolHandler) handleListUnits(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := request.GetString("project", "")
	filter := schema.UnitFilter{
		PathPrefix:     request.GetString("path_prefix", ""),
		MigratableOnly: request.GetBool("migratable_only", false),
		Limit:          request.GetInt("limit", 0),
	}
	for _, s := range splitList(request.GetString("status", "")) {
		status := schema.UnitStatus(strings.ToLower(s))
		if _, ok := schema.ValidUnitStatuses[status]; !ok {
			return invalid("list", fmt.Errorf("unknown status %q", s))
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, k := range splitList(request.GetString("kind", "")) {
		kind := schema.UnitKind(strings.ToLower(k))
		if _, ok := schema.ValidUnitKinds[kind]; !ok {
			return invalid("list", fmt.Errorf("unknown kind %q", k))
		}
		filter.Kinds = append(filter.Kinds, kind)
	}
	return call(h, func(o *core.Orchestrator) ([]schema.UnitSummary, error) {
		return o.ListUnits(ctx, project, filter)
	})
}

// batchWithContent exposes the assembled text of a batch.
type batchWithContent struct {
	schema.Batch
	Content string `json:"content,omitempty"`
}

func (h *toolHandler) handlePlanBatches(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspaceID := request.GetString("workspace_id", "")
	budget := request.GetInt("budget", h.baseCfg.Budget)
	withContent := request.GetBool("include_content", false)
	return call(h, func(o *core.Orchestrator) ([]batchWithContent, error) {
		batches, err := o.PlanBatches(ctx, workspaceID, budget)
		if err != nil {
			return nil, err
		}
		out := make([]batchWithContent, 0, len(batches))
		for _, b := range batches {
			item := batchWithContent{Batch: b}
			if withContent {
				item.Content = b.Content
			}
			out = append(out, item)
		}
		return out, nil
	})
}

func (h *toolHandler) handleRelatedUnits(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	unitID, err := request.RequireString("unit_id")
	if err != nil {
		return invalid("related", err)
	}
	project := request.GetString("project", "")
	return call(h, func(o *core.Orchestrator) (schema.UnitContext, error) {
		return o.Related(ctx, project, unitID)
	})
}

func (h *toolHandler) handleDetectCycles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := request.GetString("project", "")
	return call(h, func(o *core.Orchestrator) ([]schema.Cycle, error) {
		return o.Cycles(ctx, project)
	})
}
