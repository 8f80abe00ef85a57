package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/internal/iostore"
	mcp_internal "github.com/huangsam/waypoint/internal/mcp"
	"github.com/huangsam/waypoint/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envelope mirrors schema.Envelope with raw data for typed decoding.
type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *schema.Failure `json:"error"`
}

func newTestServer(t *testing.T) *server.MCPServer {
	t.Helper()
	store, err := iostore.NewMigrationStore(schema.NoneBackend, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	mgr := &iostore.MockStoreManager{}
	mgr.On("GetMigrationStore").Return(store)

	cfg := contract.NewDefaultConfig()
	cfg.Workers = 2
	return mcp_internal.NewMCPServer(cfg, mgr)
}

// callTool invokes a tool and decodes its envelope.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) (envelope, bool) {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "handlers report failures in the result, not as raw errors")
	require.NotEmpty(t, res.Content)

	var env envelope
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].(mcp.TextContent).Text), &env))
	assert.Equal(t, !res.IsError, env.OK)
	return env, res.IsError
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func writeLegacyTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range map[string]string{
		"DAL/OrderRepository.cs": "public class OrderRepository { public Order Find(int id) { return null; } }",
		"BLL/OrderService.cs":    "public class OrderService { private OrderRepository _repo; }",
	} {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	return root
}

func TestToolsAreRegistered(t *testing.T) {
	s := newTestServer(t)
	for _, name := range []string{
		"scan_workspace", "start_migration", "next_unit", "complete_unit", "fail_unit", "retry_failed",
		"migration_status", "list_units", "plan_batches", "related_units", "detect_cycles",
	} {
		assert.NotNil(t, s.GetTool(name), name)
	}
}

func TestMigrationOverMCP(t *testing.T) {
	s := newTestServer(t)
	root := writeLegacyTree(t)

	env, isErr := callTool(t, s, "scan_workspace", map[string]any{"root_path": root})
	require.False(t, isErr)
	ws := decode[schema.Workspace](t, env)
	assert.Equal(t, 2, ws.TotalUnits)

	env, isErr = callTool(t, s, "start_migration", map[string]any{"workspace_id": ws.ID, "create_outputs": true})
	require.False(t, isErr)
	project := decode[schema.MigrationProject](t, env)
	assert.Equal(t, schema.ProjectReady, project.Status)

	env, isErr = callTool(t, s, "plan_batches", map[string]any{"workspace_id": ws.ID, "include_content": true})
	require.False(t, isErr)
	batches := decode[[]struct {
		Seq     int    `json:"seq"`
		Content string `json:"content"`
	}](t, env)
	require.Len(t, batches, 1)
	assert.Contains(t, batches[0].Content, "// ---- BLL/OrderService.cs ----")

	env, isErr = callTool(t, s, "next_unit", map[string]any{})
	require.False(t, isErr)
	next := decode[schema.NextUnitResult](t, env)
	require.NotNil(t, next.Unit)
	assert.Equal(t, "BLL/OrderService.cs", next.Unit.Path)
	assert.Contains(t, next.Content, "class OrderService")

	env, isErr = callTool(t, s, "complete_unit", map[string]any{"unit_id": next.Unit.ID})
	require.True(t, isErr, "no artifact was written")
	assert.Equal(t, string(contract.KindEvidenceMissing), env.Error.Kind)
	assert.Equal(t, "complete", env.Error.Op)

	env, isErr = callTool(t, s, "retry_failed", map[string]any{"project": project.ID})
	require.False(t, isErr)
	retried := decode[struct {
		Retried int `json:"retried"`
	}](t, env)
	assert.Equal(t, 1, retried.Retried)

	env, isErr = callTool(t, s, "next_unit", map[string]any{"project": project.ID})
	require.False(t, isErr)
	next = decode[schema.NextUnitResult](t, env)
	require.NoError(t, os.WriteFile(filepath.Join(project.BusinessRoot, "order_service.go"), []byte("package bll\n"), 0o644))

	env, isErr = callTool(t, s, "complete_unit", map[string]any{"unit_id": next.Unit.ID, "notes": "ported"})
	require.False(t, isErr)
	snap := decode[schema.ProgressSnapshot](t, env)
	assert.Equal(t, 1, snap.Migrated)
	assert.InDelta(t, 50.0, snap.Percent, 0.001)

	env, isErr = callTool(t, s, "list_units", map[string]any{"status": "pending"})
	require.False(t, isErr)
	pending := decode[[]schema.UnitSummary](t, env)
	require.Len(t, pending, 1)
	assert.Equal(t, "DAL/OrderRepository.cs", pending[0].Path)

	env, isErr = callTool(t, s, "related_units", map[string]any{"unit_id": pending[0].ID})
	require.False(t, isErr)
	uc := decode[schema.UnitContext](t, env)
	require.NotEmpty(t, uc.Related)
	assert.Equal(t, "BLL/OrderService.cs", uc.Related[0].Path)

	env, isErr = callTool(t, s, "fail_unit", map[string]any{"unit_id": pending[0].ID, "reason": "needs a DBA"})
	require.False(t, isErr)
	assert.Equal(t, 1, decode[schema.ProgressSnapshot](t, env).Failed)

	env, isErr = callTool(t, s, "detect_cycles", map[string]any{})
	require.False(t, isErr)
	assert.Empty(t, decode[[]schema.Cycle](t, env))

	env, isErr = callTool(t, s, "migration_status", map[string]any{"project": ws.ID})
	require.False(t, isErr)
	assert.Equal(t, schema.ProjectFailed, decode[schema.ProgressSnapshot](t, env).Status)
}

func TestToolValidationErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		tool string
		args map[string]any
		kind contract.ErrorKind
	}{
		{"scan without root", "scan_workspace", map[string]any{}, contract.KindInvalidInput},
		{"start without workspace", "start_migration", map[string]any{}, contract.KindInvalidInput},
		{"fail without reason", "fail_unit", map[string]any{"unit_id": "u1"}, contract.KindInvalidInput},
		{"list with bad status", "list_units", map[string]any{"status": "done"}, contract.KindInvalidInput},
		{"list with bad kind", "list_units", map[string]any{"kind": "page"}, contract.KindInvalidInput},
		{"status before start", "migration_status", map[string]any{}, contract.KindNotFound},
		{"start with bad budget", "start_migration", map[string]any{"workspace_id": "ws", "budget": 0.0}, contract.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, isErr := callTool(t, s, tt.tool, tt.args)
			assert.True(t, isErr)
			require.NotNil(t, env.Error)
			assert.Equal(t, string(tt.kind), env.Error.Kind)
		})
	}
}

func TestMissingStoreManager(t *testing.T) {
	s := mcp_internal.NewMCPServer(contract.NewDefaultConfig(), nil)
	env, isErr := callTool(t, s, "migration_status", map[string]any{})
	assert.True(t, isErr)
	assert.Equal(t, string(contract.KindStore), env.Error.Kind)
}
