package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(output schema.OutputMode, outputFile string) *contract.Config {
	cfg := contract.NewDefaultConfig()
	cfg.Output = output
	cfg.OutputFile = outputFile
	cfg.UseColors = false
	cfg.Width = 120
	return cfg
}

func sampleSnapshot() schema.ProgressSnapshot {
	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	eta := first.Add(2 * time.Hour)
	return schema.ProgressSnapshot{
		ProjectID:        "p1",
		WorkspaceID:      "ws1",
		Status:           schema.ProjectMigrating,
		Total:            3,
		Migrated:         1,
		Pending:          2,
		InProgress:       1,
		Percent:          100.0 / 3,
		FirstCompletedAt: &first,
		ETA:              &eta,
	}
}

func sampleUnits() []schema.UnitSummary {
	return []schema.UnitSummary{
		{ID: "u1", Path: "BLL/OrderService.cs", Kind: schema.KindBusinessLogic, Complexity: 2, Status: schema.StatusCompleted, Artifacts: 2},
		{ID: "u2", Path: "DAL/OrderRepository.cs", Kind: schema.KindDataAccess, Complexity: 4, Status: schema.StatusFailed, LastError: "uses a stored procedure"},
	}
}

func readOutput(t *testing.T, file string) string {
	t.Helper()
	content, err := os.ReadFile(file)
	require.NoError(t, err)
	return string(content)
}

func TestWriteUnits(t *testing.T) {
	ow := NewOutWriter()
	dir := t.TempDir()

	t.Run("text", func(t *testing.T) {
		out := filepath.Join(dir, "units.txt")
		require.NoError(t, ow.WriteUnits(sampleUnits(), testConfig(schema.TextOut, out)))
		text := readOutput(t, out)
		assert.Contains(t, text, "DAL/OrderRepository.cs")
		assert.Contains(t, text, "uses a stored procedure")
		assert.Contains(t, text, "Showing 2 units")
	})

	t.Run("json", func(t *testing.T) {
		out := filepath.Join(dir, "units.json")
		require.NoError(t, ow.WriteUnits(sampleUnits(), testConfig(schema.JSONOut, out)))
		var decoded []schema.UnitSummary
		require.NoError(t, json.Unmarshal([]byte(readOutput(t, out)), &decoded))
		assert.Equal(t, sampleUnits()[1].LastError, decoded[1].LastError)
	})

	t.Run("csv", func(t *testing.T) {
		out := filepath.Join(dir, "units.csv")
		require.NoError(t, ow.WriteUnits(sampleUnits(), testConfig(schema.CSVOut, out)))
		records, err := csv.NewReader(strings.NewReader(readOutput(t, out))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "unit_id", records[0][0])
		assert.Equal(t, []string{"u2", "DAL/OrderRepository.cs", "data-access", "4", "failed", "0", "uses a stored procedure", "-"}, records[2])
	})
}

func TestWriteProgress(t *testing.T) {
	ow := NewOutWriter()
	dir := t.TempDir()

	out := filepath.Join(dir, "status.txt")
	require.NoError(t, ow.WriteProgress(sampleSnapshot(), testConfig(schema.TextOut, out)))
	text := readOutput(t, out)
	assert.Contains(t, text, "1 / 3")
	assert.Contains(t, text, "33.3%")
	assert.Contains(t, text, "migrating")
	assert.Contains(t, text, "2026-03-01T11:00:00Z")

	out = filepath.Join(dir, "status.csv")
	require.NoError(t, ow.WriteProgress(sampleSnapshot(), testConfig(schema.CSVOut, out)))
	records, err := csv.NewReader(strings.NewReader(readOutput(t, out))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, progressHeader, records[0])
	assert.Equal(t, "33.3", records[1][8])
}

func TestWriteRetried(t *testing.T) {
	out := filepath.Join(t.TempDir(), "retry.json")
	require.NoError(t, NewOutWriter().WriteRetried(2, sampleSnapshot(), testConfig(schema.JSONOut, out)))
	var decoded struct {
		Retried  int                     `json:"retried"`
		Progress schema.ProgressSnapshot `json:"progress"`
	}
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, out)), &decoded))
	assert.Equal(t, 2, decoded.Retried)
	assert.Equal(t, "p1", decoded.Progress.ProjectID)
}

func TestWriteWorkspace(t *testing.T) {
	ws := schema.Workspace{
		ID:                  "ws1",
		RootPath:            "/src/shop",
		ProjectName:         "shop",
		TotalUnits:          3,
		KindHistogram:       map[schema.UnitKind]int{schema.KindDataAccess: 2, schema.KindModel: 1},
		ComplexityHistogram: map[int]int{3: 1, 1: 2},
		Architecture:        schema.ArchitectureSummary{Pattern: schema.PatternPartial, Evidence: []string{"no business layer"}},
	}
	dir := t.TempDir()

	out := filepath.Join(dir, "scan.txt")
	require.NoError(t, NewOutWriter().WriteWorkspace(ws, testConfig(schema.TextOut, out), time.Second))
	text := readOutput(t, out)
	assert.Contains(t, text, "Complexity: 1:2 3:1")
	assert.Contains(t, text, "no business layer")
	assert.Contains(t, text, "partial")

	out = filepath.Join(dir, "scan.csv")
	require.NoError(t, NewOutWriter().WriteWorkspace(ws, testConfig(schema.CSVOut, out), time.Second))
	records, err := csv.NewReader(strings.NewReader(readOutput(t, out))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"kind", "units", "layer", "migratable"},
		{"data-access", "2", "data", "true"},
		{"model", "1", "model", "false"},
	}, records)
}

func TestWriteNextUnit(t *testing.T) {
	dir := t.TempDir()
	result := schema.NextUnitResult{
		Unit:    &schema.SourceUnit{ID: "u2", Path: "DAL/OrderRepository.cs", Kind: schema.KindDataAccess, Complexity: 4, Status: schema.StatusInProgress},
		Content: "public class OrderRepository { }",
		Context: &schema.UnitContext{
			Related: []schema.ContextItem{{UnitID: "u1", Path: "BLL/OrderService.cs", Score: 110, Reasons: []string{"same-stem-cross-layer", "shared-type"}, Source: schema.SourceUnitContext}},
			Dependencies: schema.DependencyStatus{Pending: []string{"Customer"}},
			Cycles:       []schema.Cycle{{UnitIDs: []string{"u2", "u3"}, Paths: []string{"DAL/A.cs", "DAL/B.cs"}}},
			BatchIDs:     []string{"b1"},
		},
		Progress: sampleSnapshot(),
	}

	out := filepath.Join(dir, "next.txt")
	require.NoError(t, NewOutWriter().WriteNextUnit(result, testConfig(schema.TextOut, out)))
	text := readOutput(t, out)
	assert.Contains(t, text, "BLL/OrderService.cs")
	assert.Contains(t, text, "Pending dependencies: Customer")
	assert.Contains(t, text, "DAL/A.cs -> DAL/B.cs -> DAL/A.cs")
	assert.Contains(t, text, "public class OrderRepository { }")

	out = filepath.Join(dir, "next.json")
	require.NoError(t, NewOutWriter().WriteNextUnit(result, testConfig(schema.JSONOut, out)))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, out)), &decoded))
	assert.Equal(t, "public class OrderRepository { }", decoded["content"])

	done := schema.NextUnitResult{Done: true, Progress: sampleSnapshot()}
	out = filepath.Join(dir, "done.txt")
	require.NoError(t, NewOutWriter().WriteNextUnit(done, testConfig(schema.TextOut, out)))
	assert.Contains(t, readOutput(t, out), "No pending units left")
}

func TestWriteBatches(t *testing.T) {
	batches := []schema.Batch{
		{ID: "b1", Seq: 1, Cost: 80, Members: []schema.BatchMember{
			{UnitID: "u1", Path: "BLL/OrderService.cs", Part: 1, Parts: 1, Cost: 40},
			{UnitID: "u2", Path: "DAL/OrderRepository.cs", Part: 1, Parts: 1, Cost: 40},
		}},
		{ID: "b2", Seq: 2, Cost: 60, Processed: true, Errors: []string{"budget-overflow: Web/Big.aspx.cs"}, Members: []schema.BatchMember{
			{UnitID: "u3", Path: "Web/Big.aspx.cs", Part: 2, Parts: 3, Label: "Page_Load", Cost: 60},
		}},
	}
	dir := t.TempDir()

	out := filepath.Join(dir, "batches.txt")
	require.NoError(t, NewOutWriter().WriteBatches(batches, testConfig(schema.TextOut, out)))
	text := readOutput(t, out)
	assert.Contains(t, text, "Web/Big.aspx.cs (2/3: Page_Load)")
	assert.Contains(t, text, "budget-overflow")
	assert.Contains(t, text, "Planned 2 batches (total cost: 140")

	out = filepath.Join(dir, "batches.csv")
	require.NoError(t, NewOutWriter().WriteBatches(batches, testConfig(schema.CSVOut, out)))
	records, err := csv.NewReader(strings.NewReader(readOutput(t, out))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 4)
	assert.Equal(t, []string{"b2", "2", "u3", "Web/Big.aspx.cs", "2", "3", "Page_Load", "60", "true"}, records[3])
}

func TestWriteCycles(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, cyclesView(nil).table(&buf))
	assert.Contains(t, buf.String(), "No reference cycles")

	buf.Reset()
	cycles := []schema.Cycle{{UnitIDs: []string{"a", "b"}, Paths: []string{"BLL/A.cs", "BLL/B.cs"}}}
	require.NoError(t, cyclesView(cycles).table(&buf))
	assert.Contains(t, buf.String(), "BLL/A.cs -> BLL/B.cs -> BLL/A.cs")
}

func TestWriteProject(t *testing.T) {
	p := schema.MigrationProject{ID: "p1", WorkspaceID: "ws1", DataRoot: "/out/data", BusinessRoot: "/out/business", Status: schema.ProjectReady}
	out := filepath.Join(t.TempDir(), "project.json")
	require.NoError(t, NewOutWriter().WriteProject(p, 4, testConfig(schema.JSONOut, out)))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, out)), &decoded))
	assert.Equal(t, "ready-for-migration", decoded["status"])
	assert.InDelta(t, 4, decoded["batches"], 0)
}

func TestGetMaxTablePathWidth(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		reserved int
		expected int
	}{
		{"wide terminal is capped", 300, unitColumnsWidth, 70},
		{"narrow terminal has a floor", 60, unitColumnsWidth, 15},
		{"room in between", 140, unitColumnsWidth, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &contract.Config{Width: tt.width}
			assert.Equal(t, tt.expected, GetMaxTablePathWidth(cfg, tt.reserved))
		})
	}
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "abc...", truncate("abcdefghij", 6))
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "[###############...............]", progressBar(50))
	assert.Equal(t, "[..............................]", progressBar(-5))
	assert.Equal(t, "A.cs", memberLabel(schema.BatchMember{Path: "A.cs", Part: 1, Parts: 1}))
	assert.Equal(t, "A.cs (1/2)", memberLabel(schema.BatchMember{Path: "A.cs", Part: 1, Parts: 2}))
	assert.Equal(t, "-", formatComplexityHistogram(nil))
}
