package outwriter

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
	"github.com/olekukonko/tablewriter/tw"
)

// workspaceView renders a scan result with its kind histogram.
func workspaceView(ws schema.Workspace, cfg *contract.Config, duration time.Duration) view {
	var rows [][]string
	for _, kind := range schema.AllUnitKinds {
		n, ok := ws.KindHistogram[kind]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			string(kind),
			strconv.Itoa(n),
			string(kind.Layer()),
			strconv.FormatBool(kind.Migratable()),
		})
	}

	return view{
		data:   ws,
		header: []string{"kind", "units", "layer", "migratable"},
		rows:   rows,
		table: func(w io.Writer) error {
			if err := renderFields(w, [][2]string{
				{"Workspace", ws.ID},
				{"Root", ws.RootPath},
				{"Project", ws.ProjectName},
				{"Units", strconv.Itoa(ws.TotalUnits)},
				{"Migratable", strconv.Itoa(ws.MigratableUnits())},
				{"Architecture", string(ws.Architecture.Pattern)},
				{"Scan errors", strconv.Itoa(ws.ScanErrorCount)},
			}); err != nil {
				return err
			}
			if err := renderTable(w, []string{"Kind", "Units", "Layer", "Migratable"}, rows, tw.AlignRight); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "Complexity: %s\n", formatComplexityHistogram(ws.ComplexityHistogram)); err != nil {
				return err
			}
			for _, e := range ws.Architecture.Evidence {
				if _, err := fmt.Fprintf(w, "  - %s\n", e); err != nil {
					return err
				}
			}
			for _, e := range ws.ScanErrors {
				if _, err := fmt.Fprintf(w, "⚠️  %s\n", e); err != nil {
					return err
				}
			}
			_, err := fmt.Fprintf(w, "Scan completed in %v with %d workers. Store backend: %s\n",
				duration.Round(time.Millisecond), cfg.Workers, cfg.StoreBackend)
			return err
		},
	}
}

// formatComplexityHistogram renders "1:n1 2:n2 ..." in score order.
func formatComplexityHistogram(hist map[int]int) string {
	scores := make([]int, 0, len(hist))
	for score := range hist {
		scores = append(scores, score)
	}
	slices.Sort(scores)
	parts := make([]string, 0, len(scores))
	for _, score := range scores {
		parts = append(parts, fmt.Sprintf("%d:%d", score, hist[score]))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

// projectView renders a migration project.
func projectView(p schema.MigrationProject, batches int, cfg *contract.Config) view {
	record := []string{
		p.ID,
		p.WorkspaceID,
		string(p.Status),
		p.DataRoot,
		p.BusinessRoot,
		strconv.Itoa(batches),
		formatTime(p.CreatedAt),
	}
	return view{
		data: struct {
			schema.MigrationProject
			Batches int `json:"batches"`
		}{p, batches},
		header: []string{"project_id", "workspace_id", "status", "data_root", "business_root", "batches", "created_at"},
		rows:   [][]string{record},
		table: func(w io.Writer) error {
			return renderFields(w, [][2]string{
				{"Project", p.ID},
				{"Workspace", p.WorkspaceID},
				{"Status", projectLabel(p.Status, cfg)},
				{"Data root", p.DataRoot},
				{"Business root", p.BusinessRoot},
				{"Batches", strconv.Itoa(batches)},
				{"Created", formatTime(p.CreatedAt)},
			})
		},
	}
}
