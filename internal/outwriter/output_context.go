package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
	"github.com/olekukonko/tablewriter/tw"
)

// contextView renders the related units, dependencies and cycles of a unit.
func contextView(uc schema.UnitContext, cfg *contract.Config) view {
	records := make([][]string, 0, len(uc.Related))
	for i, item := range uc.Related {
		records = append(records, []string{
			strconv.Itoa(i + 1),
			item.UnitID,
			item.Path,
			string(item.Kind),
			strconv.Itoa(item.Score),
			strings.Join(item.Reasons, "|"),
			string(item.Source),
		})
	}
	return view{
		data:   uc,
		header: []string{"rank", "unit_id", "path", "kind", "score", "reasons", "source"},
		rows:   records,
		table: func(w io.Writer) error {
			return writeContextTable(w, uc, cfg)
		},
	}
}

// writeContextTable writes the human-readable form of a unit context.
func writeContextTable(w io.Writer, uc schema.UnitContext, cfg *contract.Config) error {
	if len(uc.Related) == 0 {
		if _, err := fmt.Fprintln(w, "No related units or recent artifacts"); err != nil {
			return err
		}
	} else {
		pathWidth := GetMaxTablePathWidth(cfg, relatedColumnsWidth)
		rows := make([][]string, 0, len(uc.Related))
		for _, item := range uc.Related {
			rows = append(rows, []string{
				strconv.Itoa(item.Score),
				string(item.Source),
				contract.TruncatePath(item.Path, pathWidth),
				string(item.Kind),
				strings.Join(item.Reasons, ", "),
			})
		}
		if err := renderTable(w, []string{"Score", "Source", "Path", "Kind", "Reasons"}, rows, tw.AlignLeft); err != nil {
			return err
		}
	}

	deps := uc.Dependencies
	for _, line := range [][2]string{
		{"Migrated dependencies", strings.Join(deps.Migrated, ", ")},
		{"Pending dependencies", strings.Join(deps.Pending, ", ")},
		{"Unresolved references", strings.Join(deps.Unresolved, ", ")},
		{"Batches", strings.Join(uc.BatchIDs, ", ")},
	} {
		if line[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", line[0], line[1]); err != nil {
			return err
		}
	}
	for _, c := range uc.Cycles {
		if _, err := fmt.Fprintf(w, "⚠️  Reference cycle: %s\n", formatCycle(c)); err != nil {
			return err
		}
	}
	return nil
}

// formatCycle renders a cycle as a closed path.
func formatCycle(c schema.Cycle) string {
	if len(c.Paths) == 0 {
		return ""
	}
	return strings.Join(append(append([]string{}, c.Paths...), c.Paths[0]), " -> ")
}

// cyclesView renders reference cycles among outstanding units.
func cyclesView(cycles []schema.Cycle) view {
	records := make([][]string, 0, len(cycles))
	for i, c := range cycles {
		records = append(records, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(len(c.Paths)),
			strings.Join(c.UnitIDs, "|"),
			strings.Join(c.Paths, "|"),
		})
	}
	return view{
		data:   cycles,
		header: []string{"cycle", "length", "unit_ids", "paths"},
		rows:   records,
		table: func(w io.Writer) error {
			if len(cycles) == 0 {
				_, err := fmt.Fprintln(w, "No reference cycles among outstanding units")
				return err
			}
			rows := make([][]string, 0, len(cycles))
			for i, c := range cycles {
				rows = append(rows, []string{strconv.Itoa(i + 1), strconv.Itoa(len(c.Paths)), formatCycle(c)})
			}
			return renderTable(w, []string{"#", "Length", "Cycle"}, rows, tw.AlignLeft)
		},
	}
}
