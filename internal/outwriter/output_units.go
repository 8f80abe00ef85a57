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

// maxErrorWidth bounds the last error column of unit tables.
const maxErrorWidth = 40

// unitsView renders a unit listing.
func unitsView(units []schema.UnitSummary, cfg *contract.Config) view {
	records := make([][]string, 0, len(units))
	for _, u := range units {
		records = append(records, []string{
			u.ID,
			u.Path,
			string(u.Kind),
			strconv.Itoa(u.Complexity),
			string(u.Status),
			strconv.Itoa(u.Artifacts),
			u.LastError,
			formatTime(u.UpdatedAt),
		})
	}

	return view{
		data:   units,
		header: []string{"unit_id", "path", "kind", "complexity", "status", "artifacts", "last_error", "updated_at"},
		rows:   records,
		table: func(w io.Writer) error {
			pathWidth := GetMaxTablePathWidth(cfg, unitColumnsWidth)
			rows := make([][]string, 0, len(units))
			for i, u := range units {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					contract.TruncatePath(u.Path, pathWidth),
					string(u.Kind),
					strconv.Itoa(u.Complexity),
					statusLabel(u.Status, cfg),
					strconv.Itoa(u.Artifacts),
					truncate(u.LastError, maxErrorWidth),
				})
			}
			if err := renderTable(w, []string{"#", "Path", "Kind", "Cx", "Status", "Artifacts", "Last Error"}, rows, tw.AlignRight); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "Showing %d units\n", len(units))
			return err
		},
	}
}

// truncate shortens free text to maxWidth runes with a trailing ellipsis.
func truncate(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) <= maxWidth || maxWidth <= 3 {
		return s
	}
	return string(runes[:maxWidth-3]) + "..."
}

// nextUnitView renders a claimed unit, its context and the project progress.
func nextUnitView(result schema.NextUnitResult, cfg *contract.Config) view {
	fmtFloat, _ := createFormatters(cfg.Precision)
	header := append([]string{"done", "unit_id", "path", "kind", "complexity", "related", "batch_ids"}, progressHeader...)
	record := []string{strconv.FormatBool(result.Done), "", "", "", "", "", ""}
	if result.Unit != nil {
		record[1] = result.Unit.ID
		record[2] = result.Unit.Path
		record[3] = string(result.Unit.Kind)
		record[4] = strconv.Itoa(result.Unit.Complexity)
	}
	if result.Context != nil {
		paths := make([]string, 0, len(result.Context.Related))
		for _, item := range result.Context.Related {
			paths = append(paths, item.Path)
		}
		record[5] = strings.Join(paths, "|")
		record[6] = strings.Join(result.Context.BatchIDs, "|")
	}
	record = append(record, progressRecord(result.Progress, fmtFloat)...)

	return view{
		data:   result,
		header: header,
		rows:   [][]string{record},
		table: func(w io.Writer) error {
			if result.Done || result.Unit == nil {
				if _, err := fmt.Fprintln(w, "✅ No pending units left to claim"); err != nil {
					return err
				}
				return renderFields(w, progressFields(result.Progress, cfg))
			}
			u := result.Unit
			if err := renderFields(w, [][2]string{
				{"Unit", u.ID},
				{"Path", u.Path},
				{"Kind", string(u.Kind)},
				{"Layer", string(u.Kind.Layer())},
				{"Complexity", strconv.Itoa(u.Complexity)},
				{"Status", statusLabel(u.Status, cfg)},
				{"Progress", fmt.Sprintf("%d / %d (%s%%)", result.Progress.Migrated, result.Progress.Total, fmtFloat(result.Progress.Percent))},
			}); err != nil {
				return err
			}
			if result.Context != nil {
				if err := writeContextTable(w, *result.Context, cfg); err != nil {
					return err
				}
			}
			_, err := fmt.Fprintf(w, "---- %s ----\n%s\n", u.Path, result.Content)
			return err
		},
	}
}
