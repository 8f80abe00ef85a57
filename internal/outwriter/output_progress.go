package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
)

const progressBarWidth = 30

var progressHeader = []string{
	"project_id", "workspace_id", "status", "total", "migrated", "pending",
	"in_progress", "failed", "percent", "first_completed_at", "eta",
}

func progressRecord(snap schema.ProgressSnapshot, fmtFloat func(float64) string) []string {
	return []string{
		snap.ProjectID,
		snap.WorkspaceID,
		string(snap.Status),
		strconv.Itoa(snap.Total),
		strconv.Itoa(snap.Migrated),
		strconv.Itoa(snap.Pending),
		strconv.Itoa(snap.InProgress),
		strconv.Itoa(snap.Failed),
		fmtFloat(snap.Percent),
		formatOptionalTime(snap.FirstCompletedAt),
		formatOptionalTime(snap.ETA),
	}
}

// progressBar draws a fixed-width bar for a percentage.
func progressBar(percent float64) string {
	filled := int(percent / 100 * progressBarWidth)
	filled = min(max(filled, 0), progressBarWidth)
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", progressBarWidth-filled) + "]"
}

// progressFields lists the human-readable rows of a snapshot.
func progressFields(snap schema.ProgressSnapshot, cfg *contract.Config) [][2]string {
	fmtFloat, _ := createFormatters(cfg.Precision)
	return [][2]string{
		{"Project", snap.ProjectID},
		{"Status", projectLabel(snap.Status, cfg)},
		{"Progress", fmt.Sprintf("%s %s%%", progressBar(snap.Percent), fmtFloat(snap.Percent))},
		{"Migrated", fmt.Sprintf("%d / %d", snap.Migrated, snap.Total)},
		{"Pending", strconv.Itoa(snap.Pending)},
		{"In progress", strconv.Itoa(snap.InProgress)},
		{"Failed", strconv.Itoa(snap.Failed)},
		{"First completion", formatOptionalTime(snap.FirstCompletedAt)},
		{"ETA", formatOptionalTime(snap.ETA)},
	}
}

// progressView renders a progress snapshot.
func progressView(snap schema.ProgressSnapshot, cfg *contract.Config) view {
	fmtFloat, _ := createFormatters(cfg.Precision)
	return view{
		data:   snap,
		header: progressHeader,
		rows:   [][]string{progressRecord(snap, fmtFloat)},
		table: func(w io.Writer) error {
			return renderFields(w, progressFields(snap, cfg))
		},
	}
}

// retriedView renders the outcome of a bulk retry.
func retriedView(retried int, snap schema.ProgressSnapshot, cfg *contract.Config) view {
	fmtFloat, _ := createFormatters(cfg.Precision)
	return view{
		data: struct {
			Retried  int                     `json:"retried"`
			Progress schema.ProgressSnapshot `json:"progress"`
		}{retried, snap},
		header: append([]string{"retried"}, progressHeader...),
		rows:   [][]string{append([]string{strconv.Itoa(retried)}, progressRecord(snap, fmtFloat)...)},
		table: func(w io.Writer) error {
			if _, err := fmt.Fprintf(w, "🔁 %d failed unit(s) returned to pending\n", retried); err != nil {
				return err
			}
			return renderFields(w, progressFields(snap, cfg))
		},
	}
}
