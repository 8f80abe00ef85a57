// Package outwriter has output and writer logic.
package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteWorkspace prints a scan result.
func (ow *OutWriter) WriteWorkspace(ws schema.Workspace, cfg *contract.Config, duration time.Duration) error {
	return write(cfg, workspaceView(ws, cfg, duration))
}

// WriteProject prints a migration project.
func (ow *OutWriter) WriteProject(p schema.MigrationProject, batches int, cfg *contract.Config) error {
	return write(cfg, projectView(p, batches, cfg))
}

// WriteProgress prints a progress snapshot.
func (ow *OutWriter) WriteProgress(snap schema.ProgressSnapshot, cfg *contract.Config) error {
	return write(cfg, progressView(snap, cfg))
}

// WriteRetried prints how many units went back to pending.
func (ow *OutWriter) WriteRetried(retried int, snap schema.ProgressSnapshot, cfg *contract.Config) error {
	return write(cfg, retriedView(retried, snap, cfg))
}

// WriteUnits prints a unit listing.
func (ow *OutWriter) WriteUnits(units []schema.UnitSummary, cfg *contract.Config) error {
	return write(cfg, unitsView(units, cfg))
}

// WriteNextUnit prints a claimed unit with its context.
func (ow *OutWriter) WriteNextUnit(result schema.NextUnitResult, cfg *contract.Config) error {
	return write(cfg, nextUnitView(result, cfg))
}

// WriteBatches prints planned batches.
func (ow *OutWriter) WriteBatches(batches []schema.Batch, cfg *contract.Config) error {
	return write(cfg, batchesView(batches, cfg))
}

// WriteContext prints the migration context of a unit.
func (ow *OutWriter) WriteContext(uc schema.UnitContext, cfg *contract.Config) error {
	return write(cfg, contextView(uc, cfg))
}

// WriteCycles prints reference cycles.
func (ow *OutWriter) WriteCycles(cycles []schema.Cycle, cfg *contract.Config) error {
	return write(cfg, cyclesView(cycles))
}

// view is one result rendered three ways.
type view struct {
	data   any                   // JSON document
	header []string              // CSV header
	rows   [][]string            // CSV records
	table  func(io.Writer) error // Human-readable rendering
}

// write dispatches a view based on the output format configured.
func write(cfg *contract.Config, v view) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, v.data)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, v.header, func(cw *csv.Writer) error {
				return cw.WriteAll(v.rows)
			})
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, v.table, "Wrote table")
	}
	return nil
}

// statusLabel colors a unit status when colors are enabled.
func statusLabel(status schema.UnitStatus, cfg *contract.Config) string {
	if cfg.UseColors {
		return contract.GetStatusLabel(status)
	}
	return string(status)
}

// projectLabel colors a project status when colors are enabled.
func projectLabel(status schema.ProjectStatus, cfg *contract.Config) string {
	if cfg.UseColors {
		return contract.GetProjectLabel(status)
	}
	return string(status)
}
