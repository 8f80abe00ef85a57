package iostore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/internal/parquet"
	"github.com/huangsam/waypoint/schema"
)

// ExecuteExport writes every workspace's units, batches and projects to Parquet files
// named after outputFile.
func ExecuteExport(ctx context.Context, w io.Writer, store contract.MigrationStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("migration store is not initialized")
	}

	status, err := store.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.Workspaces == 0 {
		return errors.New("no migration data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total workspaces: %d\n", status.Workspaces)
	_, _ = fmt.Fprintf(w, "Total projects: %d\n", status.Projects)

	workspaces, err := store.ListWorkspaces(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve workspaces: %w", err)
	}

	var units []schema.SourceUnit
	var batches []schema.Batch
	for _, ws := range workspaces {
		wsUnits, err := store.ListUnits(ctx, ws.ID, schema.UnitFilter{})
		if err != nil {
			return fmt.Errorf("failed to retrieve units of %s: %w", ws.ID, err)
		}
		units = append(units, wsUnits...)

		wsBatches, err := store.ListBatches(ctx, ws.ID)
		if err != nil {
			return fmt.Errorf("failed to retrieve batches of %s: %w", ws.ID, err)
		}
		batches = append(batches, wsBatches...)
	}

	projects, err := store.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve projects: %w", err)
	}

	unitsFile := outputFile + ".units.parquet"
	unitRecords := parquet.ConvertUnits(units)
	if err := parquet.WriteUnitsParquet(unitRecords, unitsFile); err != nil {
		return fmt.Errorf("failed to write units: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d units to: %s\n", len(unitRecords), unitsFile)

	batchesFile := outputFile + ".batches.parquet"
	batchRecords := parquet.ConvertBatches(batches)
	if err := parquet.WriteBatchesParquet(batchRecords, batchesFile); err != nil {
		return fmt.Errorf("failed to write batches: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d batches to: %s\n", len(batchRecords), batchesFile)

	projectsFile := outputFile + ".projects.parquet"
	projectRecords := parquet.ConvertProjects(projects)
	if err := parquet.WriteProjectsParquet(projectRecords, projectsFile); err != nil {
		return fmt.Errorf("failed to write projects: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d projects to: %s\n", len(projectRecords), projectsFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with:")
	_, _ = fmt.Fprintln(w, "  - Apache Spark")
	_, _ = fmt.Fprintln(w, "  - Pandas (via pyarrow)")
	_, _ = fmt.Fprintln(w, "  - DuckDB")

	return nil
}
