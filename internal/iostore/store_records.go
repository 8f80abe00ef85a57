package iostore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
)

// --- Workspaces ---

const workspaceColumns = `id, root_path, project_name, total_units, kind_histogram,
	complexity_histogram, architecture, scan_error_count, scan_errors, created_at`

// SaveWorkspace persists a new scan result.
func (ms *MigrationStoreImpl) SaveWorkspace(ctx context.Context, ws schema.Workspace) error {
	return ms.insertWorkspace(ctx, ms.db, ws)
}

// SaveScan persists a workspace together with its units in one transaction.
// Nothing is stored when any insert fails.
func (ms *MigrationStoreImpl) SaveScan(ctx context.Context, ws schema.Workspace, units []schema.SourceUnit) error {
	return ms.inTx(ctx, "scan insert", func(tx *sql.Tx) error {
		if err := ms.insertWorkspace(ctx, tx, ws); err != nil {
			return err
		}
		return ms.insertUnits(ctx, tx, units)
	})
}

func (ms *MigrationStoreImpl) insertWorkspace(ctx context.Context, ex execer, ws schema.Workspace) error {
	kinds, err := encodeJSON(ws.KindHistogram)
	if err != nil {
		return err
	}
	complexity, err := encodeJSON(ws.ComplexityHistogram)
	if err != nil {
		return err
	}
	arch, err := encodeJSON(ws.Architecture)
	if err != nil {
		return err
	}
	scanErrors, err := encodeJSON(nonNil(ws.ScanErrors))
	if err != nil {
		return err
	}

	query := ms.q(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", workspacesTable, workspaceColumns, placeholders(10)))
	if _, err := ex.ExecContext(ctx, query,
		ws.ID, ws.RootPath, ws.ProjectName, ws.TotalUnits, kinds,
		complexity, arch, ws.ScanErrorCount, scanErrors, toMillis(ws.CreatedAt),
	); err != nil {
		return fmt.Errorf("failed to insert workspace %s: %w", ws.ID, err)
	}
	return nil
}

// scanWorkspace reads one row in workspaceColumns order.
func scanWorkspace(row rowScanner) (schema.Workspace, error) {
	var ws schema.Workspace
	var kinds, complexity, arch, scanErrors string
	var createdAt int64
	if err := row.Scan(&ws.ID, &ws.RootPath, &ws.ProjectName, &ws.TotalUnits, &kinds,
		&complexity, &arch, &ws.ScanErrorCount, &scanErrors, &createdAt); err != nil {
		return ws, err
	}
	ws.CreatedAt = fromMillis(createdAt)
	if err := decodeJSON(kinds, &ws.KindHistogram); err != nil {
		return ws, err
	}
	if err := decodeJSON(complexity, &ws.ComplexityHistogram); err != nil {
		return ws, err
	}
	if err := decodeJSON(arch, &ws.Architecture); err != nil {
		return ws, err
	}
	if err := decodeJSON(scanErrors, &ws.ScanErrors); err != nil {
		return ws, err
	}
	return ws, nil
}

// GetWorkspace returns the workspace or an ErrNotFound error.
func (ms *MigrationStoreImpl) GetWorkspace(ctx context.Context, id string) (schema.Workspace, error) {
	query := ms.q(fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", workspaceColumns, workspacesTable))
	ws, err := scanWorkspace(ms.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ws, contract.NotFoundf("workspace %s", id)
	}
	if err != nil {
		return ws, fmt.Errorf("failed to get workspace %s: %w", id, err)
	}
	return ws, nil
}

// ListWorkspaces returns all workspaces, newest first.
func (ms *MigrationStoreImpl) ListWorkspaces(ctx context.Context) ([]schema.Workspace, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at DESC, id", workspaceColumns, workspacesTable)
	rows, err := ms.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workspaces: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workspace: %w", err)
		}
		results = append(results, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workspaces: %w", err)
	}
	return results, nil
}

// --- Projects ---

const projectColumns = "id, workspace_id, data_root, business_root, status, created_at, updated_at"

// SaveProject persists a new project. At most one project exists per workspace.
func (ms *MigrationStoreImpl) SaveProject(ctx context.Context, p schema.MigrationProject) error {
	query := ms.q(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", projectsTable, projectColumns, placeholders(7)))
	_, err := ms.db.ExecContext(ctx, query,
		p.ID, p.WorkspaceID, p.DataRoot, p.BusinessRoot, string(p.Status), toMillis(p.CreatedAt), toMillis(p.UpdatedAt))
	if err == nil {
		return nil
	}
	// A unique violation means another caller started the same workspace first.
	if _, exists, findErr := ms.FindProjectByWorkspace(ctx, p.WorkspaceID); findErr == nil && exists {
		return fmt.Errorf("project for workspace %s: %w", p.WorkspaceID, contract.ErrConflict)
	}
	return fmt.Errorf("failed to insert project %s: %w", p.ID, err)
}

// scanProject reads one row in projectColumns order.
func scanProject(row rowScanner) (schema.MigrationProject, error) {
	var p schema.MigrationProject
	var status string
	var createdAt, updatedAt int64
	if err := row.Scan(&p.ID, &p.WorkspaceID, &p.DataRoot, &p.BusinessRoot, &status, &createdAt, &updatedAt); err != nil {
		return p, err
	}
	p.Status = schema.ProjectStatus(status)
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}

// GetProject returns the project or an ErrNotFound error.
func (ms *MigrationStoreImpl) GetProject(ctx context.Context, id string) (schema.MigrationProject, error) {
	query := ms.q(fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", projectColumns, projectsTable))
	p, err := scanProject(ms.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, contract.NotFoundf("project %s", id)
	}
	if err != nil {
		return p, fmt.Errorf("failed to get project %s: %w", id, err)
	}
	return p, nil
}

// FindProjectByWorkspace returns the project of a workspace if one exists.
func (ms *MigrationStoreImpl) FindProjectByWorkspace(ctx context.Context, workspaceID string) (schema.MigrationProject, bool, error) {
	query := ms.q(fmt.Sprintf("SELECT %s FROM %s WHERE workspace_id = ?", projectColumns, projectsTable))
	p, err := scanProject(ms.db.QueryRowContext(ctx, query, workspaceID))
	if errors.Is(err, sql.ErrNoRows) {
		return p, false, nil
	}
	if err != nil {
		return p, false, fmt.Errorf("failed to find project for workspace %s: %w", workspaceID, err)
	}
	return p, true, nil
}

// ListProjects returns all projects.
func (ms *MigrationStoreImpl) ListProjects(ctx context.Context) ([]schema.MigrationProject, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at, id", projectColumns, projectsTable)
	rows, err := ms.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.MigrationProject
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return results, nil
}

// UpdateProjectStatus sets the aggregate status of a project.
func (ms *MigrationStoreImpl) UpdateProjectStatus(ctx context.Context, id string, status schema.ProjectStatus, at time.Time) error {
	query := ms.q(fmt.Sprintf("UPDATE %s SET status = ?, updated_at = ? WHERE id = ?", projectsTable))
	res, err := ms.db.ExecContext(ctx, query, string(status), toMillis(at), id)
	if err != nil {
		return fmt.Errorf("failed to update project %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return contract.NotFoundf("project %s", id)
	}
	return nil
}

// --- Batches ---

const batchColumns = "id, workspace_id, seq, members, content, cost, processed, result, errors, created_at"

// InsertBatches stores planned batches in a single transaction.
func (ms *MigrationStoreImpl) InsertBatches(ctx context.Context, batches []schema.Batch) error {
	if len(batches) == 0 {
		return nil
	}
	tx, err := ms.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := ms.q(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", batchesTable, batchColumns, placeholders(10)))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare batch insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, b := range batches {
		members, err := encodeJSON(b.Members)
		if err != nil {
			return err
		}
		errs, err := encodeJSON(nonNil(b.Errors))
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, b.ID, b.WorkspaceID, b.Seq, members, b.Content, b.Cost,
			boolToInt(b.Processed), b.Result, errs, toMillis(b.CreatedAt)); err != nil {
			return fmt.Errorf("failed to insert batch %d: %w", b.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch insert: %w", err)
	}
	return nil
}

// ListBatches returns the batches of a workspace ordered by sequence.
func (ms *MigrationStoreImpl) ListBatches(ctx context.Context, workspaceID string) ([]schema.Batch, error) {
	query := ms.q(fmt.Sprintf("SELECT %s FROM %s WHERE workspace_id = ? ORDER BY seq", batchColumns, batchesTable))
	rows, err := ms.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.Batch
	for rows.Next() {
		var b schema.Batch
		var members, errs string
		var processed int
		var createdAt int64
		if err := rows.Scan(&b.ID, &b.WorkspaceID, &b.Seq, &members, &b.Content, &b.Cost,
			&processed, &b.Result, &errs, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		b.Processed = processed != 0
		b.CreatedAt = fromMillis(createdAt)
		if err := decodeJSON(members, &b.Members); err != nil {
			return nil, err
		}
		if err := decodeJSON(errs, &b.Errors); err != nil {
			return nil, err
		}
		results = append(results, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating batches: %w", err)
	}
	return results, nil
}

// MarkBatchProcessed records the outcome of a batch. Membership is untouched.
func (ms *MigrationStoreImpl) MarkBatchProcessed(ctx context.Context, id string, result string, errs []string) error {
	encoded, err := encodeJSON(nonNil(errs))
	if err != nil {
		return err
	}
	query := ms.q(fmt.Sprintf("UPDATE %s SET processed = 1, result = ?, errors = ? WHERE id = ?", batchesTable))
	res, err := ms.db.ExecContext(ctx, query, result, encoded, id)
	if err != nil {
		return fmt.Errorf("failed to mark batch %s processed: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return contract.NotFoundf("batch %s", id)
	}
	return nil
}
