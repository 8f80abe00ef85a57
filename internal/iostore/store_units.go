package iostore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
)

// unitColumns is the column order used by every unit query.
const unitColumns = `id, workspace_id, path, kind, content, size_bytes, mod_time,
	declared_types, interfaces, refs, resources, complexity, status, artifacts,
	last_error, version, started_at, completed_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// unitArgs flattens a unit into insert arguments in unitColumns order.
func unitArgs(u schema.SourceUnit) ([]any, error) {
	declared, err := encodeJSON(nonNil(u.DeclaredTypes))
	if err != nil {
		return nil, err
	}
	interfaces, err := encodeJSON(nonNil(u.Interfaces))
	if err != nil {
		return nil, err
	}
	refs, err := encodeJSON(nonNil(u.References))
	if err != nil {
		return nil, err
	}
	resources, err := encodeJSON(nonNil(u.Resources))
	if err != nil {
		return nil, err
	}
	artifacts, err := encodeArtifacts(u.Artifacts)
	if err != nil {
		return nil, err
	}
	return []any{
		u.ID, u.WorkspaceID, u.Path, string(u.Kind), u.Content, u.SizeBytes, toMillis(u.ModTime),
		declared, interfaces, refs, resources, u.Complexity, string(u.Status), artifacts,
		u.LastError, u.Version, toMillis(u.StartedAt), toMillis(u.CompletedAt), toMillis(u.UpdatedAt),
	}, nil
}

// scanUnit reads one row in unitColumns order.
func scanUnit(row rowScanner) (schema.SourceUnit, error) {
	var u schema.SourceUnit
	var kind, status, declared, interfaces, refs, resources, artifacts string
	var modTime, startedAt, completedAt, updatedAt int64
	if err := row.Scan(
		&u.ID, &u.WorkspaceID, &u.Path, &kind, &u.Content, &u.SizeBytes, &modTime,
		&declared, &interfaces, &refs, &resources, &u.Complexity, &status, &artifacts,
		&u.LastError, &u.Version, &startedAt, &completedAt, &updatedAt,
	); err != nil {
		return u, err
	}
	u.Kind = schema.UnitKind(kind)
	u.Status = schema.UnitStatus(status)
	u.ModTime = fromMillis(modTime)
	u.StartedAt = fromMillis(startedAt)
	u.CompletedAt = fromMillis(completedAt)
	u.UpdatedAt = fromMillis(updatedAt)
	for _, col := range []struct {
		raw  string
		dest *[]string
	}{
		{declared, &u.DeclaredTypes},
		{interfaces, &u.Interfaces},
		{refs, &u.References},
		{resources, &u.Resources},
	} {
		if err := decodeJSON(col.raw, col.dest); err != nil {
			return u, err
		}
	}
	if err := decodeJSON(artifacts, &u.Artifacts); err != nil {
		return u, err
	}
	return u, nil
}

// encodeArtifacts serializes the artifact map, storing an empty object for nil.
func encodeArtifacts(artifacts map[schema.OutputLayer][]string) (string, error) {
	if artifacts == nil {
		return "{}", nil
	}
	return encodeJSON(artifacts)
}

// nonNil keeps JSON columns as arrays rather than null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// InsertUnits stores freshly scanned units in a single transaction.
func (ms *MigrationStoreImpl) InsertUnits(ctx context.Context, units []schema.SourceUnit) error {
	if len(units) == 0 {
		return nil
	}
	return ms.inTx(ctx, "unit insert", func(tx *sql.Tx) error {
		return ms.insertUnits(ctx, tx, units)
	})
}

func (ms *MigrationStoreImpl) insertUnits(ctx context.Context, ex execer, units []schema.SourceUnit) error {
	if len(units) == 0 {
		return nil
	}
	query := ms.q(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", unitsTable, unitColumns, placeholders(19)))
	stmt, err := ex.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare unit insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, u := range units {
		args, err := unitArgs(u)
		if err != nil {
			return fmt.Errorf("unit %s: %w", u.Path, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert unit %s: %w", u.Path, err)
		}
	}
	return nil
}

// GetUnit returns the unit or an ErrNotFound error.
func (ms *MigrationStoreImpl) GetUnit(ctx context.Context, id string) (schema.SourceUnit, error) {
	query := ms.q(fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", unitColumns, unitsTable))
	u, err := scanUnit(ms.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, contract.NotFoundf("unit %s", id)
	}
	if err != nil {
		return u, fmt.Errorf("failed to get unit %s: %w", id, err)
	}
	return u, nil
}

// unmigratableKinds lists kinds excluded from progress.
func unmigratableKinds() []string {
	var out []string
	for _, k := range schema.AllUnitKinds {
		if !k.Migratable() {
			out = append(out, string(k))
		}
	}
	return out
}

// ListUnits returns units of a workspace matching the filter, ordered by path.
func (ms *MigrationStoreImpl) ListUnits(ctx context.Context, workspaceID string, filter schema.UnitFilter) ([]schema.SourceUnit, error) {
	where := []string{"workspace_id = ?"}
	args := []any{workspaceID}

	if len(filter.Statuses) > 0 {
		where = append(where, fmt.Sprintf("status IN (%s)", placeholders(len(filter.Statuses))))
		for _, s := range filter.Statuses {
			args = append(args, string(s))
		}
	}
	if len(filter.Kinds) > 0 {
		where = append(where, fmt.Sprintf("kind IN (%s)", placeholders(len(filter.Kinds))))
		for _, k := range filter.Kinds {
			args = append(args, string(k))
		}
	}
	if filter.MigratableOnly {
		excluded := unmigratableKinds()
		where = append(where, fmt.Sprintf("kind NOT IN (%s)", placeholders(len(excluded))))
		for _, k := range excluded {
			args = append(args, k)
		}
	}
	if filter.PathPrefix != "" {
		where = append(where, "SUBSTR(path, 1, ?) = ?")
		args = append(args, utf8.RuneCountInString(filter.PathPrefix), filter.PathPrefix)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY path", unitColumns, unitsTable, strings.Join(where, " AND "))
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := ms.db.QueryContext(ctx, ms.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query units: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var units []schema.SourceUnit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating units: %w", err)
	}
	return units, nil
}

// TransitionUnit applies the transition only if the unit still has the
// expected status and version. It reports whether the swap happened.
func (ms *MigrationStoreImpl) TransitionUnit(ctx context.Context, t schema.UnitTransition) (bool, error) {
	artifacts, err := encodeArtifacts(t.Artifacts)
	if err != nil {
		return false, err
	}
	at := t.At
	if at.IsZero() {
		at = time.Now()
	}
	query := ms.q(fmt.Sprintf(`UPDATE %s SET status = ?, version = version + 1, artifacts = ?, last_error = ?,
		started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND status = ? AND version = ?`, unitsTable))
	res, err := ms.db.ExecContext(ctx, query,
		string(t.To), artifacts, t.LastError, toMillis(t.StartedAt), toMillis(t.CompletedAt), toMillis(at),
		t.UnitID, string(t.From), t.Version)
	if err != nil {
		return false, fmt.Errorf("failed to transition unit %s: %w", t.UnitID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read transition result for unit %s: %w", t.UnitID, err)
	}
	return n == 1, nil
}

// CountByStatus counts migratable units of a workspace per status in one query.
func (ms *MigrationStoreImpl) CountByStatus(ctx context.Context, workspaceID string) (map[schema.UnitStatus]int, error) {
	excluded := unmigratableKinds()
	query := ms.q(fmt.Sprintf("SELECT status, COUNT(*) FROM %s WHERE workspace_id = ? AND kind NOT IN (%s) GROUP BY status",
		unitsTable, placeholders(len(excluded))))
	args := []any{workspaceID}
	for _, k := range excluded {
		args = append(args, k)
	}

	rows, err := ms.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count units: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[schema.UnitStatus]int, len(schema.AllUnitStatuses))
	for _, s := range schema.AllUnitStatuses {
		counts[s] = 0
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan unit count: %w", err)
		}
		counts[schema.UnitStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unit counts: %w", err)
	}
	return counts, nil
}

// FirstCompletion returns the earliest completion time in a workspace.
func (ms *MigrationStoreImpl) FirstCompletion(ctx context.Context, workspaceID string) (time.Time, bool, error) {
	query := ms.q(fmt.Sprintf("SELECT MIN(completed_at) FROM %s WHERE workspace_id = ? AND status = ? AND completed_at > 0", unitsTable))
	var first sql.NullInt64
	if err := ms.db.QueryRowContext(ctx, query, workspaceID, string(schema.StatusCompleted)).Scan(&first); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get first completion: %w", err)
	}
	if !first.Valid || first.Int64 == 0 {
		return time.Time{}, false, nil
	}
	return fromMillis(first.Int64), true, nil
}
