package tracker

import (
	"context"
	"time"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
)

// Counts are the per-status totals of a project's migratable units.
type Counts struct {
	Migrated   int
	Pending    int // Pending plus in-progress
	InProgress int
	Failed     int
}

// Total returns the number of migratable units.
func (c Counts) Total() int {
	return c.Migrated + c.Pending + c.Failed
}

// CountsFrom folds a status histogram into Counts.
func CountsFrom(byStatus map[schema.UnitStatus]int) Counts {
	return Counts{
		Migrated:   byStatus[schema.StatusCompleted],
		Pending:    byStatus[schema.StatusPending] + byStatus[schema.StatusInProgress],
		InProgress: byStatus[schema.StatusInProgress],
		Failed:     byStatus[schema.StatusFailed],
	}
}

// Percent returns the share of migrated units. An empty project is done.
func (c Counts) Percent() float64 {
	if c.Total() == 0 {
		return 100
	}
	return float64(c.Migrated) / float64(c.Total()) * 100
}

// ETA extrapolates the average time per completed unit over the pending ones.
// It is undefined before the first completion or once nothing is pending.
func (c Counts) ETA(first, now time.Time) (time.Time, bool) {
	if first.IsZero() || c.Migrated == 0 || c.Pending == 0 {
		return time.Time{}, false
	}
	elapsed := now.Sub(first)
	if elapsed < 0 {
		elapsed = 0
	}
	perUnit := elapsed / time.Duration(c.Migrated)
	return now.Add(perUnit * time.Duration(c.Pending)), true
}

// DeriveStatus recomputes the aggregate project status from unit counts.
// Finished states apply once nothing is pending; otherwise the status is kept.
func DeriveStatus(current schema.ProjectStatus, c Counts) schema.ProjectStatus {
	if c.Pending > 0 {
		return current
	}
	if c.Failed > 0 {
		return schema.ProjectFailed
	}
	return schema.ProjectCompleted
}

// Progress derives a fresh snapshot from the store and writes the recomputed
// project status back when it changed.
func (t *Tracker) Progress(ctx context.Context, p schema.MigrationProject) (schema.ProgressSnapshot, error) {
	const op = "status"
	byStatus, err := t.store.CountByStatus(ctx, p.WorkspaceID)
	if err != nil {
		return schema.ProgressSnapshot{}, contract.NewOpError(contract.KindStore, op, "failed to count units", err)
	}
	first, ok, err := t.store.FirstCompletion(ctx, p.WorkspaceID)
	if err != nil {
		return schema.ProgressSnapshot{}, contract.NewOpError(contract.KindStore, op, "failed to read first completion", err)
	}

	now := t.now()
	c := CountsFrom(byStatus)
	status := DeriveStatus(p.Status, c)
	if status != p.Status {
		if err := t.advance(ctx, p, status); err != nil {
			return schema.ProgressSnapshot{}, err
		}
	}

	snap := schema.ProgressSnapshot{
		ProjectID:   p.ID,
		WorkspaceID: p.WorkspaceID,
		Status:      status,
		Total:       c.Total(),
		Migrated:    c.Migrated,
		Pending:     c.Pending,
		InProgress:  c.InProgress,
		Failed:      c.Failed,
		Percent:     c.Percent(),
		GeneratedAt: now,
	}
	if ok {
		snap.FirstCompletedAt = &first
		if eta, defined := c.ETA(first, now); defined {
			snap.ETA = &eta
		}
	}
	return snap, nil
}
