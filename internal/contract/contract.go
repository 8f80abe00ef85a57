// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/waypoint/schema"
)

// FileProbe lists files on disk.
// Both the scanner and the completion check go through it, so the core can be
// tested against a fake filesystem.
type FileProbe interface {
	// List walks root and returns matching files sorted by path.
	List(ctx context.Context, root string, filter schema.ProbeFilter) ([]schema.FileInfo, error)

	// Recent returns files under any of the roots modified at or after since,
	// newest first. Missing roots are skipped.
	Recent(ctx context.Context, roots []string, since time.Time) ([]schema.FileInfo, error)
}

// StoreManager hands out the active migration store.
type StoreManager interface {
	GetMigrationStore() MigrationStore
}

// MigrationStore is the durable gateway for all migration state.
// Implementations must make TransitionUnit atomic per unit.
type MigrationStore interface {
	// --- Workspaces ---

	// SaveWorkspace persists a new scan result.
	SaveWorkspace(ctx context.Context, ws schema.Workspace) error

	// SaveScan persists a workspace and its units atomically.
	SaveScan(ctx context.Context, ws schema.Workspace, units []schema.SourceUnit) error

	// GetWorkspace returns the workspace or an ErrNotFound error.
	GetWorkspace(ctx context.Context, id string) (schema.Workspace, error)

	// ListWorkspaces returns all workspaces, newest first.
	ListWorkspaces(ctx context.Context) ([]schema.Workspace, error)

	// --- Units ---

	// InsertUnits stores freshly scanned units in a single transaction.
	InsertUnits(ctx context.Context, units []schema.SourceUnit) error

	// GetUnit returns the unit or an ErrNotFound error.
	GetUnit(ctx context.Context, id string) (schema.SourceUnit, error)

	// ListUnits returns units of a workspace matching the filter, ordered by path.
	ListUnits(ctx context.Context, workspaceID string, filter schema.UnitFilter) ([]schema.SourceUnit, error)

	// TransitionUnit applies the transition only if the unit still has the
	// expected status and version. It reports whether the swap happened.
	TransitionUnit(ctx context.Context, t schema.UnitTransition) (bool, error)

	// CountByStatus counts migratable units of a workspace per status in one query.
	CountByStatus(ctx context.Context, workspaceID string) (map[schema.UnitStatus]int, error)

	// FirstCompletion returns the earliest completion time in a workspace.
	FirstCompletion(ctx context.Context, workspaceID string) (time.Time, bool, error)

	// --- Projects ---

	// SaveProject persists a new project. At most one project exists per workspace.
	SaveProject(ctx context.Context, p schema.MigrationProject) error

	// GetProject returns the project or an ErrNotFound error.
	GetProject(ctx context.Context, id string) (schema.MigrationProject, error)

	// FindProjectByWorkspace returns the project of a workspace if one exists.
	FindProjectByWorkspace(ctx context.Context, workspaceID string) (schema.MigrationProject, bool, error)

	// ListProjects returns all projects.
	ListProjects(ctx context.Context) ([]schema.MigrationProject, error)

	// UpdateProjectStatus sets the aggregate status of a project.
	UpdateProjectStatus(ctx context.Context, id string, status schema.ProjectStatus, at time.Time) error

	// --- Batches ---

	// InsertBatches stores planned batches in a single transaction.
	InsertBatches(ctx context.Context, batches []schema.Batch) error

	// ListBatches returns the batches of a workspace ordered by sequence.
	ListBatches(ctx context.Context, workspaceID string) ([]schema.Batch, error)

	// MarkBatchProcessed records the outcome of a batch. Membership is untouched.
	MarkBatchProcessed(ctx context.Context, id string, result string, errs []string) error

	// --- Maintenance ---

	// GetStatus returns status information about the store.
	GetStatus(ctx context.Context) (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}
