package schema

import "time"

// ProgressSnapshot is derived from per-unit state on every query.
type ProgressSnapshot struct {
	ProjectID        string        `json:"project_id"`
	WorkspaceID      string        `json:"workspace_id"`
	Status           ProjectStatus `json:"status"`
	Total            int           `json:"total"`
	Migrated         int           `json:"migrated"`
	Pending          int           `json:"pending"` // Pending plus in-progress
	InProgress       int           `json:"in_progress"`
	Failed           int           `json:"failed"`
	Percent          float64       `json:"percent"`
	FirstCompletedAt *time.Time    `json:"first_completed_at,omitempty"`
	ETA              *time.Time    `json:"eta,omitempty"`
	GeneratedAt      time.Time     `json:"generated_at"`
}

// UnitSummary is the listing view of a SourceUnit.
type UnitSummary struct {
	ID         string     `json:"id"`
	Path       string     `json:"path"`
	Kind       UnitKind   `json:"kind"`
	Complexity int        `json:"complexity"`
	Status     UnitStatus `json:"status"`
	Artifacts  int        `json:"artifacts"`
	LastError  string     `json:"last_error,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// SummarizeUnit builds the listing view of a unit.
func SummarizeUnit(u SourceUnit) UnitSummary {
	artifacts := 0
	for _, paths := range u.Artifacts {
		artifacts += len(paths)
	}
	return UnitSummary{
		ID:         u.ID,
		Path:       u.Path,
		Kind:       u.Kind,
		Complexity: u.Complexity,
		Status:     u.Status,
		Artifacts:  artifacts,
		LastError:  u.LastError,
		UpdatedAt:  u.UpdatedAt,
	}
}

// UnitFilter narrows unit listings. Empty fields match everything.
type UnitFilter struct {
	Statuses       []UnitStatus `json:"statuses,omitempty"`
	Kinds          []UnitKind   `json:"kinds,omitempty"`
	PathPrefix     string       `json:"path_prefix,omitempty"`
	MigratableOnly bool         `json:"migratable_only,omitempty"`
	Limit          int          `json:"limit,omitempty"`
}

// ContextItem is one related unit or recent artifact offered as migration context.
type ContextItem struct {
	UnitID  string        `json:"unit_id,omitempty"`
	Path    string        `json:"path"`
	Kind    UnitKind      `json:"kind,omitempty"`
	Score   int           `json:"score"`
	Reasons []string      `json:"reasons,omitempty"`
	Source  ContextSource `json:"source"`
}

// DependencyStatus partitions the identifiers a unit references.
type DependencyStatus struct {
	Migrated   []string `json:"migrated"`
	Pending    []string `json:"pending"`
	Unresolved []string `json:"unresolved"`
}

// Cycle is a reference cycle among pending units. It is advisory only.
type Cycle struct {
	UnitIDs []string `json:"unit_ids"`
	Paths   []string `json:"paths"`
}

// UnitContext is everything handed to the caller alongside a unit of work.
type UnitContext struct {
	Related      []ContextItem    `json:"related"`
	Dependencies DependencyStatus `json:"dependencies"`
	Cycles       []Cycle          `json:"cycles,omitempty"`
	BatchIDs     []string         `json:"batch_ids,omitempty"`
}

// NextUnitResult is the answer to a next-unit request.
// Done is set when no pending migratable unit remains.
type NextUnitResult struct {
	Done     bool             `json:"done"`
	Unit     *SourceUnit      `json:"unit,omitempty"`
	Content  string           `json:"content,omitempty"`
	Context  *UnitContext     `json:"context,omitempty"`
	Progress ProgressSnapshot `json:"progress"`
}
