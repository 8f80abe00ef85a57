// Package schema has models, enums and constants shared by all parts of waypoint.
package schema

import "time"

// SourceUnit is one scanned file of migratable work.
// It is created at scan time and only ever mutated through status transitions.
type SourceUnit struct {
	ID            string                   `json:"id"`
	WorkspaceID   string                   `json:"workspace_id"`
	Path          string                   `json:"path"` // Root-relative, forward slashes
	Kind          UnitKind                 `json:"kind"`
	Content       string                   `json:"-"`
	SizeBytes     int64                    `json:"size_bytes"`
	ModTime       time.Time                `json:"mod_time"`
	DeclaredTypes []string                 `json:"declared_types,omitempty"`
	Interfaces    []string                 `json:"interfaces,omitempty"`
	References    []string                 `json:"references,omitempty"`
	Resources     []string                 `json:"resources,omitempty"`
	Complexity    int                      `json:"complexity"`
	Status        UnitStatus               `json:"status"`
	Artifacts     map[OutputLayer][]string `json:"artifacts,omitempty"`
	LastError     string                   `json:"last_error,omitempty"`
	Version       int                      `json:"version"`
	StartedAt     time.Time                `json:"started_at"`
	CompletedAt   time.Time                `json:"completed_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// Migratable reports whether the unit counts towards migration progress.
func (u SourceUnit) Migratable() bool {
	return u.Kind.Migratable()
}

// Declares reports whether the unit declares the given type name.
func (u SourceUnit) Declares(name string) bool {
	for _, t := range u.DeclaredTypes {
		if t == name {
			return true
		}
	}
	return false
}

// ArchitectureSummary classifies the layering of the scanned codebase.
type ArchitectureSummary struct {
	Pattern  ArchitecturePattern `json:"pattern"`
	Evidence []string            `json:"evidence"`
}

// Workspace is the immutable result of one scan.
type Workspace struct {
	ID                  string              `json:"id"`
	RootPath            string              `json:"root_path"`
	ProjectName         string              `json:"project_name"`
	TotalUnits          int                 `json:"total_units"`
	KindHistogram       map[UnitKind]int    `json:"kind_histogram"`
	ComplexityHistogram map[int]int         `json:"complexity_histogram"`
	Architecture        ArchitectureSummary `json:"architecture"`
	ScanErrorCount      int                 `json:"scan_error_count"`
	ScanErrors          []string            `json:"scan_errors,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
}

// MigratableUnits returns the number of units whose kind is eligible for migration.
func (w Workspace) MigratableUnits() int {
	total := 0
	for kind, n := range w.KindHistogram {
		if kind.Migratable() {
			total += n
		}
	}
	return total
}

// MigrationProject is the single active migration run of a workspace.
type MigrationProject struct {
	ID           string        `json:"id"`
	WorkspaceID  string        `json:"workspace_id"`
	DataRoot     string        `json:"data_root"`
	BusinessRoot string        `json:"business_root"`
	Status       ProjectStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// OutputRoots maps each output layer to its root directory.
func (p MigrationProject) OutputRoots() map[OutputLayer]string {
	return map[OutputLayer]string{
		OutputData:     p.DataRoot,
		OutputBusiness: p.BusinessRoot,
	}
}

// BatchMember is one unit, or one part of a split unit, inside a Batch.
type BatchMember struct {
	UnitID string `json:"unit_id"`
	Path   string `json:"path"`
	Part   int    `json:"part"`  // 1-based; 1 of 1 for whole units
	Parts  int    `json:"parts"` // Number of parts the unit was split into
	Label  string `json:"label,omitempty"`
	Cost   int    `json:"cost"`
}

// Batch is a budget-bounded group of work handed to the transformation agent.
// Membership never changes after creation.
type Batch struct {
	ID          string        `json:"id"`
	WorkspaceID string        `json:"workspace_id"`
	Seq         int           `json:"seq"`
	Members     []BatchMember `json:"members"`
	Content     string        `json:"-"`
	Cost        int           `json:"cost"`
	Processed   bool          `json:"processed"`
	Result      string        `json:"result,omitempty"`
	Errors      []string      `json:"errors,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Contains reports whether the batch holds the given unit (whole or in part).
func (b Batch) Contains(unitID string) bool {
	for _, m := range b.Members {
		if m.UnitID == unitID {
			return true
		}
	}
	return false
}

// UnitTransition is an atomic compare-and-swap of a unit's status.
// The store applies it only when both From and Version still match.
type UnitTransition struct {
	UnitID      string
	From        UnitStatus
	To          UnitStatus
	Version     int
	Artifacts   map[OutputLayer][]string
	LastError   string
	StartedAt   time.Time
	CompletedAt time.Time
	At          time.Time
}
