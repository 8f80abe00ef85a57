package schema

import "time"

// StoreStatus represents the status of the migration store.
type StoreStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	SchemaVersion uint             `json:"schema_version"`
	Dirty         bool             `json:"dirty"`
	Workspaces    int              `json:"workspaces"`
	Projects      int              `json:"projects"`
	LastScanTime  time.Time        `json:"last_scan_time"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// FileInfo is one file reported by the filesystem probe.
type FileInfo struct {
	Path    string    `json:"path"`     // Relative to the probed root, forward slashes
	AbsPath string    `json:"abs_path"` // Absolute path on disk
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// ProbeFilter selects files during a filesystem walk.
type ProbeFilter struct {
	Extensions    []string  // Lower-case, with leading dot; empty matches all
	Excludes      []string  // Patterns understood by contract.ShouldIgnore
	ExcludeDirs   []string  // Directory base names never descended into
	SkipRoots     []string  // Absolute directories never descended into
	Recurse       bool      // Descend into subdirectories
	ModifiedSince time.Time // Zero means no bound
}
