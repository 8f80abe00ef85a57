// Package parquet provides data structures and functions for exporting waypoint
// migration state to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/huangsam/waypoint/schema"
	"github.com/parquet-go/parquet-go"
)

// UnitRecord represents the migration state of one source unit.
// This struct maps to the waypoint_units database table, without file content.
type UnitRecord struct {
	// UnitID is the unique identifier for the unit
	UnitID string `parquet:"unit_id,snappy"`

	// WorkspaceID references the scan that produced the unit
	WorkspaceID string `parquet:"workspace_id,snappy"`

	// Path is the workspace-relative path with forward slashes
	Path string `parquet:"path,snappy"`

	// Kind is the structural role of the unit
	Kind string `parquet:"kind,snappy"`

	// Complexity is the 1-5 complexity estimate
	Complexity int32 `parquet:"complexity,snappy"`

	// SizeBytes is the size of the source file
	SizeBytes int64 `parquet:"size_bytes,snappy"`

	// Status is the migration status at export time
	Status string `parquet:"status,snappy"`

	// DeclaredTypes is a comma-separated list of declared type names
	DeclaredTypes string `parquet:"declared_types,snappy"`

	// ArtifactCount is the number of artifacts recorded on completion
	ArtifactCount int32 `parquet:"artifact_count,snappy"`

	// Artifacts contains the JSON-encoded artifacts grouped by layer (nullable)
	Artifacts *string `parquet:"artifacts,optional,snappy"`

	// LastError is the most recent failure message (nullable)
	LastError *string `parquet:"last_error,optional,snappy"`

	// StartedAt is when the unit was claimed (nullable)
	StartedAt *time.Time `parquet:"started_at,optional,snappy"`

	// CompletedAt is when the unit was completed (nullable)
	CompletedAt *time.Time `parquet:"completed_at,optional,snappy"`

	// UpdatedAt is the last status change
	UpdatedAt time.Time `parquet:"updated_at,snappy"`
}

// BatchRecord represents one planned batch.
// This struct maps to the waypoint_batches database table, without batch content.
type BatchRecord struct {
	BatchID     string    `parquet:"batch_id,snappy"`
	WorkspaceID string    `parquet:"workspace_id,snappy"`
	Seq         int32     `parquet:"seq,snappy"`
	MemberCount int32     `parquet:"member_count,snappy"`
	Members     string    `parquet:"members,snappy"` // JSON-encoded members
	Cost        int32     `parquet:"cost,snappy"`
	Processed   bool      `parquet:"processed,snappy"`
	Result      *string   `parquet:"result,optional,snappy"`
	Errors      *string   `parquet:"errors,optional,snappy"` // Newline-separated
	CreatedAt   time.Time `parquet:"created_at,snappy"`
}

// ProjectRecord represents one migration project.
// This struct maps to the waypoint_projects database table.
type ProjectRecord struct {
	ProjectID    string    `parquet:"project_id,snappy"`
	WorkspaceID  string    `parquet:"workspace_id,snappy"`
	DataRoot     string    `parquet:"data_root,snappy"`
	BusinessRoot string    `parquet:"business_root,snappy"`
	Status       string    `parquet:"status,snappy"`
	CreatedAt    time.Time `parquet:"created_at,snappy"`
	UpdatedAt    time.Time `parquet:"updated_at,snappy"`
}

// writeParquet writes rows to a Parquet file whose schema is inferred from T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteUnitsParquet writes a slice of UnitRecord structs to a Parquet file.
func WriteUnitsParquet(data []UnitRecord, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteBatchesParquet writes a slice of BatchRecord structs to a Parquet file.
func WriteBatchesParquet(data []BatchRecord, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteProjectsParquet writes a slice of ProjectRecord structs to a Parquet file.
func WriteProjectsParquet(data []ProjectRecord, outputPath string) error {
	return writeParquet(data, outputPath)
}

// optionalString returns nil for empty strings.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// optionalTime returns nil for the zero time.
func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// ConvertUnits converts schema.SourceUnit values to UnitRecord for Parquet export.
func ConvertUnits(units []schema.SourceUnit) []UnitRecord {
	result := make([]UnitRecord, len(units))
	for i, u := range units {
		count := 0
		for _, paths := range u.Artifacts {
			count += len(paths)
		}
		var artifacts *string
		if count > 0 {
			if data, err := json.Marshal(u.Artifacts); err == nil {
				artifacts = optionalString(string(data))
			}
		}
		result[i] = UnitRecord{
			UnitID:        u.ID,
			WorkspaceID:   u.WorkspaceID,
			Path:          u.Path,
			Kind:          string(u.Kind),
			Complexity:    int32(u.Complexity),
			SizeBytes:     u.SizeBytes,
			Status:        string(u.Status),
			DeclaredTypes: strings.Join(u.DeclaredTypes, ","),
			ArtifactCount: int32(count),
			Artifacts:     artifacts,
			LastError:     optionalString(u.LastError),
			StartedAt:     optionalTime(u.StartedAt),
			CompletedAt:   optionalTime(u.CompletedAt),
			UpdatedAt:     u.UpdatedAt,
		}
	}
	return result
}

// ConvertBatches converts schema.Batch values to BatchRecord for Parquet export.
func ConvertBatches(batches []schema.Batch) []BatchRecord {
	result := make([]BatchRecord, len(batches))
	for i, b := range batches {
		members, err := json.Marshal(b.Members)
		if err != nil {
			members = []byte("[]")
		}
		result[i] = BatchRecord{
			BatchID:     b.ID,
			WorkspaceID: b.WorkspaceID,
			Seq:         int32(b.Seq),
			MemberCount: int32(len(b.Members)),
			Members:     string(members),
			Cost:        int32(b.Cost),
			Processed:   b.Processed,
			Result:      optionalString(b.Result),
			Errors:      optionalString(strings.Join(b.Errors, "\n")),
			CreatedAt:   b.CreatedAt,
		}
	}
	return result
}

// ConvertProjects converts schema.MigrationProject values to ProjectRecord for Parquet export.
func ConvertProjects(projects []schema.MigrationProject) []ProjectRecord {
	result := make([]ProjectRecord, len(projects))
	for i, p := range projects {
		result[i] = ProjectRecord{
			ProjectID:    p.ID,
			WorkspaceID:  p.WorkspaceID,
			DataRoot:     p.DataRoot,
			BusinessRoot: p.BusinessRoot,
			Status:       string(p.Status),
			CreatedAt:    p.CreatedAt,
			UpdatedAt:    p.UpdatedAt,
		}
	}
	return result
}
