package iostore

import (
	"context"
	"time"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetMigrationStore implements the StoreManager interface.
func (m *MockStoreManager) GetMigrationStore() contract.MigrationStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.MigrationStore)
	return store
}

// MockMigrationStore is a mock implementation of MigrationStore for testing.
type MockMigrationStore struct {
	mock.Mock
}

var _ contract.MigrationStore = &MockMigrationStore{} // Compile-time check

// SaveWorkspace implements the MigrationStore interface.
func (m *MockMigrationStore) SaveWorkspace(ctx context.Context, ws schema.Workspace) error {
	args := m.Called(ctx, ws)
	return args.Error(0)
}

// SaveScan implements the MigrationStore interface.
func (m *MockMigrationStore) SaveScan(ctx context.Context, ws schema.Workspace, units []schema.SourceUnit) error {
	args := m.Called(ctx, ws, units)
	return args.Error(0)
}

// GetWorkspace implements the MigrationStore interface.
func (m *MockMigrationStore) GetWorkspace(ctx context.Context, id string) (schema.Workspace, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(schema.Workspace), args.Error(1)
}

// ListWorkspaces implements the MigrationStore interface.
func (m *MockMigrationStore) ListWorkspaces(ctx context.Context) ([]schema.Workspace, error) {
	args := m.Called(ctx)
	ws, _ := args.Get(0).([]schema.Workspace)
	return ws, args.Error(1)
}

// InsertUnits implements the MigrationStore interface.
func (m *MockMigrationStore) InsertUnits(ctx context.Context, units []schema.SourceUnit) error {
	args := m.Called(ctx, units)
	return args.Error(0)
}

// GetUnit implements the MigrationStore interface.
func (m *MockMigrationStore) GetUnit(ctx context.Context, id string) (schema.SourceUnit, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(schema.SourceUnit), args.Error(1)
}

// ListUnits implements the MigrationStore interface.
func (m *MockMigrationStore) ListUnits(ctx context.Context, workspaceID string, filter schema.UnitFilter) ([]schema.SourceUnit, error) {
	args := m.Called(ctx, workspaceID, filter)
	units, _ := args.Get(0).([]schema.SourceUnit)
	return units, args.Error(1)
}

// TransitionUnit implements the MigrationStore interface.
func (m *MockMigrationStore) TransitionUnit(ctx context.Context, t schema.UnitTransition) (bool, error) {
	args := m.Called(ctx, t)
	return args.Bool(0), args.Error(1)
}

// CountByStatus implements the MigrationStore interface.
func (m *MockMigrationStore) CountByStatus(ctx context.Context, workspaceID string) (map[schema.UnitStatus]int, error) {
	args := m.Called(ctx, workspaceID)
	counts, _ := args.Get(0).(map[schema.UnitStatus]int)
	return counts, args.Error(1)
}

// FirstCompletion implements the MigrationStore interface.
func (m *MockMigrationStore) FirstCompletion(ctx context.Context, workspaceID string) (time.Time, bool, error) {
	args := m.Called(ctx, workspaceID)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

// SaveProject implements the MigrationStore interface.
func (m *MockMigrationStore) SaveProject(ctx context.Context, p schema.MigrationProject) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// GetProject implements the MigrationStore interface.
func (m *MockMigrationStore) GetProject(ctx context.Context, id string) (schema.MigrationProject, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(schema.MigrationProject), args.Error(1)
}

// FindProjectByWorkspace implements the MigrationStore interface.
func (m *MockMigrationStore) FindProjectByWorkspace(ctx context.Context, workspaceID string) (schema.MigrationProject, bool, error) {
	args := m.Called(ctx, workspaceID)
	return args.Get(0).(schema.MigrationProject), args.Bool(1), args.Error(2)
}

// ListProjects implements the MigrationStore interface.
func (m *MockMigrationStore) ListProjects(ctx context.Context) ([]schema.MigrationProject, error) {
	args := m.Called(ctx)
	projects, _ := args.Get(0).([]schema.MigrationProject)
	return projects, args.Error(1)
}

// UpdateProjectStatus implements the MigrationStore interface.
func (m *MockMigrationStore) UpdateProjectStatus(ctx context.Context, id string, status schema.ProjectStatus, at time.Time) error {
	args := m.Called(ctx, id, status, at)
	return args.Error(0)
}

// InsertBatches implements the MigrationStore interface.
func (m *MockMigrationStore) InsertBatches(ctx context.Context, batches []schema.Batch) error {
	args := m.Called(ctx, batches)
	return args.Error(0)
}

// ListBatches implements the MigrationStore interface.
func (m *MockMigrationStore) ListBatches(ctx context.Context, workspaceID string) ([]schema.Batch, error) {
	args := m.Called(ctx, workspaceID)
	batches, _ := args.Get(0).([]schema.Batch)
	return batches, args.Error(1)
}

// MarkBatchProcessed implements the MigrationStore interface.
func (m *MockMigrationStore) MarkBatchProcessed(ctx context.Context, id string, result string, errs []string) error {
	args := m.Called(ctx, id, result, errs)
	return args.Error(0)
}

// GetStatus implements the MigrationStore interface.
func (m *MockMigrationStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the MigrationStore interface.
func (m *MockMigrationStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
