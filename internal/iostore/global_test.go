package iostore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClearStore(t *testing.T) {
	t.Run("sqlite removes file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "clear.db")
		store, err := NewMigrationStore(schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearStore(schema.SQLiteBackend, dbPath))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))

		// Clearing twice is fine.
		assert.NoError(t, ClearStore(schema.SQLiteBackend, dbPath))
	})

	t.Run("none is a no-op", func(t *testing.T) {
		assert.NoError(t, ClearStore(schema.NoneBackend, ""))
	})

	t.Run("unknown backend", func(t *testing.T) {
		assert.Error(t, ClearStore("oracle", ""))
	})
}

func TestStoreManager(t *testing.T) {
	store := newTestStore(t)
	mgr := &StoreManager{}
	assert.Nil(t, mgr.GetMigrationStore())
	mgr.migration = store
	assert.Same(t, store, mgr.GetMigrationStore())
}

func TestStoreManagerClose(t *testing.T) {
	var logs bytes.Buffer
	contract.Logger().SetOutput(&logs)
	t.Cleanup(func() { contract.Logger().SetOutput(os.Stderr) })

	tests := []struct {
		name     string
		closeErr error
		wantWarn bool
	}{
		{"clean close", nil, false},
		{"driver error warns", assert.AnError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.Reset()
			store := &MockMigrationStore{}
			store.On("Close").Return(tt.closeErr).Once()
			mgr := &StoreManager{migration: store}

			mgr.close()
			mgr.close()

			assert.Nil(t, mgr.GetMigrationStore())
			store.AssertNumberOfCalls(t, "Close", 1)
			if tt.wantWarn {
				assert.Contains(t, logs.String(), "Failed to close migration store")
				assert.Contains(t, logs.String(), assert.AnError.Error())
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestPrintStoreStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintStoreStatus(&buf, schema.StoreStatus{
		Backend:       "sqlite",
		Connected:     true,
		SchemaVersion: 1,
		Workspaces:    2,
		LastScanTime:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local),
		TableSizes:    map[string]int64{unitsTable: 10, batchesTable: 3},
	})
	out := buf.String()
	assert.Contains(t, out, "Store Backend: sqlite")
	assert.Contains(t, out, "Schema Version: 1\n")
	assert.Contains(t, out, "Last Scan: 2024-01-02 03:04:05")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(batchesTable)), bytes.Index(buf.Bytes(), []byte(unitsTable)))

	buf.Reset()
	PrintStoreStatus(&buf, schema.StoreStatus{Backend: "mysql"})
	assert.NotContains(t, buf.String(), "Table Sizes")
}

func TestExecuteExport(t *testing.T) {
	ctx := context.Background()

	t.Run("requires output file", func(t *testing.T) {
		assert.Error(t, ExecuteExport(ctx, &bytes.Buffer{}, newTestStore(t), ""))
	})

	t.Run("empty store", func(t *testing.T) {
		err := ExecuteExport(ctx, &bytes.Buffer{}, newTestStore(t), filepath.Join(t.TempDir(), "out"))
		assert.ErrorContains(t, err, "no migration data")
	})

	t.Run("writes three files", func(t *testing.T) {
		store := newTestStore(t)
		seedStore(t, store, "ws")
		require.NoError(t, store.InsertBatches(ctx, []schema.Batch{{
			ID: "b1", WorkspaceID: "ws", Seq: 1, Cost: 5,
			Members: []schema.BatchMember{{UnitID: "ws-u1", Path: "DAL/CustomerRepository.cs", Part: 1, Parts: 1, Cost: 5}},
		}}))

		out := filepath.Join(t.TempDir(), "export")
		var buf bytes.Buffer
		require.NoError(t, ExecuteExport(ctx, &buf, store, out))

		for _, suffix := range []string{".units.parquet", ".batches.parquet", ".projects.parquet"} {
			_, err := os.Stat(out + suffix)
			assert.NoError(t, err, suffix)
		}
		assert.Contains(t, buf.String(), "Exported 4 units")
		assert.Contains(t, buf.String(), "Exported 1 batches")
	})
}

func TestExecuteExportWithMock(t *testing.T) {
	ctx := context.Background()
	store := &MockMigrationStore{}
	store.On("GetStatus", ctx).Return(schema.StoreStatus{}, assert.AnError)

	err := ExecuteExport(ctx, &bytes.Buffer{}, store, "out")
	assert.ErrorIs(t, err, assert.AnError)
	store.AssertExpectations(t)
}
