package tracker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/waypoint/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountsETA(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	first := now.Add(-4 * time.Hour)

	eta, ok := Counts{Migrated: 2, Pending: 3}.ETA(first, now)
	require.True(t, ok)
	assert.Equal(t, now.Add(6*time.Hour), eta)

	_, ok = Counts{Migrated: 0, Pending: 3}.ETA(first, now)
	assert.False(t, ok, "undefined before the first completion")
	_, ok = Counts{Migrated: 3, Pending: 0}.ETA(first, now)
	assert.False(t, ok, "undefined once nothing is pending")
	_, ok = Counts{Migrated: 3, Pending: 1}.ETA(time.Time{}, now)
	assert.False(t, ok)
}

func TestCountsPercent(t *testing.T) {
	assert.InDelta(t, 100.0, Counts{}.Percent(), 0.001)
	assert.InDelta(t, 25.0, Counts{Migrated: 1, Pending: 2, Failed: 1}.Percent(), 0.001)
}

func TestCountsFrom(t *testing.T) {
	c := CountsFrom(map[schema.UnitStatus]int{
		schema.StatusPending:    2,
		schema.StatusInProgress: 1,
		schema.StatusCompleted:  4,
		schema.StatusFailed:     3,
	})
	assert.Equal(t, Counts{Migrated: 4, Pending: 3, InProgress: 1, Failed: 3}, c)
	assert.Equal(t, 10, c.Total())
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		current schema.ProjectStatus
		counts  Counts
		want    schema.ProjectStatus
	}{
		{schema.ProjectMigrating, Counts{Migrated: 10}, schema.ProjectCompleted},
		{schema.ProjectMigrating, Counts{Migrated: 9, Failed: 1}, schema.ProjectFailed},
		{schema.ProjectMigrating, Counts{Migrated: 9, Pending: 1}, schema.ProjectMigrating},
		{schema.ProjectReady, Counts{Pending: 5, Failed: 1}, schema.ProjectReady},
		{schema.ProjectFailed, Counts{Pending: 1, Failed: 1}, schema.ProjectFailed},
		{schema.ProjectFailed, Counts{Migrated: 2}, schema.ProjectCompleted},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %+v", tt.current, tt.counts), func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.current, tt.counts))
		})
	}
}

func TestScenarioAllMigrated(t *testing.T) {
	var units []schema.SourceUnit
	for i := range 10 {
		u := unit(fmt.Sprintf("u%d", i), fmt.Sprintf("DAL/Repo%02dRepository.cs", i), schema.KindDataAccess, 1)
		u.Status = schema.StatusCompleted
		u.CompletedAt = time.Now().Add(-time.Duration(i) * time.Minute)
		units = append(units, u)
	}
	f := newFixture(t, units)
	f.project.Status = schema.ProjectMigrating

	snap, err := f.tracker.Progress(context.Background(), f.project)
	require.NoError(t, err)
	assert.Equal(t, schema.ProjectCompleted, snap.Status)
	assert.Equal(t, 10, snap.Total)
	assert.Equal(t, 10, snap.Migrated)
	assert.Zero(t, snap.Failed)
	assert.InDelta(t, 100.0, snap.Percent, 0.001)
	assert.NotNil(t, snap.FirstCompletedAt)
	assert.Nil(t, snap.ETA)
	assert.Equal(t, schema.ProjectCompleted, f.reload(t).Status, "derived status is written back")
}

func TestProgressConsistency(t *testing.T) {
	f := newFixture(t, defaultUnits())
	ctx := context.Background()
	const migratable = 3

	check := func() schema.ProgressSnapshot {
		snap, err := f.tracker.Progress(ctx, f.reload(t))
		require.NoError(t, err)
		assert.Equal(t, migratable, snap.Migrated+snap.Pending+snap.Failed)
		assert.Equal(t, migratable, snap.Total)
		return snap
	}

	snap := check()
	assert.Equal(t, schema.ProjectReady, snap.Status)
	assert.Nil(t, snap.ETA)

	claimed, _, err := f.tracker.Claim(ctx, f.project)
	require.NoError(t, err)
	snap = check()
	assert.Equal(t, 1, snap.InProgress)
	assert.Equal(t, schema.ProjectMigrating, snap.Status)

	writeArtifact(t, f.project.DataRoot, "done.go", time.Now())
	_, err = f.tracker.Complete(ctx, f.project, claimed.ID, "")
	require.NoError(t, err)
	snap = check()
	assert.Equal(t, 1, snap.Migrated)
	assert.NotNil(t, snap.ETA)

	_, err = f.tracker.Fail(ctx, f.project, "u1", "nope")
	require.NoError(t, err)
	snap = check()
	assert.Equal(t, 1, snap.Failed)

	_, err = f.tracker.Complete(ctx, f.project, "u2", "")
	require.NoError(t, err)
	snap = check()
	assert.Equal(t, schema.ProjectFailed, snap.Status)
	assert.Zero(t, snap.Pending)
}
