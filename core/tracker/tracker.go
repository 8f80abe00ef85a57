// Package tracker drives per-unit migration state and derives project progress.
package tracker

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
	"github.com/sirupsen/logrus"
)

// Tracker applies state transitions through the store.
// It holds no migration state of its own.
type Tracker struct {
	store   contract.MigrationStore
	probe   contract.FileProbe
	window  time.Duration
	widened time.Duration
	now     func() time.Time
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithEvidenceWindows sets the completion recency windows.
func WithEvidenceWindows(window, widened time.Duration) Option {
	return func(t *Tracker) {
		t.window = window
		t.widened = max(window, widened)
	}
}

// New creates a tracker.
func New(store contract.MigrationStore, probe contract.FileProbe, opts ...Option) *Tracker {
	t := &Tracker{
		store:   store,
		probe:   probe,
		window:  contract.DefaultEvidenceWindow,
		widened: contract.DefaultEvidenceWidenedWindow,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func projectFields(p schema.MigrationProject) logrus.Fields {
	return logrus.Fields{"project": p.ID, "workspace": p.WorkspaceID}
}

// unitOf loads a unit and checks it belongs to the project's workspace.
func (t *Tracker) unitOf(ctx context.Context, op string, p schema.MigrationProject, unitID string) (schema.SourceUnit, error) {
	u, err := t.store.GetUnit(ctx, unitID)
	if err != nil {
		return schema.SourceUnit{}, contract.NewOpError(contract.KindOf(err), op, "failed to load unit", err)
	}
	if u.WorkspaceID != p.WorkspaceID {
		return schema.SourceUnit{}, contract.NewOpError(contract.KindNotFound, op,
			fmt.Sprintf("unit %s is not part of project %s", unitID, p.ID), contract.ErrNotFound)
	}
	return u, nil
}

// apply performs a compare-and-swap transition and returns the updated unit.
func (t *Tracker) apply(ctx context.Context, op string, u schema.SourceUnit, tr schema.UnitTransition) (schema.SourceUnit, error) {
	tr.UnitID, tr.From, tr.Version = u.ID, u.Status, u.Version
	if tr.At.IsZero() {
		tr.At = t.now()
	}
	ok, err := t.store.TransitionUnit(ctx, tr)
	if err != nil {
		return u, contract.NewOpError(contract.KindStore, op, "failed to update unit", err)
	}
	if !ok {
		return u, contract.NewOpError(contract.KindConflict, op,
			fmt.Sprintf("unit %s was modified concurrently", u.Path), contract.ErrConflict)
	}
	u.Status = tr.To
	u.Version++
	u.Artifacts = tr.Artifacts
	u.LastError = tr.LastError
	u.StartedAt = tr.StartedAt
	u.CompletedAt = tr.CompletedAt
	u.UpdatedAt = tr.At
	return u, nil
}

// Candidates returns pending migratable units in selection order:
// highest complexity first, then path.
func (t *Tracker) Candidates(ctx context.Context, p schema.MigrationProject) ([]schema.SourceUnit, error) {
	units, err := t.store.ListUnits(ctx, p.WorkspaceID, schema.UnitFilter{
		Statuses:       []schema.UnitStatus{schema.StatusPending},
		MigratableOnly: true,
	})
	if err != nil {
		return nil, contract.NewOpError(contract.KindStore, "next", "failed to list pending units", err)
	}
	SortForSelection(units)
	return units, nil
}

// SortForSelection orders units hardest first, ties broken by path.
func SortForSelection(units []schema.SourceUnit) {
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].Complexity != units[j].Complexity {
			return units[i].Complexity > units[j].Complexity
		}
		return units[i].Path < units[j].Path
	})
}

// Claim moves the next pending unit to in-progress. A candidate claimed by
// another caller in the meantime is skipped. It reports false when no
// pending migratable unit is left.
func (t *Tracker) Claim(ctx context.Context, p schema.MigrationProject) (schema.SourceUnit, bool, error) {
	candidates, err := t.Candidates(ctx, p)
	if err != nil {
		return schema.SourceUnit{}, false, err
	}
	for _, u := range candidates {
		if !u.Kind.Migratable() {
			continue
		}
		now := t.now()
		claimed, err := t.apply(ctx, "next", u, schema.UnitTransition{
			To:        schema.StatusInProgress,
			Artifacts: u.Artifacts,
			StartedAt: now,
			At:        now,
		})
		if contract.KindOf(err) == contract.KindConflict {
			contract.Logger().WithFields(projectFields(p)).WithField("unit", u.ID).Debug("Lost claim, trying next candidate")
			continue
		}
		if err != nil {
			return schema.SourceUnit{}, false, err
		}
		if err := t.advance(ctx, p, schema.ProjectMigrating); err != nil {
			return claimed, true, err
		}
		contract.Logger().WithFields(projectFields(p)).WithFields(logrus.Fields{"unit": claimed.ID, "path": claimed.Path}).Info("Unit claimed")
		return claimed, true, nil
	}
	return schema.SourceUnit{}, false, nil
}

// Complete marks a unit completed once artifacts are observed under the
// output roots. Without evidence the unit is failed instead and an
// evidence-missing error is returned alongside the failed unit.
func (t *Tracker) Complete(ctx context.Context, p schema.MigrationProject, unitID, notes string) (schema.SourceUnit, error) {
	const op = "complete"
	u, err := t.unitOf(ctx, op, p, unitID)
	if err != nil {
		return schema.SourceUnit{}, err
	}
	if err := checkTransition(op, u, schema.StatusCompleted, false); err != nil {
		return u, err
	}

	artifacts, window, err := t.Evidence(ctx, p)
	if err != nil {
		return u, err
	}
	fields := projectFields(p)
	fields["unit"], fields["path"] = u.ID, u.Path
	now := t.now()

	if len(artifacts) == 0 {
		msg := fmt.Sprintf("no artifacts modified under %s within %s", strings.Join(roots(p), ", "), window)
		failed, err := t.apply(ctx, op, u, schema.UnitTransition{
			To:        schema.StatusFailed,
			Artifacts: u.Artifacts,
			LastError: msg,
			StartedAt: u.StartedAt,
			At:        now,
		})
		if err != nil {
			return u, err
		}
		contract.Logger().WithFields(fields).Warn("Completion rejected: " + msg)
		return failed, contract.NewOpError(contract.KindEvidenceMissing, op, msg, contract.ErrEvidenceMissing)
	}

	started := u.StartedAt
	if started.IsZero() {
		started = now
	}
	completed, err := t.apply(ctx, op, u, schema.UnitTransition{
		To:          schema.StatusCompleted,
		Artifacts:   artifacts,
		StartedAt:   started,
		CompletedAt: now,
		At:          now,
	})
	if err != nil {
		return u, err
	}
	entry := contract.Logger().WithFields(fields).WithField("artifacts", countArtifacts(artifacts))
	if notes != "" {
		entry = entry.WithField("notes", notes)
	}
	entry.Info("Unit completed")
	return completed, nil
}

// Evidence lists artifacts modified within the recency window, widening the
// window once when nothing is found. It returns the window that was used.
func (t *Tracker) Evidence(ctx context.Context, p schema.MigrationProject) (map[schema.OutputLayer][]string, time.Duration, error) {
	window := t.window
	artifacts, err := t.artifactsSince(ctx, p, t.now().Add(-window))
	if err != nil {
		return nil, window, err
	}
	if len(artifacts) == 0 && t.widened > window {
		window = t.widened
		artifacts, err = t.artifactsSince(ctx, p, t.now().Add(-window))
		if err != nil {
			return nil, window, err
		}
	}
	return artifacts, window, nil
}

func (t *Tracker) artifactsSince(ctx context.Context, p schema.MigrationProject, since time.Time) (map[schema.OutputLayer][]string, error) {
	files, err := t.probe.Recent(ctx, roots(p), since)
	if err != nil {
		return nil, contract.NewOpError(contract.KindScan, "complete", "failed to probe output roots", err)
	}
	if len(files) == 0 {
		return nil, nil
	}
	out := make(map[schema.OutputLayer][]string)
	for _, f := range files {
		layer, ok := layerOf(p, f.AbsPath)
		if !ok {
			continue
		}
		out[layer] = append(out[layer], f.AbsPath)
	}
	for layer := range out {
		sort.Strings(out[layer])
	}
	return out, nil
}

// layerOf finds the output root holding a path.
func layerOf(p schema.MigrationProject, abs string) (schema.OutputLayer, bool) {
	for _, layer := range schema.OutputLayers {
		root := p.OutputRoots()[layer]
		if root == "" {
			continue
		}
		rel, err := filepath.Rel(root, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return layer, true
		}
	}
	return "", false
}

func roots(p schema.MigrationProject) []string {
	var out []string
	for _, layer := range schema.OutputLayers {
		if r := p.OutputRoots()[layer]; r != "" {
			out = append(out, r)
		}
	}
	return out
}

func countArtifacts(artifacts map[schema.OutputLayer][]string) int {
	n := 0
	for _, paths := range artifacts {
		n += len(paths)
	}
	return n
}

// Fail marks a pending or in-progress unit failed. Artifacts are kept.
func (t *Tracker) Fail(ctx context.Context, p schema.MigrationProject, unitID, reason string) (schema.SourceUnit, error) {
	const op = "fail"
	if strings.TrimSpace(reason) == "" {
		return schema.SourceUnit{}, contract.NewOpError(contract.KindInvalidInput, op, "a failure reason is required", nil)
	}
	u, err := t.unitOf(ctx, op, p, unitID)
	if err != nil {
		return schema.SourceUnit{}, err
	}
	if err := checkTransition(op, u, schema.StatusFailed, false); err != nil {
		return u, err
	}
	failed, err := t.apply(ctx, op, u, schema.UnitTransition{
		To:        schema.StatusFailed,
		Artifacts: u.Artifacts,
		LastError: reason,
		StartedAt: u.StartedAt,
	})
	if err != nil {
		return u, err
	}
	contract.Logger().WithFields(projectFields(p)).WithFields(logrus.Fields{"unit": u.ID, "reason": reason}).Warn("Unit failed")
	return failed, nil
}

// Retry moves one failed unit back to pending.
func (t *Tracker) Retry(ctx context.Context, p schema.MigrationProject, unitID string) (schema.SourceUnit, error) {
	const op = "retry"
	u, err := t.unitOf(ctx, op, p, unitID)
	if err != nil {
		return schema.SourceUnit{}, err
	}
	retried, err := t.retry(ctx, op, u)
	if err != nil {
		return u, err
	}
	return retried, t.reopen(ctx, p, 1)
}

// RetryFailed moves every failed unit of the project back to pending and
// returns how many moved. Units changed concurrently are skipped.
func (t *Tracker) RetryFailed(ctx context.Context, p schema.MigrationProject) (int, error) {
	const op = "retry"
	failed, err := t.store.ListUnits(ctx, p.WorkspaceID, schema.UnitFilter{
		Statuses:       []schema.UnitStatus{schema.StatusFailed},
		MigratableOnly: true,
	})
	if err != nil {
		return 0, contract.NewOpError(contract.KindStore, op, "failed to list failed units", err)
	}
	count := 0
	for _, u := range failed {
		_, err := t.retry(ctx, op, u)
		if contract.KindOf(err) == contract.KindConflict {
			continue
		}
		if err != nil {
			return count, err
		}
		count++
	}
	contract.Logger().WithFields(projectFields(p)).WithField("count", count).Info("Failed units reset")
	return count, t.reopen(ctx, p, count)
}

func (t *Tracker) retry(ctx context.Context, op string, u schema.SourceUnit) (schema.SourceUnit, error) {
	if err := checkTransition(op, u, schema.StatusPending, true); err != nil {
		return u, err
	}
	return t.apply(ctx, op, u, schema.UnitTransition{
		To:        schema.StatusPending,
		Artifacts: u.Artifacts,
	})
}

// reopen moves a finished project back to migrating after a retry.
func (t *Tracker) reopen(ctx context.Context, p schema.MigrationProject, retried int) error {
	if retried == 0 || (p.Status != schema.ProjectFailed && p.Status != schema.ProjectCompleted) {
		return nil
	}
	return t.advance(ctx, p, schema.ProjectMigrating)
}

// advance writes a new project status when it differs.
func (t *Tracker) advance(ctx context.Context, p schema.MigrationProject, to schema.ProjectStatus) error {
	if p.Status == to {
		return nil
	}
	if err := t.store.UpdateProjectStatus(ctx, p.ID, to, t.now()); err != nil {
		return contract.NewOpError(contract.KindOf(err), "status", "failed to update project status", err)
	}
	contract.Logger().WithFields(projectFields(p)).WithFields(logrus.Fields{"from": p.Status, "to": to}).Info("Project status changed")
	return nil
}
