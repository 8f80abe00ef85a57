// Package core sequences scans, planning and unit state changes for a migration.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/waypoint/core/batch"
	"github.com/huangsam/waypoint/core/classify"
	"github.com/huangsam/waypoint/core/graph"
	"github.com/huangsam/waypoint/core/tracker"
	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
	"github.com/sirupsen/logrus"
)

// Default output directories, relative to the scanned root.
const (
	defaultDataDir     = "migrated/data"
	defaultBusinessDir = "migrated/business"
)

// StartOptions configures a new migration project.
type StartOptions struct {
	DataRoot      string // Output root of the data layer
	BusinessRoot  string // Output root of the business layer
	Budget        int    // Batch budget in abstract resource units
	CreateOutputs bool   // Create missing output roots
}

// Orchestrator is the entry point for every migration operation.
// It owns no migration state; everything lives in the store.
type Orchestrator struct {
	cfg     *contract.Config
	store   contract.MigrationStore
	probe   contract.FileProbe
	scanner *classify.Scanner
	graph   *graph.Graph
	tracker *tracker.Tracker
	now     func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New wires an orchestrator from configuration.
func New(cfg *contract.Config, store contract.MigrationStore, probe contract.FileProbe, opts ...Option) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("migration store is not initialized")
	}
	naming := classify.DefaultNamingStrategy()
	if cfg.NamingStrategy != "" {
		loaded, err := classify.LoadNamingStrategy(cfg.NamingStrategy)
		if err != nil {
			return nil, err
		}
		naming = loaded
	}
	scanner, err := classify.NewScanner(probe, naming, cfg.Workers, cfg.CacheSize, cfg.ScanTimeout)
	if err != nil {
		return nil, err
	}
	g, err := graph.New(naming, probe, cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	o := &Orchestrator{
		cfg:     cfg,
		store:   store,
		probe:   probe,
		scanner: scanner,
		graph:   g,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.tracker = tracker.New(store, probe,
		tracker.WithClock(o.now),
		tracker.WithEvidenceWindows(cfg.EvidenceWindow, cfg.EvidenceWidenedWindow))
	return o, nil
}

// guard runs an operation, converting panics and untyped errors into OpErrors.
func guard[T any](op string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			contract.Logger().WithField("op", op).Errorf("Recovered from panic: %v", r)
			var zero T
			result, err = zero, contract.NewOpError(contract.KindInternal, op, fmt.Sprintf("unexpected failure: %v", r), nil)
		}
	}()
	result, err = fn()
	if err != nil {
		var opErr *contract.OpError
		if !errors.As(err, &opErr) {
			err = contract.NewOpError(contract.KindOf(err), op, "operation failed", err)
		}
	}
	return result, err
}

// Envelop wraps an operation result for callers that need a uniform shape.
func Envelop(data any, err error) schema.Envelope {
	if err == nil {
		return schema.Success(data)
	}
	f := schema.Failure{Kind: string(contract.KindOf(err)), Message: err.Error()}
	var opErr *contract.OpError
	if errors.As(err, &opErr) {
		f.Op = opErr.Op
	}
	return schema.Failed(f)
}

// Scan classifies the tree under root and stores it as a new workspace.
func (o *Orchestrator) Scan(ctx context.Context, root string) (schema.Workspace, error) {
	return guard("scan", func() (schema.Workspace, error) {
		if root == "" {
			root = o.cfg.RootPath
		}
		if root == "" {
			return schema.Workspace{}, contract.NewOpError(contract.KindInvalidInput, "scan", "a root path is required", nil)
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return schema.Workspace{}, contract.NewOpError(contract.KindInvalidInput, "scan", "invalid root path", err)
		}

		filter := o.cfg.ProbeFilter()
		if filter.SkipRoots, err = o.skipRoots(ctx, abs); err != nil {
			return schema.Workspace{}, err
		}
		start := o.now()
		result, err := o.scanner.Scan(ctx, abs, filter)
		if err != nil {
			return schema.Workspace{}, err
		}
		ws := classify.NewWorkspace(abs, result, o.now())
		if err := o.store.SaveScan(ctx, ws, result.Units); err != nil {
			return schema.Workspace{}, contract.NewOpError(contract.KindStore, "scan", "failed to save workspace", err)
		}
		contract.Logger().WithFields(logrus.Fields{
			"workspace": ws.ID,
			"root":      abs,
			"units":     ws.TotalUnits,
			"errors":    ws.ScanErrorCount,
			"elapsed":   o.now().Sub(start).Round(time.Millisecond),
		}).Info("Scan complete")
		return ws, nil
	})
}

// Start creates the migration project of a workspace and plans its batches.
// Starting an already started workspace returns the existing project, and
// finishes its planning when an earlier start did not.
func (o *Orchestrator) Start(ctx context.Context, workspaceID string, opts StartOptions) (schema.MigrationProject, error) {
	return guard("start", func() (schema.MigrationProject, error) {
		if opts.Budget <= 0 {
			return schema.MigrationProject{}, contract.NewOpError(contract.KindInvalidInput, "start",
				fmt.Sprintf("invalid budget %d", opts.Budget), contract.ErrBudget)
		}
		ws, err := o.workspace(ctx, "start", workspaceID)
		if err != nil {
			return schema.MigrationProject{}, err
		}
		if existing, ok, err := o.store.FindProjectByWorkspace(ctx, ws.ID); err != nil {
			return schema.MigrationProject{}, contract.NewOpError(contract.KindStore, "start", "failed to look up project", err)
		} else if ok {
			return o.resumeStart(ctx, existing, opts.Budget)
		}

		dataRoot, businessRoot, err := o.outputRoots(ws, opts)
		if err != nil {
			return schema.MigrationProject{}, err
		}
		now := o.now()
		p := schema.MigrationProject{
			ID:           uuid.NewString(),
			WorkspaceID:  ws.ID,
			DataRoot:     dataRoot,
			BusinessRoot: businessRoot,
			Status:       schema.ProjectInitialized,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := o.store.SaveProject(ctx, p); err != nil {
			if errors.Is(err, contract.ErrConflict) {
				if existing, ok, findErr := o.store.FindProjectByWorkspace(ctx, ws.ID); findErr == nil && ok {
					return existing, nil
				}
			}
			return schema.MigrationProject{}, contract.NewOpError(contract.KindOf(err), "start", "failed to save project", err)
		}

		return o.planProject(ctx, p, opts.Budget)
	})
}

// resumeStart returns a project whose planning already finished. A project
// left initialized, analyzing or failed without batches is planned again.
func (o *Orchestrator) resumeStart(ctx context.Context, p schema.MigrationProject, budget int) (schema.MigrationProject, error) {
	switch p.Status {
	case schema.ProjectInitialized, schema.ProjectAnalyzing:
	case schema.ProjectFailed:
		batches, err := o.store.ListBatches(ctx, p.WorkspaceID)
		if err != nil {
			return schema.MigrationProject{}, contract.NewOpError(contract.KindStore, "start", "failed to list batches", err)
		}
		if len(batches) > 0 {
			return p, nil
		}
	default:
		return p, nil
	}
	contract.Logger().WithFields(logrus.Fields{"project": p.ID, "status": p.Status}).Info("Resuming migration planning")
	return o.planProject(ctx, p, budget)
}

// planProject moves a project through analyzing while its batches are planned.
// The project is marked failed when planning fails.
func (o *Orchestrator) planProject(ctx context.Context, p schema.MigrationProject, budget int) (schema.MigrationProject, error) {
	if err := o.setProjectStatus(ctx, &p, schema.ProjectAnalyzing); err != nil {
		return schema.MigrationProject{}, err
	}
	batches, err := o.planBatches(ctx, p.WorkspaceID, budget)
	if err != nil {
		_ = o.setProjectStatus(ctx, &p, schema.ProjectFailed)
		return schema.MigrationProject{}, err
	}
	if err := o.setProjectStatus(ctx, &p, schema.ProjectReady); err != nil {
		return schema.MigrationProject{}, err
	}
	contract.Logger().WithFields(logrus.Fields{
		"project":   p.ID,
		"workspace": p.WorkspaceID,
		"batches":   len(batches),
	}).Info("Migration started")
	return p, nil
}

// skipRoots lists the output directories a scan of root must not descend
// into: the default roots under root and the roots of every project.
func (o *Orchestrator) skipRoots(ctx context.Context, root string) ([]string, error) {
	skip := []string{
		filepath.Join(root, filepath.FromSlash(defaultDataDir)),
		filepath.Join(root, filepath.FromSlash(defaultBusinessDir)),
	}
	projects, err := o.store.ListProjects(ctx)
	if err != nil {
		return nil, contract.NewOpError(contract.KindStore, "scan", "failed to list projects", err)
	}
	for _, p := range projects {
		skip = append(skip, p.DataRoot, p.BusinessRoot)
	}
	return skip, nil
}

// outputRoots resolves and optionally creates the output roots of a project.
func (o *Orchestrator) outputRoots(ws schema.Workspace, opts StartOptions) (string, string, error) {
	dataRoot, businessRoot := opts.DataRoot, opts.BusinessRoot
	if dataRoot == "" {
		dataRoot = filepath.Join(ws.RootPath, filepath.FromSlash(defaultDataDir))
	}
	if businessRoot == "" {
		businessRoot = filepath.Join(ws.RootPath, filepath.FromSlash(defaultBusinessDir))
	}
	var err error
	if dataRoot, err = filepath.Abs(dataRoot); err != nil {
		return "", "", contract.NewOpError(contract.KindInvalidInput, "start", "invalid data root", err)
	}
	if businessRoot, err = filepath.Abs(businessRoot); err != nil {
		return "", "", contract.NewOpError(contract.KindInvalidInput, "start", "invalid business root", err)
	}
	if opts.CreateOutputs {
		for _, dir := range []string{dataRoot, businessRoot} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", "", contract.NewOpError(contract.KindInvalidInput, "start", "failed to create output root", err)
			}
		}
	}
	return dataRoot, businessRoot, nil
}

func (o *Orchestrator) setProjectStatus(ctx context.Context, p *schema.MigrationProject, status schema.ProjectStatus) error {
	now := o.now()
	if err := o.store.UpdateProjectStatus(ctx, p.ID, status, now); err != nil {
		return contract.NewOpError(contract.KindOf(err), "start", "failed to update project status", err)
	}
	p.Status, p.UpdatedAt = status, now
	return nil
}

// PlanBatches partitions the outstanding units of a workspace. Batches that
// already exist are returned unchanged.
func (o *Orchestrator) PlanBatches(ctx context.Context, workspaceID string, budget int) ([]schema.Batch, error) {
	return guard("plan", func() ([]schema.Batch, error) {
		if _, err := o.workspace(ctx, "plan", workspaceID); err != nil {
			return nil, err
		}
		return o.planBatches(ctx, workspaceID, budget)
	})
}

func (o *Orchestrator) planBatches(ctx context.Context, workspaceID string, budget int) ([]schema.Batch, error) {
	existing, err := o.store.ListBatches(ctx, workspaceID)
	if err != nil {
		return nil, contract.NewOpError(contract.KindStore, "plan", "failed to list batches", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	assembler, err := batch.New(budget)
	if err != nil {
		return nil, err
	}
	units, err := o.store.ListUnits(ctx, workspaceID, schema.UnitFilter{
		Statuses:       []schema.UnitStatus{schema.StatusPending, schema.StatusInProgress, schema.StatusFailed},
		MigratableOnly: true,
	})
	if err != nil {
		return nil, contract.NewOpError(contract.KindStore, "plan", "failed to list outstanding units", err)
	}
	batches := assembler.Assemble(workspaceID, units, o.now())
	if err := o.store.InsertBatches(ctx, batches); err != nil {
		return nil, contract.NewOpError(contract.KindStore, "plan", "failed to save batches", err)
	}
	for _, b := range batches {
		for _, note := range b.Errors {
			contract.Logger().WithFields(logrus.Fields{"workspace": workspaceID, "batch": b.Seq}).Warn(note)
		}
	}
	return batches, nil
}

// NextUnit claims the next unit of work and assembles its context.
// Done is set when nothing is left to claim.
func (o *Orchestrator) NextUnit(ctx context.Context, projectRef string) (schema.NextUnitResult, error) {
	return guard("next", func() (schema.NextUnitResult, error) {
		p, err := o.project(ctx, "next", projectRef)
		if err != nil {
			return schema.NextUnitResult{}, err
		}
		u, ok, err := o.tracker.Claim(ctx, p)
		if err != nil {
			return schema.NextUnitResult{}, err
		}
		result := schema.NextUnitResult{Done: !ok}
		if ok {
			uc, err := o.unitContext(ctx, p, u)
			if err != nil {
				return schema.NextUnitResult{}, err
			}
			result.Unit, result.Content, result.Context = &u, u.Content, &uc
		}
		if result.Progress, err = o.progress(ctx, "next", p); err != nil {
			return schema.NextUnitResult{}, err
		}
		return result, nil
	})
}

// CompleteUnit records the completion of a unit once its artifacts are
// observed. Without artifacts the unit is failed and an error is returned.
func (o *Orchestrator) CompleteUnit(ctx context.Context, projectRef, unitID, notes string) (schema.ProgressSnapshot, error) {
	return guard("complete", func() (schema.ProgressSnapshot, error) {
		p, err := o.project(ctx, "complete", projectRef)
		if err != nil {
			return schema.ProgressSnapshot{}, err
		}
		u, completeErr := o.tracker.Complete(ctx, p, unitID, notes)
		if completeErr != nil && contract.KindOf(completeErr) != contract.KindEvidenceMissing {
			return schema.ProgressSnapshot{}, completeErr
		}
		o.settleBatches(ctx, p, u)
		if completeErr != nil {
			return schema.ProgressSnapshot{}, completeErr
		}
		return o.progress(ctx, "complete", p)
	})
}

// FailUnit marks a unit failed with a reason.
func (o *Orchestrator) FailUnit(ctx context.Context, projectRef, unitID, reason string) (schema.ProgressSnapshot, error) {
	return guard("fail", func() (schema.ProgressSnapshot, error) {
		p, err := o.project(ctx, "fail", projectRef)
		if err != nil {
			return schema.ProgressSnapshot{}, err
		}
		u, err := o.tracker.Fail(ctx, p, unitID, reason)
		if err != nil {
			return schema.ProgressSnapshot{}, err
		}
		o.settleBatches(ctx, p, u)
		return o.progress(ctx, "fail", p)
	})
}

// RetryFailed resets every failed unit of a project and returns how many moved.
func (o *Orchestrator) RetryFailed(ctx context.Context, projectRef string) (int, error) {
	return guard("retry", func() (int, error) {
		p, err := o.project(ctx, "retry", projectRef)
		if err != nil {
			return 0, err
		}
		return o.tracker.RetryFailed(ctx, p)
	})
}

// RetryUnit resets one failed unit.
func (o *Orchestrator) RetryUnit(ctx context.Context, projectRef, unitID string) (schema.SourceUnit, error) {
	return guard("retry", func() (schema.SourceUnit, error) {
		p, err := o.project(ctx, "retry", projectRef)
		if err != nil {
			return schema.SourceUnit{}, err
		}
		return o.tracker.Retry(ctx, p, unitID)
	})
}

// Status derives the progress of a project.
func (o *Orchestrator) Status(ctx context.Context, projectRef string) (schema.ProgressSnapshot, error) {
	return guard("status", func() (schema.ProgressSnapshot, error) {
		p, err := o.project(ctx, "status", projectRef)
		if err != nil {
			return schema.ProgressSnapshot{}, err
		}
		return o.tracker.Progress(ctx, p)
	})
}

// ListUnits lists the units of a project.
func (o *Orchestrator) ListUnits(ctx context.Context, projectRef string, filter schema.UnitFilter) ([]schema.UnitSummary, error) {
	return guard("list", func() ([]schema.UnitSummary, error) {
		p, err := o.project(ctx, "list", projectRef)
		if err != nil {
			return nil, err
		}
		units, err := o.store.ListUnits(ctx, p.WorkspaceID, filter)
		if err != nil {
			return nil, contract.NewOpError(contract.KindStore, "list", "failed to list units", err)
		}
		out := make([]schema.UnitSummary, 0, len(units))
		for _, u := range units {
			out = append(out, schema.SummarizeUnit(u))
		}
		return out, nil
	})
}

// Related assembles the migration context of a unit without claiming it.
func (o *Orchestrator) Related(ctx context.Context, projectRef, unitID string) (schema.UnitContext, error) {
	return guard("related", func() (schema.UnitContext, error) {
		p, err := o.project(ctx, "related", projectRef)
		if err != nil {
			return schema.UnitContext{}, err
		}
		u, err := o.store.GetUnit(ctx, unitID)
		if err != nil {
			return schema.UnitContext{}, contract.NewOpError(contract.KindOf(err), "related", "failed to load unit", err)
		}
		if u.WorkspaceID != p.WorkspaceID {
			return schema.UnitContext{}, contract.NewOpError(contract.KindNotFound, "related",
				fmt.Sprintf("unit %s is not part of project %s", unitID, p.ID), contract.ErrNotFound)
		}
		return o.unitContext(ctx, p, u)
	})
}

// Cycles reports reference cycles among the outstanding units of a project.
func (o *Orchestrator) Cycles(ctx context.Context, projectRef string) ([]schema.Cycle, error) {
	return guard("cycles", func() ([]schema.Cycle, error) {
		p, err := o.project(ctx, "cycles", projectRef)
		if err != nil {
			return nil, err
		}
		units, err := o.store.ListUnits(ctx, p.WorkspaceID, schema.UnitFilter{
			Statuses:       []schema.UnitStatus{schema.StatusPending, schema.StatusInProgress},
			MigratableOnly: true,
		})
		if err != nil {
			return nil, contract.NewOpError(contract.KindStore, "cycles", "failed to list units", err)
		}
		cycles := graph.Cycles(units)
		graph.LogCycles(cycles, logrus.Fields{"project": p.ID})
		return cycles, nil
	})
}

// progress reloads the project, since claims and retries move its status,
// and derives a fresh snapshot.
func (o *Orchestrator) progress(ctx context.Context, op string, p schema.MigrationProject) (schema.ProgressSnapshot, error) {
	current, err := o.store.GetProject(ctx, p.ID)
	if err != nil {
		return schema.ProgressSnapshot{}, contract.NewOpError(contract.KindOf(err), op, "failed to reload project", err)
	}
	return o.tracker.Progress(ctx, current)
}

// unitContext gathers related units, dependency status, cycles and batches.
func (o *Orchestrator) unitContext(ctx context.Context, p schema.MigrationProject, u schema.SourceUnit) (schema.UnitContext, error) {
	all, err := o.store.ListUnits(ctx, p.WorkspaceID, schema.UnitFilter{})
	if err != nil {
		return schema.UnitContext{}, contract.NewOpError(contract.KindStore, "context", "failed to list units", err)
	}
	var completed, outstanding []schema.SourceUnit
	for _, c := range all {
		switch {
		case c.Status == schema.StatusCompleted:
			completed = append(completed, c)
		case c.Status.Outstanding() && c.Migratable():
			outstanding = append(outstanding, c)
		}
	}

	related, err := o.graph.Related(ctx, u, completed, graph.Options{
		Limit:         o.cfg.RelatedLimit,
		Floor:         o.cfg.RelatedFloor,
		ArtifactRoots: []string{p.DataRoot, p.BusinessRoot},
		Now:           o.now(),
	})
	if err != nil {
		return schema.UnitContext{}, contract.NewOpError(contract.KindScan, "context", "failed to rank related units", err)
	}

	uc := schema.UnitContext{
		Related:      related,
		Dependencies: graph.Dependencies(u, all),
	}
	for _, c := range graph.Cycles(outstanding) {
		for _, id := range c.UnitIDs {
			if id == u.ID {
				uc.Cycles = append(uc.Cycles, c)
				break
			}
		}
	}
	graph.LogCycles(uc.Cycles, logrus.Fields{"project": p.ID, "unit": u.ID})

	batches, err := o.store.ListBatches(ctx, p.WorkspaceID)
	if err != nil {
		return schema.UnitContext{}, contract.NewOpError(contract.KindStore, "context", "failed to list batches", err)
	}
	for _, b := range batches {
		if b.Contains(u.ID) {
			uc.BatchIDs = append(uc.BatchIDs, b.ID)
		}
	}
	return uc, nil
}

// settleBatches marks batches processed once none of their members is
// outstanding. Failures here are logged, never returned.
func (o *Orchestrator) settleBatches(ctx context.Context, p schema.MigrationProject, u schema.SourceUnit) {
	log := contract.Logger().WithFields(logrus.Fields{"project": p.ID, "unit": u.ID})
	batches, err := o.store.ListBatches(ctx, p.WorkspaceID)
	if err != nil {
		log.WithError(err).Warn("Failed to list batches")
		return
	}
	statuses := make(map[string]schema.SourceUnit)
	for _, b := range batches {
		if b.Processed || !b.Contains(u.ID) {
			continue
		}
		var failures []string
		settled := true
		for _, m := range b.Members {
			member, ok := statuses[m.UnitID]
			if !ok {
				if member, err = o.store.GetUnit(ctx, m.UnitID); err != nil {
					log.WithError(err).Warn("Failed to load batch member")
					return
				}
				statuses[m.UnitID] = member
			}
			if member.Status.Outstanding() {
				settled = false
				break
			}
			if member.Status == schema.StatusFailed && member.LastError != "" {
				failures = append(failures, fmt.Sprintf("%s: %s", member.Path, member.LastError))
			}
		}
		if !settled {
			continue
		}
		result := string(schema.StatusCompleted)
		if len(failures) > 0 {
			result = fmt.Sprintf("%d of %d members failed", len(failures), len(b.Members))
		}
		if err := o.store.MarkBatchProcessed(ctx, b.ID, result, append(b.Errors, failures...)); err != nil {
			log.WithError(err).WithField("batch", b.Seq).Warn("Failed to mark batch processed")
		}
	}
}

// workspace loads a workspace by id.
func (o *Orchestrator) workspace(ctx context.Context, op, id string) (schema.Workspace, error) {
	if id == "" {
		workspaces, err := o.store.ListWorkspaces(ctx)
		if err != nil {
			return schema.Workspace{}, contract.NewOpError(contract.KindStore, op, "failed to list workspaces", err)
		}
		if len(workspaces) == 0 {
			return schema.Workspace{}, contract.NewOpError(contract.KindNotFound, op, "no workspace has been scanned", contract.ErrNotFound)
		}
		return workspaces[0], nil
	}
	ws, err := o.store.GetWorkspace(ctx, id)
	if err != nil {
		return schema.Workspace{}, contract.NewOpError(contract.KindOf(err), op, "failed to load workspace", err)
	}
	return ws, nil
}

// project resolves a project by project id or workspace id. An empty
// reference selects the most recently created project.
func (o *Orchestrator) project(ctx context.Context, op, ref string) (schema.MigrationProject, error) {
	if ref == "" {
		projects, err := o.store.ListProjects(ctx)
		if err != nil {
			return schema.MigrationProject{}, contract.NewOpError(contract.KindStore, op, "failed to list projects", err)
		}
		if len(projects) == 0 {
			return schema.MigrationProject{}, contract.NewOpError(contract.KindNotFound, op, "no migration has been started", contract.ErrNotFound)
		}
		return projects[len(projects)-1], nil
	}
	p, err := o.store.GetProject(ctx, ref)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, contract.ErrNotFound) {
		return p, contract.NewOpError(contract.KindStore, op, "failed to load project", err)
	}
	p, ok, findErr := o.store.FindProjectByWorkspace(ctx, ref)
	if findErr != nil {
		return p, contract.NewOpError(contract.KindStore, op, "failed to load project", findErr)
	}
	if !ok {
		return p, contract.NewOpError(contract.KindNotFound, op, fmt.Sprintf("project %s", ref), contract.ErrNotFound)
	}
	return p, nil
}
