package core

import (
	"context"
	"time"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/internal/outwriter"
	"github.com/huangsam/waypoint/internal/probe"
	"github.com/huangsam/waypoint/schema"
)

// Request carries the positional arguments and filters of one command.
type Request struct {
	Target  string // Root path, workspace id or project reference
	UnitID  string
	Message string // Completion notes or failure reason
	Filter  schema.UnitFilter
}

// ExecutorFunc defines the function signature for executing CLI commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, req Request) error

// newFromManager wires an orchestrator against the active store.
func newFromManager(cfg *contract.Config, mgr contract.StoreManager) (*Orchestrator, error) {
	return New(cfg, mgr.GetMigrationStore(), probe.New())
}

// ExecuteScan scans a legacy tree and prints the workspace summary.
func ExecuteScan(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, req Request) error {
	start := time.Now()
	o, err := newFromManager(cfg, mgr)
	if err != nil {
		return err
	}
	ws, err := o.Scan(ctx, req.Target)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteWorkspace(ws, cfg, time.Since(start))
}

// ExecuteStart starts the migration of a workspace and prints the project.
func ExecuteStart(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, req Request) error {
	o, err := newFromManager(cfg, mgr)
	if err != nil {
		return err
	}
	p, err := o.Start(ctx, req.Target, StartOptions{
		DataRoot:      cfg.DataRoot,
		BusinessRoot:  cfg.BusinessRoot,
		Budget:        cfg.Budget,
		CreateOutputs: cfg.CreateOutputs,
	})
	if err != nil {
		return err
	}
	batches, err := o.PlanBatches(ctx, p.WorkspaceID, cfg.Budget)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteProject(p, len(batches), cfg)
}

// ExecuteNext claims the next unit and prints it with its context.
func ExecuteNext(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, req Request) error {
	o, err := newFromManager(cfg, mgr)
	if err != nil {
		return err
	}
	result, err := o.NextUnit(ctx, req.Target)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteNextUnit(result, cfg)
}

// ExecuteComplete records a finished unit and prints the new progress.
func ExecuteComplete(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, req Request) error {
	o, err := newFromManager(cfg, mgr)
	if err != nil {
		return err
	}
	snap, err := o.CompleteUnit(ctx, req.Target, req.UnitID, req.Message)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteProgress(snap, cfg)
}

// ExecuteFail marks a unit failed and prints the new progress.
func ExecuteFail(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, req Request) error {
	o, err := newFromManager(cfg, mgr)
	if err != nil {
		return err
	}
	snap, err := o.FailUnit(ctx, req.Target, req.UnitID, req.Message)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteProgress(snap, cfg)
}

// ExecuteRetry resets one failed unit, or all of them when no unit is given.
func ExecuteRetry(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, req Request) error {
	o, err := newFromManager(cfg, mgr)
	if err != nil {
		return err
	}
	retried := 1
	if req.UnitID != "" {
		_, err = o.RetryUnit(ctx, req.Target, req.UnitID)
	} else {
		retried, err = o.RetryFailed(ctx, req.Target)
	}
	if err != nil {
		return err
	}
	snap, err := o.Status(ctx, req.Target)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteRetried(retried, snap, cfg)
}

// ExecuteStatus prints the progress of a project.
func ExecuteStatus(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, req Request) error {
	o, err := newFromManager(cfg, mgr)
	if err != nil {
		return err
	}
	snap, err := o.Status(ctx, req.Target)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteProgress(snap, cfg)
}

// ExecuteList prints the units of a project.
func ExecuteList(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, req Request) error {
	o, err := newFromManager(cfg, mgr)
	if err != nil {
		return err
	}
	units, err := o.ListUnits(ctx, req.Target, req.Filter)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteUnits(units, cfg)
}

// ExecuteBatches plans (or loads) the batches of a workspace and prints them.
func ExecuteBatches(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, req Request) error {
	o, err := newFromManager(cfg, mgr)
	if err != nil {
		return err
	}
	batches, err := o.PlanBatches(ctx, req.Target, cfg.Budget)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteBatches(batches, cfg)
}

// ExecuteRelated prints the migration context of a unit.
func ExecuteRelated(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, req Request) error {
	o, err := newFromManager(cfg, mgr)
	if err != nil {
		return err
	}
	uc, err := o.Related(ctx, req.Target, req.UnitID)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteContext(uc, cfg)
}

// ExecuteCycles prints reference cycles among outstanding units.
func ExecuteCycles(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, req Request) error {
	o, err := newFromManager(cfg, mgr)
	if err != nil {
		return err
	}
	cycles, err := o.Cycles(ctx, req.Target)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteCycles(cycles, cfg)
}
