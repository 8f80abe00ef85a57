// Package graph relates source units to each other for migration context.
package graph

import (
	"context"
	"fmt"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/huangsam/waypoint/core/classify"
	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
	"github.com/sirupsen/logrus"
)

// Graph answers relatedness, dependency and cycle queries over a unit pool.
type Graph struct {
	naming *classify.NamingStrategy
	probe  contract.FileProbe
	cache  *lru.Cache[fingerprintKey, *Fingerprint]
}

// Options controls a Related query.
type Options struct {
	Limit         int       // Maximum items returned
	Floor         int       // Minimum items before artifacts are added
	ArtifactRoots []string  // Output roots searched when widening
	Now           time.Time // Reference time for recency; zero means time.Now
}

// New creates a graph. A cacheSize of 0 disables fingerprint caching.
func New(naming *classify.NamingStrategy, probe contract.FileProbe, cacheSize int) (*Graph, error) {
	if naming == nil {
		naming = classify.DefaultNamingStrategy()
	}
	g := &Graph{naming: naming, probe: probe}
	if cacheSize > 0 {
		cache, err := lru.New[fingerprintKey, *Fingerprint](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create fingerprint cache: %w", err)
		}
		g.cache = cache
	}
	return g, nil
}

// Score relates two units directly.
func (g *Graph) Score(target, candidate schema.SourceUnit, now time.Time) Match {
	return Relate(g.fingerprint(target), g.fingerprint(candidate), candidate, now)
}

// Related returns the units of pool most related to unit, best first.
// When fewer than opts.Floor units qualify, the most recently modified files
// under the artifact roots are appended until the floor is reached.
func (g *Graph) Related(ctx context.Context, unit schema.SourceUnit, pool []schema.SourceUnit, opts Options) ([]schema.ContextItem, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = contract.DefaultRelatedLimit
	}
	floor := min(opts.Floor, limit)
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	target := g.fingerprint(unit)
	var items []schema.ContextItem
	for _, candidate := range pool {
		if isSameUnit(unit, candidate) {
			continue
		}
		m := Relate(target, g.fingerprint(candidate), candidate, now)
		if !m.Related() {
			continue
		}
		items = append(items, schema.ContextItem{
			UnitID:  candidate.ID,
			Path:    candidate.Path,
			Kind:    candidate.Kind,
			Score:   m.Score,
			Reasons: m.Reasons,
			Source:  schema.SourceUnitContext,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Path < items[j].Path
	})
	if len(items) > limit {
		items = items[:limit]
	}

	if len(items) >= floor || g.probe == nil || len(opts.ArtifactRoots) == 0 {
		return items, nil
	}
	artifacts, err := g.probe.Recent(ctx, opts.ArtifactRoots, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to list recent artifacts: %w", err)
	}
	for _, f := range artifacts {
		if len(items) >= floor {
			break
		}
		items = append(items, schema.ContextItem{
			Path:   f.AbsPath,
			Source: schema.SourceArtifactContext,
		})
	}
	return items, nil
}

func isSameUnit(a, b schema.SourceUnit) bool {
	if a.ID != "" || b.ID != "" {
		return a.ID == b.ID
	}
	return a.Path == b.Path
}

// Dependencies partitions the references of unit by the status of the units
// declaring them. Identifiers no unit of pool declares are unresolved.
func Dependencies(unit schema.SourceUnit, pool []schema.SourceUnit) schema.DependencyStatus {
	declared := make(map[string]bool) // Type name -> declared by a completed unit
	for _, u := range pool {
		if isSameUnit(unit, u) {
			continue
		}
		for _, t := range u.DeclaredTypes {
			declared[t] = declared[t] || u.Status == schema.StatusCompleted
		}
	}

	deps := schema.DependencyStatus{Migrated: []string{}, Pending: []string{}, Unresolved: []string{}}
	for _, ref := range unit.References {
		completed, ok := declared[ref]
		switch {
		case !ok:
			deps.Unresolved = append(deps.Unresolved, ref)
		case completed:
			deps.Migrated = append(deps.Migrated, ref)
		default:
			deps.Pending = append(deps.Pending, ref)
		}
	}
	return deps
}

// LogCycles reports advisory cycles as warnings.
func LogCycles(cycles []schema.Cycle, fields logrus.Fields) {
	for _, c := range cycles {
		contract.Logger().WithFields(fields).WithField("paths", c.Paths).Warn("Reference cycle among pending units")
	}
}
