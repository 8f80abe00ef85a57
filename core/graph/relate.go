package graph

import (
	"math"
	"path"
	"strings"
	"time"

	"github.com/huangsam/waypoint/schema"
)

// Relatedness scores.
const (
	scoreSameStemSameLayer  = 100
	scoreSameStemCrossLayer = 80
	scoreSharedInterface    = 40
	scoreSharedType         = 30
	scoreSharedResource     = 25
	scorePerReference       = 10
	maxReferenceScore       = 40
	scoreNearbyDirectory    = 50
	maxRecencyBonus         = 20
	complexityBonus         = 5
	recencyHorizon          = 24 * time.Hour
)

// Predicate is one row of the ordered relatedness table.
// Score returns zero when the predicate does not hold.
type Predicate struct {
	Name  string
	Score func(a, b *Fingerprint) int
}

// Predicates is the relatedness table. Every matching row contributes.
var Predicates = []Predicate{
	{Name: "same-stem-same-layer", Score: func(a, b *Fingerprint) int {
		if sameStem(a, b) && a.Layer == b.Layer {
			return scoreSameStemSameLayer
		}
		return 0
	}},
	{Name: "same-stem-cross-layer", Score: func(a, b *Fingerprint) int {
		if sameStem(a, b) && a.Layer != b.Layer {
			return scoreSameStemCrossLayer
		}
		return 0
	}},
	{Name: "shared-interface", Score: func(a, b *Fingerprint) int {
		if sharesInterface(a, b) {
			return scoreSharedInterface
		}
		return 0
	}},
	{Name: "shared-type", Score: func(a, b *Fingerprint) int {
		if a.Types.intersect(b.Types) > 0 || a.Types.intersect(b.References) > 0 || b.Types.intersect(a.References) > 0 {
			return scoreSharedType
		}
		return 0
	}},
	{Name: "shared-resource", Score: func(a, b *Fingerprint) int {
		if a.Resources.intersect(b.Resources) > 0 {
			return scoreSharedResource
		}
		return 0
	}},
	{Name: "shared-references", Score: func(a, b *Fingerprint) int {
		return min(maxReferenceScore, scorePerReference*a.References.intersect(b.References))
	}},
	{Name: "nearby-directory", Score: func(a, b *Fingerprint) int {
		if nearbyDirs(a.Dir, b.Dir) {
			return scoreNearbyDirectory
		}
		return 0
	}},
}

// Match is the outcome of relating two units.
type Match struct {
	Score   int
	Reasons []string
}

// Related reports whether any predicate matched.
func (m Match) Related() bool {
	return len(m.Reasons) > 0
}

// Relate scores candidate against target. Bonuses for recency and complexity
// are only added when at least one predicate matched.
func Relate(target, candidate *Fingerprint, unit schema.SourceUnit, now time.Time) Match {
	var m Match
	for _, p := range Predicates {
		if s := p.Score(target, candidate); s > 0 {
			m.Score += s
			m.Reasons = append(m.Reasons, p.Name)
		}
	}
	if !m.Related() {
		return m
	}
	if bonus := recencyBonus(unit, now); bonus > 0 {
		m.Score += bonus
		m.Reasons = append(m.Reasons, "recently-completed")
	}
	m.Score += complexityBonus * unit.Complexity
	return m
}

// recencyBonus decays linearly from the maximum to zero over the horizon.
func recencyBonus(u schema.SourceUnit, now time.Time) int {
	if u.Status != schema.StatusCompleted || u.CompletedAt.IsZero() {
		return 0
	}
	age := now.Sub(u.CompletedAt)
	if age < 0 {
		age = 0
	}
	if age >= recencyHorizon {
		return 0
	}
	remaining := 1 - float64(age)/float64(recencyHorizon)
	return int(math.Round(maxRecencyBonus * remaining))
}

func sameStem(a, b *Fingerprint) bool {
	return a.Stem != "" && strings.EqualFold(a.Stem, b.Stem)
}

// sharesInterface matches a common interface, an interface and its
// implementation by name, or one side referencing the other's interface.
func sharesInterface(a, b *Fingerprint) bool {
	return a.Interfaces.intersect(b.Interfaces) > 0 ||
		a.InterfaceStems.intersect(b.Types) > 0 ||
		b.InterfaceStems.intersect(a.Types) > 0 ||
		a.Interfaces.intersect(b.References) > 0 ||
		b.Interfaces.intersect(a.References) > 0
}

// nearbyDirs holds for the same directory or a direct parent and child.
func nearbyDirs(a, b string) bool {
	return a == b || path.Dir(a) == b || path.Dir(b) == a
}
