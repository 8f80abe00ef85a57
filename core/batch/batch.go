// Package batch partitions outstanding units into budget-bounded batches.
package batch

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
)

// CostFunc estimates the cost of a text in abstract resource units.
type CostFunc func(text string) int

// SplitFunc splits a unit into finer parts. Fewer than two parts means the
// unit cannot be split.
type SplitFunc func(u schema.SourceUnit) []Part

// Part is one structural piece of a split unit.
type Part struct {
	Label   string
	Content string
}

// EstimateCost charges one unit per four bytes, rounded up.
func EstimateCost(text string) int {
	return (len(text) + 3) / 4
}

// Assembler packs units first-fit into batches.
type Assembler struct {
	budget int
	cost   CostFunc
	split  SplitFunc
	newID  func() string
}

// Option customizes an Assembler.
type Option func(*Assembler)

// WithCost replaces the cost estimator.
func WithCost(f CostFunc) Option {
	return func(a *Assembler) { a.cost = f }
}

// WithSplit replaces the splitter.
func WithSplit(f SplitFunc) Option {
	return func(a *Assembler) { a.split = f }
}

// New creates an assembler for the given budget.
func New(budget int, opts ...Option) (*Assembler, error) {
	if budget <= 0 {
		return nil, contract.NewOpError(contract.KindInvalidInput, "plan", fmt.Sprintf("invalid budget %d", budget), contract.ErrBudget)
	}
	a := &Assembler{
		budget: budget,
		cost:   EstimateCost,
		split:  SplitMembers,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Budget returns the configured budget.
func (a *Assembler) Budget() int {
	return a.budget
}

// builder accumulates the batch being filled.
type builder struct {
	members []schema.BatchMember
	content strings.Builder
	cost    int
	errors  []string
}

func (b *builder) add(m schema.BatchMember, content string) {
	b.members = append(b.members, m)
	fmt.Fprintf(&b.content, "// ---- %s", m.Path)
	if m.Parts > 1 {
		fmt.Fprintf(&b.content, " (part %d/%d: %s)", m.Part, m.Parts, m.Label)
	}
	b.content.WriteString(" ----\n")
	b.content.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.content.WriteString("\n")
	}
	b.cost += m.Cost
}

func (b *builder) empty() bool {
	return len(b.members) == 0
}

// Assemble orders units by ascending complexity (then path) and packs them.
// Every unit lands in exactly one batch, whole or split into parts. A batch
// exceeds the budget only when it holds a single oversized unit or part, and
// then carries a budget-overflow note.
func (a *Assembler) Assemble(workspaceID string, units []schema.SourceUnit, now time.Time) []schema.Batch {
	ordered := make([]schema.SourceUnit, len(units))
	copy(ordered, units)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Complexity != ordered[j].Complexity {
			return ordered[i].Complexity < ordered[j].Complexity
		}
		return ordered[i].Path < ordered[j].Path
	})

	var batches []schema.Batch
	emit := func(b *builder) {
		if b.empty() {
			return
		}
		batches = append(batches, schema.Batch{
			ID:          a.newID(),
			WorkspaceID: workspaceID,
			Seq:         len(batches) + 1,
			Members:     b.members,
			Content:     b.content.String(),
			Cost:        b.cost,
			Errors:      b.errors,
			CreatedAt:   now,
		})
	}

	running := &builder{}
	for _, u := range ordered {
		cost := a.cost(u.Content)
		if cost > a.budget {
			emit(running)
			running = &builder{}
			for _, b := range a.oversized(u, cost) {
				emit(b)
			}
			continue
		}
		if running.cost+cost > a.budget {
			emit(running)
			running = &builder{}
		}
		running.add(schema.BatchMember{UnitID: u.ID, Path: u.Path, Part: 1, Parts: 1, Cost: cost}, u.Content)
	}
	emit(running)
	return batches
}

// oversized splits a unit that exceeds the budget into one builder per part.
func (a *Assembler) oversized(u schema.SourceUnit, cost int) []*builder {
	parts := a.split(u)
	if len(parts) < 2 {
		b := &builder{}
		b.add(schema.BatchMember{UnitID: u.ID, Path: u.Path, Part: 1, Parts: 1, Cost: cost}, u.Content)
		b.errors = append(b.errors, overflowNote(u.Path, cost, a.budget, "unit cannot be split"))
		return []*builder{b}
	}

	out := make([]*builder, 0, len(parts))
	for i, p := range parts {
		partCost := a.cost(p.Content)
		b := &builder{}
		b.add(schema.BatchMember{
			UnitID: u.ID,
			Path:   u.Path,
			Part:   i + 1,
			Parts:  len(parts),
			Label:  p.Label,
			Cost:   partCost,
		}, p.Content)
		if partCost > a.budget {
			b.errors = append(b.errors, overflowNote(u.Path, partCost, a.budget, fmt.Sprintf("part %d/%d %s is still too large", i+1, len(parts), p.Label)))
		}
		out = append(out, b)
	}
	return out
}

func overflowNote(p string, cost, budget int, detail string) string {
	return fmt.Sprintf("%s: %s costs %d, over budget %d: %s", contract.KindBudgetOverflow, p, cost, budget, detail)
}
