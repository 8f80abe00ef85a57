package graph

import (
	"testing"

	"github.com/huangsam/waypoint/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cycleUnit(id, p string, status schema.UnitStatus, declares []string, refs ...string) schema.SourceUnit {
	return schema.SourceUnit{ID: id, Path: p, Status: status, DeclaredTypes: declares, References: refs}
}

func TestCycles(t *testing.T) {
	units := []schema.SourceUnit{
		cycleUnit("c", "C.cs", schema.StatusPending, []string{"C"}, "A"),
		cycleUnit("a", "A.cs", schema.StatusPending, []string{"A"}, "B"),
		cycleUnit("b", "B.cs", schema.StatusInProgress, []string{"B"}, "C"),
		cycleUnit("d", "D.cs", schema.StatusPending, []string{"D"}, "A", "D"),
		cycleUnit("e", "E.cs", schema.StatusPending, []string{"E"}, "F"),
		cycleUnit("f", "F.cs", schema.StatusCompleted, []string{"F"}, "E"),
	}

	cycles := Cycles(units)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"A.cs", "B.cs", "C.cs"}, cycles[0].Paths)
	assert.Equal(t, []string{"a", "b", "c"}, cycles[0].UnitIDs)
}

func TestCyclesMultiple(t *testing.T) {
	units := []schema.SourceUnit{
		cycleUnit("1", "Web/Page.aspx.cs", schema.StatusPending, []string{"PageBase"}, "Helper"),
		cycleUnit("2", "Common/Helper.cs", schema.StatusPending, []string{"Helper"}, "PageBase"),
		cycleUnit("3", "DAL/X.cs", schema.StatusPending, []string{"X"}, "Y"),
		cycleUnit("4", "DAL/Y.cs", schema.StatusPending, []string{"Y"}, "X", "Z"),
		cycleUnit("5", "DAL/Z.cs", schema.StatusPending, []string{"Z"}),
	}
	cycles := Cycles(units)
	require.Len(t, cycles, 2)
	assert.Equal(t, []string{"Common/Helper.cs", "Web/Page.aspx.cs"}, cycles[0].Paths)
	assert.Equal(t, []string{"DAL/X.cs", "DAL/Y.cs"}, cycles[1].Paths)

	again := Cycles(units)
	assert.Equal(t, cycles, again)
}

func TestCyclesNone(t *testing.T) {
	units := []schema.SourceUnit{
		cycleUnit("a", "A.cs", schema.StatusPending, []string{"A"}, "B"),
		cycleUnit("b", "B.cs", schema.StatusPending, []string{"B"}),
	}
	assert.Empty(t, Cycles(units))
	assert.Empty(t, Cycles(nil))
}

func TestCyclesLongChain(t *testing.T) {
	const n = 5000
	units := make([]schema.SourceUnit, n)
	for i := range units {
		name := typeName(i)
		units[i] = cycleUnit(name, name+".cs", schema.StatusPending, []string{name}, typeName((i+1)%n))
	}
	cycles := Cycles(units)
	require.Len(t, cycles, 1)
	assert.Len(t, cycles[0].Paths, n)
}

func typeName(i int) string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	name := ""
	for {
		name = string(letters[i%26]) + name
		i /= 26
		if i == 0 {
			return "T" + name
		}
	}
}
