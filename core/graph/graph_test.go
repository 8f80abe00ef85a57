package graph

import (
	"context"
	"testing"
	"time"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProbe struct {
	mock.Mock
}

var _ contract.FileProbe = &mockProbe{}

func (m *mockProbe) List(ctx context.Context, root string, filter schema.ProbeFilter) ([]schema.FileInfo, error) {
	args := m.Called(ctx, root, filter)
	return args.Get(0).([]schema.FileInfo), args.Error(1)
}

func (m *mockProbe) Recent(ctx context.Context, roots []string, since time.Time) ([]schema.FileInfo, error) {
	args := m.Called(ctx, roots, since)
	return args.Get(0).([]schema.FileInfo), args.Error(1)
}

var testNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func newTestGraph(t *testing.T, probe contract.FileProbe) *Graph {
	t.Helper()
	g, err := New(nil, probe, 128)
	require.NoError(t, err)
	return g
}

// scenarioUnits returns a repository, its service and an unrelated unknown file.
func scenarioUnits() []schema.SourceUnit {
	return []schema.SourceUnit{
		{
			ID: "u1", Path: "DAL/UserRepository.cs", Kind: schema.KindDataAccess,
			DeclaredTypes: []string{"UserRepository"}, References: []string{"User"},
			Resources: []string{"table:users"}, Complexity: 2, Status: schema.StatusPending,
		},
		{
			ID: "u2", Path: "BLL/UserService.cs", Kind: schema.KindBusinessLogic,
			DeclaredTypes: []string{"UserService"}, References: []string{"User", "UserRepository"},
			Complexity: 3, Status: schema.StatusPending,
		},
		{
			ID: "u3", Path: "Misc/Thing.cs", Kind: schema.KindUnknown,
			DeclaredTypes: []string{"Thing"}, Complexity: 1, Status: schema.StatusPending,
		},
	}
}

func TestScenarioRelatedStems(t *testing.T) {
	units := scenarioUnits()
	g := newTestGraph(t, nil)

	m := g.Score(units[0], units[1], testNow)
	assert.True(t, m.Related())
	assert.GreaterOrEqual(t, m.Score, 80)
	assert.Contains(t, m.Reasons, "same-stem-cross-layer")

	assert.False(t, g.Score(units[0], units[2], testNow).Related())

	migratable := 0
	for _, u := range units {
		if u.Migratable() {
			migratable++
		}
	}
	assert.Equal(t, 2, migratable, "unknown units are excluded from migration counts")
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name    string
		a, b    schema.SourceUnit
		reasons []string
		score   int // Before bonuses
	}{
		{
			name:    "page and its code-behind",
			a:       schema.SourceUnit{Path: "Web/Default.aspx", Kind: schema.KindUIPage},
			b:       schema.SourceUnit{Path: "Web/Default.aspx.cs", Kind: schema.KindCodeBehind},
			reasons: []string{"same-stem-same-layer", "nearby-directory"},
			score:   150,
		},
		{
			name: "interface and implementation",
			a: schema.SourceUnit{
				Path: "Contracts/IOrderGateway.cs", Kind: schema.KindDataAccess,
				DeclaredTypes: []string{"IOrderGateway"}, Interfaces: []string{"IOrderGateway"},
			},
			b: schema.SourceUnit{
				Path: "Data/Sql/OrderGateway.cs", Kind: schema.KindDataAccess,
				DeclaredTypes: []string{"OrderGateway"}, References: []string{"IOrderGateway"},
			},
			reasons: []string{"same-stem-same-layer", "shared-interface"},
			score:   140,
		},
		{
			name:    "shared table",
			a:       schema.SourceUnit{Path: "A/Billing.cs", Kind: schema.KindDataAccess, Resources: []string{"table:orders"}},
			b:       schema.SourceUnit{Path: "B/Invoices.cs", Kind: schema.KindBusinessLogic, Resources: []string{"table:orders", "proc:x"}},
			reasons: []string{"shared-resource"},
			score:   25,
		},
		{
			name:    "shared references are capped",
			a:       schema.SourceUnit{Path: "A/One.cs", References: []string{"R1", "R2", "R3", "R4", "R5"}},
			b:       schema.SourceUnit{Path: "B/Two.cs", References: []string{"R1", "R2", "R3", "R4", "R5"}},
			reasons: []string{"shared-references"},
			score:   40,
		},
		{
			name:    "partial type",
			a:       schema.SourceUnit{Path: "A/CheckoutForm.cs", DeclaredTypes: []string{"OrderForm"}},
			b:       schema.SourceUnit{Path: "B/OrderFormRules.cs", DeclaredTypes: []string{"OrderForm"}},
			reasons: []string{"shared-type"},
			score:   30,
		},
		{
			name:    "parent directory",
			a:       schema.SourceUnit{Path: "Admin/Users.aspx", Kind: schema.KindUIPage},
			b:       schema.SourceUnit{Path: "Admin/Controls/Grid.ascx", Kind: schema.KindUserControl},
			reasons: []string{"nearby-directory"},
			score:   50,
		},
		{
			name:  "sibling directories are unrelated",
			a:     schema.SourceUnit{Path: "DAL/Alpha.cs"},
			b:     schema.SourceUnit{Path: "BLL/Beta.cs"},
			score: 0,
		},
	}
	g := newTestGraph(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := g.Score(tt.a, tt.b, testNow)
			assert.Equal(t, tt.reasons, m.Reasons)
			assert.Equal(t, tt.score, m.Score)
		})
	}
}

func TestRecencyBonus(t *testing.T) {
	tests := []struct {
		name string
		unit schema.SourceUnit
		want int
	}{
		{"just completed", schema.SourceUnit{Status: schema.StatusCompleted, CompletedAt: testNow}, 20},
		{"half a day", schema.SourceUnit{Status: schema.StatusCompleted, CompletedAt: testNow.Add(-12 * time.Hour)}, 10},
		{"expired", schema.SourceUnit{Status: schema.StatusCompleted, CompletedAt: testNow.Add(-24 * time.Hour)}, 0},
		{"future clock skew", schema.SourceUnit{Status: schema.StatusCompleted, CompletedAt: testNow.Add(time.Hour)}, 20},
		{"pending", schema.SourceUnit{Status: schema.StatusPending, CompletedAt: testNow}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recencyBonus(tt.unit, testNow))
		})
	}
}

func TestRelateAddsBonusesOnlyWhenRelated(t *testing.T) {
	g := newTestGraph(t, nil)
	target := schema.SourceUnit{Path: "DAL/A.cs"}
	candidate := schema.SourceUnit{
		Path: "DAL/B.cs", Complexity: 4, Status: schema.StatusCompleted, CompletedAt: testNow,
	}
	m := g.Score(target, candidate, testNow)
	assert.Equal(t, scoreNearbyDirectory+maxRecencyBonus+4*complexityBonus, m.Score)
	assert.Equal(t, []string{"nearby-directory", "recently-completed"}, m.Reasons)

	candidate.Path = "Far/Away/B.cs"
	m = g.Score(target, candidate, testNow)
	assert.Zero(t, m.Score)
	assert.False(t, m.Related())
}

func TestRelatedRanking(t *testing.T) {
	units := scenarioUnits()
	units = append(units,
		schema.SourceUnit{ID: "u4", Path: "DAL/AuditRepository.cs", Kind: schema.KindDataAccess, Complexity: 1},
		schema.SourceUnit{ID: "u5", Path: "DAL/RoleRepository.cs", Kind: schema.KindDataAccess, Complexity: 1},
	)
	g := newTestGraph(t, nil)

	items, err := g.Related(context.Background(), units[0], units, Options{Limit: 5, Floor: 3, Now: testNow})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "BLL/UserService.cs", items[0].Path)
	assert.Equal(t, "DAL/AuditRepository.cs", items[1].Path, "ties break by path")
	assert.Equal(t, "DAL/RoleRepository.cs", items[2].Path)
	for _, item := range items {
		assert.Equal(t, schema.SourceUnitContext, item.Source)
		assert.NotEqual(t, "u1", item.UnitID)
	}

	limited, err := g.Related(context.Background(), units[0], units, Options{Limit: 1, Floor: 1, Now: testNow})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "u2", limited[0].UnitID)
}

func TestRelatedWidensWithArtifacts(t *testing.T) {
	units := scenarioUnits()
	probe := &mockProbe{}
	roots := []string{"/out/data", "/out/business"}
	probe.On("Recent", mock.Anything, roots, time.Time{}).Return([]schema.FileInfo{
		{Path: "UserRepository.go", AbsPath: "/out/data/UserRepository.go"},
		{Path: "Order.go", AbsPath: "/out/business/Order.go"},
		{Path: "Extra.go", AbsPath: "/out/business/Extra.go"},
	}, nil)
	g := newTestGraph(t, probe)

	items, err := g.Related(context.Background(), units[0], units, Options{Limit: 5, Floor: 3, ArtifactRoots: roots, Now: testNow})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, schema.SourceUnitContext, items[0].Source)
	assert.Equal(t, schema.SourceArtifactContext, items[1].Source)
	assert.Equal(t, "/out/data/UserRepository.go", items[1].Path)
	assert.Equal(t, "/out/business/Order.go", items[2].Path)
	probe.AssertExpectations(t)
}

func TestRelatedSkipsProbeWhenFloorMet(t *testing.T) {
	units := scenarioUnits()
	probe := &mockProbe{}
	g := newTestGraph(t, probe)

	items, err := g.Related(context.Background(), units[0], units, Options{Limit: 5, Floor: 1, ArtifactRoots: []string{"/out"}, Now: testNow})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	probe.AssertNotCalled(t, "Recent", mock.Anything, mock.Anything, mock.Anything)
}

func TestRelatedProbeError(t *testing.T) {
	units := scenarioUnits()
	probe := &mockProbe{}
	probe.On("Recent", mock.Anything, mock.Anything, mock.Anything).Return([]schema.FileInfo(nil), assert.AnError)
	g := newTestGraph(t, probe)

	_, err := g.Related(context.Background(), units[2], units, Options{Limit: 5, Floor: 3, ArtifactRoots: []string{"/out"}})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestDependencies(t *testing.T) {
	unit := schema.SourceUnit{ID: "svc", References: []string{"UserRepository", "User", "Ghost"}}
	pool := []schema.SourceUnit{
		unit,
		{ID: "repo", DeclaredTypes: []string{"UserRepository"}, Status: schema.StatusCompleted},
		{ID: "model", DeclaredTypes: []string{"User"}, Status: schema.StatusPending},
		{ID: "model-copy", DeclaredTypes: []string{"User"}, Status: schema.StatusFailed},
	}
	deps := Dependencies(unit, pool)
	assert.Equal(t, []string{"UserRepository"}, deps.Migrated)
	assert.Equal(t, []string{"User"}, deps.Pending)
	assert.Equal(t, []string{"Ghost"}, deps.Unresolved)

	empty := Dependencies(schema.SourceUnit{ID: "x"}, pool)
	assert.NotNil(t, empty.Migrated)
	assert.Empty(t, empty.Unresolved)
}

func TestFingerprintCache(t *testing.T) {
	g := newTestGraph(t, nil)
	u := schema.SourceUnit{ID: "u1", Path: "DAL/UserRepository.cs", Version: 1}

	first := g.fingerprint(u)
	assert.Same(t, first, g.fingerprint(u))
	assert.Equal(t, "User", first.Stem)
	assert.Equal(t, "DAL", first.Dir)

	u.Version = 2
	assert.NotSame(t, first, g.fingerprint(u))

	anonymous := schema.SourceUnit{Path: "A.cs"}
	assert.NotSame(t, g.fingerprint(anonymous), g.fingerprint(anonymous))
}

func TestNewFingerprintSplitsInterfaces(t *testing.T) {
	g := newTestGraph(t, nil)
	fp := NewFingerprint(g.naming, schema.SourceUnit{
		Path:          "DAL/IUserRepository.cs",
		Kind:          schema.KindDataAccess,
		DeclaredTypes: []string{"IUserRepository", "UserRecord"},
		Interfaces:    []string{"IUserRepository"},
	})
	assert.Equal(t, "User", fp.Stem)
	assert.Equal(t, schema.LayerData, fp.Layer)
	assert.Contains(t, fp.InterfaceStems, "UserRepository")
	assert.Contains(t, fp.Types, "UserRecord")
	assert.NotContains(t, fp.Types, "IUserRepository")
}
