package classify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/internal/probe"
	"github.com/huangsam/waypoint/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates a small WebForms project under a temp dir.
func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"Web/Default.aspx":               `<%@ Page Language="C#" Inherits="Shop.Web._Default" %>`,
		"Web/Default.aspx.cs":            "public partial class _Default : Page { protected void Page_Load(object s, EventArgs e) { } }",
		"Web/Default.aspx.designer.cs":   "public partial class _Default { }",
		"Web/Controls/Header.ascx":       `<%@ Control Language="C#" %>`,
		"DAL/UserRepository.cs":          "public class UserRepository { public User Find(int id) { return null; } }",
		"BLL/UserService.cs":             "public class UserService { private UserRepository _repo; }",
		"Models/UserEntity.cs":           "public class UserEntity { public int Id { get; set; } }",
		"Common/StringHelper.cs":         "public static class StringHelper { }",
		"Misc/Thing.cs":                  "public class Thing { }",
		"bin/Generated.cs":               "public class Generated { }",
		"README.txt":                     "not source",
	}
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	return root
}

func testFilter() schema.ProbeFilter {
	cfg := contract.NewDefaultConfig()
	return cfg.ProbeFilter()
}

func newTestScanner(t *testing.T, cacheSize int) *Scanner {
	t.Helper()
	s, err := NewScanner(probe.New(), nil, 4, cacheSize, time.Minute)
	require.NoError(t, err)
	return s
}

func TestScanClassifiesTree(t *testing.T) {
	root := writeTree(t)
	result, err := newTestScanner(t, 0).Scan(context.Background(), root, testFilter())
	require.NoError(t, err)

	kinds := make(map[string]schema.UnitKind)
	for _, u := range result.Units {
		kinds[u.Path] = u.Kind
		assert.Equal(t, schema.StatusPending, u.Status)
		assert.GreaterOrEqual(t, u.Complexity, MinComplexity)
	}
	assert.Equal(t, map[string]schema.UnitKind{
		"BLL/UserService.cs":       schema.KindBusinessLogic,
		"Common/StringHelper.cs":   schema.KindUtility,
		"DAL/UserRepository.cs":    schema.KindDataAccess,
		"Misc/Thing.cs":            schema.KindUnknown,
		"Models/UserEntity.cs":     schema.KindModel,
		"Web/Controls/Header.ascx": schema.KindUserControl,
		"Web/Default.aspx":         schema.KindUIPage,
		"Web/Default.aspx.cs":      schema.KindCodeBehind,
	}, kinds)
	assert.Zero(t, result.ErrorCount)

	for _, u := range result.Units {
		if u.Path == "BLL/UserService.cs" {
			assert.Equal(t, []string{"UserService"}, u.DeclaredTypes)
			assert.Contains(t, u.References, "UserRepository")
		}
	}
}

func TestScanIsDeterministic(t *testing.T) {
	root := writeTree(t)
	s := newTestScanner(t, 0)

	first, err := s.Scan(context.Background(), root, testFilter())
	require.NoError(t, err)
	second, err := s.Scan(context.Background(), root, testFilter())
	require.NoError(t, err)

	require.Len(t, second.Units, len(first.Units))
	for i := range first.Units {
		assert.Equal(t, first.Units[i].Path, second.Units[i].Path)
		assert.Equal(t, first.Units[i].Kind, second.Units[i].Kind)
		assert.Equal(t, first.Units[i].Complexity, second.Units[i].Complexity)
		assert.Equal(t, first.Units[i].References, second.Units[i].References)
	}
}

func TestScanRecordsUnreadableFiles(t *testing.T) {
	root := writeTree(t)
	s := newTestScanner(t, 0)
	s.readFile = func(p string) ([]byte, error) {
		if filepath.Base(p) == "Thing.cs" {
			return nil, errors.New("permission denied")
		}
		return os.ReadFile(p)
	}

	result, err := s.Scan(context.Background(), root, testFilter())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Misc/Thing.cs")
	assert.Len(t, result.Units, 7)
}

func TestScanCachesClassification(t *testing.T) {
	root := writeTree(t)
	s := newTestScanner(t, 64)
	var reads atomic.Int32
	s.readFile = func(p string) ([]byte, error) {
		reads.Add(1)
		return os.ReadFile(p)
	}

	_, err := s.Scan(context.Background(), root, testFilter())
	require.NoError(t, err)
	assert.Equal(t, 8, s.cache.Len())

	_, err = s.Scan(context.Background(), root, testFilter())
	require.NoError(t, err)
	assert.Equal(t, 8, s.cache.Len())
	assert.Equal(t, int32(16), reads.Load(), "content is re-read even on cache hits")
}

func TestScanMissingRoot(t *testing.T) {
	_, err := newTestScanner(t, 0).Scan(context.Background(), filepath.Join(t.TempDir(), "gone"), testFilter())
	require.Error(t, err)
	assert.Equal(t, contract.KindScan, contract.KindOf(err))
}

func TestScanCancelled(t *testing.T) {
	root := writeTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestScanner(t, 0).Scan(ctx, root, testFilter())
	require.Error(t, err)
	assert.Equal(t, contract.KindScan, contract.KindOf(err))
}

func TestDecodeSource(t *testing.T) {
	assert.Equal(t, "class A {}", decodeSource(append([]byte{0xEF, 0xBB, 0xBF}, "class A {}"...)))
	assert.Equal(t, "a�b", decodeSource([]byte{'a', 0xff, 'b'}))
}

func TestNewWorkspace(t *testing.T) {
	root := writeTree(t)
	result, err := newTestScanner(t, 0).Scan(context.Background(), root, testFilter())
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ws := NewWorkspace(root, result, now)

	assert.NotEmpty(t, ws.ID)
	assert.Equal(t, filepath.Base(root), ws.ProjectName)
	assert.Equal(t, len(result.Units), ws.TotalUnits)
	assert.Equal(t, 1, ws.KindHistogram[schema.KindDataAccess])
	assert.Equal(t, 1, ws.KindHistogram[schema.KindUnknown])

	total := 0
	for _, n := range ws.ComplexityHistogram {
		total += n
	}
	assert.Equal(t, ws.TotalUnits, total)

	ids := make(map[string]struct{})
	for _, u := range result.Units {
		assert.Equal(t, ws.ID, u.WorkspaceID)
		assert.Equal(t, now, u.UpdatedAt)
		ids[u.ID] = struct{}{}
	}
	assert.Len(t, ids, len(result.Units))
	assert.Equal(t, schema.PatternGoodSeparation, ws.Architecture.Pattern)
}
