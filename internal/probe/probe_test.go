package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile creates a file with content under root and sets its mtime.
func writeFile(t *testing.T, root, rel, content string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func paths(files []schema.FileInfo) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestList(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	writeFile(t, root, "Web/Default.aspx", "<%@ Page %>", now)
	writeFile(t, root, "Web/Default.aspx.cs", "class Default {}", now)
	writeFile(t, root, "Web/Default.aspx.designer.cs", "partial class Default {}", now)
	writeFile(t, root, "DAL/OrderRepository.cs", "class OrderRepository {}", now)
	writeFile(t, root, "bin/Debug/App.cs", "class App {}", now)
	writeFile(t, root, "Obj/Temp.cs", "class Temp {}", now)
	writeFile(t, root, "README.md", "# legacy", now)

	filter := contract.NewDefaultConfig().ProbeFilter()

	t.Run("recursive", func(t *testing.T) {
		files, err := New().List(context.Background(), root, filter)
		require.NoError(t, err)
		assert.Equal(t, []string{"DAL/OrderRepository.cs", "Web/Default.aspx", "Web/Default.aspx.cs"}, paths(files))
		for _, f := range files {
			assert.True(t, filepath.IsAbs(f.AbsPath))
			assert.Positive(t, f.Size)
		}
	})

	t.Run("top level only", func(t *testing.T) {
		writeFile(t, root, "Global.asax.cs", "class Global {}", now)
		flat := filter
		flat.Recurse = false
		files, err := New().List(context.Background(), root, flat)
		require.NoError(t, err)
		assert.Equal(t, []string{"Global.asax.cs"}, paths(files))
	})

	t.Run("user excludes", func(t *testing.T) {
		custom := filter
		custom.Excludes = append(custom.Excludes, "DAL/")
		files, err := New().List(context.Background(), root, custom)
		require.NoError(t, err)
		assert.NotContains(t, paths(files), "DAL/OrderRepository.cs")
	})

	t.Run("skip roots", func(t *testing.T) {
		skipped := filter
		skipped.SkipRoots = []string{"", filepath.Join(root, "DAL") + string(filepath.Separator)}
		files, err := New().List(context.Background(), root, skipped)
		require.NoError(t, err)
		assert.Equal(t, []string{"Global.asax.cs", "Web/Default.aspx", "Web/Default.aspx.cs"}, paths(files))
	})

	t.Run("modified since", func(t *testing.T) {
		other := t.TempDir()
		writeFile(t, other, "old.cs", "class Old {}", now.Add(-time.Hour))
		writeFile(t, other, "new.cs", "class New {}", now)
		bounded := filter
		bounded.ModifiedSince = now.Add(-time.Minute)
		files, err := New().List(context.Background(), other, bounded)
		require.NoError(t, err)
		assert.Equal(t, []string{"new.cs"}, paths(files))
	})
}

func TestListErrors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := New().List(context.Background(), filepath.Join(t.TempDir(), "missing"), schema.ProbeFilter{})
		assert.Error(t, err)
	})

	t.Run("root is a file", func(t *testing.T) {
		file := writeFile(t, t.TempDir(), "a.cs", "x", time.Now())
		_, err := New().List(context.Background(), file, schema.ProbeFilter{})
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "a.cs", "x", time.Now())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New().List(ctx, root, schema.ProbeFilter{Recurse: true})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRecent(t *testing.T) {
	now := time.Now()
	dataRoot := t.TempDir()
	businessRoot := t.TempDir()
	writeFile(t, dataRoot, "Repositories/OrderRepository.cs", "x", now.Add(-2*time.Minute))
	writeFile(t, dataRoot, "Stale.cs", "x", now.Add(-2*time.Hour))
	writeFile(t, businessRoot, "Services/OrderService.cs", "x", now.Add(-time.Minute))

	files, err := New().Recent(context.Background(),
		[]string{dataRoot, businessRoot, filepath.Join(t.TempDir(), "missing"), ""},
		now.Add(-10*time.Minute))
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "Services/OrderService.cs", files[0].Path, "newest first")
	assert.Equal(t, "Repositories/OrderRepository.cs", files[1].Path)
}

func TestMatchesExtension(t *testing.T) {
	tests := []struct {
		name string
		file string
		exts []string
		want bool
	}{
		{"empty list", "anything.txt", nil, true},
		{"simple", "Order.cs", []string{".cs"}, true},
		{"case insensitive", "Default.ASPX", []string{".aspx"}, true},
		{"compound", "Default.aspx.vb", []string{".vb"}, true},
		{"miss", "notes.md", []string{".cs", ".vb"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesExtension(tt.file, tt.exts))
		})
	}
}
