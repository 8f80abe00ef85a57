// Package probe lists files on disk for scans and completion checks.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
)

// Probe walks the local filesystem.
type Probe struct{}

var _ contract.FileProbe = &Probe{} // Compile-time check

// New creates a new Probe.
func New() *Probe {
	return &Probe{}
}

// List walks root and returns matching files sorted by path.
// Unreadable subdirectories are logged and skipped.
func (p *Probe) List(ctx context.Context, root string, filter schema.ProbeFilter) ([]schema.FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	var files []schema.FileInfo
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == absRoot {
				return err
			}
			contract.Logger().WithField("path", path).WithError(err).Warn("Skipping unreadable entry")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == absRoot {
				return nil
			}
			if !filter.Recurse || excludedDir(d.Name(), filter.ExcludeDirs) || skippedRoot(path, filter.SkipRoots) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !matchesExtension(d.Name(), filter.Extensions) {
			return nil
		}

		rel, err := contract.NormalizeRelPath(absRoot, path)
		if err != nil {
			return nil
		}
		if contract.ShouldIgnore(rel, filter.Excludes) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			contract.Logger().WithField("path", rel).WithError(err).Warn("Skipping file without metadata")
			return nil
		}
		if !filter.ModifiedSince.IsZero() && fi.ModTime().Before(filter.ModifiedSince) {
			return nil
		}

		files = append(files, schema.FileInfo{
			Path:    rel,
			AbsPath: path,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", root, walkErr)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Recent returns files under any of the roots modified at or after since,
// newest first. Missing roots are skipped.
func (p *Probe) Recent(ctx context.Context, roots []string, since time.Time) ([]schema.FileInfo, error) {
	var out []schema.FileInfo
	seen := make(map[string]struct{})
	for _, root := range roots {
		if root == "" {
			continue
		}
		if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		files, err := p.List(ctx, root, schema.ProbeFilter{Recurse: true, ModifiedSince: since})
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if _, dup := seen[f.AbsPath]; dup {
				continue
			}
			seen[f.AbsPath] = struct{}{}
			out = append(out, f)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].ModTime.After(out[j].ModTime)
		}
		return out[i].AbsPath < out[j].AbsPath
	})
	return out, nil
}

// matchesExtension reports whether name ends in one of the extensions.
// An empty extension list matches every file.
func matchesExtension(name string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// excludedDir reports whether a directory name is excluded, ignoring case.
func excludedDir(name string, dirs []string) bool {
	return slices.ContainsFunc(dirs, func(d string) bool { return strings.EqualFold(d, name) })
}

// skippedRoot reports whether dir is one of the absolute roots to skip.
func skippedRoot(dir string, roots []string) bool {
	for _, r := range roots {
		if r != "" && filepath.Clean(r) == dir {
			return true
		}
	}
	return false
}
