// Package classify turns a legacy source tree into classified source units.
package classify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// maxScanErrors caps the messages kept on a workspace. The count is always exact.
const maxScanErrors = 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Classified holds the structural facts derived from one file.
type Classified struct {
	Kind       schema.UnitKind
	Rule       string
	Types      []string
	Interfaces []string
	References []string
	Resources  []string
	Complexity int
}

// cacheKey identifies an unchanged file.
type cacheKey struct {
	path    string
	size    int64
	modTime int64
}

// Scanner enumerates and classifies candidate files.
type Scanner struct {
	probe    contract.FileProbe
	naming   *NamingStrategy
	rules    []KindRule
	cache    *lru.Cache[cacheKey, Classified]
	workers  int
	timeout  time.Duration
	readFile func(string) ([]byte, error)
}

// ScanResult is the output of one scan.
type ScanResult struct {
	Units      []schema.SourceUnit // Sorted by path
	Errors     []string            // First messages only
	ErrorCount int
}

// NewScanner creates a scanner. A cacheSize of 0 disables memoization.
func NewScanner(probe contract.FileProbe, naming *NamingStrategy, workers, cacheSize int, timeout time.Duration) (*Scanner, error) {
	if naming == nil {
		naming = DefaultNamingStrategy()
	}
	s := &Scanner{
		probe:    probe,
		naming:   naming,
		rules:    DefaultRules(naming),
		workers:  max(1, workers),
		timeout:  timeout,
		readFile: os.ReadFile,
	}
	if cacheSize > 0 {
		cache, err := lru.New[cacheKey, Classified](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create classification cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Naming returns the naming strategy in use.
func (s *Scanner) Naming() *NamingStrategy {
	return s.naming
}

// ClassifyContent derives kind, declarations, references, resources and complexity.
func (s *Scanner) ClassifyContent(ctx context.Context, p, content string) Classified {
	kind, rule := DetectKind(s.rules, NewFileFacts(p, content))
	decls, ok := parseDeclarations(ctx, LanguageOf(p), []byte(content))
	if !ok {
		decls = ExtractDeclarationsRegex(p, content)
	}
	return Classified{
		Kind:       kind,
		Rule:       rule,
		Types:      decls.Types,
		Interfaces: decls.Interfaces,
		References: ExtractReferences(p, content, decls.Types),
		Resources:  ExtractResources(content),
		Complexity: Complexity(content),
	}
}

// Scan lists candidate files under root and classifies them concurrently.
// Per-file failures are logged and recorded; only listing failures and
// cancellation abort the scan.
func (s *Scanner) Scan(ctx context.Context, root string, filter schema.ProbeFilter) (ScanResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	files, err := s.probe.List(ctx, root, filter)
	if err != nil {
		return ScanResult{}, contract.NewOpError(contract.KindScan, "scan", "failed to list files", err)
	}

	units := make([]*schema.SourceUnit, len(files))
	var mu sync.Mutex
	var result ScanResult
	record := func(f schema.FileInfo, err error) {
		contract.Logger().WithFields(logrus.Fields{"path": f.Path}).WithError(err).Warn("Skipping unreadable file")
		mu.Lock()
		defer mu.Unlock()
		result.ErrorCount++
		if len(result.Errors) < maxScanErrors {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", f.Path, err))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			unit, err := s.classifyFile(gctx, f)
			if err != nil {
				record(f, err)
				return nil
			}
			units[i] = unit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ScanResult{}, contract.NewOpError(contract.KindScan, "scan", fmt.Sprintf("scan exceeded %s", s.timeout), err)
		}
		return ScanResult{}, contract.NewOpError(contract.KindScan, "scan", "scan interrupted", err)
	}

	for _, u := range units {
		if u != nil {
			result.Units = append(result.Units, *u)
		}
	}
	return result, nil
}

// classifyFile reads one file and builds its unit.
func (s *Scanner) classifyFile(ctx context.Context, f schema.FileInfo) (*schema.SourceUnit, error) {
	data, err := s.readFile(f.AbsPath)
	if err != nil {
		return nil, err
	}
	content := decodeSource(data)

	key := cacheKey{path: f.AbsPath, size: f.Size, modTime: f.ModTime.UnixNano()}
	c, hit := Classified{}, false
	if s.cache != nil {
		c, hit = s.cache.Get(key)
	}
	if !hit {
		c = s.ClassifyContent(ctx, f.Path, content)
		if s.cache != nil {
			s.cache.Add(key, c)
		}
	}

	return &schema.SourceUnit{
		Path:          f.Path,
		Kind:          c.Kind,
		Content:       content,
		SizeBytes:     f.Size,
		ModTime:       f.ModTime,
		DeclaredTypes: c.Types,
		Interfaces:    c.Interfaces,
		References:    c.References,
		Resources:     c.Resources,
		Complexity:    c.Complexity,
		Status:        schema.StatusPending,
	}, nil
}

// decodeSource drops a UTF-8 byte order mark and replaces invalid sequences.
func decodeSource(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

// NewWorkspace assigns identities to scanned units and summarizes them.
// Units are updated in place with their id and workspace id.
func NewWorkspace(root string, result ScanResult, now time.Time) schema.Workspace {
	ws := schema.Workspace{
		ID:                  uuid.NewString(),
		RootPath:            root,
		ProjectName:         filepath.Base(filepath.Clean(root)),
		TotalUnits:          len(result.Units),
		KindHistogram:       make(map[schema.UnitKind]int),
		ComplexityHistogram: make(map[int]int),
		ScanErrorCount:      result.ErrorCount,
		ScanErrors:          result.Errors,
		CreatedAt:           now,
	}
	for i := range result.Units {
		u := &result.Units[i]
		u.ID = uuid.NewString()
		u.WorkspaceID = ws.ID
		u.UpdatedAt = now
		ws.KindHistogram[u.Kind]++
		ws.ComplexityHistogram[u.Complexity]++
	}
	ws.Architecture = Summarize(result.Units)
	return ws
}
