package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/waypoint/schema"
)

// Color variables for console output.
var (
	CompletedColor  = color.New(color.FgGreen, color.Bold) // CompletedColor marks finished work.
	InProgressColor = color.New(color.FgCyan)              // InProgressColor marks claimed work.
	PendingColor    = color.New(color.FgYellow)            // PendingColor marks outstanding work.
	FailedColor     = color.New(color.FgRed, color.Bold)   // FailedColor marks work needing a retry.
)

// GetStatusLabel returns a colored status label for console output (table).
func GetStatusLabel(status schema.UnitStatus) string {
	text := string(status)
	switch status {
	case schema.StatusCompleted:
		return CompletedColor.Sprint(text)
	case schema.StatusInProgress:
		return InProgressColor.Sprint(text)
	case schema.StatusFailed:
		return FailedColor.Sprint(text)
	default:
		return PendingColor.Sprint(text)
	}
}

// GetProjectLabel returns a colored project status label for console output.
func GetProjectLabel(status schema.ProjectStatus) string {
	text := string(status)
	switch status {
	case schema.ProjectCompleted:
		return CompletedColor.Sprint(text)
	case schema.ProjectMigrating:
		return InProgressColor.Sprint(text)
	case schema.ProjectFailed:
		return FailedColor.Sprint(text)
	default:
		return PendingColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ShouldIgnore returns true if the given path matches any of the exclude patterns.
// It supports simple glob patterns (using filepath.Match) when the pattern
// contains wildcard characters (*, ?, [ ]). Patterns ending with '/' are treated
// as prefixes. Patterns starting with '.' are treated as suffix (extension) matches.
// A user can provide patterns like "Legacy/", "*.designer.cs", ".vb".
func ShouldIgnore(path string, excludes []string) bool {
	for _, ex := range excludes {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}

		if strings.ContainsAny(ex, "*?[") {
			pat := strings.ReplaceAll(ex, "**", "*")
			if ok, err := filepath.Match(pat, path); err == nil && ok {
				return true
			}
			// Also try matching against the base filename (e.g. *.designer.cs)
			if ok, err := filepath.Match(pat, filepath.Base(path)); err == nil && ok {
				return true
			}
			continue
		}

		switch {
		case strings.HasSuffix(ex, "/"):
			if strings.HasPrefix(path, ex) || strings.Contains(path, "/"+ex) {
				return true
			}
		case strings.HasPrefix(ex, "."):
			if strings.HasSuffix(path, ex) {
				return true
			}
		case filepath.Base(path) == ex:
			return true
		case strings.Contains(path, ex):
			return true
		}
	}
	return false
}

// GetDBFilePath returns the path to the SQLite DB file for the migration store.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".waypoint.db"
	}
	return filepath.Join(homeDir, ".waypoint.db")
}

// NormalizeRelPath returns target relative to root with forward slashes.
// It rejects paths that escape the root.
func NormalizeRelPath(root, target string) (string, error) {
	if filepath.IsAbs(target) {
		rel, err := filepath.Rel(root, target)
		if err != nil {
			return "", fmt.Errorf("path is outside workspace: %s", target)
		}
		target = rel
	}

	cleanPath := filepath.Clean(target)
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path is outside workspace: %s", target)
	}

	normalized := filepath.ToSlash(cleanPath)
	return strings.TrimPrefix(normalized, "./"), nil
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to leave room for the "..." prefix and at least one character.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
