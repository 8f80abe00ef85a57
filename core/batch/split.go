package batch

import (
	"regexp"
	"strings"

	"github.com/huangsam/waypoint/schema"
)

var (
	memberModifiers = `(?:public|private|protected|internal|static|virtual|override|abstract|async|sealed|new|partial|extern|unsafe|Public|Private|Protected|Friend|Shared|Overrides|Overridable|Overloads|MustOverride|ReadOnly|WriteOnly|Async)`
	memberLine      = regexp.MustCompile(`^\s*(?:\[[^\]]*\]\s*)*(?:` + memberModifiers + `\s+)+(?:(?:Sub|Function|Property)\s+\w+|[\w<>\[\],.?]+\s+\w+(?:<[^<>]*>)?\s*(?:\(|\{|=>|$)|\w+\s*\()`)
	typeLine        = regexp.MustCompile(`\b(?:class|interface|struct|enum|record|Class|Interface|Structure|Enum|Module)\s+\w+`)
	vbMemberName    = regexp.MustCompile(`\b(?:Sub|Function|Property)\s+(\w+)`)
	csMemberName    = regexp.MustCompile(`(\w+)\s*(?:<[^<>]*>)?\s*(?:\(|\{|=>)`)
	trailingName    = regexp.MustCompile(`(\w+)\s*;?\s*$`)
)

// SplitMembers splits C# and VB source at member boundaries. Everything
// before the first member (imports, type header) joins the first part and
// everything after the last member joins the last part. Markup is never split.
func SplitMembers(u schema.SourceUnit) []Part {
	if !splittable(u.Path) {
		return nil
	}
	lines := strings.SplitAfter(u.Content, "\n")

	var starts []int
	for i, line := range lines {
		if memberLine.MatchString(line) && !typeLine.MatchString(line) {
			starts = append(starts, i)
		}
	}
	if len(starts) < 2 {
		return nil
	}

	parts := make([]Part, 0, len(starts))
	for i, start := range starts {
		from, to := start, len(lines)
		if i == 0 {
			from = 0
		}
		if i+1 < len(starts) {
			to = starts[i+1]
		}
		parts = append(parts, Part{
			Label:   memberName(lines[start]),
			Content: strings.Join(lines[from:to], ""),
		})
	}
	return parts
}

func splittable(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ".cs") || strings.HasSuffix(lower, ".vb")
}

// memberName extracts the declared name from a member line.
func memberName(line string) string {
	if m := vbMemberName.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := csMemberName.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := trailingName.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return strings.TrimSpace(line)
}
