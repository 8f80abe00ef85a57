package classify

import (
	"regexp"
	"strings"

	"github.com/huangsam/waypoint/schema"
)

// FileFacts is what kind rules look at.
type FileFacts struct {
	Path    string // Root-relative, forward slashes
	Lower   string // Lower-cased path
	Name    string // Base name without extensions
	Content string
}

// NewFileFacts builds the facts of one file.
func NewFileFacts(p, content string) FileFacts {
	return FileFacts{
		Path:    p,
		Lower:   strings.ToLower(p),
		Name:    BaseName(p),
		Content: content,
	}
}

// KindRule is one row of the ordered classification table.
// The first matching rule decides the kind.
type KindRule struct {
	Name  string
	Match func(f FileFacts) bool
	Kind  schema.UnitKind
}

// Source file suffixes by role.
var (
	codeBehindSuffixes = []string{
		".aspx.cs", ".aspx.vb", ".ascx.cs", ".ascx.vb", ".master.cs", ".master.vb",
		".asmx.cs", ".asmx.vb", ".ashx.cs", ".ashx.vb",
	}
	pageSuffixes    = []string{".aspx", ".master", ".asmx", ".ashx"}
	controlSuffixes = []string{".ascx"}
)

// Content signatures.
var (
	pageLifecyclePattern = regexp.MustCompile(`(?m)(:\s*(System\.Web\.UI\.)?(Page|MasterPage)\b|^\s*Inherits\s+(System\.Web\.UI\.)?(Page|MasterPage)\b|\bvoid\s+Page_Load\s*\(|\bSub\s+Page_Load\s*\()`)
	sqlStatementPattern  = regexp.MustCompile(`(?i)\b(SELECT\s+[\w\s,.*\[\]]+?\s+FROM|INSERT\s+INTO|UPDATE\s+\w+\s+SET|DELETE\s+FROM)\b`)
	connectionPattern    = regexp.MustCompile(`\b(SqlConnection|SqlCommand|SqlDataAdapter|OleDbConnection|OleDbCommand|OdbcConnection|OracleConnection|MySqlConnection|SqlHelper|DbConnection|DbCommand)\b`)
)

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

// HasSQL reports whether content contains relational statements or connection objects.
func HasSQL(content string) bool {
	return sqlStatementPattern.MatchString(content) || connectionPattern.MatchString(content)
}

// DefaultRules builds the ordered rule table for a naming strategy.
// File-suffix rules come first, then naming rules, then content signatures,
// then stem keywords.
func DefaultRules(ns *NamingStrategy) []KindRule {
	return []KindRule{
		{
			Name:  "code-behind-suffix",
			Match: func(f FileFacts) bool { return hasAnySuffix(f.Lower, codeBehindSuffixes) },
			Kind:  schema.KindCodeBehind,
		},
		{
			Name:  "page-suffix",
			Match: func(f FileFacts) bool { return hasAnySuffix(f.Lower, pageSuffixes) },
			Kind:  schema.KindUIPage,
		},
		{
			Name:  "control-suffix",
			Match: func(f FileFacts) bool { return hasAnySuffix(f.Lower, controlSuffixes) },
			Kind:  schema.KindUserControl,
		},
		{
			Name:  "data-access-name",
			Match: func(f FileFacts) bool { k, ok := ns.suffixKind(f.Name); return ok && k == schema.KindDataAccess },
			Kind:  schema.KindDataAccess,
		},
		{
			Name:  "business-name",
			Match: func(f FileFacts) bool { k, ok := ns.suffixKind(f.Name); return ok && k == schema.KindBusinessLogic },
			Kind:  schema.KindBusinessLogic,
		},
		{
			Name:  "utility-name",
			Match: func(f FileFacts) bool { k, ok := ns.suffixKind(f.Name); return ok && k == schema.KindUtility },
			Kind:  schema.KindUtility,
		},
		{
			Name:  "page-lifecycle",
			Match: func(f FileFacts) bool { return pageLifecyclePattern.MatchString(f.Content) },
			Kind:  schema.KindUIPage,
		},
		{
			Name:  "sql-content",
			Match: func(f FileFacts) bool { return HasSQL(f.Content) },
			Kind:  schema.KindDataAccess,
		},
		{
			Name:  "business-keyword",
			Match: func(f FileFacts) bool { return containsAny(f.Name, ns.BusinessKeywords) },
			Kind:  schema.KindBusinessLogic,
		},
		{
			Name:  "model-keyword",
			Match: func(f FileFacts) bool { return containsAny(f.Name, ns.ModelKeywords) },
			Kind:  schema.KindModel,
		},
	}
}

// DetectKind returns the kind of the first matching rule and its name.
// Files no rule matches are unknown.
func DetectKind(rules []KindRule, f FileFacts) (schema.UnitKind, string) {
	for _, rule := range rules {
		if rule.Match(f) {
			return rule.Kind, rule.Name
		}
	}
	return schema.KindUnknown, "fallback"
}
