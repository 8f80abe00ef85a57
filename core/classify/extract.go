package classify

import (
	"regexp"
	"sort"
	"strings"
)

// Declarations are the type names a unit declares.
type Declarations struct {
	Types      []string // All declared types, interfaces included
	Interfaces []string
}

// Language of a source file, by extension.
type Language string

const (
	LangCSharp Language = "csharp"
	LangVB     Language = "vb"
	LangMarkup Language = "markup"
)

// LanguageOf maps a path to its source language.
func LanguageOf(p string) Language {
	lower := strings.ToLower(p)
	switch {
	case strings.HasSuffix(lower, ".cs"):
		return LangCSharp
	case strings.HasSuffix(lower, ".vb"):
		return LangVB
	default:
		return LangMarkup
	}
}

var (
	csDeclPattern = regexp.MustCompile(`\b(class|interface|struct|enum|record)\s+@?([A-Za-z_]\w*)`)
	vbDeclPattern = regexp.MustCompile(`(?im)^[ \t]*(?:(?:Public|Private|Friend|Protected|Partial|MustInherit|NotInheritable|Shadows|Shared)[ \t]+)*(Class|Interface|Structure|Enum|Module)[ \t]+([A-Za-z_]\w*)`)

	// Markup directives name the code-behind class.
	markupInheritsPattern = regexp.MustCompile(`(?i)\bInherits\s*=\s*"([\w.]+)"`)

	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentPattern  = regexp.MustCompile(`(?m)//.*$`)
	stringPattern       = regexp.MustCompile(`@?"(?:[^"\\\n]|\\.|"")*"`)
	importLinePattern   = regexp.MustCompile(`(?m)^[ \t]*(?:using[ \t]+[\w.= \t]+;|Imports[ \t].*|namespace[ \t].*|Namespace[ \t].*)$`)

	newPattern       = regexp.MustCompile(`\bnew\s+([A-Z]\w*)\s*[(<{\[]`)
	vbNewPattern     = regexp.MustCompile(`(?i)\bNew\s+([A-Z]\w*)`)
	baseListPattern  = regexp.MustCompile(`\b(?:class|interface|struct|record)\s+\w+(?:<[^>{]*>)?\s*:\s*([^{\n]+)`)
	vbBasePattern    = regexp.MustCompile(`(?im)^[ \t]*(?:Inherits|Implements)[ \t]+([\w., \t]+)$`)
	vbAsPattern      = regexp.MustCompile(`(?i)\bAs\s+(?:New\s+)?([A-Z]\w*)`)
	genericPattern   = regexp.MustCompile(`<([A-Z][\w\s,<>]*)>`)
	staticPattern    = regexp.MustCompile(`\b([A-Z]\w*)\.[A-Z]\w*`)
	memberPattern    = regexp.MustCompile(`\b(?:public|private|protected|internal)\s+(?:(?:static|virtual|override|async|abstract|sealed|readonly|new)\s+)*([A-Z]\w*)(?:<[^<>]*>)?\s+\w+\s*[({;=]`)
	typedVarPattern  = regexp.MustCompile(`\b([A-Z]\w*)(?:<[^<>;=()]*>)?\s+_?[a-z]\w*\s*[;=,)]`)
	identPattern     = regexp.MustCompile(`[A-Z]\w*`)
	csStringContents = regexp.MustCompile(`@?"((?:[^"\\\n]|\\.|"")*)"`)

	sqlTablePattern   = regexp.MustCompile(`(?i)\b(?:FROM|JOIN|INTO|UPDATE)\s+(\[?[A-Za-z_][\w]*\]?(?:\.\[?[A-Za-z_]\w*\]?)?)`)
	sqlExecPattern    = regexp.MustCompile(`(?i)\bEXEC(?:UTE)?\s+(\[?[A-Za-z_][\w]*\]?(?:\.\[?[A-Za-z_]\w*\]?)?)`)
	procLiteral       = regexp.MustCompile(`(?:Command\s*\(|CommandText\s*=)\s*"([A-Za-z_][\w.]*)"`)
	connStringPattern = regexp.MustCompile(`ConnectionStrings\s*[\[(]\s*"([^"]+)"\s*[\])]`)
)

// frameworkNames are never reported as references.
var frameworkNames = map[string]struct{}{
	"System": {}, "Console": {}, "Convert": {}, "String": {}, "Math": {}, "DateTime": {}, "TimeSpan": {},
	"Guid": {}, "Object": {}, "Exception": {}, "ArgumentException": {}, "ArgumentNullException": {},
	"InvalidOperationException": {}, "NotImplementedException": {}, "List": {}, "Dictionary": {},
	"IEnumerable": {}, "IList": {}, "ICollection": {}, "IDictionary": {}, "Task": {}, "Enumerable": {},
	"Int32": {}, "Int64": {}, "Boolean": {}, "Decimal": {}, "Double": {}, "Array": {}, "Type": {},
	"StringBuilder": {}, "Encoding": {}, "Path": {}, "File": {}, "Directory": {}, "Environment": {},
	"Page": {}, "MasterPage": {}, "UserControl": {}, "EventArgs": {}, "EventHandler": {}, "Control": {},
	"HttpContext": {}, "Request": {}, "Response": {}, "Session": {}, "Server": {}, "ViewState": {},
	"Application": {}, "Cache": {}, "ConfigurationManager": {}, "WebConfigurationManager": {},
	"SqlConnection": {}, "SqlCommand": {}, "SqlDataAdapter": {}, "SqlDataReader": {}, "SqlParameter": {},
	"SqlDbType": {}, "CommandType": {}, "DataSet": {}, "DataTable": {}, "DataRow": {}, "DataView": {},
	"OleDbConnection": {}, "OleDbCommand": {}, "IDisposable": {}, "Nullable": {}, "Func": {}, "Action": {},
	"Label": {}, "TextBox": {}, "Button": {}, "GridView": {}, "Repeater": {}, "DropDownList": {},
	"ListItem": {}, "Literal": {}, "Panel": {}, "HiddenField": {}, "CheckBox": {}, "Regex": {},
	"ByVal": {}, "ByRef": {}, "Integer": {}, "Date": {}, "Me": {}, "MyBase": {}, "Nothing": {},
	"True": {}, "False": {}, "Handles": {}, "Sub": {}, "Function": {}, "End": {}, "If": {}, "Then": {},
	"Else": {}, "Return": {}, "Dim": {}, "As": {}, "Public": {}, "Private": {}, "Protected": {},
	"Not": {}, "And": {}, "Or": {}, "AndAlso": {}, "OrElse": {}, "Is": {}, "IsNot": {}, "For": {},
	"Each": {}, "Next": {}, "While": {}, "Try": {}, "Catch": {}, "Finally": {}, "Using": {}, "Select": {},
	"Case": {}, "Property": {}, "Get": {}, "Set": {}, "Throw": {}, "Partial": {}, "Class": {}, "Inherits": {},
	"Implements": {}, "Module": {}, "Imports": {}, "Shared": {}, "Overrides": {}, "Optional": {},
}

// IsFrameworkName reports whether a name belongs to the stop-list.
func IsFrameworkName(name string) bool {
	_, ok := frameworkNames[name]
	return ok
}

// ExtractDeclarationsRegex finds declared types by pattern matching.
func ExtractDeclarationsRegex(p, content string) Declarations {
	code := stripComments(content)
	types := newNameSet()
	ifaces := newNameSet()
	switch LanguageOf(p) {
	case LangCSharp:
		for _, m := range csDeclPattern.FindAllStringSubmatch(stringPattern.ReplaceAllString(code, `""`), -1) {
			types.add(m[2])
			if m[1] == "interface" {
				ifaces.add(m[2])
			}
		}
	case LangVB:
		for _, m := range vbDeclPattern.FindAllStringSubmatch(content, -1) {
			types.add(m[2])
			if strings.EqualFold(m[1], "Interface") {
				ifaces.add(m[2])
			}
		}
	}
	return Declarations{Types: types.sorted(), Interfaces: ifaces.sorted()}
}

// ExtractReferences finds capitalized type names the content uses, minus its own
// declarations and framework names. Markup files reference their code-behind class.
func ExtractReferences(p, content string, declared []string) []string {
	refs := newNameSet()
	if LanguageOf(p) == LangMarkup {
		for _, m := range markupInheritsPattern.FindAllStringSubmatch(content, -1) {
			refs.add(lastSegment(m[1]))
		}
		return refs.without(declared).sorted()
	}

	code := stripComments(content)
	code = stringPattern.ReplaceAllString(code, `""`)
	code = importLinePattern.ReplaceAllString(code, "")

	single := []*regexp.Regexp{newPattern, staticPattern, memberPattern, typedVarPattern}
	if LanguageOf(p) == LangVB {
		single = append(single, vbNewPattern, vbAsPattern)
	}
	for _, re := range single {
		for _, m := range re.FindAllStringSubmatch(code, -1) {
			refs.add(m[1])
		}
	}
	lists := []*regexp.Regexp{baseListPattern, genericPattern}
	if LanguageOf(p) == LangVB {
		lists = append(lists, vbBasePattern)
	}
	for _, re := range lists {
		for _, m := range re.FindAllStringSubmatch(code, -1) {
			clause := m[1]
			if i := strings.Index(clause, " where "); i >= 0 {
				clause = clause[:i]
			}
			for _, id := range identPattern.FindAllString(clause, -1) {
				refs.add(id)
			}
		}
	}
	return refs.without(declared).sorted()
}

// ExtractResources finds external resources: SQL tables, stored procedures and
// connection-string keys. Names are lower-cased and prefixed by their type.
func ExtractResources(content string) []string {
	res := newNameSet()
	for _, lit := range csStringContents.FindAllStringSubmatch(content, -1) {
		text := lit[1]
		for _, m := range sqlTablePattern.FindAllStringSubmatch(text, -1) {
			res.add("table:" + normalizeSQLName(m[1]))
		}
		for _, m := range sqlExecPattern.FindAllStringSubmatch(text, -1) {
			res.add("proc:" + normalizeSQLName(m[1]))
		}
	}
	if strings.Contains(content, "StoredProcedure") {
		for _, m := range procLiteral.FindAllStringSubmatch(content, -1) {
			res.add("proc:" + normalizeSQLName(m[1]))
		}
	}
	for _, m := range connStringPattern.FindAllStringSubmatch(content, -1) {
		res.add("conn:" + strings.ToLower(m[1]))
	}
	return res.sorted()
}

// normalizeSQLName drops brackets and the default schema.
func normalizeSQLName(name string) string {
	name = strings.ToLower(strings.NewReplacer("[", "", "]", "").Replace(name))
	return strings.TrimPrefix(name, "dbo.")
}

func stripComments(content string) string {
	return lineCommentPattern.ReplaceAllString(blockCommentPattern.ReplaceAllString(content, ""), "")
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// nameSet collects unique non-framework names.
type nameSet map[string]struct{}

func newNameSet() nameSet { return nameSet{} }

func (s nameSet) add(name string) {
	name = strings.TrimSpace(name)
	if name == "" || IsFrameworkName(name) {
		return
	}
	s[name] = struct{}{}
}

func (s nameSet) without(names []string) nameSet {
	for _, n := range names {
		delete(s, n)
	}
	return s
}

func (s nameSet) sorted() []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
