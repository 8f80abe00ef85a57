package classify

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/huangsam/waypoint/schema"
	"gopkg.in/yaml.v3"
)

// NamingStrategy captures the naming conventions of one source ecosystem.
// Suffix tables drive both kind detection and entity stems.
type NamingStrategy struct {
	Name               string   `yaml:"name"`
	DataAccessSuffixes []string `yaml:"data_access_suffixes"`
	BusinessSuffixes   []string `yaml:"business_suffixes"`
	UtilitySuffixes    []string `yaml:"utility_suffixes"`
	StemSuffixes       []string `yaml:"stem_suffixes"` // Stripped for stems but never used for kind detection
	BusinessKeywords   []string `yaml:"business_keywords"`
	ModelKeywords      []string `yaml:"model_keywords"`
	InterfacePrefix    string   `yaml:"interface_prefix"`

	suffixes []string // All suffixes, longest first
}

// DefaultNamingStrategy returns the conventions of .NET Web Forms codebases.
func DefaultNamingStrategy() *NamingStrategy {
	ns := &NamingStrategy{
		Name:               "webforms",
		DataAccessSuffixes: []string{"Repository", "DataAccess", "DAL", "Dao", "Gateway", "DataProvider"},
		BusinessSuffixes:   []string{"Service", "Manager", "BLL", "Business", "Logic", "Processor"},
		UtilitySuffixes:    []string{"Helper", "Helpers", "Util", "Utils", "Utility", "Utilities", "Extensions"},
		StemSuffixes:       []string{"Controller", "Handler", "ViewModel", "Model", "Entity", "Dto", "Page", "Control"},
		BusinessKeywords:   []string{"business", "service", "manager"},
		ModelKeywords:      []string{"model", "entity", "dto"},
		InterfacePrefix:    "I",
	}
	ns.index()
	return ns
}

// LoadNamingStrategy reads a YAML naming strategy. Missing tables fall back to the defaults.
func LoadNamingStrategy(file string) (*NamingStrategy, error) {
	if file == "" {
		return DefaultNamingStrategy(), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read naming strategy: %w", err)
	}
	return ParseNamingStrategy(data)
}

// ParseNamingStrategy decodes a YAML naming strategy.
func ParseNamingStrategy(data []byte) (*NamingStrategy, error) {
	var ns NamingStrategy
	if err := yaml.Unmarshal(data, &ns); err != nil {
		return nil, fmt.Errorf("failed to parse naming strategy: %w", err)
	}
	def := DefaultNamingStrategy()
	if ns.Name == "" {
		ns.Name = "custom"
	}
	if ns.DataAccessSuffixes == nil {
		ns.DataAccessSuffixes = def.DataAccessSuffixes
	}
	if ns.BusinessSuffixes == nil {
		ns.BusinessSuffixes = def.BusinessSuffixes
	}
	if ns.UtilitySuffixes == nil {
		ns.UtilitySuffixes = def.UtilitySuffixes
	}
	if ns.StemSuffixes == nil {
		ns.StemSuffixes = def.StemSuffixes
	}
	if ns.BusinessKeywords == nil {
		ns.BusinessKeywords = def.BusinessKeywords
	}
	if ns.ModelKeywords == nil {
		ns.ModelKeywords = def.ModelKeywords
	}
	if err := ns.Validate(); err != nil {
		return nil, err
	}
	ns.index()
	return &ns, nil
}

// Validate rejects strategies that could not classify anything.
func (ns *NamingStrategy) Validate() error {
	for _, table := range [][]string{ns.DataAccessSuffixes, ns.BusinessSuffixes, ns.UtilitySuffixes, ns.StemSuffixes} {
		for _, s := range table {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("naming strategy %s has an empty suffix", ns.Name)
			}
		}
	}
	if len(ns.InterfacePrefix) > 1 {
		return fmt.Errorf("naming strategy %s: interface prefix must be at most one character", ns.Name)
	}
	return nil
}

// index precomputes the combined suffix table.
func (ns *NamingStrategy) index() {
	var all []string
	all = append(all, ns.DataAccessSuffixes...)
	all = append(all, ns.BusinessSuffixes...)
	all = append(all, ns.UtilitySuffixes...)
	all = append(all, ns.StemSuffixes...)
	sort.SliceStable(all, func(i, j int) bool { return len(all[i]) > len(all[j]) })
	ns.suffixes = all
}

// Suffixes returns every known suffix, longest first.
func (ns *NamingStrategy) Suffixes() []string {
	if ns.suffixes == nil {
		ns.index()
	}
	return ns.suffixes
}

// BaseName returns the file name without directory or any extension.
// "Web/Orders/Default.aspx.cs" becomes "Default".
func BaseName(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

// TrimInterfacePrefix removes the interface prefix when it is followed by an upper-case letter.
func (ns *NamingStrategy) TrimInterfacePrefix(name string) string {
	if ns.InterfacePrefix == "" || !strings.HasPrefix(name, ns.InterfacePrefix) {
		return name
	}
	rest := name[len(ns.InterfacePrefix):]
	if rest == "" {
		return name
	}
	if r := []rune(rest)[0]; unicode.IsUpper(r) {
		return rest
	}
	return name
}

// IsInterfaceName reports whether name follows the interface naming convention.
func (ns *NamingStrategy) IsInterfaceName(name string) bool {
	return ns.InterfacePrefix != "" && ns.TrimInterfacePrefix(name) != name
}

// hasWordSuffix reports whether s ends with suffix, ignoring case, where the
// suffix starts a PascalCase word. "CustomerDal" ends with DAL, "Modal" does not.
func hasWordSuffix(s, suffix string) bool {
	if len(s) < len(suffix) || !strings.EqualFold(s[len(s)-len(suffix):], suffix) {
		return false
	}
	if len(s) == len(suffix) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[len(s)-len(suffix):])
	return unicode.IsUpper(r)
}

// StripSuffix removes the longest known suffix. A name that is only a suffix is kept.
func (ns *NamingStrategy) StripSuffix(name string) string {
	for _, suffix := range ns.Suffixes() {
		if hasWordSuffix(name, suffix) && len(name) > len(suffix) {
			return name[:len(name)-len(suffix)]
		}
	}
	return name
}

// Stem derives the entity stem of a path: the base name without the interface
// prefix and the longest known suffix. "DAL/ICustomerRepository.cs" becomes "Customer".
func (ns *NamingStrategy) Stem(p string) string {
	return ns.StemOfName(BaseName(p))
}

// StemOfName derives the entity stem of a type or file name.
func (ns *NamingStrategy) StemOfName(name string) string {
	return ns.StripSuffix(ns.TrimInterfacePrefix(name))
}

// suffixKind maps a name to a kind through the suffix tables, in data, business, utility order.
func (ns *NamingStrategy) suffixKind(name string) (schema.UnitKind, bool) {
	tables := []struct {
		suffixes []string
		kind     schema.UnitKind
	}{
		{ns.DataAccessSuffixes, schema.KindDataAccess},
		{ns.BusinessSuffixes, schema.KindBusinessLogic},
		{ns.UtilitySuffixes, schema.KindUtility},
	}
	name = ns.TrimInterfacePrefix(name)
	for _, table := range tables {
		for _, suffix := range table.suffixes {
			if hasWordSuffix(name, suffix) {
				return table.kind, true
			}
		}
	}
	return "", false
}

// containsAny reports whether the lower-cased name contains any keyword.
func containsAny(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
