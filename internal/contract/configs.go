package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/waypoint/schema"
)

// Default values for configuration.
const (
	DefaultBudget                = 8000
	DefaultRelatedLimit          = 5
	DefaultRelatedFloor          = 3
	DefaultEvidenceWindow        = 10 * time.Minute
	DefaultEvidenceWidenedWindow = 30 * time.Minute
	DefaultScanTimeout           = 2 * time.Minute
	DefaultPrecision             = 1
	DefaultCacheSize             = 4096
	MaxRelatedLimit              = 50
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// DefaultExtensions are the legacy source extensions picked up by a scan.
var DefaultExtensions = []string{".aspx", ".ascx", ".master", ".asmx", ".ashx", ".cs", ".vb"}

// DefaultExcludeDirs are never descended into.
var DefaultExcludeDirs = []string{"bin", "obj", ".git", ".svn", ".vs", "packages", "node_modules", "TestResults"}

// DefaultExcludes are generated files that are never migrated by hand.
var DefaultExcludes = []string{
	"*.designer.cs", "*.Designer.cs", "*.Designer.vb", "*.designer.vb",
	"*.g.cs", "*.g.i.cs", "*.generated.cs",
	"AssemblyInfo.cs", "AssemblyInfo.vb", "TemporaryGeneratedFile_*", "Reference.cs",
}

// Config holds the runtime configuration for waypoint.
// This struct is the "final, validated" config.
type Config struct {
	RootPath    string
	Recurse     bool
	Extensions  []string
	Excludes    []string
	ExcludeDirs []string
	Workers     int

	Budget       int
	RelatedLimit int
	RelatedFloor int

	EvidenceWindow        time.Duration
	EvidenceWidenedWindow time.Duration
	ScanTimeout           time.Duration

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	DataRoot       string
	BusinessRoot   string
	CreateOutputs  bool
	NamingStrategy string // Path to a YAML naming strategy, empty for the default
	CacheSize      int

	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	LogLevel  string
	LogFormat string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RootPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Workers        int    `mapstructure:"workers"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Precision      int    `mapstructure:"precision"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	LogLevel       string `mapstructure:"log-level"`
	LogFormat      string `mapstructure:"log-format"`
	CacheSize      int    `mapstructure:"cache-size"`

	// --- Fields from scanCmd.Flags() ---
	Recurse        bool   `mapstructure:"recurse"`
	Extensions     string `mapstructure:"extensions"`
	Exclude        string `mapstructure:"exclude"`
	ScanTimeout    string `mapstructure:"scan-timeout"`
	NamingStrategy string `mapstructure:"naming-strategy"`

	// --- Fields from startCmd.Flags() ---
	Budget        int    `mapstructure:"budget"`
	DataRoot      string `mapstructure:"data-root"`
	BusinessRoot  string `mapstructure:"business-root"`
	CreateOutputs bool   `mapstructure:"create-outputs"`

	// --- Context and evidence tuning ---
	RelatedLimit          int    `mapstructure:"related-limit"`
	RelatedFloor          int    `mapstructure:"related-floor"`
	EvidenceWindow        string `mapstructure:"evidence-window"`
	EvidenceWidenedWindow string `mapstructure:"evidence-widened-window"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Extensions = slices.Clone(c.Extensions)
	clone.Excludes = slices.Clone(c.Excludes)
	clone.ExcludeDirs = slices.Clone(c.ExcludeDirs)
	return &clone
}

// ProbeFilter builds the scan filter described by the config.
func (c *Config) ProbeFilter() schema.ProbeFilter {
	return schema.ProbeFilter{
		Extensions:  slices.Clone(c.Extensions),
		Excludes:    slices.Clone(c.Excludes),
		ExcludeDirs: slices.Clone(c.ExcludeDirs),
		Recurse:     c.Recurse,
	}
}

// NewDefaultConfig returns a Config with every default applied.
// Tests and library callers use it instead of going through viper.
func NewDefaultConfig() *Config {
	return &Config{
		Recurse:               true,
		Extensions:            slices.Clone(DefaultExtensions),
		Excludes:              slices.Clone(DefaultExcludes),
		ExcludeDirs:           slices.Clone(DefaultExcludeDirs),
		Workers:               DefaultWorkers,
		Budget:                DefaultBudget,
		RelatedLimit:          DefaultRelatedLimit,
		RelatedFloor:          DefaultRelatedFloor,
		EvidenceWindow:        DefaultEvidenceWindow,
		EvidenceWidenedWindow: DefaultEvidenceWidenedWindow,
		ScanTimeout:           DefaultScanTimeout,
		StoreBackend:          schema.SQLiteBackend,
		CreateOutputs:         true,
		CacheSize:             DefaultCacheSize,
		Precision:             DefaultPrecision,
		Output:                schema.TextOut,
		UseColors:             true,
		LogLevel:              "info",
		LogFormat:             "text",
	}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processScanInputs(cfg, input); err != nil {
		return err
	}
	if err := processDurations(cfg, input); err != nil {
		return err
	}
	return resolveRootPath(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates the store backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	backend := strings.ToLower(strings.TrimSpace(input.StoreBackend))
	if backend == "" {
		backend = string(schema.SQLiteBackend)
	}
	cfg.StoreBackend = schema.DatabaseBackend(backend)
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	return ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect)
}

// validateSimpleInputs processes and validates the output and tuning fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.CreateOutputs = input.CreateOutputs
	cfg.DataRoot = strings.TrimSpace(input.DataRoot)
	cfg.BusinessRoot = strings.TrimSpace(input.BusinessRoot)
	cfg.NamingStrategy = strings.TrimSpace(input.NamingStrategy)
	cfg.LogLevel = input.LogLevel
	cfg.LogFormat = input.LogFormat

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Budget <= 0 {
		return fmt.Errorf("%w (received %d)", ErrBudget, input.Budget)
	}
	cfg.Budget = input.Budget

	if input.RelatedLimit <= 0 || input.RelatedLimit > MaxRelatedLimit {
		return fmt.Errorf("related-limit must be greater than 0 and cannot exceed %d (received %d)", MaxRelatedLimit, input.RelatedLimit)
	}
	cfg.RelatedLimit = input.RelatedLimit

	if input.RelatedFloor < 0 || input.RelatedFloor > input.RelatedLimit {
		return fmt.Errorf("related-floor must be between 0 and related-limit (received %d)", input.RelatedFloor)
	}
	cfg.RelatedFloor = input.RelatedFloor

	cfg.CacheSize = input.CacheSize
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	return nil
}

// processScanInputs normalizes extensions and exclusion patterns.
func processScanInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Recurse = input.Recurse

	cfg.Extensions = slices.Clone(DefaultExtensions)
	if strings.TrimSpace(input.Extensions) != "" {
		cfg.Extensions = nil
		for p := range strings.SplitSeq(input.Extensions, ",") {
			ext := strings.ToLower(strings.TrimSpace(p))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			if !slices.Contains(cfg.Extensions, ext) {
				cfg.Extensions = append(cfg.Extensions, ext)
			}
		}
		if len(cfg.Extensions) == 0 {
			return fmt.Errorf("extensions must name at least one file extension")
		}
	}

	cfg.ExcludeDirs = slices.Clone(DefaultExcludeDirs)
	cfg.Excludes = slices.Clone(DefaultExcludes) // Set defaults first
	if input.Exclude != "" {
		for p := range strings.SplitSeq(input.Exclude, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.Excludes = append(cfg.Excludes, trimmed)
			}
		}
	}
	return nil
}

// processDurations parses the duration-valued settings.
func processDurations(cfg *Config, input *ConfigRawInput) error {
	var err error
	if cfg.ScanTimeout, err = parseDurationOr(input.ScanTimeout, DefaultScanTimeout, "scan-timeout"); err != nil {
		return err
	}
	if cfg.EvidenceWindow, err = parseDurationOr(input.EvidenceWindow, DefaultEvidenceWindow, "evidence-window"); err != nil {
		return err
	}
	if cfg.EvidenceWidenedWindow, err = parseDurationOr(input.EvidenceWidenedWindow, DefaultEvidenceWidenedWindow, "evidence-widened-window"); err != nil {
		return err
	}
	if cfg.EvidenceWidenedWindow < cfg.EvidenceWindow {
		return fmt.Errorf("evidence-widened-window (%s) cannot be shorter than evidence-window (%s)", cfg.EvidenceWidenedWindow, cfg.EvidenceWindow)
	}
	return nil
}

// parseDurationOr parses a positive duration, falling back to def for empty input.
func parseDurationOr(s string, def time.Duration, name string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s': %w", name, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive (received %s)", name, s)
	}
	return d, nil
}

// resolveRootPath makes the workspace root absolute. An empty root is allowed
// for commands that do not scan.
func resolveRootPath(cfg *Config, input *ConfigRawInput) error {
	if input.RootPathStr == "" {
		return nil
	}
	abs, err := filepath.Abs(input.RootPathStr)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("workspace root %s: %w", input.RootPathStr, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace root %s is not a directory", input.RootPathStr)
	}
	cfg.RootPath = filepath.Clean(abs)
	return nil
}
