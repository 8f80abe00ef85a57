package schema

// Custom string types for type safety.
type (
	// UnitKind is the structural role of a scanned file.
	UnitKind string

	// UnitStatus is the per-unit migration state.
	UnitStatus string

	// ProjectStatus is the aggregate state of a migration project.
	ProjectStatus string

	// ArchitecturePattern classifies the layering of the legacy codebase.
	ArchitecturePattern string

	// Layer is the architectural layer a unit belongs to.
	Layer string

	// OutputLayer names one of the two output roots of a project.
	OutputLayer string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the backend of the durable store.
	DatabaseBackend string

	// ContextSource says where a context item came from.
	ContextSource string
)

// All unit kinds.
const (
	KindUIPage        UnitKind = "ui-page"
	KindCodeBehind    UnitKind = "code-behind"
	KindUserControl   UnitKind = "user-control"
	KindDataAccess    UnitKind = "data-access"
	KindBusinessLogic UnitKind = "business-logic"
	KindModel         UnitKind = "model"
	KindUtility       UnitKind = "utility"
	KindUnknown       UnitKind = "unknown"
)

// All unit statuses.
const (
	StatusPending    UnitStatus = "pending"
	StatusInProgress UnitStatus = "in-progress"
	StatusCompleted  UnitStatus = "completed"
	StatusFailed     UnitStatus = "failed"
)

// All project statuses, in lifecycle order.
const (
	ProjectInitialized ProjectStatus = "initialized"
	ProjectAnalyzing   ProjectStatus = "analyzing"
	ProjectReady       ProjectStatus = "ready-for-migration"
	ProjectMigrating   ProjectStatus = "migrating"
	ProjectCompleted   ProjectStatus = "completed"
	ProjectFailed      ProjectStatus = "failed"
)

// All architecture patterns.
const (
	PatternNone           ArchitecturePattern = "none"
	PatternPartial        ArchitecturePattern = "partial"
	PatternGoodSeparation ArchitecturePattern = "good-separation"
	PatternLegacyDataset  ArchitecturePattern = "legacy-dataset"
)

// All layers.
const (
	LayerPresentation Layer = "presentation"
	LayerBusiness     Layer = "business"
	LayerData         Layer = "data"
	LayerModel        Layer = "model"
	LayerShared       Layer = "shared"
	LayerNone         Layer = "none"
)

// Output layers of a migration project.
const (
	OutputData     OutputLayer = "data"
	OutputBusiness OutputLayer = "business"
)

// All output modes supported.
const (
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
	CSVOut  OutputMode = "csv"
)

// All store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Context sources.
const (
	SourceUnitContext     ContextSource = "unit"
	SourceArtifactContext ContextSource = "artifact"
)

// AllUnitKinds lists every kind in display order.
var AllUnitKinds = []UnitKind{
	KindUIPage, KindCodeBehind, KindUserControl, KindDataAccess,
	KindBusinessLogic, KindModel, KindUtility, KindUnknown,
}

// AllUnitStatuses lists every unit status in lifecycle order.
var AllUnitStatuses = []UnitStatus{StatusPending, StatusInProgress, StatusCompleted, StatusFailed}

// OutputLayers lists output layers in a stable order.
var OutputLayers = []OutputLayer{OutputData, OutputBusiness}

// ValidUnitKinds lists all valid unit kinds.
var ValidUnitKinds = map[UnitKind]struct{}{
	KindUIPage:        {},
	KindCodeBehind:    {},
	KindUserControl:   {},
	KindDataAccess:    {},
	KindBusinessLogic: {},
	KindModel:         {},
	KindUtility:       {},
	KindUnknown:       {},
}

// ValidUnitStatuses lists all valid unit statuses.
var ValidUnitStatuses = map[UnitStatus]struct{}{
	StatusPending:    {},
	StatusInProgress: {},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut: {},
	JSONOut: {},
	CSVOut:  {},
}

// ValidDatabaseBackends lists all valid store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// Migratable reports whether units of this kind take part in migration.
// Unknown and model units are never scheduled.
func (k UnitKind) Migratable() bool {
	return k != KindUnknown && k != KindModel && k != ""
}

// Layer returns the architectural layer a kind belongs to.
func (k UnitKind) Layer() Layer {
	switch k {
	case KindUIPage, KindCodeBehind, KindUserControl:
		return LayerPresentation
	case KindBusinessLogic:
		return LayerBusiness
	case KindDataAccess:
		return LayerData
	case KindModel:
		return LayerModel
	case KindUtility:
		return LayerShared
	default:
		return LayerNone
	}
}

// Terminal reports whether no further transition is allowed without retry.
func (s UnitStatus) Terminal() bool {
	return s == StatusCompleted
}

// Outstanding reports whether the unit still needs migration work.
func (s UnitStatus) Outstanding() bool {
	return s == StatusPending || s == StatusInProgress
}
