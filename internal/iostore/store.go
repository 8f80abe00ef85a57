package iostore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Table names for migration state.
const (
	workspacesTable = "waypoint_workspaces"
	unitsTable      = "waypoint_units"
	projectsTable   = "waypoint_projects"
	batchesTable    = "waypoint_batches"
	versionTable    = "schema_migrations"
)

// storeTables lists every table owned by the store, children last.
var storeTables = []string{workspacesTable, unitsTable, projectsTable, batchesTable}

// memoryDSN is used by the none backend.
const memoryDSN = ":memory:"

// MigrationStoreImpl implements contract.MigrationStore on database/sql.
type MigrationStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
	connStr    string
}

var _ contract.MigrationStore = &MigrationStoreImpl{} // Compile-time check

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// inTx runs fn in a transaction and commits when fn succeeds.
func (ms *MigrationStoreImpl) inTx(ctx context.Context, what string, fn func(tx *sql.Tx) error) error {
	tx, err := ms.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin %s: %w", what, err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", what, err)
	}
	return nil
}

// NewMigrationStore opens the backend, verifies the connection and applies
// pending schema migrations.
func NewMigrationStore(backend schema.DatabaseBackend, connStr string) (*MigrationStoreImpl, error) {
	if backend == schema.NoneBackend {
		contract.Logger().Warn("Store backend is none: migration state lives in memory and is lost on exit")
	}

	db, driverName, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}

	ms := &MigrationStoreImpl{
		db:         db,
		backend:    backend,
		driverName: driverName,
		connStr:    connStr,
	}
	if err := ms.migrateLatest(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate %s store: %w", backend, err)
	}
	return ms, nil
}

// openDB opens and pings a database for the backend.
func openDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, string, error) {
	var db *sql.DB
	var err error
	var driverName string

	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		driverName = "sqlite"
		dbPath := connStr
		if backend == schema.NoneBackend {
			dbPath = memoryDSN
		} else if dbPath == "" {
			dbPath = contract.GetDBFilePath()
		}
		db, err = sql.Open(driverName, dbPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors.
		// It also keeps an in-memory database alive for the life of the pool.
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		// connStr should be:
		// user:password@tcp(host:port)/dbname
		driverName = "mysql"
		dsn, dsnErr := normalizeMySQLDSN(connStr)
		if dsnErr != nil {
			return nil, "", dsnErr
		}
		db, err = sql.Open(driverName, dsn)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		// connStr should be:
		// host=localhost port=5432 user=postgres password=secret dbname=waypoint
		driverName = "pgx"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open PostgreSQL database: %w. Check connection format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}

	default:
		return nil, "", fmt.Errorf("unsupported store backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}
	return db, driverName, nil
}

// normalizeMySQLDSN forces the options the store relies on.
// Multi-statement support is needed by migrations, found-rows by compare-and-swap updates.
func normalizeMySQLDSN(connStr string) (string, error) {
	cfg, err := mysql.ParseDSN(connStr)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL connection string: %w", err)
	}
	cfg.ParseTime = true
	cfg.MultiStatements = true
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

// tableNamePattern matches safe SQL identifiers.
var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName validates that the table name is a safe SQL identifier.
func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name: %s (must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$)", name)
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}

// rebind rewrites ? placeholders into the backend's placeholder syntax.
// Queries in this package never contain literal question marks.
func rebind(backend schema.DatabaseBackend, query string) string {
	if backend != schema.PostgreSQLBackend {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// q rebinds a query for this store.
func (ms *MigrationStoreImpl) q(query string) string {
	return rebind(ms.backend, query)
}

// placeholders returns n comma-separated ? markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// toMillis stores a time as unix milliseconds, with 0 for the zero time.
func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// fromMillis reverses toMillis.
func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// encodeJSON serializes a column value.
func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode column: %w", err)
	}
	return string(data), nil
}

// decodeJSON deserializes a column value. Empty columns decode to the zero value.
func decodeJSON(s string, v any) error {
	if s == "" || s == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("failed to decode column: %w", err)
	}
	return nil
}

// boolToInt stores a flag as 0 or 1.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Close closes the underlying connection.
func (ms *MigrationStoreImpl) Close() error {
	if ms.db != nil {
		return ms.db.Close()
	}
	return nil
}

// GetStatus returns status information about the store.
func (ms *MigrationStoreImpl) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(ms.backend),
		Connected:  ms.db != nil,
		TableSizes: make(map[string]int64),
	}
	if ms.db == nil {
		return status, nil
	}

	version, dirty, err := ms.schemaVersion(ctx)
	if err != nil {
		return status, err
	}
	status.SchemaVersion = version
	status.Dirty = dirty

	for _, table := range storeTables {
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, ms.backend))
		var count int64
		if err := ms.db.QueryRowContext(ctx, countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.Workspaces = int(status.TableSizes[workspacesTable])
	status.Projects = int(status.TableSizes[projectsTable])

	if status.Workspaces > 0 {
		var last int64
		lastQuery := fmt.Sprintf("SELECT MAX(created_at) FROM %s", quoteTableName(workspacesTable, ms.backend))
		if err := ms.db.QueryRowContext(ctx, lastQuery).Scan(&last); err != nil {
			return status, fmt.Errorf("failed to get last scan time: %w", err)
		}
		status.LastScanTime = fromMillis(last)
	}
	return status, nil
}

// schemaVersion reads the version row maintained by golang-migrate.
func (ms *MigrationStoreImpl) schemaVersion(ctx context.Context) (uint, bool, error) {
	var version int64
	var dirty bool
	query := fmt.Sprintf("SELECT version, dirty FROM %s LIMIT 1", quoteTableName(versionTable, ms.backend))
	err := ms.db.QueryRowContext(ctx, query).Scan(&version, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return uint(version), dirty, nil
}
