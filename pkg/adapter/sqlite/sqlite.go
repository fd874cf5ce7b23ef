// Package sqlite implements the warehouse on an embedded SQLite database. It serves local
// development and tests; rows are stored as versions and read through a latest-version view.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/interfaces"
	"github.com/secmon-lab/starfinder/pkg/domain/model/catalog"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/model/statement"
	"github.com/secmon-lab/starfinder/pkg/domain/types"

	_ "modernc.org/sqlite"
)

const (
	DefaultTable = "repos"
	memoryPath   = ":memory:"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type config struct {
	table       string
	readOnly    bool
	busyTimeout int
}

type Option func(*config)

// WithTable sets the versioned table name. The view is named <table>_latest.
func WithTable(name string) Option { return func(c *config) { c.table = name } }

// WithReadOnly opens the database with query_only so no statement can write.
func WithReadOnly() Option { return func(c *config) { c.readOnly = true } }

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

type Warehouse struct {
	db    *sql.DB
	table string
	view  string
}

var _ interfaces.Warehouse = (*Warehouse)(nil)

// Open opens the database at path, or an in-memory database for ":memory:". Writable
// databases get the table and view created when missing.
func Open(ctx context.Context, path string, opts ...Option) (*Warehouse, error) {
	cfg := config{table: DefaultTable, busyTimeout: 10_000}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !identPattern.MatchString(cfg.table) {
		return nil, goerr.New("invalid table name", goerr.V("table", cfg.table))
	}

	pragmas := []string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", cfg.busyTimeout),
	}
	if cfg.readOnly {
		pragmas = append(pragmas, "_pragma=query_only(1)")
	} else if path != memoryPath {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)", "_pragma=synchronous(NORMAL)")
	}
	dsn := "file:" + path + "?" + strings.Join(pragmas, "&")

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite", goerr.V("path", path))
	}
	if path == memoryPath {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	wh := &Warehouse{db: db, table: cfg.table, view: cfg.table + "_latest"}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to ping sqlite", goerr.V("path", path), goerr.T(errs.TagExecutionFailure))
	}

	if !cfg.readOnly {
		if err := wh.migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return wh, nil
}

func (x *Warehouse) migrate(ctx context.Context) error {
	ddl := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  name TEXT NOT NULL,
  user_id INTEGER NOT NULL DEFAULT 0,
  user_name TEXT NOT NULL,
  description TEXT,
  full_name TEXT NOT NULL,
  topics TEXT NOT NULL DEFAULT '[]',
  url TEXT,
  stars INTEGER NOT NULL DEFAULT 0,
  forks INTEGER NOT NULL DEFAULT 0,
  language TEXT,
  size INTEGER NOT NULL DEFAULT 0,
  open_issues INTEGER NOT NULL DEFAULT 0,
  license TEXT,
  created_at TEXT,
  updated_at TEXT NOT NULL,
  pushed_at TEXT
)`, x.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_full_name ON %s (full_name, updated_at)`, x.table, x.table),
		fmt.Sprintf(`CREATE VIEW IF NOT EXISTS %s AS
SELECT r.* FROM %s AS r
WHERE r.rowid = (
  SELECT v.rowid FROM %s AS v
  WHERE v.full_name = r.full_name
  ORDER BY v.updated_at DESC, v.rowid DESC
  LIMIT 1
)`, x.view, x.table, x.table),
	}

	for _, stmt := range ddl {
		if _, err := x.db.ExecContext(ctx, stmt); err != nil {
			return goerr.Wrap(err, "failed to migrate sqlite schema", goerr.V("statement", stmt))
		}
	}
	return nil
}

func (x *Warehouse) Kind() types.WarehouseKind { return types.WarehouseSQLite }

func (x *Warehouse) Dialect() statement.Dialect {
	return statement.SQLite{Table: x.table, View: x.view}
}

func (x *Warehouse) Close() error {
	return x.db.Close()
}

func namedArgs(params []statement.Param) []any {
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = sql.Named(p.Name, p.Value)
	}
	return args
}

func (x *Warehouse) Query(ctx context.Context, stmt *statement.Statement) ([]map[string]any, error) {
	rows, err := x.db.QueryContext(ctx, stmt.SQL, namedArgs(stmt.Params)...)
	if err != nil {
		return nil, goerr.Wrap(err, "sqlite query failed", goerr.T(errs.TagExecutionFailure))
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get columns", goerr.T(errs.TagExecutionFailure))
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, goerr.Wrap(err, "failed to scan row", goerr.T(errs.TagExecutionFailure))
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(col, values[i])
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate rows", goerr.T(errs.TagExecutionFailure))
	}

	return results, nil
}

// normalizeValue converts driver values to the shapes catalog.FromRow understands. Topics are
// stored as JSON arrays.
func normalizeValue(column string, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if column != "topics" {
		return v
	}
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(strings.TrimSpace(s), "[") {
		return v
	}
	var topics []any
	if err := sonic.UnmarshalString(s, &topics); err != nil {
		return v
	}
	return topics
}

func (x *Warehouse) DryRun(ctx context.Context, stmt *statement.Statement) error {
	rows, err := x.db.QueryContext(ctx, "EXPLAIN "+stmt.SQL, namedArgs(stmt.Params)...)
	if err != nil {
		return goerr.Wrap(err, "sqlite dry run failed", goerr.T(errs.TagExecutionFailure))
	}
	return rows.Close()
}

func (x *Warehouse) Schema(ctx context.Context) (*statement.Schema, error) {
	rows, err := x.db.QueryContext(ctx,
		`SELECT sql FROM sqlite_master WHERE name IN (?, ?) AND sql IS NOT NULL ORDER BY type ASC`,
		x.table, x.view)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read sqlite schema", goerr.T(errs.TagExecutionFailure))
	}
	defer rows.Close()

	var ddl []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, goerr.Wrap(err, "failed to scan schema", goerr.T(errs.TagExecutionFailure))
		}
		ddl = append(ddl, s+";")
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate schema", goerr.T(errs.TagExecutionFailure))
	}
	if len(ddl) == 0 {
		return nil, goerr.New("table not found", goerr.V("table", x.table), goerr.T(errs.TagExecutionFailure))
	}

	info, err := x.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", x.table))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read table info", goerr.T(errs.TagExecutionFailure))
	}
	defer info.Close()

	schema := &statement.Schema{Table: x.table, DDL: strings.Join(ddl, "\n\n")}
	for info.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := info.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, goerr.Wrap(err, "failed to scan table info", goerr.T(errs.TagExecutionFailure))
		}
		schema.Columns = append(schema.Columns, statement.Column{Name: name, Type: typ})
	}
	if err := info.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate table info", goerr.T(errs.TagExecutionFailure))
	}

	return schema, nil
}

// Insert stores a new version of each repository. UpdatedAt orders versions; a zero value is
// replaced by the current time.
func (x *Warehouse) Insert(ctx context.Context, repos ...*catalog.Repository) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT INTO %s (name, user_id, user_name, description, full_name, topics, url,
  stars, forks, language, size, open_issues, license, created_at, updated_at, pushed_at)
VALUES (:name, :user_id, :user_name, :description, :full_name, :topics, :url,
  :stars, :forks, :language, :size, :open_issues, :license, :created_at, :updated_at, :pushed_at)`, x.table)

	for _, r := range repos {
		topics, err := sonic.MarshalString(r.Topics)
		if err != nil {
			return goerr.Wrap(err, "failed to encode topics", goerr.V("full_name", r.FullName))
		}
		if r.Topics == nil {
			topics = "[]"
		}
		updated := r.UpdatedAt
		if updated.IsZero() {
			updated = time.Now()
		}

		if _, err := tx.ExecContext(ctx, query,
			sql.Named("name", r.Name),
			sql.Named("user_id", r.UserID),
			sql.Named("user_name", r.UserName),
			sql.Named("description", r.Description),
			sql.Named("full_name", r.FullName),
			sql.Named("topics", topics),
			sql.Named("url", r.URL),
			sql.Named("stars", r.Stars),
			sql.Named("forks", r.Forks),
			sql.Named("language", r.Language),
			sql.Named("size", r.Size),
			sql.Named("open_issues", r.OpenIssues),
			sql.Named("license", r.License),
			sql.Named("created_at", formatTime(r.CreatedAt)),
			sql.Named("updated_at", formatTime(updated)),
			sql.Named("pushed_at", formatTime(r.PushedAt)),
		); err != nil {
			return goerr.Wrap(err, "failed to insert repository", goerr.V("full_name", r.FullName))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit")
	}
	return nil
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
