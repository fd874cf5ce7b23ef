// Package clickhouse implements the warehouse over ClickHouse with clickhouse-go. Statements
// are sent over the HTTP protocol with server side query parameters ({name:Type}) and a
// read-only session.
package clickhouse

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/interfaces"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/model/statement"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
	"github.com/secmon-lab/starfinder/pkg/utils/errutil"
)

const DefaultTable = "repos"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Conn runs one statement with server side parameters.
type Conn interface {
	Query(ctx context.Context, sql string, params clickhouse.Parameters) (driver.Rows, error)
	Close() error
}

// driverConn adapts a clickhouse-go connection. Every query carries readonly=2: only reads are
// allowed, while the driver may still send its own format settings.
type driverConn struct {
	conn driver.Conn
}

func (x *driverConn) Query(ctx context.Context, sql string, params clickhouse.Parameters) (driver.Rows, error) {
	ctx = clickhouse.Context(ctx,
		clickhouse.WithParameters(params),
		clickhouse.WithSettings(readOnlySettings()),
	)
	return x.conn.Query(ctx, sql)
}

func (x *driverConn) Close() error { return x.conn.Close() }

func readOnlySettings() clickhouse.Settings {
	return clickhouse.Settings{"readonly": 2}
}

type Warehouse struct {
	endpoint string
	database string
	table    string
	user     string
	password string
	timeout  time.Duration
	conn     Conn
}

var _ interfaces.Warehouse = (*Warehouse)(nil)

type Option func(*Warehouse)

func WithDatabase(name string) Option { return func(x *Warehouse) { x.database = name } }

func WithTable(name string) Option { return func(x *Warehouse) { x.table = name } }

func WithCredentials(user, password string) Option {
	return func(x *Warehouse) {
		x.user = user
		x.password = password
	}
}

func WithTimeout(d time.Duration) Option { return func(x *Warehouse) { x.timeout = d } }

// WithConn replaces the driver connection, e.g. with a test double.
func WithConn(conn Conn) Option { return func(x *Warehouse) { x.conn = conn } }

// New returns a warehouse for the server at endpoint, e.g. http://localhost:8123. The driver
// connects lazily on the first query.
func New(endpoint string, opts ...Option) (*Warehouse, error) {
	x := &Warehouse{
		endpoint: endpoint,
		table:    DefaultTable,
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(x)
	}

	if !identPattern.MatchString(x.table) {
		return nil, goerr.New("invalid table name", goerr.TV(errutil.TableKey, x.table))
	}
	if x.database != "" && !identPattern.MatchString(x.database) {
		return nil, goerr.New("invalid database name", goerr.V("database", x.database))
	}

	options, err := x.options()
	if err != nil {
		return nil, err
	}

	if x.conn == nil {
		conn, err := clickhouse.Open(options)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open clickhouse connection",
				goerr.TV(errutil.EndpointKey, endpoint))
		}
		x.conn = &driverConn{conn: conn}
	}

	return x, nil
}

func (x *Warehouse) options() (*clickhouse.Options, error) {
	u, err := url.Parse(x.endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, goerr.New("invalid clickhouse endpoint", goerr.TV(errutil.EndpointKey, x.endpoint))
	}

	options := &clickhouse.Options{
		Protocol: clickhouse.HTTP,
		Addr:     []string{u.Host},
		Auth: clickhouse.Auth{
			Database: x.database,
			Username: x.user,
			Password: x.password,
		},
		DialTimeout: x.timeout,
		ReadTimeout: x.timeout,
	}
	if u.Scheme == "https" {
		options.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return options, nil
}

func (x *Warehouse) Kind() types.WarehouseKind { return types.WarehouseClickHouse }

func (x *Warehouse) Dialect() statement.Dialect {
	return statement.ClickHouse{Table: x.table}
}

func (x *Warehouse) Close() error {
	if err := x.conn.Close(); err != nil {
		return goerr.Wrap(err, "failed to close clickhouse connection")
	}
	return nil
}

// Query runs stmt in read-only mode and returns each row keyed by column name. Nullable
// columns become nil or their value, small integers are widened to int64.
func (x *Warehouse) Query(ctx context.Context, stmt *statement.Statement) ([]map[string]any, error) {
	rows, err := x.conn.Query(ctx, stmt.SQL, parameters(stmt.Params))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query clickhouse",
			goerr.TV(errutil.QueryKey, stmt.SQL), goerr.T(errs.TagExecutionFailure))
	}
	defer rows.Close()

	return decodeRows(rows)
}

// DryRun asks the server to plan stmt without reading data.
func (x *Warehouse) DryRun(ctx context.Context, stmt *statement.Statement) error {
	rows, err := x.conn.Query(ctx, "EXPLAIN "+stmt.SQL, parameters(stmt.Params))
	if err != nil {
		return goerr.Wrap(err, "failed to explain query",
			goerr.TV(errutil.QueryKey, stmt.SQL), goerr.T(errs.TagExecutionFailure))
	}
	defer rows.Close()

	for rows.Next() {
	}
	if err := rows.Err(); err != nil {
		return goerr.Wrap(err, "failed to read explain result",
			goerr.TV(errutil.QueryKey, stmt.SQL), goerr.T(errs.TagExecutionFailure))
	}
	return nil
}

// Schema returns the CREATE TABLE statement and the column list of the configured table.
func (x *Warehouse) Schema(ctx context.Context) (*statement.Schema, error) {
	ddlRows, err := x.Query(ctx, &statement.Statement{SQL: "SHOW CREATE TABLE " + x.qualifiedTable()})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read table definition", goerr.TV(errutil.TableKey, x.table))
	}
	if len(ddlRows) == 0 {
		return nil, goerr.New("table not found",
			goerr.TV(errutil.TableKey, x.table), goerr.T(errs.TagExecutionFailure))
	}
	ddl, _ := ddlRows[0]["statement"].(string)

	colRows, err := x.Query(ctx, &statement.Statement{SQL: "DESCRIBE TABLE " + x.qualifiedTable()})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to describe table", goerr.TV(errutil.TableKey, x.table))
	}

	schema := &statement.Schema{Table: x.table, DDL: ddl}
	for _, row := range colRows {
		name, _ := row["name"].(string)
		typ, _ := row["type"].(string)
		if name == "" {
			continue
		}
		schema.Columns = append(schema.Columns, statement.Column{Name: name, Type: typ})
	}
	return schema, nil
}

func (x *Warehouse) qualifiedTable() string {
	if x.database == "" {
		return x.table
	}
	return x.database + "." + x.table
}

func parameters(params []statement.Param) clickhouse.Parameters {
	out := make(clickhouse.Parameters, len(params))
	for _, p := range params {
		out[p.Name] = fmt.Sprint(p.Value)
	}
	return out
}

func decodeRows(rows driver.Rows) ([]map[string]any, error) {
	columns := rows.ColumnTypes()
	dest := make([]any, len(columns))
	for i, c := range columns {
		dest[i] = reflect.New(c.ScanType()).Interface()
	}

	var out []map[string]any
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, goerr.Wrap(err, "failed to scan clickhouse row",
				goerr.TV(errutil.LineKey, len(out)+1), goerr.T(errs.TagExecutionFailure))
		}

		row := make(map[string]any, len(columns))
		for i, c := range columns {
			row[c.Name()] = normalize(reflect.ValueOf(dest[i]).Elem())
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read clickhouse rows", goerr.T(errs.TagExecutionFailure))
	}

	return out, nil
}

// normalize turns a scanned column value into the plain types rows are exchanged in.
func normalize(v reflect.Value) any {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int64(v.Uint())
	case reflect.Uint, reflect.Uint64:
		return v.Uint()
	default:
		return v.Interface()
	}
}
