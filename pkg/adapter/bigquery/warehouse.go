// Package bigquery implements the warehouse on BigQuery. The table holds every ingested version
// of a repository; queries read a view exposing the latest version of each.
package bigquery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/interfaces"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/model/statement"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
	"github.com/secmon-lab/starfinder/pkg/utils/errutil"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const DefaultTable = "repos"

var identPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

type Warehouse struct {
	client    Client
	projectID string
	datasetID string
	table     string
	view      string
}

var _ interfaces.Warehouse = (*Warehouse)(nil)

type config struct {
	table   string
	view    string
	factory ClientFactory
	options []option.ClientOption
}

type Option func(*config)

func WithTable(name string) Option { return func(c *config) { c.table = name } }

// WithView overrides the latest-version view name, <table>_latest by default.
func WithView(name string) Option { return func(c *config) { c.view = name } }

func WithClientFactory(f ClientFactory) Option { return func(c *config) { c.factory = f } }

func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *config) { c.options = append(c.options, opts...) }
}

func New(ctx context.Context, projectID, datasetID string, opts ...Option) (*Warehouse, error) {
	cfg := config{table: DefaultTable, factory: &DefaultClientFactory{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.view == "" {
		cfg.view = cfg.table + "_latest"
	}

	for _, name := range []string{projectID, datasetID, cfg.table, cfg.view} {
		if !identPattern.MatchString(name) {
			return nil, goerr.New("invalid bigquery identifier", goerr.TV(errutil.TableKey, name))
		}
	}

	client, err := cfg.factory.NewClient(ctx, projectID, cfg.options...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create bigquery client",
			goerr.V("project_id", projectID), goerr.T(errs.TagExecutionFailure))
	}

	return &Warehouse{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		table:     cfg.table,
		view:      cfg.view,
	}, nil
}

func (x *Warehouse) Kind() types.WarehouseKind { return types.WarehouseBigQuery }

func (x *Warehouse) Dialect() statement.Dialect {
	return statement.BigQuery{
		Table: x.qualify(x.table),
		View:  x.qualify(x.view),
	}
}

func (x *Warehouse) Close() error {
	return x.client.Close()
}

func (x *Warehouse) qualify(name string) string {
	return x.projectID + "." + x.datasetID + "." + name
}

func queryParameters(params []statement.Param) []bigquery.QueryParameter {
	out := make([]bigquery.QueryParameter, len(params))
	for i, p := range params {
		out[i] = bigquery.QueryParameter{Name: p.Name, Value: p.Value}
	}
	return out
}

func (x *Warehouse) Query(ctx context.Context, stmt *statement.Statement) ([]map[string]any, error) {
	q := x.client.Query(stmt.SQL)
	q.SetParameters(queryParameters(stmt.Params))

	job, err := q.Run(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run query", goerr.T(errs.TagExecutionFailure))
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to wait for job",
			goerr.V("job_id", job.ID()), goerr.T(errs.TagExecutionFailure))
	}
	if err := status.Err(); err != nil {
		return nil, goerr.Wrap(err, "job failed",
			goerr.V("job_id", job.ID()), goerr.T(errs.TagExecutionFailure))
	}

	iter, err := job.Read(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read results", goerr.T(errs.TagExecutionFailure))
	}

	var rows []map[string]any
	for {
		var values []bigquery.Value
		if err := iter.Next(&values); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, goerr.Wrap(err, "failed to iterate results", goerr.T(errs.TagExecutionFailure))
		}

		schema := iter.Schema()
		row := make(map[string]any, len(schema))
		for i, field := range schema {
			if i < len(values) {
				row[field.Name] = convertValue(values[i])
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// DryRun validates stmt without scanning data.
func (x *Warehouse) DryRun(ctx context.Context, stmt *statement.Statement) error {
	q := x.client.Query(stmt.SQL)
	q.SetParameters(queryParameters(stmt.Params))
	q.SetDryRun(true)

	job, err := q.Run(ctx)
	if err != nil {
		return goerr.Wrap(err, "dry run failed", goerr.T(errs.TagExecutionFailure))
	}
	if status := job.LastStatus(); status != nil {
		if err := status.Err(); err != nil {
			return goerr.Wrap(err, "dry run failed", goerr.T(errs.TagExecutionFailure))
		}
	}
	return nil
}

// Schema describes the view that queries read. The DDL lists the base table columns followed
// by the view definition.
func (x *Warehouse) Schema(ctx context.Context) (*statement.Schema, error) {
	dataset := x.client.Dataset(x.datasetID)

	tableMeta, err := dataset.Table(x.table).Metadata(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get table metadata",
			goerr.TV(errutil.TableKey, x.table), goerr.T(errs.TagExecutionFailure))
	}
	viewMeta, err := dataset.Table(x.view).Metadata(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get view metadata",
			goerr.TV(errutil.TableKey, x.view), goerr.T(errs.TagExecutionFailure))
	}

	var ddl strings.Builder
	fmt.Fprintf(&ddl, "CREATE TABLE `%s` (\n", x.qualify(x.table))
	for i, field := range tableMeta.Schema {
		sep := ","
		if i == len(tableMeta.Schema)-1 {
			sep = ""
		}
		fmt.Fprintf(&ddl, "  %s %s%s\n", field.Name, fieldType(field), sep)
	}
	ddl.WriteString(");\n")
	if viewMeta.ViewQuery != "" {
		fmt.Fprintf(&ddl, "\nCREATE VIEW `%s` AS\n%s;\n", x.qualify(x.view), strings.TrimSpace(viewMeta.ViewQuery))
	}

	schema := &statement.Schema{Table: x.qualify(x.view), DDL: ddl.String()}
	for _, field := range viewMeta.Schema {
		schema.Columns = append(schema.Columns, statement.Column{Name: field.Name, Type: fieldType(field)})
	}
	return schema, nil
}

// fieldType renders a field type in DDL form, e.g. ARRAY<STRING> or STRUCT<a INT64>.
func fieldType(field *bigquery.FieldSchema) string {
	var typ string
	switch field.Type {
	case bigquery.RecordFieldType:
		parts := make([]string, 0, len(field.Schema))
		for _, nested := range field.Schema {
			parts = append(parts, nested.Name+" "+fieldType(nested))
		}
		typ = "STRUCT<" + strings.Join(parts, ", ") + ">"
	case bigquery.IntegerFieldType:
		typ = "INT64"
	case bigquery.FloatFieldType:
		typ = "FLOAT64"
	case bigquery.BooleanFieldType:
		typ = "BOOL"
	default:
		typ = string(field.Type)
	}

	if field.Repeated {
		return "ARRAY<" + typ + ">"
	}
	return typ
}

func convertValue(value bigquery.Value) any {
	switch v := value.(type) {
	case nil:
		return nil
	case []bigquery.Value:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = convertValue(item)
		}
		return out
	case map[string]bigquery.Value:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = convertValue(item)
		}
		return out
	case string, int64, float64, bool, time.Time:
		return v
	default:
		if t, ok := v.(interface{ String() string }); ok {
			return t.String()
		}
		return fmt.Sprintf("%v", v)
	}
}
