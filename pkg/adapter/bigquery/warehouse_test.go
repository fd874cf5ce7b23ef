package bigquery_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	bq "github.com/secmon-lab/starfinder/pkg/adapter/bigquery"
	"github.com/secmon-lab/starfinder/pkg/domain/model/catalog"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/model/statement"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type mockClient struct {
	schema   bigquery.Schema
	rows     [][]bigquery.Value
	metadata map[string]*bigquery.TableMetadata
	runErr   error

	queries []*mockQuery
}

func (c *mockClient) Query(sql string) bq.Query {
	q := &mockQuery{client: c, sql: sql}
	c.queries = append(c.queries, q)
	return q
}

func (c *mockClient) Dataset(datasetID string) bq.Dataset {
	return &mockDataset{client: c, datasetID: datasetID}
}

func (c *mockClient) Close() error { return nil }

type mockQuery struct {
	client *mockClient
	sql    string
	dryRun bool
	params []bigquery.QueryParameter
}

func (q *mockQuery) Run(ctx context.Context) (bq.Job, error) {
	if q.client.runErr != nil {
		return nil, q.client.runErr
	}
	return &mockJob{client: q.client}, nil
}

func (q *mockQuery) SetDryRun(dryRun bool) { q.dryRun = dryRun }

func (q *mockQuery) SetParameters(params []bigquery.QueryParameter) { q.params = params }

type mockJob struct {
	client *mockClient
}

func (j *mockJob) Wait(ctx context.Context) (*bigquery.JobStatus, error) {
	return &bigquery.JobStatus{State: bigquery.Done}, nil
}

func (j *mockJob) Read(ctx context.Context) (bq.RowIterator, error) {
	return &mockIterator{schema: j.client.schema, rows: j.client.rows}, nil
}

func (j *mockJob) LastStatus() *bigquery.JobStatus {
	return &bigquery.JobStatus{State: bigquery.Done}
}

func (j *mockJob) ID() string { return "job-1" }

type mockIterator struct {
	schema bigquery.Schema
	rows   [][]bigquery.Value
	index  int
}

func (r *mockIterator) Next(dst any) error {
	if r.index >= len(r.rows) {
		return iterator.Done
	}
	*(dst.(*[]bigquery.Value)) = r.rows[r.index]
	r.index++
	return nil
}

func (r *mockIterator) Schema() bigquery.Schema { return r.schema }

type mockDataset struct {
	client    *mockClient
	datasetID string
}

func (d *mockDataset) Table(tableID string) bq.Table {
	return &mockTable{client: d.client, key: d.datasetID + "." + tableID}
}

type mockTable struct {
	client *mockClient
	key    string
}

func (t *mockTable) Metadata(ctx context.Context) (*bigquery.TableMetadata, error) {
	meta, ok := t.client.metadata[t.key]
	if !ok {
		return nil, errors.New("not found: " + t.key)
	}
	return meta, nil
}

type mockFactory struct {
	client *mockClient
}

func (f *mockFactory) NewClient(ctx context.Context, projectID string, opts ...option.ClientOption) (bq.Client, error) {
	return f.client, nil
}

func newWarehouse(t *testing.T, client *mockClient) *bq.Warehouse {
	t.Helper()
	wh, err := bq.New(context.Background(), "proj", "github", bq.WithClientFactory(&mockFactory{client: client}))
	gt.NoError(t, err).Required()
	return wh
}

var repoSchema = bigquery.Schema{
	{Name: "name", Type: bigquery.StringFieldType},
	{Name: "user_name", Type: bigquery.StringFieldType},
	{Name: "stars", Type: bigquery.IntegerFieldType},
	{Name: "topics", Type: bigquery.StringFieldType, Repeated: true},
	{Name: "updated_at", Type: bigquery.TimestampFieldType},
}

func TestQuery(t *testing.T) {
	updated := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	client := &mockClient{
		schema: repoSchema,
		rows: [][]bigquery.Value{
			{"serde", "serde-rs", int64(9000), []bigquery.Value{"rust", "serde"}, updated},
		},
	}
	wh := newWarehouse(t, client)

	rows, err := wh.Query(context.Background(), &statement.Statement{
		SQL:    "SELECT * FROM `proj.github.repos_latest` WHERE LOWER(language) = LOWER(@language)",
		Params: []statement.Param{{Name: "language", Value: "Rust"}},
	})
	gt.NoError(t, err).Required()
	gt.A(t, rows).Length(1)

	repo, err := catalog.FromRow(rows[0])
	gt.NoError(t, err).Required()
	gt.Equal(t, repo.FullName, "serde-rs/serde")
	gt.Equal(t, repo.Stars, int64(9000))
	gt.A(t, repo.Topics).Length(2)
	gt.True(t, repo.UpdatedAt.Equal(updated))

	gt.A(t, client.queries).Length(1)
	gt.A(t, client.queries[0].params).Length(1)
	gt.Equal(t, client.queries[0].params[0].Name, "language")
	gt.False(t, client.queries[0].dryRun)
}

func TestQueryFailure(t *testing.T) {
	wh := newWarehouse(t, &mockClient{runErr: errors.New("quota exceeded")})

	_, err := wh.Query(context.Background(), &statement.Statement{SQL: "SELECT 1"})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, errs.TagExecutionFailure))

	err = wh.DryRun(context.Background(), &statement.Statement{SQL: "SELECT 1"})
	gt.Error(t, err)
}

func TestDryRun(t *testing.T) {
	client := &mockClient{}
	wh := newWarehouse(t, client)

	gt.NoError(t, wh.DryRun(context.Background(), &statement.Statement{SQL: "SELECT name FROM `proj.github.repos_latest`"}))
	gt.A(t, client.queries).Length(1)
	gt.True(t, client.queries[0].dryRun)
}

func TestSchema(t *testing.T) {
	client := &mockClient{
		metadata: map[string]*bigquery.TableMetadata{
			"github.repos": {Schema: repoSchema},
			"github.repos_latest": {
				Schema:    repoSchema,
				ViewQuery: "SELECT * EXCEPT(rn) FROM (SELECT *, ROW_NUMBER() OVER (PARTITION BY full_name ORDER BY updated_at DESC) AS rn FROM `proj.github.repos`) WHERE rn = 1",
			},
		},
	}
	wh := newWarehouse(t, client)

	schema, err := wh.Schema(context.Background())
	gt.NoError(t, err).Required()
	gt.Equal(t, schema.Table, "proj.github.repos_latest")
	gt.S(t, schema.DDL).Contains("CREATE TABLE `proj.github.repos` (")
	gt.S(t, schema.DDL).Contains("topics ARRAY<STRING>")
	gt.S(t, schema.DDL).Contains("stars INT64")
	gt.S(t, schema.DDL).Contains("CREATE VIEW `proj.github.repos_latest` AS")
	gt.True(t, schema.HasColumn("updated_at"))

	gt.Equal(t, wh.Dialect().Source(), "`proj.github.repos_latest`")
}

func TestNewRejectsInvalidIdentifier(t *testing.T) {
	_, err := bq.New(context.Background(), "proj", "github; DROP",
		bq.WithClientFactory(&mockFactory{client: &mockClient{}}))
	gt.Error(t, err)
}
