package bigquery

import (
	"context"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"
)

// Client is the subset of *bigquery.Client the warehouse uses.
type Client interface {
	Query(sql string) Query
	Dataset(datasetID string) Dataset
	Close() error
}

type Query interface {
	Run(ctx context.Context) (Job, error)
	SetDryRun(dryRun bool)
	SetParameters(params []bigquery.QueryParameter)
}

type Job interface {
	Wait(ctx context.Context) (*bigquery.JobStatus, error)
	Read(ctx context.Context) (RowIterator, error)
	LastStatus() *bigquery.JobStatus
	ID() string
}

type RowIterator interface {
	Next(dst any) error
	Schema() bigquery.Schema
}

type Dataset interface {
	Table(tableID string) Table
}

type Table interface {
	Metadata(ctx context.Context) (*bigquery.TableMetadata, error)
}

type ClientFactory interface {
	NewClient(ctx context.Context, projectID string, opts ...option.ClientOption) (Client, error)
}

// DefaultClientFactory creates clients backed by cloud.google.com/go/bigquery.
type DefaultClientFactory struct{}

var _ ClientFactory = (*DefaultClientFactory)(nil)

func (f *DefaultClientFactory) NewClient(ctx context.Context, projectID string, opts ...option.ClientOption) (Client, error) {
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, err
	}
	return &defaultClient{client: client}, nil
}

type defaultClient struct {
	client *bigquery.Client
}

func (c *defaultClient) Query(sql string) Query {
	return &defaultQuery{query: c.client.Query(sql)}
}

func (c *defaultClient) Dataset(datasetID string) Dataset {
	return &defaultDataset{dataset: c.client.Dataset(datasetID)}
}

func (c *defaultClient) Close() error {
	return c.client.Close()
}

type defaultQuery struct {
	query *bigquery.Query
}

func (q *defaultQuery) Run(ctx context.Context) (Job, error) {
	job, err := q.query.Run(ctx)
	if err != nil {
		return nil, err
	}
	return &defaultJob{job: job}, nil
}

func (q *defaultQuery) SetDryRun(dryRun bool) {
	q.query.DryRun = dryRun
}

func (q *defaultQuery) SetParameters(params []bigquery.QueryParameter) {
	q.query.Parameters = params
}

type defaultJob struct {
	job *bigquery.Job
}

func (j *defaultJob) Wait(ctx context.Context) (*bigquery.JobStatus, error) {
	return j.job.Wait(ctx)
}

func (j *defaultJob) Read(ctx context.Context) (RowIterator, error) {
	iter, err := j.job.Read(ctx)
	if err != nil {
		return nil, err
	}
	return &defaultRowIterator{iter: iter}, nil
}

func (j *defaultJob) LastStatus() *bigquery.JobStatus {
	return j.job.LastStatus()
}

func (j *defaultJob) ID() string {
	return j.job.ID()
}

type defaultRowIterator struct {
	iter *bigquery.RowIterator
}

func (r *defaultRowIterator) Next(dst any) error {
	return r.iter.Next(dst)
}

func (r *defaultRowIterator) Schema() bigquery.Schema {
	return r.iter.Schema
}

type defaultDataset struct {
	dataset *bigquery.Dataset
}

func (d *defaultDataset) Table(tableID string) Table {
	return &defaultTable{table: d.dataset.Table(tableID)}
}

type defaultTable struct {
	table *bigquery.Table
}

func (t *defaultTable) Metadata(ctx context.Context) (*bigquery.TableMetadata, error) {
	return t.table.Metadata(ctx)
}
