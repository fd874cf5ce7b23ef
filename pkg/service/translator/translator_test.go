package translator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/mock"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/starfinder/pkg/adapter/sqlite"
	"github.com/secmon-lab/starfinder/pkg/adapter/storage"
	"github.com/secmon-lab/starfinder/pkg/domain/model/statement"
	"github.com/secmon-lab/starfinder/pkg/service/query"
	"github.com/secmon-lab/starfinder/pkg/service/translator"
	"github.com/secmon-lab/starfinder/pkg/utils/test"
)

const ddl = "CREATE TABLE repos (name String, language String, stars UInt64, pushed_at DateTime) ENGINE = ReplacingMergeTree ORDER BY name"

func llmReturning(text string, err error, prompts *[]string) *mock.LLMClientMock {
	return &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, opts ...gollem.SessionOption) (gollem.Session, error) {
			return &mock.SessionMock{
				GenerateContentFunc: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					if prompts != nil {
						for _, in := range input {
							if s, ok := in.(gollem.Text); ok {
								*prompts = append(*prompts, string(s))
							}
						}
					}
					if err != nil {
						return nil, err
					}
					return &gollem.Response{Texts: []string{text}}, nil
				},
			}, nil
		},
	}
}

func TestTranslate(t *testing.T) {
	var prompts []string
	client := llmReturning(`{
		"success": true,
		"sql_query": "SELECT * FROM repos FINAL WHERE language = 'Go' AND pushed_at >= now() - INTERVAL 7 DAY",
		"conditions": [
			{"field": "language", "operator": "=", "value": "Go"},
			{"field": "pushed_at", "operator": ">=", "value": "now() - INTERVAL 7 DAY"}
		]
	}`, nil, &prompts)

	tr := translator.New(client, statement.ClickHouse{Table: "repos"})
	result := tr.Translate(context.Background(), ddl, "Go repositories updated in the last 7 days")

	gt.True(t, result.Success)
	gt.S(t, result.GeneratedQuery).Contains("FROM repos FINAL")
	gt.A(t, result.Conditions).Length(2)

	gt.A(t, prompts).Length(1)
	gt.S(t, prompts[0]).Contains(ddl)
	gt.S(t, prompts[0]).Contains("Go repositories updated in the last 7 days")
	gt.S(t, prompts[0]).Contains("FINAL modifier")
	gt.S(t, prompts[0]).Contains("Dialect: ClickHouse")
}

func TestTranslateResultPassesGuard(t *testing.T) {
	ctx := context.Background()
	wh, err := sqlite.Open(ctx, ":memory:")
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = wh.Close() })

	schema, err := wh.Schema(ctx)
	gt.NoError(t, err).Required()

	client := llmReturning(`{"success":true,"sql_query":"SELECT * FROM repos_latest WHERE language = 'Go' AND pushed_at >= datetime('now', '-7 days')","conditions":[{"field":"language","operator":"=","value":"Go"}]}`, nil, nil)
	result := translator.New(client, wh.Dialect()).Translate(ctx, schema.DDL, "Go repositories updated in the last 7 days")
	gt.True(t, result.Success)

	stmt, err := query.NewGuard(wh.Dialect()).Check(result, schema)
	gt.NoError(t, err).Required()
	gt.NoError(t, wh.DryRun(ctx, stmt))
}

func TestTranslateFailures(t *testing.T) {
	testCases := map[string]*mock.LLMClientMock{
		"model declines":      llmReturning(`{"success":false,"sql_query":"","conditions":[]}`, nil, nil),
		"malformed output":    llmReturning(`this is not json`, nil, nil),
		"success without sql": llmReturning(`{"success":true,"sql_query":"  ","conditions":[]}`, nil, nil),
		"transport error":     llmReturning("", errors.New("503 service unavailable"), nil),
	}

	for name, client := range testCases {
		t.Run(name, func(t *testing.T) {
			result := translator.New(client, statement.ClickHouse{Table: "repos"}).
				Translate(context.Background(), ddl, "popular rust crates")
			gt.False(t, result.Success)
			gt.Equal(t, result.GeneratedQuery, "")
			gt.NotNil(t, result.Conditions)
			gt.False(t, result.Executable())
		})
	}
}

func TestTranslateDeclineDropsQuery(t *testing.T) {
	client := llmReturning(`{"success":false,"sql_query":"SELECT 1","conditions":[]}`, nil, nil)
	result := translator.New(client, statement.ClickHouse{Table: "repos"}).
		Translate(context.Background(), ddl, "what is the weather")
	gt.False(t, result.Success)
	gt.Equal(t, result.GeneratedQuery, "")
}

func TestTranslateTimeout(t *testing.T) {
	client := &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, opts ...gollem.SessionOption) (gollem.Session, error) {
			return &mock.SessionMock{
				GenerateContentFunc: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					<-ctx.Done()
					return nil, ctx.Err()
				},
			}, nil
		},
	}

	tr := translator.New(client, statement.ClickHouse{Table: "repos"}, translator.WithTimeout(50*time.Millisecond))
	started := time.Now()
	result := tr.Translate(context.Background(), ddl, "popular rust crates")
	gt.False(t, result.Success)
	gt.True(t, time.Since(started) < 5*time.Second)
}

func TestTranslateWithoutClient(t *testing.T) {
	result := translator.New(nil, statement.ClickHouse{Table: "repos"}).
		Translate(context.Background(), ddl, "popular rust crates")
	gt.False(t, result.Success)
}

func TestTranslateAudit(t *testing.T) {
	objects := storage.NewMemoryClient()
	client := llmReturning(`{"success":true,"sql_query":"SELECT * FROM repos FINAL","conditions":[]}`, nil, nil)

	tr := translator.New(client, statement.ClickHouse{Table: "repos"},
		translator.WithAuditor(storage.NewAuditor(objects)),
		translator.WithWarehouseName("clickhouse"),
	)
	tr.Translate(context.Background(), ddl, "everything")
	tr.Translate(context.Background(), ddl, "")

	gt.A(t, objects.List("translations/")).Length(2)
}

func TestTranslateWithGemini(t *testing.T) {
	client := test.NewGeminiClient(t)
	ctx := t.Context()

	wh, err := sqlite.Open(ctx, ":memory:")
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = wh.Close() })
	schema, err := wh.Schema(ctx)
	gt.NoError(t, err).Required()

	result := translator.New(client, wh.Dialect(), translator.WithTimeout(30*time.Second)).
		Translate(ctx, schema.DDL, "Go repositories updated in the last 7 days")
	gt.True(t, result.Success)

	stmt, err := query.NewGuard(wh.Dialect()).Check(result, schema)
	gt.NoError(t, err).Required()
	gt.NoError(t, wh.DryRun(ctx, stmt))
}
