package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/starfinder/pkg/adapter/storage"
	"github.com/secmon-lab/starfinder/pkg/domain/model/search"
)

func TestAuditorRecord(t *testing.T) {
	client := storage.NewMemoryClient()
	auditor := storage.NewAuditor(client)

	rec := &search.TranslationRecord{
		ID:        "0192f0c4-7d6e-7a00-8000-000000000001",
		Utterance: "Go repositories updated in the last 7 days",
		Warehouse: "clickhouse",
		Result: &search.AIQueryResult{
			Success:        true,
			GeneratedQuery: "SELECT * FROM repos FINAL WHERE language = 'Go'",
			Conditions:     []search.Condition{{Field: "language", Operator: "=", Value: "Go"}},
		},
		Accepted:  true,
		Elapsed:   1500 * time.Millisecond,
		CreatedAt: time.Date(2024, 5, 6, 23, 0, 0, 0, time.FixedZone("JST", 9*3600)),
	}
	gt.NoError(t, auditor.Record(context.Background(), rec)).Required()

	name := storage.ObjectName(rec)
	gt.Equal(t, name, "translations/2024/05/06/0192f0c4-7d6e-7a00-8000-000000000001.json")

	var got search.TranslationRecord
	gt.NoError(t, sonic.UnmarshalString(readObject(t, client, name), &got)).Required()
	gt.Equal(t, got.Utterance, rec.Utterance)
	gt.True(t, got.Accepted)
	gt.Equal(t, got.Result.GeneratedQuery, rec.Result.GeneratedQuery)
}

func TestAuditorRequiresID(t *testing.T) {
	auditor := storage.NewAuditor(storage.NewMemoryClient())
	gt.Error(t, auditor.Record(context.Background(), &search.TranslationRecord{}))
}
