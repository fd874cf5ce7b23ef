package storage

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/interfaces"
	"github.com/secmon-lab/starfinder/pkg/domain/model/search"
)

// Auditor writes translation records as JSON objects, one per record.
type Auditor struct {
	client interfaces.StorageClient
}

var _ interfaces.Auditor = (*Auditor)(nil)

func NewAuditor(client interfaces.StorageClient) *Auditor {
	return &Auditor{client: client}
}

// ObjectName is translations/YYYY/MM/DD/<id>.json, dated by the record's creation time in UTC.
func ObjectName(rec *search.TranslationRecord) string {
	return "translations/" + rec.CreatedAt.UTC().Format("2006/01/02") + "/" + rec.ID + ".json"
}

func (x *Auditor) Record(ctx context.Context, rec *search.TranslationRecord) error {
	if rec.ID == "" {
		return goerr.New("record id is required")
	}

	data, err := sonic.Marshal(rec)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal translation record", goerr.V("id", rec.ID))
	}

	w := x.client.PutObject(ctx, ObjectName(rec))
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write translation record", goerr.V("id", rec.ID))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to close translation record", goerr.V("id", rec.ID))
	}
	return nil
}
