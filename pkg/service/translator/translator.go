// Package translator turns natural-language requests into SQL queries with an LLM.
package translator

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/starfinder/pkg/domain/interfaces"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/model/search"
	"github.com/secmon-lab/starfinder/pkg/domain/model/statement"
	"github.com/secmon-lab/starfinder/pkg/service/llm"
	"github.com/secmon-lab/starfinder/pkg/utils/clock"
	"github.com/secmon-lab/starfinder/pkg/utils/logging"
	"github.com/secmon-lab/starfinder/pkg/utils/request_id"
)

const DefaultTimeout = 5 * time.Second

//go:embed prompt/translate.md
var translatePrompt string

var translateTemplate = template.Must(template.New("translate").Parse(translatePrompt))

var responseSchema = &gollem.Parameter{
	Type:        gollem.TypeObject,
	Description: "SQL translation of a natural-language repository search",
	Properties: map[string]*gollem.Parameter{
		"success": {
			Type:        gollem.TypeBoolean,
			Description: "Whether SQL query generation was successful. False if the request is not a search over the schema",
			Required:    true,
		},
		"sql_query": {
			Type:        gollem.TypeString,
			Description: "The generated SQL query",
			Required:    true,
		},
		"conditions": {
			Type:        gollem.TypeArray,
			Description: "Structured representation of the query conditions",
			Required:    true,
			Items: &gollem.Parameter{
				Type: gollem.TypeObject,
				Properties: map[string]*gollem.Parameter{
					"field": {
						Type:        gollem.TypeString,
						Description: "Database column name",
						Required:    true,
					},
					"operator": {
						Type:        gollem.TypeString,
						Description: "Operator like =, >, <, LIKE",
						Required:    true,
					},
					"value": {
						Type:        gollem.TypeString,
						Description: "Compared value",
						Required:    true,
					},
				},
			},
		},
	},
}

type Translator struct {
	llm      gollem.LLMClient
	dialect  statement.Dialect
	timeout  time.Duration
	maxRetry int
	auditor  interfaces.Auditor
	kind     string
}

type Option func(*Translator)

func WithTimeout(d time.Duration) Option { return func(x *Translator) { x.timeout = d } }

func WithMaxRetry(n int) Option { return func(x *Translator) { x.maxRetry = n } }

// WithAuditor records every translation, accepted or not.
func WithAuditor(a interfaces.Auditor) Option { return func(x *Translator) { x.auditor = a } }

// WithWarehouseName labels audit records with the backend name.
func WithWarehouseName(name string) Option { return func(x *Translator) { x.kind = name } }

// New returns a translator for dialect. A nil client makes every translation fail.
func New(client gollem.LLMClient, dialect statement.Dialect, opts ...Option) *Translator {
	x := &Translator{
		llm:      client,
		dialect:  dialect,
		timeout:  DefaultTimeout,
		maxRetry: 2,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Prompt renders the grounding prompt for ddl and utterance.
func (x *Translator) Prompt(ctx context.Context, ddl, utterance string) (string, error) {
	var buf bytes.Buffer
	if err := translateTemplate.Execute(&buf, map[string]any{
		"Dialect":      x.dialect.Name(),
		"Today":        clock.Now(ctx).UTC().Format("2006-01-02"),
		"SnapshotRule": x.dialect.SnapshotRule(),
		"Source":       x.dialect.Source(),
		"DDL":          strings.TrimSpace(ddl),
		"Utterance":    strings.TrimSpace(utterance),
	}); err != nil {
		return "", goerr.Wrap(err, "failed to render translate prompt")
	}
	return buf.String(), nil
}

// Translate asks the model for a query answering utterance. It never returns an error:
// every failure, including timeouts and malformed output, yields a result with Success false.
func (x *Translator) Translate(ctx context.Context, ddl, utterance string) *search.AIQueryResult {
	started := clock.Now(ctx)

	result, err := x.translate(ctx, ddl, utterance)
	if err != nil {
		logging.From(ctx).Warn("translation failed",
			logging.ErrAttr(goerr.Wrap(err, "translation failed", goerr.T(errs.TagTranslationFailure))),
			"utterance", utterance,
		)
		result = search.Failed()
	}
	if result.Conditions == nil {
		result.Conditions = []search.Condition{}
	}

	x.audit(ctx, &search.TranslationRecord{
		Utterance: utterance,
		Result:    result,
		Accepted:  result.Executable(),
		Error:     errString(err),
		Elapsed:   clock.Since(ctx, started),
		CreatedAt: started,
	})

	return result
}

func (x *Translator) translate(ctx context.Context, ddl, utterance string) (*search.AIQueryResult, error) {
	if x.llm == nil {
		return nil, goerr.Wrap(errs.ErrNotConfigured, "llm client is not configured", goerr.T(errs.TagUnavailable))
	}
	if strings.TrimSpace(utterance) == "" {
		return nil, goerr.New("utterance is empty", goerr.T(errs.TagValidationFailure))
	}

	prompt, err := x.Prompt(ctx, ddl, utterance)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	result, err := llm.Ask(ctx, x.llm, prompt,
		llm.WithResponseSchema[search.AIQueryResult](responseSchema),
		llm.WithMaxRetry[search.AIQueryResult](x.maxRetry),
		llm.WithValidate(func(v search.AIQueryResult) error {
			if v.Success && strings.TrimSpace(v.GeneratedQuery) == "" {
				return goerr.New("success is true but sql_query is empty")
			}
			return nil
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, goerr.Wrap(err, "translation timed out",
				goerr.V("timeout", x.timeout), goerr.T(errs.TagTimeout))
		}
		return nil, err
	}

	if !result.Success {
		logging.From(ctx).Info("model declined to translate", "utterance", utterance)
		result.GeneratedQuery = ""
	}
	return result, nil
}

func (x *Translator) audit(ctx context.Context, rec *search.TranslationRecord) {
	if x.auditor == nil {
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		logging.From(ctx).Warn("failed to generate audit id", logging.ErrAttr(err))
		return
	}
	rec.ID = id.String()
	rec.RequestID = request_id.FromContext(ctx)
	rec.Warehouse = x.kind

	if err := x.auditor.Record(ctx, rec); err != nil {
		logging.From(ctx).Warn("failed to record translation", logging.ErrAttr(err))
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
