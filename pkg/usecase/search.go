package usecase

import (
	"context"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/model/catalog"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/model/search"
	"github.com/secmon-lab/starfinder/pkg/domain/model/statement"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
	"github.com/secmon-lab/starfinder/pkg/utils/errutil"
	"github.com/secmon-lab/starfinder/pkg/utils/logging"
)

// ListDefault returns window w of the unfiltered listing. An execution failure here is the
// only search error that reaches callers.
func (u *UseCases) ListDefault(ctx context.Context, w search.Window) (*search.Page, error) {
	w = w.Normalize()
	if err := w.Validate(); err != nil {
		return nil, err
	}

	repos, err := u.executor.Run(ctx, u.compiler.Default(w), w)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list repositories",
			goerr.TV(errutil.OffsetKey, w.Offset), goerr.TV(errutil.LimitKey, w.Limit))
	}

	return &search.Page{
		Repositories: repos,
		Offset:       w.Offset,
		Limit:        w.Limit,
		Source:       types.SourceDefault,
	}, nil
}

// Search runs a structured search. It never falls back: a failed execution yields an empty page
// with Error set. Only malformed requests return an error.
func (u *UseCases) Search(ctx context.Context, req search.Request) (*search.Page, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	page := &search.Page{
		Repositories: []*catalog.Repository{},
		Offset:       req.Offset,
		Limit:        req.Limit,
		Source:       types.SourceStructured,
	}

	repos, err := u.executor.Run(ctx, u.compiler.Compile(req), req.Window)
	if err != nil {
		logging.From(ctx).Error("structured search failed",
			logging.ErrAttr(err), "term", req.Term, "language", req.Language)
		page.Error = "search failed"
		return page, nil
	}

	page.Repositories = repos
	return page, nil
}

// AISearch translates the utterance against the live schema and runs the result. Every
// failure after validation degrades to the default listing at the same window.
func (u *UseCases) AISearch(ctx context.Context, req search.AIRequest) (*search.Page, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.Utterance == "" {
		return u.ListDefault(ctx, req.Window)
	}

	logger := logging.From(ctx).With("utterance", req.Utterance)
	ctx = logging.With(ctx, logger)

	schema, err := u.warehouse.Schema(ctx)
	if err != nil {
		return u.fallback(ctx, req.Window, goerr.Wrap(err, "failed to fetch schema"))
	}

	result := u.translator.Translate(ctx, schema.DDL, req.Utterance)
	if !result.Executable() {
		return u.fallback(ctx, req.Window, goerr.New("translator declined", goerr.T(errs.TagTranslationFailure)))
	}

	stmt, err := u.guard.Check(result, schema)
	if err != nil {
		return u.fallback(ctx, req.Window, err)
	}

	if err := u.warehouse.DryRun(ctx, stmt); err != nil {
		return u.fallback(ctx, req.Window, goerr.Wrap(err, "translated query failed dry run",
			goerr.TV(errutil.QueryKey, stmt.SQL), goerr.T(errs.TagTranslationFailure)))
	}

	repos, err := u.executor.Run(ctx, stmt, req.Window)
	if err != nil {
		return u.fallback(ctx, req.Window, err)
	}

	logger.Info("ai search executed", "query", stmt.SQL, "rows", len(repos))

	return &search.Page{
		Repositories: repos,
		Offset:       req.Offset,
		Limit:        req.Limit,
		Source:       types.SourceAI,
		Conditions:   result.Conditions,
	}, nil
}

func (u *UseCases) fallback(ctx context.Context, w search.Window, cause error) (*search.Page, error) {
	logging.From(ctx).Warn("ai search fell back to default listing", logging.ErrAttr(cause))

	page, err := u.ListDefault(ctx, w)
	if err != nil {
		return nil, err
	}
	page.Fallback = true
	return page, nil
}

// Total counts the repositories matching req's filters, or all of them when it has none.
func (u *UseCases) Total(ctx context.Context, req search.Request) (int64, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return 0, err
	}

	total, err := u.executor.Count(ctx, u.compiler.Count(req))
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count repositories")
	}
	return total, nil
}

// Languages returns the language filter options.
func (u *UseCases) Languages() []string {
	return slices.Clone(u.languages)
}

// Schema returns the live table definition used to ground translations.
func (u *UseCases) Schema(ctx context.Context) (*statement.Schema, error) {
	schema, err := u.warehouse.Schema(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch schema", goerr.T(errs.TagExecutionFailure))
	}
	return schema, nil
}
