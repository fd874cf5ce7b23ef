package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	gollemmock "github.com/m-mizutani/gollem/mock"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/starfinder/pkg/adapter/sqlite"
	"github.com/secmon-lab/starfinder/pkg/client"
	server "github.com/secmon-lab/starfinder/pkg/controller/http"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/model/search"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
	"github.com/secmon-lab/starfinder/pkg/service/browse"
	"github.com/secmon-lab/starfinder/pkg/usecase"
	"github.com/secmon-lab/starfinder/pkg/utils/test"
)

func newTestServer(t *testing.T, opts ...usecase.Option) *client.Client {
	t.Helper()
	wh, err := sqlite.Open(t.Context(), ":memory:")
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = wh.Close() })
	gt.NoError(t, wh.Insert(t.Context(), test.Repositories(130)...)).Required()

	ts := httptest.NewServer(server.New(usecase.New(wh, opts...)))
	t.Cleanup(ts.Close)

	c, err := client.New(ts.URL + "/")
	gt.NoError(t, err).Required()
	return c
}

func TestClientSearchPaths(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	page, err := c.ListDefault(ctx, search.Window{Offset: 100, Limit: 50})
	gt.NoError(t, err).Required()
	gt.A(t, page.Repositories).Length(30)
	gt.V(t, page.Source).Equal(types.SourceDefault)

	page, err = c.Search(ctx, search.Request{Language: "Go", Window: search.Window{Limit: 10}})
	gt.NoError(t, err).Required()
	gt.A(t, page.Repositories).Length(10)
	gt.V(t, page.Source).Equal(types.SourceStructured)

	total, err := c.Total(ctx, search.Request{Term: "sample"})
	gt.NoError(t, err)
	gt.V(t, total).Equal(int64(130))

	langs, err := c.Languages(ctx)
	gt.NoError(t, err)
	gt.A(t, langs).Length(len(usecase.DefaultLanguages))

	// AI search without a model falls back to the default listing
	page, err = c.AISearch(ctx, search.AIRequest{Utterance: "anything", Window: search.Window{Offset: 50}})
	gt.NoError(t, err).Required()
	gt.True(t, page.Fallback)
	gt.V(t, page.Offset).Equal(50)
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	_, err := c.ListDefault(ctx, search.Window{Limit: 1000})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, errs.TagValidationFailure))
	gt.S(t, err.Error()).Contains("limit out of range")

	_, err = c.Starred(ctx, "octocat", 1)
	gt.True(t, goerr.HasTag(err, errs.TagUnavailable))

	_, err = client.New("ftp://example.com")
	gt.Error(t, err)
}

func TestClientUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c, err := client.New(url)
	gt.NoError(t, err).Required()

	_, err = c.ListDefault(context.Background(), search.Window{})
	gt.True(t, goerr.HasTag(err, errs.TagExternal))
}

func TestBrowseSessionOverClient(t *testing.T) {
	ctx := context.Background()
	llm := &gollemmock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, opts ...gollem.SessionOption) (gollem.Session, error) {
			return &gollemmock.SessionMock{
				GenerateContentFunc: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					return &gollem.Response{Texts: []string{`{"success":true,"sql_query":"SELECT * FROM repos_latest WHERE language = 'Python'","conditions":[]}`}}, nil
				},
			}, nil
		},
	}
	c := newTestServer(t, usecase.WithLLMClient(llm))

	s := browse.New(c)
	gt.NoError(t, s.Init(ctx))
	gt.NoError(t, s.LoadMore(ctx))
	gt.NoError(t, s.LoadMore(ctx))

	snap := s.Snapshot()
	gt.A(t, snap.Results).Length(130)
	gt.V(t, snap.Offset).Equal(150)

	seen := map[string]bool{}
	for _, r := range snap.Results {
		gt.False(t, seen[r.FullName])
		seen[r.FullName] = true
	}

	gt.NoError(t, s.AISearch(ctx, "python things"))
	snap = s.Snapshot()
	gt.V(t, snap.State).Equal(browse.StateFiltered)
	gt.False(t, snap.Fallback)
	gt.A(t, snap.Results).Length(26)
	gt.False(t, snap.CanLoadMore)

	s.ResetFilters()
	gt.A(t, s.Snapshot().Results).Length(50)
}
