package browse_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/starfinder/pkg/domain/model/catalog"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/model/search"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
	"github.com/secmon-lab/starfinder/pkg/service/browse"
	"github.com/secmon-lab/starfinder/pkg/utils/test"
)

type call struct {
	kind      string
	term      string
	language  string
	utterance string
	window    search.Window
}

type fakeFetcher struct {
	repos []*catalog.Repository
	// block, when set, runs before a response is returned
	block func(c call)
	err   error

	mu    sync.Mutex
	calls []call
}

func newFetcher(n int) *fakeFetcher {
	return &fakeFetcher{repos: test.Repositories(n)}
}

func (x *fakeFetcher) record(c call) {
	x.mu.Lock()
	x.calls = append(x.calls, c)
	x.mu.Unlock()
	if x.block != nil {
		x.block(c)
	}
}

func (x *fakeFetcher) Calls() []call {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]call{}, x.calls...)
}

func window(repos []*catalog.Repository, w search.Window) []*catalog.Repository {
	if w.Offset >= len(repos) {
		return []*catalog.Repository{}
	}
	end := min(w.Offset+w.Limit, len(repos))
	return repos[w.Offset:end]
}

func (x *fakeFetcher) ListDefault(ctx context.Context, w search.Window) (*search.Page, error) {
	x.record(call{kind: "default", window: w})
	if x.err != nil {
		return nil, x.err
	}
	return &search.Page{Repositories: window(x.repos, w), Offset: w.Offset, Limit: w.Limit, Source: types.SourceDefault}, nil
}

func (x *fakeFetcher) Search(ctx context.Context, req search.Request) (*search.Page, error) {
	x.record(call{kind: "search", term: req.Term, language: req.Language, window: req.Window})
	var matched []*catalog.Repository
	for _, r := range x.repos {
		if req.Language != "" && req.Language != search.LanguageAll && r.Language != req.Language {
			continue
		}
		if req.Term != "" && !strings.Contains(strings.ToLower(r.Description), strings.ToLower(req.Term)) {
			continue
		}
		matched = append(matched, r)
	}
	return &search.Page{Repositories: window(matched, req.Window), Offset: req.Offset, Limit: req.Limit, Source: types.SourceStructured}, nil
}

func (x *fakeFetcher) AISearch(ctx context.Context, req search.AIRequest) (*search.Page, error) {
	x.record(call{kind: "ai", utterance: req.Utterance, window: req.Window})
	return &search.Page{Repositories: window(x.repos, req.Window), Offset: req.Offset, Limit: req.Limit, Source: types.SourceDefault, Fallback: true}, nil
}

func names(repos []*catalog.Repository) []string {
	out := make([]string, len(repos))
	for i, r := range repos {
		out[i] = r.FullName
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLoadMoreWhileIdle(t *testing.T) {
	ctx := context.Background()
	fetcher := newFetcher(200)
	s := browse.New(fetcher)

	gt.NoError(t, s.Init(ctx))
	snap := s.Snapshot()
	gt.V(t, snap.State).Equal(browse.StateIdle)
	gt.A(t, snap.Results).Length(50)
	gt.V(t, snap.Offset).Equal(50)
	gt.True(t, snap.CanLoadMore)

	gt.NoError(t, s.LoadMore(ctx))
	gt.A(t, s.Snapshot().Results).Length(100)
	gt.NoError(t, s.LoadMore(ctx))

	snap = s.Snapshot()
	gt.A(t, snap.Results).Length(150)
	gt.V(t, snap.Offset).Equal(150)
	gt.V(t, names(snap.Results)).Equal(names(fetcher.repos[:150]))

	calls := fetcher.Calls()
	gt.A(t, calls).Length(3)
	gt.V(t, calls[1].window).Equal(search.Window{Offset: 50, Limit: 50})
	gt.V(t, calls[2].window).Equal(search.Window{Offset: 100, Limit: 50})
}

func TestSetLanguageFiltersImmediately(t *testing.T) {
	ctx := context.Background()
	fetcher := newFetcher(200)
	s := browse.New(fetcher)
	gt.NoError(t, s.Init(ctx))

	gt.NoError(t, s.SetLanguage(ctx, "Go"))

	snap := s.Snapshot()
	gt.V(t, snap.State).Equal(browse.StateFiltered)
	gt.A(t, snap.Results).Length(40)
	for _, r := range snap.Results {
		gt.V(t, r.Language).Equal("Go")
	}
	gt.V(t, snap.Offset).Equal(50)
	gt.V(t, s.URL()).Equal("?language=Go")

	// a short page ends the listing
	gt.False(t, s.CanLoadMore())
	gt.NoError(t, s.LoadMore(ctx))
	gt.A(t, fetcher.Calls()).Length(2)
}

func TestLoadMoreWhileFiltered(t *testing.T) {
	ctx := context.Background()
	fetcher := newFetcher(500)
	s := browse.New(fetcher)
	gt.NoError(t, s.Init(ctx))

	gt.NoError(t, s.SetLanguage(ctx, "Rust"))
	gt.True(t, s.CanLoadMore())

	gt.NoError(t, s.LoadMore(ctx))
	snap := s.Snapshot()
	gt.A(t, snap.Results).Length(100)
	gt.V(t, snap.Offset).Equal(100)

	last := fetcher.Calls()[2]
	gt.V(t, last.kind).Equal("search")
	gt.V(t, last.language).Equal("Rust")
	gt.V(t, last.window).Equal(search.Window{Offset: 50, Limit: 50})
}

func TestSetTermIsDebounced(t *testing.T) {
	ctx := context.Background()
	fetcher := newFetcher(200)
	s := browse.New(fetcher, browse.WithQuietPeriod(30*time.Millisecond))
	defer s.Close()
	gt.NoError(t, s.Init(ctx))

	for _, term := range []string{"s", "sa", "sam", "sample project 1"} {
		s.SetTerm(ctx, term)
	}

	waitFor(t, func() bool { return s.Snapshot().State == browse.StateFiltered })

	calls := fetcher.Calls()
	gt.A(t, calls).Length(2)
	gt.V(t, calls[1].term).Equal("sample project 1")
	gt.V(t, calls[1].window.Offset).Equal(0)
	gt.V(t, s.URL()).Equal("?search=sample+project+1")
}

func TestResetFiltersCancelsPendingTerm(t *testing.T) {
	ctx := context.Background()
	fetcher := newFetcher(100)
	s := browse.New(fetcher, browse.WithQuietPeriod(20*time.Millisecond))
	defer s.Close()
	gt.NoError(t, s.Init(ctx))

	s.SetTerm(ctx, "project 7")
	s.ResetFilters()
	time.Sleep(100 * time.Millisecond)

	gt.A(t, fetcher.Calls()).Length(1)
	gt.V(t, s.Snapshot().State).Equal(browse.StateIdle)
	gt.V(t, s.URL()).Equal("")
}

func TestSubmitBypassesDebounce(t *testing.T) {
	ctx := context.Background()
	fetcher := newFetcher(100)
	s := browse.New(fetcher, browse.WithQuietPeriod(time.Hour))
	defer s.Close()
	gt.NoError(t, s.Init(ctx))

	s.SetTerm(ctx, "project 7")
	gt.A(t, fetcher.Calls()).Length(1)

	gt.NoError(t, s.Submit(ctx))
	calls := fetcher.Calls()
	gt.A(t, calls).Length(2)
	gt.V(t, calls[1].term).Equal("project 7")
	gt.V(t, s.Snapshot().State).Equal(browse.StateFiltered)
}

func TestClearingTermRestoresInitialPage(t *testing.T) {
	ctx := context.Background()
	fetcher := newFetcher(200)
	s := browse.New(fetcher, browse.WithQuietPeriod(time.Hour))
	defer s.Close()
	gt.NoError(t, s.Init(ctx))
	initial := names(s.Snapshot().Results)

	s.SetTerm(ctx, "project 3")
	gt.NoError(t, s.Submit(ctx))
	gt.V(t, s.Snapshot().State).Equal(browse.StateFiltered)

	s.SetTerm(ctx, "")
	snap := s.Snapshot()
	gt.V(t, snap.State).Equal(browse.StateIdle)
	gt.V(t, names(snap.Results)).Equal(initial)
	gt.V(t, snap.Offset).Equal(50)
	gt.A(t, fetcher.Calls()).Length(2)
}

func TestResetFiltersRestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	fetcher := newFetcher(300)
	s := browse.New(fetcher, browse.WithQuietPeriod(time.Hour))
	defer s.Close()
	gt.NoError(t, s.Init(ctx))
	initial := s.Snapshot()

	gt.NoError(t, s.LoadMore(ctx))
	gt.NoError(t, s.SetLanguage(ctx, "Python"))
	gt.NoError(t, s.LoadMore(ctx))
	s.SetTerm(ctx, "sample")
	gt.NoError(t, s.Submit(ctx))
	gt.NoError(t, s.SetTab(browse.TabStarred))

	s.ResetFilters()

	snap := s.Snapshot()
	gt.V(t, snap.State).Equal(browse.StateIdle)
	gt.V(t, names(snap.Results)).Equal(names(initial.Results))
	gt.V(t, snap.Offset).Equal(initial.Offset)
	gt.V(t, snap.URL.Term).Equal("")
	gt.V(t, snap.URL.Language).Equal(search.LanguageAll)
	gt.V(t, s.URL()).Equal("?tab=starred")
	gt.True(t, snap.CanLoadMore)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	ctx := context.Background()
	fetcher := newFetcher(200)
	release := make(chan struct{})
	inFlight := make(chan struct{})
	fetcher.block = func(c call) {
		if c.language == "Rust" {
			close(inFlight)
			<-release
		}
	}
	s := browse.New(fetcher)
	gt.NoError(t, s.Init(ctx))

	done := make(chan error)
	go func() { done <- s.SetLanguage(ctx, "Rust") }()
	<-inFlight
	gt.V(t, s.Snapshot().State).Equal(browse.StateFilteredLoading)

	gt.NoError(t, s.SetLanguage(ctx, "Go"))
	close(release)
	gt.NoError(t, <-done)

	snap := s.Snapshot()
	gt.V(t, snap.State).Equal(browse.StateFiltered)
	for _, r := range snap.Results {
		gt.V(t, r.Language).Equal("Go")
	}
}

func TestOverlappingFetchIsBusy(t *testing.T) {
	ctx := context.Background()
	fetcher := newFetcher(200)
	s := browse.New(fetcher)
	gt.NoError(t, s.Init(ctx))

	release := make(chan struct{})
	inFlight := make(chan struct{})
	fetcher.block = func(c call) {
		close(inFlight)
		<-release
	}

	done := make(chan error)
	go func() { done <- s.LoadMore(ctx) }()
	<-inFlight
	gt.V(t, s.Snapshot().State).Equal(browse.StateLoading)

	gt.True(t, errors.Is(s.LoadMore(ctx), errs.ErrBusy))
	gt.True(t, errors.Is(s.Submit(ctx), errs.ErrBusy))
	gt.True(t, errors.Is(s.AISearch(ctx, "anything"), errs.ErrBusy))

	close(release)
	gt.NoError(t, <-done)
	gt.A(t, s.Snapshot().Results).Length(100)
}

func TestResetDiscardsInFlightFetch(t *testing.T) {
	ctx := context.Background()
	fetcher := newFetcher(200)
	s := browse.New(fetcher)
	gt.NoError(t, s.Init(ctx))
	initial := names(s.Snapshot().Results)

	release := make(chan struct{})
	inFlight := make(chan struct{})
	fetcher.block = func(c call) {
		close(inFlight)
		<-release
	}

	done := make(chan error)
	go func() { done <- s.SetLanguage(ctx, "C") }()
	<-inFlight

	s.ResetFilters()
	close(release)
	gt.NoError(t, <-done)

	snap := s.Snapshot()
	gt.V(t, snap.State).Equal(browse.StateIdle)
	gt.V(t, names(snap.Results)).Equal(initial)
}

func TestAISearch(t *testing.T) {
	ctx := context.Background()
	fetcher := newFetcher(120)
	s := browse.New(fetcher)
	gt.NoError(t, s.Init(ctx))

	gt.NoError(t, s.AISearch(ctx, "popular rust crates"))
	snap := s.Snapshot()
	gt.V(t, snap.State).Equal(browse.StateFiltered)
	gt.True(t, snap.Fallback)
	gt.V(t, snap.Utterance).Equal("popular rust crates")
	gt.True(t, snap.CanLoadMore)

	gt.NoError(t, s.LoadMore(ctx))
	last := fetcher.Calls()[2]
	gt.V(t, last.kind).Equal("ai")
	gt.V(t, last.utterance).Equal("popular rust crates")
	gt.V(t, last.window.Offset).Equal(50)

	gt.NoError(t, s.AISearch(ctx, "  "))
	gt.V(t, s.Snapshot().State).Equal(browse.StateIdle)
	gt.A(t, fetcher.Calls()).Length(3)
}

func TestInitFromURL(t *testing.T) {
	ctx := context.Background()
	fetcher := newFetcher(200)

	state, err := browse.FromURL("/?search=project&language=Go&tab=categories")
	gt.NoError(t, err).Required()

	var changes int
	s := browse.New(fetcher, browse.WithURLState(state), browse.WithOnChange(func(browse.Snapshot) { changes++ }))
	gt.NoError(t, s.Init(ctx))

	calls := fetcher.Calls()
	gt.A(t, calls).Length(2)
	gt.V(t, calls[0].kind).Equal("default")
	gt.V(t, calls[1].kind).Equal("search")
	gt.V(t, calls[1].term).Equal("project")
	gt.V(t, calls[1].language).Equal("Go")

	snap := s.Snapshot()
	gt.V(t, snap.State).Equal(browse.StateFiltered)
	gt.V(t, snap.URL.Tab).Equal(browse.TabCategories)
	gt.Number(t, changes).GreaterOrEqual(3)

	// reset returns to the unfiltered first page fetched at start
	s.ResetFilters()
	gt.V(t, names(s.Snapshot().Results)).Equal(names(fetcher.repos[:50]))
}

func TestInitFailure(t *testing.T) {
	fetcher := newFetcher(10)
	fetcher.err = errors.New("connection refused")

	var last browse.Snapshot
	s := browse.New(fetcher, browse.WithOnChange(func(snap browse.Snapshot) { last = snap }))
	gt.Error(t, s.Init(context.Background()))
	gt.S(t, last.Error).Contains("connection refused")
}
