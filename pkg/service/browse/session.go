// Package browse holds the client-side page state for the repository listing: the current
// results, pagination offset and active filters, kept consistent across overlapping fetches.
package browse

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/secmon-lab/starfinder/pkg/domain/model/catalog"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/model/search"
	"github.com/secmon-lab/starfinder/pkg/utils/logging"
)

// DefaultQuietPeriod is the debounce applied to term changes.
const DefaultQuietPeriod = 300 * time.Millisecond

// Fetcher is the pagination API the session drives.
type Fetcher interface {
	ListDefault(ctx context.Context, w search.Window) (*search.Page, error)
	Search(ctx context.Context, req search.Request) (*search.Page, error)
	AISearch(ctx context.Context, req search.AIRequest) (*search.Page, error)
}

type State string

const (
	StateIdle            State = "idle"
	StateLoading         State = "loading"
	StateFiltered        State = "filtered"
	StateFilteredLoading State = "filtered+loading"
)

// Snapshot is a copy of the session state handed to observers.
type Snapshot struct {
	State       State
	Results     []*catalog.Repository
	Offset      int
	URL         URLState
	Utterance   string
	CanLoadMore bool

	// Fallback is set when the last AI search degraded to the default listing.
	Fallback bool

	// Error is the message of the last failed fetch, or the error flag of a structured page.
	Error string
}

type mode int

const (
	modeNone mode = iota
	modeStructured
	modeAI
)

type filter struct {
	mode      mode
	term      string
	language  string
	utterance string
}

func (x filter) isDefault() bool {
	switch x.mode {
	case modeAI:
		return x.utterance == ""
	default:
		return x.term == "" && strings.EqualFold(x.language, search.LanguageAll)
	}
}

type Session struct {
	fetcher  Fetcher
	pageSize int
	quiet    time.Duration
	onChange func(Snapshot)

	mu         sync.Mutex
	initial    []*catalog.Repository
	initOffset int
	results    []*catalog.Repository
	offset     int
	url        URLState
	utterance  string
	filtering  bool
	active     filter
	loading    bool
	lastFull   bool
	fallback   bool
	errMsg     string
	seq        uint64
	debounced  func(f func())
}

type Option func(*Session)

func WithPageSize(n int) Option {
	return func(s *Session) {
		s.pageSize = n
	}
}

// WithQuietPeriod sets the debounce applied to SetTerm.
func WithQuietPeriod(d time.Duration) Option {
	return func(s *Session) {
		s.quiet = d
	}
}

// WithOnChange registers a callback invoked with a fresh snapshot after every state change.
// It runs without the session lock held.
func WithOnChange(fn func(Snapshot)) Option {
	return func(s *Session) {
		s.onChange = fn
	}
}

// WithURLState restores filters and tab from a shared URL.
func WithURLState(state URLState) Option {
	return func(s *Session) {
		s.url = state
	}
}

func New(fetcher Fetcher, opts ...Option) *Session {
	s := &Session{
		fetcher:  fetcher,
		pageSize: search.PageSize,
		quiet:    DefaultQuietPeriod,
		url:      defaultURLState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.url.Language == "" {
		s.url.Language = search.LanguageAll
	}
	if s.url.Tab == "" {
		s.url.Tab = TabExplore
	}
	s.debounced = debounce.New(s.quiet)
	return s
}

// Init loads the first page of the unfiltered listing and keeps it as the snapshot restored
// by ResetFilters. Filters restored from a URL are applied afterwards.
func (s *Session) Init(ctx context.Context) error {
	page, err := s.fetcher.ListDefault(ctx, search.Window{Offset: 0, Limit: s.pageSize})
	if err != nil {
		s.mu.Lock()
		s.errMsg = err.Error()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return err
	}

	s.mu.Lock()
	s.initial = slices.Clone(page.Repositories)
	s.initOffset = s.pageSize
	s.results = slices.Clone(page.Repositories)
	s.offset = s.initOffset
	f := s.structuredLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	if f.isDefault() {
		return nil
	}
	return s.fetchFiltered(ctx, f)
}

// SetTerm updates the search term. The fetch is issued after the quiet period unless another
// change arrives first. Clearing every filter restores the initial page at once.
func (s *Session) SetTerm(ctx context.Context, term string) {
	s.mu.Lock()
	s.url.Term = term
	s.utterance = ""
	s.cancelPendingLocked()
	f := s.structuredLocked()

	if f.isDefault() {
		snap, restored := s.restoreLocked()
		s.mu.Unlock()
		if restored {
			s.notify(snap)
		}
		return
	}

	s.debounced(func() {
		if err := s.applyFilters(ctx); err != nil {
			logging.From(ctx).Warn("debounced search failed", logging.ErrAttr(err))
		}
	})
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Submit fetches the current term immediately, bypassing the debounce.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return errs.ErrBusy
	}
	s.cancelPendingLocked()
	s.mu.Unlock()

	return s.applyFilters(ctx)
}

// SetLanguage updates the language filter and fetches immediately.
func (s *Session) SetLanguage(ctx context.Context, language string) error {
	s.mu.Lock()
	language = strings.TrimSpace(language)
	if language == "" {
		language = search.LanguageAll
	}
	s.url.Language = language
	s.utterance = ""
	s.cancelPendingLocked()
	s.mu.Unlock()

	return s.applyFilters(ctx)
}

func (s *Session) SetTab(tab Tab) error {
	if err := tab.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.url.Tab = tab
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return nil
}

// AISearch replaces the results with a natural-language search. An empty utterance resets
// the filters.
func (s *Session) AISearch(ctx context.Context, utterance string) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return errs.ErrBusy
	}
	s.cancelPendingLocked()
	s.utterance = strings.TrimSpace(utterance)
	s.url.Term = ""
	s.url.Language = search.LanguageAll
	f := filter{mode: modeAI, utterance: s.utterance}
	s.mu.Unlock()

	if f.isDefault() {
		s.ResetFilters()
		return nil
	}
	return s.fetchFiltered(ctx, f)
}

// LoadMore appends the next page of the active listing.
func (s *Session) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return errs.ErrBusy
	}
	if !s.canLoadMoreLocked() {
		s.mu.Unlock()
		return nil
	}

	w := search.Window{Offset: s.offset, Limit: s.pageSize}
	f := s.active
	if !s.filtering {
		f = filter{mode: modeNone}
	}
	seq := s.beginLocked(s.filtering)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	page, err := s.fetch(ctx, f, w)
	return s.complete(seq, w, page, err, true)
}

// ResetFilters clears every filter and restores the initial page snapshot and offset. Any
// fetch still in flight is discarded when it completes.
func (s *Session) ResetFilters() {
	s.mu.Lock()
	s.cancelPendingLocked()
	s.url.Term = ""
	s.url.Language = search.LanguageAll
	s.utterance = ""
	s.seq++
	s.loading = false
	s.filtering = false
	s.active = filter{}
	s.results = slices.Clone(s.initial)
	s.offset = s.initOffset
	s.fallback = false
	s.errMsg = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// URL returns the query string mirroring the current filters and tab.
func (s *Session) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url.Encode()
}

func (s *Session) CanLoadMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canLoadMoreLocked()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close stops a pending debounced fetch.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelPendingLocked()
}

func (s *Session) applyFilters(ctx context.Context) error {
	s.mu.Lock()
	f := s.structuredLocked()
	if f.isDefault() {
		snap, restored := s.restoreLocked()
		s.mu.Unlock()
		if restored {
			s.notify(snap)
		}
		return nil
	}
	s.mu.Unlock()

	return s.fetchFiltered(ctx, f)
}

// fetchFiltered issues f from offset 0 and replaces the results. A newer fetch started while
// this one is in flight wins.
func (s *Session) fetchFiltered(ctx context.Context, f filter) error {
	w := search.Window{Offset: 0, Limit: s.pageSize}

	s.mu.Lock()
	s.active = f
	seq := s.beginLocked(true)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	page, err := s.fetch(ctx, f, w)
	return s.complete(seq, w, page, err, false)
}

func (s *Session) fetch(ctx context.Context, f filter, w search.Window) (*search.Page, error) {
	switch f.mode {
	case modeAI:
		return s.fetcher.AISearch(ctx, search.AIRequest{Utterance: f.utterance, Window: w})
	case modeStructured:
		return s.fetcher.Search(ctx, search.Request{Term: f.term, Language: f.language, Window: w})
	default:
		return s.fetcher.ListDefault(ctx, w)
	}
}

func (s *Session) complete(seq uint64, w search.Window, page *search.Page, err error, appendResults bool) error {
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return nil
	}

	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return err
	}

	if appendResults {
		s.results = append(s.results, page.Repositories...)
	} else {
		s.results = slices.Clone(page.Repositories)
	}
	s.offset = w.Offset + s.pageSize
	s.lastFull = len(page.Repositories) >= s.pageSize
	s.fallback = page.Fallback
	s.errMsg = page.Error

	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return nil
}

func (s *Session) beginLocked(filtering bool) uint64 {
	s.seq++
	s.loading = true
	s.filtering = filtering
	s.errMsg = ""
	return s.seq
}

// restoreLocked returns to the initial page without a fetch. It reports false when the
// session was not filtering.
func (s *Session) restoreLocked() (Snapshot, bool) {
	if !s.filtering {
		return s.snapshotLocked(), false
	}
	s.seq++
	s.loading = false
	s.filtering = false
	s.active = filter{}
	s.results = slices.Clone(s.initial)
	s.offset = s.initOffset
	s.fallback = false
	s.errMsg = ""
	return s.snapshotLocked(), true
}

func (s *Session) structuredLocked() filter {
	return filter{
		mode:     modeStructured,
		term:     strings.TrimSpace(s.url.Term),
		language: s.url.Language,
	}
}

// cancelPendingLocked replaces a pending debounced fetch with a no-op.
func (s *Session) cancelPendingLocked() {
	s.debounced(func() {})
}

func (s *Session) canLoadMoreLocked() bool {
	return !s.filtering || s.lastFull
}

func (s *Session) snapshotLocked() Snapshot {
	state := StateIdle
	switch {
	case s.loading && s.filtering:
		state = StateFilteredLoading
	case s.loading:
		state = StateLoading
	case s.filtering:
		state = StateFiltered
	}

	return Snapshot{
		State:       state,
		Results:     slices.Clone(s.results),
		Offset:      s.offset,
		URL:         s.url,
		Utterance:   s.utterance,
		CanLoadMore: s.canLoadMoreLocked(),
		Fallback:    s.fallback,
		Error:       s.errMsg,
	}
}

func (s *Session) notify(snap Snapshot) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}
