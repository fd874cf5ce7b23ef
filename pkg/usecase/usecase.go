package usecase

import (
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/starfinder/pkg/domain/interfaces"
	"github.com/secmon-lab/starfinder/pkg/repository"
	"github.com/secmon-lab/starfinder/pkg/service/query"
	"github.com/secmon-lab/starfinder/pkg/service/translator"
)

// DefaultLanguages is the language filter list offered to clients.
var DefaultLanguages = []string{
	"JavaScript", "TypeScript", "Python", "Java", "C++", "Go", "Rust", "PHP", "Ruby", "C", "Dart",
}

type UseCases struct {
	// adapters
	warehouse  interfaces.Warehouse
	llmClient  gollem.LLMClient
	repository interfaces.Repository
	github     interfaces.GitHubClient
	auditor    interfaces.Auditor

	// services built from the adapters
	compiler   *query.Compiler
	executor   *query.Executor
	guard      *query.Guard
	translator *translator.Translator

	// configs
	translateTimeout time.Duration
	languages        []string
}

type Option func(*UseCases)

func WithLLMClient(llmClient gollem.LLMClient) Option {
	return func(u *UseCases) {
		u.llmClient = llmClient
	}
}

func WithRepository(repository interfaces.Repository) Option {
	return func(u *UseCases) {
		u.repository = repository
	}
}

func WithGitHubClient(client interfaces.GitHubClient) Option {
	return func(u *UseCases) {
		u.github = client
	}
}

// WithAuditor records every translation to the given sink.
func WithAuditor(auditor interfaces.Auditor) Option {
	return func(u *UseCases) {
		u.auditor = auditor
	}
}

func WithTranslateTimeout(d time.Duration) Option {
	return func(u *UseCases) {
		u.translateTimeout = d
	}
}

func WithLanguages(languages []string) Option {
	return func(u *UseCases) {
		u.languages = languages
	}
}

// New wires the search pipeline over warehouse. Categories default to the in-memory
// repository; without an LLM client every AI search falls back to the default listing.
func New(warehouse interfaces.Warehouse, opts ...Option) *UseCases {
	u := &UseCases{
		warehouse:        warehouse,
		repository:       repository.NewMemory(),
		translateTimeout: translator.DefaultTimeout,
		languages:        DefaultLanguages,
	}

	for _, opt := range opts {
		opt(u)
	}

	dialect := warehouse.Dialect()
	u.compiler = query.NewCompiler(dialect)
	u.executor = query.NewExecutor(warehouse)
	u.guard = query.NewGuard(dialect)

	trOpts := []translator.Option{
		translator.WithTimeout(u.translateTimeout),
		translator.WithWarehouseName(warehouse.Kind().String()),
	}
	if u.auditor != nil {
		trOpts = append(trOpts, translator.WithAuditor(u.auditor))
	}
	u.translator = translator.New(u.llmClient, dialect, trOpts...)

	return u
}
