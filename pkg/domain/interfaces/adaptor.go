package interfaces

//go:generate go tool moq -out ../mock/interfaces.go -pkg mock . Warehouse GitHubClient

import (
	"context"
	"io"

	"github.com/secmon-lab/starfinder/pkg/domain/model/catalog"
	"github.com/secmon-lab/starfinder/pkg/domain/model/search"
	"github.com/secmon-lab/starfinder/pkg/domain/model/statement"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
)

// Warehouse is the columnar store holding catalogued repositories. Implementations run
// statements read-only and report every failure tagged as an execution failure.
type Warehouse interface {
	Kind() types.WarehouseKind
	Dialect() statement.Dialect
	// Query runs stmt and returns decoded rows keyed by column name.
	Query(ctx context.Context, stmt *statement.Statement) ([]map[string]any, error)
	// DryRun asks the store to plan stmt without reading data.
	DryRun(ctx context.Context, stmt *statement.Statement) error
	// Schema fetches the live table definition. It is not cached.
	Schema(ctx context.Context) (*statement.Schema, error)
	Close() error
}

// StorageClient writes objects to a bucket.
type StorageClient interface {
	PutObject(ctx context.Context, object string) io.WriteCloser
	GetObject(ctx context.Context, object string) (io.ReadCloser, error)
	Close(ctx context.Context)
}

// Auditor keeps a trail of translator exchanges.
type Auditor interface {
	Record(ctx context.Context, rec *search.TranslationRecord) error
}

// StarredPage is one page of a user's starred repositories.
type StarredPage struct {
	Repositories []*catalog.Repository `json:"repos"`
	Page         int                   `json:"page"`
	HasMore      bool                  `json:"has_more"`
}

// GitHubClient reads public repository data from GitHub.
type GitHubClient interface {
	ListStarred(ctx context.Context, user string, page, perPage int) (*StarredPage, error)
	GetReadme(ctx context.Context, owner, repo string) (string, error)
}
