package http

import (
	"context"

	"github.com/secmon-lab/starfinder/pkg/domain/interfaces"
	"github.com/secmon-lab/starfinder/pkg/domain/model/category"
	"github.com/secmon-lab/starfinder/pkg/domain/model/search"
	"github.com/secmon-lab/starfinder/pkg/domain/model/statement"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
	"github.com/secmon-lab/starfinder/pkg/usecase"
)

type SearchUseCases interface {
	ListDefault(ctx context.Context, w search.Window) (*search.Page, error)
	Search(ctx context.Context, req search.Request) (*search.Page, error)
	AISearch(ctx context.Context, req search.AIRequest) (*search.Page, error)
	Total(ctx context.Context, req search.Request) (int64, error)
	Languages() []string
	Schema(ctx context.Context) (*statement.Schema, error)
}

type CategoryUseCases interface {
	CreateCategory(ctx context.Context, userID types.UserID, input usecase.CategoryInput) (*category.Category, error)
	ListCategories(ctx context.Context, userID types.UserID) ([]*category.Category, error)
	GetCategory(ctx context.Context, viewer types.UserID, id types.CategoryID) (*category.Category, error)
	DeleteCategory(ctx context.Context, userID types.UserID, id types.CategoryID) error
	AddRepository(ctx context.Context, userID types.UserID, id types.CategoryID, ref category.RepoRef) (*category.Category, error)
	RemoveRepository(ctx context.Context, userID types.UserID, id types.CategoryID, fullName string) (*category.Category, error)
}

type GitHubUseCases interface {
	Starred(ctx context.Context, user string, page, perPage int) (*interfaces.StarredPage, error)
	Readme(ctx context.Context, owner, repo string) (string, error)
}

type UseCase interface {
	SearchUseCases
	CategoryUseCases
	GitHubUseCases
}

var _ UseCase = (*usecase.UseCases)(nil)
