package interfaces

import (
	"context"

	"github.com/secmon-lab/starfinder/pkg/domain/model/category"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
)

// Repository stores user categories. Get methods return nil without error when the
// category does not exist.
type Repository interface {
	PutCategory(ctx context.Context, c *category.Category) error
	GetCategory(ctx context.Context, id types.CategoryID) (*category.Category, error)
	ListCategories(ctx context.Context, userID types.UserID) ([]*category.Category, error)
	DeleteCategory(ctx context.Context, id types.CategoryID) error
	Close(ctx context.Context) error
}
