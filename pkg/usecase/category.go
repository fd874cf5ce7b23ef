package usecase

import (
	"context"
	"slices"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/model/category"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
	"github.com/secmon-lab/starfinder/pkg/utils/errutil"
	"github.com/secmon-lab/starfinder/pkg/utils/logging"
)

// CategoryInput carries the user-editable fields of a category.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

func (u *UseCases) CreateCategory(ctx context.Context, userID types.UserID, input CategoryInput) (*category.Category, error) {
	c := category.New(ctx, userID, input.Name, input.Description, input.IsPublic)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := u.repository.PutCategory(ctx, c); err != nil {
		return nil, goerr.Wrap(err, "failed to save category",
			goerr.TV(errutil.CategoryIDKey, c.ID), goerr.T(errs.TagDatabase))
	}

	logging.From(ctx).Info("category created", "category_id", c.ID, "user_id", userID)
	return c, nil
}

// ListCategories returns the categories owned by userID, newest first.
func (u *UseCases) ListCategories(ctx context.Context, userID types.UserID) ([]*category.Category, error) {
	if err := userID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid user id", goerr.T(errs.TagInvalidRequest))
	}

	categories, err := u.repository.ListCategories(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list categories",
			goerr.TV(errutil.UserIDKey, userID), goerr.T(errs.TagDatabase))
	}

	slices.SortStableFunc(categories, func(a, b *category.Category) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return categories, nil
}

// GetCategory returns the category when viewer owns it or it is public. A private category
// of another user is reported as not found.
func (u *UseCases) GetCategory(ctx context.Context, viewer types.UserID, id types.CategoryID) (*category.Category, error) {
	c, err := u.lookupCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.VisibleTo(viewer) {
		return nil, goerr.New("category not found",
			goerr.TV(errutil.CategoryIDKey, id), goerr.T(errs.TagNotFound))
	}
	return c, nil
}

func (u *UseCases) DeleteCategory(ctx context.Context, userID types.UserID, id types.CategoryID) error {
	if _, err := u.ownedCategory(ctx, userID, id); err != nil {
		return err
	}

	if err := u.repository.DeleteCategory(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete category",
			goerr.TV(errutil.CategoryIDKey, id), goerr.T(errs.TagDatabase))
	}
	return nil
}

// AddRepository stores ref in the category. Adding a repository already present is a no-op.
func (u *UseCases) AddRepository(ctx context.Context, userID types.UserID, id types.CategoryID, ref category.RepoRef) (*category.Category, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	c, err := u.ownedCategory(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if !c.AddRepo(ctx, ref) {
		return c, nil
	}
	if err := u.repository.PutCategory(ctx, c); err != nil {
		return nil, goerr.Wrap(err, "failed to save category",
			goerr.TV(errutil.CategoryIDKey, id), goerr.T(errs.TagDatabase))
	}
	return c, nil
}

func (u *UseCases) RemoveRepository(ctx context.Context, userID types.UserID, id types.CategoryID, fullName string) (*category.Category, error) {
	c, err := u.ownedCategory(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if !c.RemoveRepo(ctx, strings.TrimSpace(fullName)) {
		return nil, goerr.New("repository not in category",
			goerr.TV(errutil.RepositoryKey, fullName), goerr.T(errs.TagNotFound))
	}
	if err := u.repository.PutCategory(ctx, c); err != nil {
		return nil, goerr.Wrap(err, "failed to save category",
			goerr.TV(errutil.CategoryIDKey, id), goerr.T(errs.TagDatabase))
	}
	return c, nil
}

func (u *UseCases) lookupCategory(ctx context.Context, id types.CategoryID) (*category.Category, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid category id", goerr.T(errs.TagInvalidRequest))
	}

	c, err := u.repository.GetCategory(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get category",
			goerr.TV(errutil.CategoryIDKey, id), goerr.T(errs.TagDatabase))
	}
	if c == nil {
		return nil, goerr.New("category not found",
			goerr.TV(errutil.CategoryIDKey, id), goerr.T(errs.TagNotFound))
	}
	return c, nil
}

func (u *UseCases) ownedCategory(ctx context.Context, userID types.UserID, id types.CategoryID) (*category.Category, error) {
	c, err := u.lookupCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		if c.IsPublic {
			return nil, goerr.New("category is owned by another user",
				goerr.TV(errutil.CategoryIDKey, id), goerr.T(errs.TagForbidden))
		}
		return nil, goerr.New("category not found",
			goerr.TV(errutil.CategoryIDKey, id), goerr.T(errs.TagNotFound))
	}
	return c, nil
}
