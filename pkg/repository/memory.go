package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/secmon-lab/starfinder/pkg/domain/interfaces"
	"github.com/secmon-lab/starfinder/pkg/domain/model/category"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
)

// Memory keeps categories in process. Stored values are copied on both write and read so
// callers never share state with the store.
type Memory struct {
	mu         sync.RWMutex
	categories map[types.CategoryID]*category.Category
}

var _ interfaces.Repository = &Memory{}

func NewMemory() *Memory {
	return &Memory{
		categories: make(map[types.CategoryID]*category.Category),
	}
}

func (r *Memory) PutCategory(ctx context.Context, c *category.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.categories[c.ID] = copyCategory(c)
	return nil
}

func (r *Memory) GetCategory(ctx context.Context, id types.CategoryID) (*category.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return nil, nil
	}
	return copyCategory(c), nil
}

func (r *Memory) ListCategories(ctx context.Context, userID types.UserID) ([]*category.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*category.Category{}
	for _, c := range r.categories {
		if c.UserID == userID {
			result = append(result, copyCategory(c))
		}
	}
	return result, nil
}

func (r *Memory) DeleteCategory(ctx context.Context, id types.CategoryID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.categories, id)
	return nil
}

func (r *Memory) Close(ctx context.Context) error {
	return nil
}

func copyCategory(c *category.Category) *category.Category {
	dup := *c
	dup.Repos = slices.Clone(c.Repos)
	if dup.Repos == nil {
		dup.Repos = []category.RepoRef{}
	}
	return &dup
}
