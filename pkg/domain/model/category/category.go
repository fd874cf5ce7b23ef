package category

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/model/catalog"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
	"github.com/secmon-lab/starfinder/pkg/utils/clock"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 1000
)

// Category is a user-curated collection of repositories.
type Category struct {
	ID          types.CategoryID `json:"id" firestore:"id" bson:"_id"`
	UserID      types.UserID     `json:"user_id" firestore:"user_id" bson:"user_id"`
	Name        string           `json:"name" firestore:"name" bson:"name"`
	Description string           `json:"description" firestore:"description" bson:"description"`
	IsPublic    bool             `json:"is_public" firestore:"is_public" bson:"is_public"`
	Repos       []RepoRef        `json:"repos" firestore:"repos" bson:"repos"`
	CreatedAt   time.Time        `json:"created_at" firestore:"created_at" bson:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" firestore:"updated_at" bson:"updated_at"`
}

// RepoRef is the snapshot of a repository stored inside a category.
type RepoRef struct {
	FullName    string    `json:"full_name" firestore:"full_name" bson:"full_name"`
	Name        string    `json:"name" firestore:"name" bson:"name"`
	UserName    string    `json:"user_name" firestore:"user_name" bson:"user_name"`
	URL         string    `json:"url" firestore:"url" bson:"url"`
	Description string    `json:"description" firestore:"description" bson:"description"`
	Language    string    `json:"language" firestore:"language" bson:"language"`
	Stars       int64     `json:"stars" firestore:"stars" bson:"stars"`
	Forks       int64     `json:"forks" firestore:"forks" bson:"forks"`
	PushedAt    time.Time `json:"pushed_at" firestore:"pushed_at" bson:"pushed_at"`
}

// NewRepoRef snapshots the fields of r shown in category listings.
func NewRepoRef(r *catalog.Repository) RepoRef {
	return RepoRef{
		FullName:    r.FullName,
		Name:        r.Name,
		UserName:    r.UserName,
		URL:         r.URL,
		Description: r.Description,
		Language:    r.Language,
		Stars:       r.Stars,
		Forks:       r.Forks,
		PushedAt:    r.PushedAt,
	}
}

func (x RepoRef) Validate() error {
	if x.FullName == "" {
		return goerr.New("repository full name is required", goerr.T(errs.TagInvalidRequest))
	}
	if strings.Count(x.FullName, "/") != 1 {
		return goerr.New("repository full name must be owner/name",
			goerr.V("full_name", x.FullName), goerr.T(errs.TagInvalidRequest))
	}
	return nil
}

// New builds a category owned by userID with fresh ID and timestamps.
func New(ctx context.Context, userID types.UserID, name, description string, isPublic bool) *Category {
	now := clock.Now(ctx)
	return &Category{
		ID:          types.NewCategoryID(),
		UserID:      userID,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		IsPublic:    isPublic,
		Repos:       []RepoRef{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (x *Category) Validate() error {
	if err := x.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid category", goerr.T(errs.TagInvalidRequest))
	}
	if err := x.UserID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid category owner", goerr.T(errs.TagInvalidRequest))
	}
	if x.Name == "" {
		return goerr.New("category name cannot be empty", goerr.T(errs.TagInvalidRequest))
	}
	if utf8.RuneCountInString(x.Name) > maxNameLength {
		return goerr.New("category name too long",
			goerr.V("length", utf8.RuneCountInString(x.Name)), goerr.T(errs.TagInvalidRequest))
	}
	if utf8.RuneCountInString(x.Description) > maxDescriptionLength {
		return goerr.New("category description too long", goerr.T(errs.TagInvalidRequest))
	}
	return nil
}

// VisibleTo reports whether userID may read the category.
func (x *Category) VisibleTo(userID types.UserID) bool {
	return x.UserID == userID || x.IsPublic
}

// AddRepo appends ref unless a repository with the same full name exists. It reports whether
// the category changed.
func (x *Category) AddRepo(ctx context.Context, ref RepoRef) bool {
	for _, r := range x.Repos {
		if strings.EqualFold(r.FullName, ref.FullName) {
			return false
		}
	}
	x.Repos = append(x.Repos, ref)
	x.UpdatedAt = clock.Now(ctx)
	return true
}

// RemoveRepo deletes the repository with fullName. It reports whether the category changed.
func (x *Category) RemoveRepo(ctx context.Context, fullName string) bool {
	for i, r := range x.Repos {
		if strings.EqualFold(r.FullName, fullName) {
			x.Repos = append(x.Repos[:i], x.Repos[i+1:]...)
			x.UpdatedAt = clock.Now(ctx)
			return true
		}
	}
	return false
}
