package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/interfaces"
	"github.com/secmon-lab/starfinder/pkg/domain/model/category"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
	"github.com/secmon-lab/starfinder/pkg/utils/errutil"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CollectionCategories is the Firestore collection and MongoDB collection holding categories.
const CollectionCategories = "categories"

type Firestore struct {
	db *firestore.Client
	eb *goerr.Builder
}

var _ interfaces.Repository = &Firestore{}

func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	db, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID), goerr.T(errs.TagDatabase))
	}

	return &Firestore{
		db: db,
		eb: goerr.NewBuilder(
			goerr.TV(errutil.RepositoryKey, "firestore"),
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID),
			goerr.T(errs.TagDatabase),
		),
	}, nil
}

func (r *Firestore) PutCategory(ctx context.Context, c *category.Category) error {
	if _, err := r.db.Collection(CollectionCategories).Doc(c.ID.String()).Set(ctx, c); err != nil {
		return r.eb.Wrap(err, "failed to put category", goerr.TV(errutil.CategoryIDKey, c.ID))
	}
	return nil
}

func (r *Firestore) GetCategory(ctx context.Context, id types.CategoryID) (*category.Category, error) {
	doc, err := r.db.Collection(CollectionCategories).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, r.eb.Wrap(err, "failed to get category", goerr.TV(errutil.CategoryIDKey, id))
	}

	var c category.Category
	if err := doc.DataTo(&c); err != nil {
		return nil, r.eb.Wrap(err, "failed to decode category", goerr.TV(errutil.CategoryIDKey, id))
	}
	if c.Repos == nil {
		c.Repos = []category.RepoRef{}
	}
	return &c, nil
}

func (r *Firestore) ListCategories(ctx context.Context, userID types.UserID) ([]*category.Category, error) {
	iter := r.db.Collection(CollectionCategories).
		Where("user_id", "==", userID.String()).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	result := []*category.Category{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, r.eb.Wrap(err, "failed to iterate categories", goerr.TV(errutil.UserIDKey, userID))
		}

		var c category.Category
		if err := doc.DataTo(&c); err != nil {
			return nil, r.eb.Wrap(err, "failed to decode category", goerr.V("doc_id", doc.Ref.ID))
		}
		if c.Repos == nil {
			c.Repos = []category.RepoRef{}
		}
		result = append(result, &c)
	}
	return result, nil
}

func (r *Firestore) DeleteCategory(ctx context.Context, id types.CategoryID) error {
	if _, err := r.db.Collection(CollectionCategories).Doc(id.String()).Delete(ctx); err != nil {
		return r.eb.Wrap(err, "failed to delete category", goerr.TV(errutil.CategoryIDKey, id))
	}
	return nil
}

func (r *Firestore) Close(ctx context.Context) error {
	return r.db.Close()
}
