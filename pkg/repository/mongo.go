package repository

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/interfaces"
	"github.com/secmon-lab/starfinder/pkg/domain/model/category"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
	"github.com/secmon-lab/starfinder/pkg/utils/errutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

// Mongo stores categories as documents keyed by category ID.
type Mongo struct {
	client *mongo.Client
	col    *mongo.Collection
	eb     *goerr.Builder
}

var _ interfaces.Repository = &Mongo{}

func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	eb := goerr.NewBuilder(
		goerr.TV(errutil.RepositoryKey, "mongo"),
		goerr.V("database", database),
		goerr.T(errs.TagDatabase),
	)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, eb.Wrap(err, "failed to connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, eb.Wrap(err, "failed to ping mongo")
	}

	return &Mongo{
		client: client,
		col:    client.Database(database).Collection(CollectionCategories),
		eb:     eb,
	}, nil
}

func (r *Mongo) PutCategory(ctx context.Context, c *category.Category) error {
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": c.ID}, c, options.Replace().SetUpsert(true))
	if err != nil {
		return r.eb.Wrap(err, "failed to put category", goerr.TV(errutil.CategoryIDKey, c.ID))
	}
	return nil
}

func (r *Mongo) GetCategory(ctx context.Context, id types.CategoryID) (*category.Category, error) {
	var c category.Category
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, r.eb.Wrap(err, "failed to get category", goerr.TV(errutil.CategoryIDKey, id))
	}
	if c.Repos == nil {
		c.Repos = []category.RepoRef{}
	}
	return &c, nil
}

func (r *Mongo) ListCategories(ctx context.Context, userID types.UserID) ([]*category.Category, error) {
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to find categories", goerr.TV(errutil.UserIDKey, userID))
	}
	defer cur.Close(ctx)

	result := []*category.Category{}
	if err := cur.All(ctx, &result); err != nil {
		return nil, r.eb.Wrap(err, "failed to decode categories", goerr.TV(errutil.UserIDKey, userID))
	}
	for _, c := range result {
		if c.Repos == nil {
			c.Repos = []category.RepoRef{}
		}
	}
	return result, nil
}

func (r *Mongo) DeleteCategory(ctx context.Context, id types.CategoryID) error {
	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return r.eb.Wrap(err, "failed to delete category", goerr.TV(errutil.CategoryIDKey, id))
	}
	return nil
}

func (r *Mongo) Close(ctx context.Context) error {
	if err := r.client.Disconnect(ctx); err != nil {
		return r.eb.Wrap(err, "failed to disconnect from mongo")
	}
	return nil
}
