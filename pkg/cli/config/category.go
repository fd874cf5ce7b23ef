package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/interfaces"
	"github.com/secmon-lab/starfinder/pkg/repository"
	"github.com/urfave/cli/v3"
)

const (
	categoryStoreMemory    = "memory"
	categoryStoreFirestore = "firestore"
	categoryStoreMongo     = "mongo"
)

// CategoryStore picks the backend holding user categories.
type CategoryStore struct {
	kind      string
	firestore Firestore
	mongo     Mongo
}

func (x *CategoryStore) Flags() []cli.Flag {
	return joinFlags(
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "category-store",
				Usage:       "Category store [memory|firestore|mongo]",
				Category:    "Category",
				Value:       categoryStoreMemory,
				Destination: &x.kind,
				Sources:     cli.EnvVars("STARFINDER_CATEGORY_STORE"),
			},
		},
		x.firestore.Flags(),
		x.mongo.Flags(),
	)
}

func (x CategoryStore) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("kind", x.kind)}
	switch x.kind {
	case categoryStoreFirestore:
		attrs = append(attrs, slog.Any("firestore", x.firestore))
	case categoryStoreMongo:
		attrs = append(attrs, slog.Any("mongo", x.mongo))
	}
	return slog.GroupValue(attrs...)
}

func (x *CategoryStore) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch x.kind {
	case categoryStoreMemory, "":
		return repository.NewMemory(), nil
	case categoryStoreFirestore:
		repo, err := x.firestore.Configure(ctx)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case categoryStoreMongo:
		repo, err := x.mongo.Configure(ctx)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, goerr.New("unknown category store", goerr.V("kind", x.kind))
	}
}
