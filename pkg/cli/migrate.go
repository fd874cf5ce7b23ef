package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/cli/config"
	"github.com/secmon-lab/starfinder/pkg/repository"
	"github.com/secmon-lab/starfinder/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var cfg config.Firestore
	var dryRun bool

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create the Firestore index used to list categories",
		Flags: append(cfg.Flags(),
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Print the planned index changes without applying them",
				Destination: &dryRun,
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			return migrateCategoryIndex(ctx, &cfg, dryRun)
		},
	}
}

// migrateCategoryIndex applies the category index with fireconf. Firestore builds new
// indexes in the background; listing categories fails with FAILED_PRECONDITION until the
// build finishes.
func migrateCategoryIndex(ctx context.Context, cfg *config.Firestore, dryRun bool) error {
	if cfg.ProjectID() == "" {
		return goerr.New("firestore-project-id is required")
	}

	logger := logging.From(ctx).With("project_id", cfg.ProjectID(), "database_id", cfg.DatabaseID())

	client, err := fireconf.NewClient(ctx, cfg.ProjectID(), cfg.DatabaseID(),
		fireconf.WithLogger(logger),
		fireconf.WithDryRun(dryRun),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client", goerr.V("project_id", cfg.ProjectID()))
	}

	if err := client.Migrate(ctx, defineFirestoreIndexes()); err != nil {
		return goerr.Wrap(err, "failed to migrate category index",
			goerr.V("project_id", cfg.ProjectID()), goerr.V("dry_run", dryRun))
	}

	logger.Info("category index migrated", "dry_run", dryRun)
	return nil
}

// defineFirestoreIndexes declares the composite index behind listing a user's categories
// newest first.
func defineFirestoreIndexes() *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{{
			Name: repository.CollectionCategories,
			Indexes: []fireconf.Index{{
				QueryScope: fireconf.QueryScopeCollection,
				Fields: []fireconf.IndexField{
					{Path: "user_id", Order: fireconf.OrderAscending},
					{Path: "created_at", Order: fireconf.OrderDescending},
					{Path: "__name__", Order: fireconf.OrderDescending},
				},
			}},
		}},
	}
}
