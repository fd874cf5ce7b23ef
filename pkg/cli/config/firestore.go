package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/repository"
	"github.com/urfave/cli/v3"
)

type Firestore struct {
	projectID  string
	databaseID string
}

func (c *Firestore) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore project ID",
			Destination: &c.projectID,
			Category:    "Firestore",
			Sources:     cli.EnvVars("STARFINDER_FIRESTORE_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore database ID",
			Destination: &c.databaseID,
			Category:    "Firestore",
			Sources:     cli.EnvVars("STARFINDER_FIRESTORE_DATABASE_ID"),
			Value:       "(default)",
		},
	}
}

func (c Firestore) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("project_id", c.projectID),
		slog.String("database_id", c.databaseID),
	)
}

func (c *Firestore) Configure(ctx context.Context) (*repository.Firestore, error) {
	if c.projectID == "" {
		return nil, goerr.New("firestore-project-id is required")
	}
	return repository.NewFirestore(ctx, c.projectID, c.databaseID)
}

func (c *Firestore) ProjectID() string {
	return c.projectID
}

func (c *Firestore) DatabaseID() string {
	return c.databaseID
}
