package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/repository"
	"github.com/urfave/cli/v3"
)

type Mongo struct {
	uri      string
	database string
}

func (x *Mongo) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "mongo-uri",
			Usage:       "MongoDB connection URI",
			Destination: &x.uri,
			Category:    "MongoDB",
			Sources:     cli.EnvVars("STARFINDER_MONGO_URI"),
		},
		&cli.StringFlag{
			Name:        "mongo-database",
			Usage:       "MongoDB database name",
			Destination: &x.database,
			Category:    "MongoDB",
			Value:       "starfinder",
			Sources:     cli.EnvVars("STARFINDER_MONGO_DATABASE"),
		},
	}
}

// LogValue omits the URI because it usually embeds credentials.
func (x Mongo) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("uri_set", x.uri != ""),
		slog.String("database", x.database),
	)
}

func (x *Mongo) Configure(ctx context.Context) (*repository.Mongo, error) {
	if x.uri == "" {
		return nil, goerr.New("mongo-uri is required")
	}
	return repository.NewMongo(ctx, x.uri, x.database)
}
