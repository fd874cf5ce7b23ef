package config

import (
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Sentry struct {
	dsn     string
	env     string
	release string
}

func (x *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN",
			Category:    "Sentry",
			Sources:     cli.EnvVars("STARFINDER_SENTRY_DSN"),
			Destination: &x.dsn,
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment",
			Category:    "Sentry",
			Sources:     cli.EnvVars("STARFINDER_SENTRY_ENV"),
			Destination: &x.env,
		},
		&cli.StringFlag{
			Name:        "sentry-release",
			Usage:       "Release name reported to Sentry",
			Category:    "Sentry",
			Sources:     cli.EnvVars("STARFINDER_SENTRY_RELEASE"),
			Destination: &x.release,
		},
	}
}

func (x Sentry) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", x.dsn != ""),
		slog.String("env", x.env),
		slog.String("release", x.release),
	)
}

// Configure initializes the Sentry hub and returns a function flushing pending events.
func (x *Sentry) Configure() (func(), error) {
	if x.dsn == "" {
		logging.Default().Warn("Sentry is not configured")
		return func() {}, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         x.dsn,
		Environment: x.env,
		Release:     x.release,
	}); err != nil {
		return func() {}, goerr.Wrap(err, "failed to initialize sentry")
	}

	return func() { sentry.Flush(2 * time.Second) }, nil
}
