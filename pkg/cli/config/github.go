package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/adapter/github"
	"github.com/urfave/cli/v3"
)

// GitHub authenticates the starred and README lookups. A token, an App installation, or
// nothing (anonymous, low rate limit) are accepted.
type GitHub struct {
	disabled       bool
	token          string
	appID          int64
	installationID int64
	privateKeyPath string
}

func (x *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "github-disabled",
			Usage:       "Disable starred and README endpoints",
			Category:    "GitHub",
			Destination: &x.disabled,
			Sources:     cli.EnvVars("STARFINDER_GITHUB_DISABLED"),
		},
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub personal access token",
			Category:    "GitHub",
			Destination: &x.token,
			Sources:     cli.EnvVars("STARFINDER_GITHUB_TOKEN", "GITHUB_TOKEN"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Category:    "GitHub",
			Destination: &x.appID,
			Sources:     cli.EnvVars("STARFINDER_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-app-installation-id",
			Usage:       "GitHub App installation ID",
			Category:    "GitHub",
			Destination: &x.installationID,
			Sources:     cli.EnvVars("STARFINDER_GITHUB_APP_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-app-private-key",
			Usage:       "Path to the GitHub App private key (PEM)",
			Category:    "GitHub",
			Destination: &x.privateKeyPath,
			Sources:     cli.EnvVars("STARFINDER_GITHUB_APP_PRIVATE_KEY"),
		},
	}
}

func (x GitHub) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("disabled", x.disabled),
		slog.Bool("token_set", x.token != ""),
		slog.Int64("app_id", x.appID),
		slog.Int64("installation_id", x.installationID),
	)
}

// Configure returns nil when GitHub is disabled.
func (x *GitHub) Configure() (*github.Client, error) {
	if x.disabled {
		return nil, nil
	}

	var opts []github.Option
	switch {
	case x.appID != 0:
		if x.installationID == 0 || x.privateKeyPath == "" {
			return nil, goerr.New("github-app-installation-id and github-app-private-key are required with github-app-id")
		}
		key, err := os.ReadFile(filepath.Clean(x.privateKeyPath))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read GitHub App private key", goerr.V("path", x.privateKeyPath))
		}
		opts = append(opts, github.WithApp(x.appID, x.installationID, key))

	case x.token != "":
		opts = append(opts, github.WithToken(x.token))
	}

	return github.New(opts...)
}
