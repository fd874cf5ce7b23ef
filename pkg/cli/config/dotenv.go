package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const DefaultEnvFile = ".env"

// EnvFileFlag only documents --env-file; the file is read by LoadEnvFile before flags are
// parsed so that env sources see its values.
func EnvFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "env-file",
		Usage:   "Dotenv file loaded before reading STARFINDER_* variables",
		Value:   DefaultEnvFile,
		Sources: cli.EnvVars("STARFINDER_ENV_FILE"),
	}
}

// LoadEnvFile loads the dotenv file named by --env-file in args, or .env. Variables already
// set in the environment win. A missing file is ignored.
func LoadEnvFile(args []string, fallback string) (string, error) {
	path := fallback
	if path == "" {
		path = DefaultEnvFile
	}
	for i, arg := range args {
		switch {
		case arg == "--env-file" && i+1 < len(args):
			path = args[i+1]
		case strings.HasPrefix(arg, "--env-file="):
			path = strings.TrimPrefix(arg, "--env-file=")
		}
	}

	if err := godotenv.Load(filepath.Clean(path)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", goerr.Wrap(err, "failed to load env file", goerr.V("path", path))
	}
	return path, nil
}
