package cli

import (
	"context"
	"io"
	"os"

	"github.com/secmon-lab/starfinder/pkg/cli/config"
	"github.com/secmon-lab/starfinder/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdin, os.Stdout)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	var loggerCfg config.Logger
	var closer func()

	envFile, envErr := config.LoadEnvFile(args, "")

	app := &cli.Command{
		Name:   "starfinder",
		Usage:  "Search catalogued GitHub repositories by filters or natural language",
		Flags:  append(loggerCfg.Flags(), config.EnvFileFlag()),
		Reader: stdin,
		Writer: stdout,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closer = f

			if envErr != nil {
				return ctx, envErr
			}
			logging.Default().Debug("base options", "logger", loggerCfg, "env_file", envFile)

			return logging.With(ctx, logging.Default()), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if closer != nil {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdBrowse(),
			cmdQuery(),
			cmdSchema(),
			cmdSeed(),
			cmdMigrate(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}
