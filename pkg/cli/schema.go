package cli

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/cli/config"
	"github.com/secmon-lab/starfinder/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdSchema() *cli.Command {
	var (
		warehouseCfg config.Warehouse
		format       string
	)

	return &cli.Command{
		Name:  "schema",
		Usage: "Print the live table definition handed to the translator",
		Flags: append(warehouseCfg.Flags(),
			&cli.StringFlag{
				Name:        "format",
				Usage:       "Output format [ddl|json]",
				Value:       "ddl",
				Destination: &format,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if format != "ddl" && format != "json" {
				return goerr.New("invalid output format", goerr.V("format", format))
			}

			warehouse, err := warehouseCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, warehouse)

			schema, err := warehouse.Schema(ctx)
			if err != nil {
				return err
			}

			out := cmd.Root().Writer
			if format == "json" {
				return sonic.ConfigStd.NewEncoder(out).Encode(schema)
			}
			_, err = fmt.Fprintln(out, schema.DDL)
			return err
		},
	}
}
