package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/dustin/go-humanize"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/adapter/sqlite"
	"github.com/secmon-lab/starfinder/pkg/cli/config"
	"github.com/secmon-lab/starfinder/pkg/domain/model/catalog"
	"github.com/secmon-lab/starfinder/pkg/utils/errutil"
	"github.com/secmon-lab/starfinder/pkg/utils/logging"
	"github.com/secmon-lab/starfinder/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

const (
	seedBatchSize   = 500
	seedMaxLineSize = 4 << 20
)

func cmdSeed() *cli.Command {
	var (
		warehouseCfg config.Warehouse
		input        string
	)

	return &cli.Command{
		Name:  "seed",
		Usage: "Load repository rows (JSONEachRow) into the local SQLite warehouse",
		Flags: append(warehouseCfg.Flags(),
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "JSONEachRow file, '-' for stdin",
				Required:    true,
				Destination: &input,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			wh, err := warehouseCfg.OpenSQLite(ctx, false)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, wh)

			var r io.Reader
			if input == "-" {
				r = cmd.Root().Reader
			} else {
				f, err := os.Open(filepath.Clean(input))
				if err != nil {
					return goerr.Wrap(err, "failed to open seed file", goerr.V("path", input))
				}
				defer safe.Close(ctx, f)
				r = f
			}

			n, err := seedRepositories(ctx, wh, r)
			if err != nil {
				return err
			}

			logging.From(ctx).Info("seeded repositories", "rows", humanize.Comma(int64(n)), "input", input)
			return nil
		},
	}
}

// seedRepositories inserts every JSONEachRow line of r in batches and returns the row count.
func seedRepositories(ctx context.Context, wh *sqlite.Warehouse, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), seedMaxLineSize)

	var (
		batch   []*catalog.Repository
		total   int
		lineNum int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := wh.Insert(ctx, batch...); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		var row map[string]any
		if err := sonic.UnmarshalString(line, &row); err != nil {
			return total, goerr.Wrap(err, "invalid JSONEachRow line", goerr.TV(errutil.LineKey, lineNum))
		}
		repo, err := catalog.FromRow(row)
		if err != nil {
			return total, goerr.Wrap(err, "invalid repository row", goerr.TV(errutil.LineKey, lineNum))
		}
		if repo.FullName == "" {
			return total, goerr.New("repository row has no full_name", goerr.TV(errutil.LineKey, lineNum))
		}

		batch = append(batch, repo)
		if len(batch) >= seedBatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return total, goerr.Wrap(err, "failed to read seed input")
	}

	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}
