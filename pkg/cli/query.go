package cli

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/model/search"
	"github.com/urfave/cli/v3"
)

func cmdQuery() *cli.Command {
	var (
		term      string
		language  string
		utterance string
		offset    int
		limit     int
		format    string
		searchCfg searchConfig
	)

	flags := joinFlags(
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "search",
				Usage:       "Term matched against repository descriptions",
				Destination: &term,
			},
			&cli.StringFlag{
				Name:        "language",
				Usage:       "Language filter (all for none)",
				Value:       search.LanguageAll,
				Destination: &language,
			},
			&cli.StringFlag{
				Name:        "ai",
				Usage:       "Natural-language request; overrides --search and --language",
				Destination: &utterance,
			},
			&cli.IntFlag{
				Name:        "offset",
				Usage:       "Rows to skip",
				Destination: &offset,
			},
			&cli.IntFlag{
				Name:        "limit",
				Usage:       "Rows to return",
				Value:       search.PageSize,
				Destination: &limit,
			},
			&cli.StringFlag{
				Name:        "format",
				Usage:       "Output format [table|json]",
				Value:       "table",
				Destination: &format,
			},
		},
		searchCfg.Flags(),
	)

	return &cli.Command{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "Run one search against the warehouse and print the page",
		Flags:   flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if format != "table" && format != "json" {
				return goerr.New("invalid output format", goerr.V("format", format))
			}

			comp, err := searchCfg.build(ctx)
			if err != nil {
				return err
			}
			defer comp.close()

			w := search.Window{Offset: offset, Limit: limit}
			req := search.Request{Term: term, Language: language, Window: w}

			var page *search.Page
			switch {
			case utterance != "":
				page, err = comp.uc.AISearch(ctx, search.AIRequest{Utterance: utterance, Window: w})
			case req.HasFilter():
				page, err = comp.uc.Search(ctx, req)
			default:
				page, err = comp.uc.ListDefault(ctx, w)
			}
			if err != nil {
				return err
			}

			out := cmd.Root().Writer
			if format == "json" {
				return sonic.ConfigStd.NewEncoder(out).Encode(page)
			}
			renderPage(out, page)
			return nil
		},
	}
}
