package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/client"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/service/browse"
	"github.com/secmon-lab/starfinder/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const browseHelp = `commands:
  <term> | /search <term>   search descriptions (empty term clears it)
  /lang <language>          filter by language ("all" clears it)
  /ai <request>             natural-language search (empty resets)
  /more                     load the next page
  /reset                    clear every filter
  /tab <explore|starred|categories>
  /starred <user> [page]    repositories starred by a GitHub user
  /readme <owner>/<repo>    print a README
  /url                      print the shareable query string
  /help, /quit`

func cmdBrowse() *cli.Command {
	var (
		serverURL string
		sharedURL string
		pageSize  int
	)

	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"b"},
		Usage:   "Browse a running server interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "server-url",
				Usage:       "Base URL of the starfinder server",
				Value:       "http://127.0.0.1:8080",
				Destination: &serverURL,
				Sources:     cli.EnvVars("STARFINDER_SERVER_URL"),
			},
			&cli.StringFlag{
				Name:        "url",
				Usage:       "Restore filters from a shared query string, e.g. '?search=cli&language=Go'",
				Destination: &sharedURL,
			},
			&cli.IntFlag{
				Name:        "page-size",
				Usage:       "Rows per page",
				Value:       50,
				Destination: &pageSize,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			state, err := browse.FromURL(sharedURL)
			if err != nil {
				return err
			}

			c, err := client.New(serverURL)
			if err != nil {
				return err
			}

			b := newBrowser(c, cmd.Root().Writer,
				browse.WithURLState(state),
				browse.WithPageSize(pageSize),
			)
			defer b.session.Close()

			if err := b.init(ctx); err != nil {
				return err
			}
			return b.loop(ctx, cmd.Root().Reader)
		},
	}
}

// browser drives a browse.Session from text commands and prints what changed.
type browser struct {
	session *browse.Session
	client  *client.Client
	out     io.Writer
	shown   int
}

func newBrowser(c *client.Client, out io.Writer, opts ...browse.Option) *browser {
	return &browser{
		session: browse.New(c, opts...),
		client:  c,
		out:     out,
	}
}

func (x *browser) init(ctx context.Context) error {
	if err := x.session.Init(ctx); err != nil {
		return err
	}
	x.printAll()
	return nil
}

func (x *browser) loop(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(x.out, dimColor.Sprint("type /help for commands"))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(x.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(x.out)
			return scanner.Err()
		}

		quit, err := x.exec(ctx, scanner.Text())
		if err != nil {
			if errors.Is(err, errs.ErrBusy) {
				fmt.Fprintln(x.out, noticeColor.Sprint("a request is still loading"))
				continue
			}
			logging.From(ctx).Debug("browse command failed", logging.ErrAttr(err))
			fmt.Fprintln(x.out, errorColor.Sprintf("error: %s", err.Error()))
		}
		if quit {
			return nil
		}
	}
}

// exec runs one command line. It reports true when the loop should stop.
func (x *browser) exec(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	name, arg := line, ""
	if strings.HasPrefix(line, "/") {
		if i := strings.IndexByte(line, ' '); i >= 0 {
			name, arg = line[:i], strings.TrimSpace(line[i+1:])
		}
	} else {
		name, arg = "/search", line
	}

	switch name {
	case "/quit", "/exit":
		return true, nil

	case "/help":
		fmt.Fprintln(x.out, browseHelp)

	case "/search":
		x.session.SetTerm(ctx, arg)
		if err := x.session.Submit(ctx); err != nil {
			return false, err
		}
		x.printAll()

	case "/lang":
		if err := x.session.SetLanguage(ctx, arg); err != nil {
			return false, err
		}
		x.printAll()

	case "/ai":
		if err := x.session.AISearch(ctx, arg); err != nil {
			return false, err
		}
		x.printAll()

	case "/more":
		if !x.session.CanLoadMore() {
			fmt.Fprintln(x.out, dimColor.Sprint("no more results"))
			return false, nil
		}
		if err := x.session.LoadMore(ctx); err != nil {
			return false, err
		}
		x.printNew()

	case "/reset":
		x.session.ResetFilters()
		x.printAll()

	case "/tab":
		if err := x.session.SetTab(browse.Tab(arg)); err != nil {
			return false, err
		}
		fmt.Fprintln(x.out, dimColor.Sprintf("tab: %s", arg))

	case "/starred":
		return false, x.starred(ctx, arg)

	case "/readme":
		return false, x.readme(ctx, arg)

	case "/url":
		fmt.Fprintln(x.out, x.session.URL())

	default:
		return false, goerr.New("unknown command, type /help", goerr.V("command", name))
	}

	return false, nil
}

func (x *browser) starred(ctx context.Context, arg string) error {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return goerr.New("usage: /starred <user> [page]")
	}
	page := 1
	if len(fields) > 1 {
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return goerr.New("page must be a positive number", goerr.V("page", fields[1]))
		}
		page = n
	}

	resp, err := x.client.Starred(ctx, fields[0], page)
	if err != nil {
		return err
	}
	renderRepositories(x.out, resp.Repositories, 0)
	if resp.HasMore {
		fmt.Fprintln(x.out, dimColor.Sprintf("more: /starred %s %d", fields[0], page+1))
	}
	return nil
}

func (x *browser) readme(ctx context.Context, arg string) error {
	owner, repo, ok := strings.Cut(arg, "/")
	if !ok || owner == "" || repo == "" {
		return goerr.New("usage: /readme <owner>/<repo>")
	}

	content, err := x.client.Readme(ctx, owner, repo)
	if err != nil {
		return err
	}
	fmt.Fprintln(x.out, content)
	return nil
}

func (x *browser) printAll() {
	x.shown = 0
	x.printNew()
}

// printNew prints results not shown yet followed by the session status.
func (x *browser) printNew() {
	snap := x.session.Snapshot()
	if snap.Error != "" {
		fmt.Fprintln(x.out, errorColor.Sprintf("search failed: %s", snap.Error))
	}
	if snap.Fallback {
		fmt.Fprintln(x.out, noticeColor.Sprint("could not interpret the request, showing the default listing"))
	}

	if x.shown < len(snap.Results) {
		renderRepositories(x.out, snap.Results[x.shown:], x.shown)
	}
	x.shown = len(snap.Results)

	status := fmt.Sprintf("%d shown (%s)", len(snap.Results), snap.State)
	if snap.CanLoadMore {
		status += ", /more for next page"
	}
	fmt.Fprintln(x.out, dimColor.Sprint(status))
}
