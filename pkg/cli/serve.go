package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/secmon-lab/starfinder/pkg/cli/config"
	server "github.com/secmon-lab/starfinder/pkg/controller/http"
	"github.com/secmon-lab/starfinder/pkg/usecase"
	"github.com/secmon-lab/starfinder/pkg/utils/logging"
	"github.com/secmon-lab/starfinder/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// serverURL turns a listen address into the URL clients should use.
func serverURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		if strings.HasPrefix(addr, ":") {
			return fmt.Sprintf("http://localhost%s", addr)
		}
		return fmt.Sprintf("http://%s", addr)
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}

	return fmt.Sprintf("http://%s", net.JoinHostPort(host, port))
}

// components holds everything the search commands need. close releases them in reverse
// order of construction.
type components struct {
	uc      *usecase.UseCases
	closers []func()
}

func (x *components) close() {
	for i := len(x.closers) - 1; i >= 0; i-- {
		x.closers[i]()
	}
}

type searchConfig struct {
	warehouse config.Warehouse
	llm       config.LLM
	category  config.CategoryStore
	github    config.GitHub
	audit     config.Audit
	languages config.Languages
}

func (x *searchConfig) Flags() []cli.Flag {
	return joinFlags(
		x.warehouse.Flags(),
		x.llm.Flags(),
		x.category.Flags(),
		x.github.Flags(),
		x.audit.Flags(),
		x.languages.Flags(),
	)
}

// build constructs the adapters and the use cases over them. On error, everything built so
// far is already released.
func (x *searchConfig) build(ctx context.Context) (_ *components, err error) {
	c := &components{}
	defer func() {
		if err != nil {
			c.close()
		}
	}()

	warehouse, err := x.warehouse.Configure(ctx)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, func() { safe.Close(ctx, warehouse) })

	llmClient, err := x.llm.Configure(ctx)
	if err != nil {
		return nil, err
	}
	if llmClient == nil {
		logging.From(ctx).Warn("no LLM provider configured, AI search will fall back to the default listing")
	}

	repo, err := x.category.Configure(ctx)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, func() {
		if err := repo.Close(ctx); err != nil {
			logging.From(ctx).Warn("failed to close category store", logging.ErrAttr(err))
		}
	})

	githubClient, err := x.github.Configure()
	if err != nil {
		return nil, err
	}

	auditor, storageClient, err := x.audit.Configure(ctx)
	if err != nil {
		return nil, err
	}
	if storageClient != nil {
		c.closers = append(c.closers, func() { storageClient.Close(ctx) })
	}

	languages, err := x.languages.Configure()
	if err != nil {
		return nil, err
	}

	opts := []usecase.Option{
		usecase.WithRepository(repo),
		usecase.WithTranslateTimeout(x.llm.TranslateTimeout()),
		usecase.WithLanguages(languages),
	}
	if llmClient != nil {
		opts = append(opts, usecase.WithLLMClient(llmClient))
	}
	if githubClient != nil {
		opts = append(opts, usecase.WithGitHubClient(githubClient))
	}
	if auditor != nil {
		opts = append(opts, usecase.WithAuditor(auditor))
	}

	c.uc = usecase.New(warehouse, opts...)
	return c, nil
}

func cmdServe() *cli.Command {
	var (
		addr            string
		shutdownTimeout time.Duration
		searchCfg       searchConfig
		sentryCfg       config.Sentry
	)

	flags := joinFlags(
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Aliases:     []string{"a"},
				Sources:     cli.EnvVars("STARFINDER_ADDR"),
				Usage:       "Listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "shutdown-timeout",
				Sources:     cli.EnvVars("STARFINDER_SHUTDOWN_TIMEOUT"),
				Usage:       "Grace period for in-flight requests on shutdown",
				Value:       10 * time.Second,
				Destination: &shutdownTimeout,
			},
		},
		searchCfg.Flags(),
		sentryCfg.Flags(),
	)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Run the search API server",
		Flags:   flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logging.From(ctx).Info("starting server",
				"addr", addr,
				"warehouse", searchCfg.warehouse,
				"llm", searchCfg.llm,
				"category", searchCfg.category,
				"github", searchCfg.github,
				"audit", &searchCfg.audit,
				"languages", searchCfg.languages,
				"sentry", sentryCfg,
			)

			flush, err := sentryCfg.Configure()
			if err != nil {
				return err
			}
			defer flush()

			comp, err := searchCfg.build(ctx)
			if err != nil {
				return err
			}
			defer comp.close()

			httpServer := http.Server{
				Addr:              addr,
				Handler:           server.New(comp.uc),
				ReadTimeout:       30 * time.Second,
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext: func(l net.Listener) context.Context {
					return ctx
				},
			}

			errCh := make(chan error, 1)
			go func() {
				defer close(errCh)
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()
			logging.From(ctx).Info("server is ready", "url", serverURL(addr))

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.From(ctx).Info("shutting down server", "signal", sig.String())
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			}
		},
	}
}
