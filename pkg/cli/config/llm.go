package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/claude"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/secmon-lab/starfinder/pkg/service/translator"
	"github.com/urfave/cli/v3"
)

// LLM selects the model used to translate utterances. Claude is preferred when its project
// is set; with neither project set, AI search is disabled and falls back to the listing.
type LLM struct {
	claudeModel     string
	claudeProjectID string
	claudeLocation  string

	geminiModel     string
	geminiProjectID string
	geminiLocation  string

	translateTimeout time.Duration
}

func (x *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "claude-model",
			Usage:       "Claude model name",
			Sources:     cli.EnvVars("STARFINDER_CLAUDE_MODEL"),
			Value:       "claude-sonnet-4@20250514",
			Destination: &x.claudeModel,
			Category:    "Claude",
		},
		&cli.StringFlag{
			Name:        "claude-project-id",
			Usage:       "Google Cloud Project ID for Claude Vertex AI",
			Sources:     cli.EnvVars("STARFINDER_CLAUDE_PROJECT_ID"),
			Destination: &x.claudeProjectID,
			Category:    "Claude",
		},
		&cli.StringFlag{
			Name:        "claude-location",
			Usage:       "Google Cloud location for Claude Vertex AI",
			Sources:     cli.EnvVars("STARFINDER_CLAUDE_LOCATION"),
			Value:       "us-east5",
			Destination: &x.claudeLocation,
			Category:    "Claude",
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model",
			Destination: &x.geminiModel,
			Category:    "Gemini",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("STARFINDER_GEMINI_MODEL"),
		},
		&cli.StringFlag{
			Name:        "gemini-project-id",
			Usage:       "GCP Project ID for Vertex AI",
			Destination: &x.geminiProjectID,
			Category:    "Gemini",
			Sources:     cli.EnvVars("STARFINDER_GEMINI_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "GCP Location for Vertex AI",
			Value:       "us-central1",
			Destination: &x.geminiLocation,
			Category:    "Gemini",
			Sources:     cli.EnvVars("STARFINDER_GEMINI_LOCATION"),
		},
		&cli.DurationFlag{
			Name:        "translate-timeout",
			Usage:       "Upper bound of one utterance translation",
			Value:       translator.DefaultTimeout,
			Destination: &x.translateTimeout,
			Category:    "AI search",
			Sources:     cli.EnvVars("STARFINDER_TRANSLATE_TIMEOUT"),
		},
	}
}

func (x LLM) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("provider", x.Provider()),
		slog.Duration("translate_timeout", x.translateTimeout),
	}

	switch x.Provider() {
	case "claude":
		attrs = append(attrs,
			slog.String("claude_model", x.claudeModel),
			slog.String("claude_project_id", x.claudeProjectID),
			slog.String("claude_location", x.claudeLocation),
		)
	case "gemini":
		attrs = append(attrs,
			slog.String("gemini_model", x.geminiModel),
			slog.String("gemini_project_id", x.geminiProjectID),
			slog.String("gemini_location", x.geminiLocation),
		)
	}

	return slog.GroupValue(attrs...)
}

// Provider returns "claude", "gemini" or "none".
func (x *LLM) Provider() string {
	switch {
	case x.claudeProjectID != "":
		return "claude"
	case x.geminiProjectID != "":
		return "gemini"
	default:
		return "none"
	}
}

func (x *LLM) TranslateTimeout() time.Duration {
	return x.translateTimeout
}

// Configure returns nil without error when no provider is configured.
func (x *LLM) Configure(ctx context.Context) (gollem.LLMClient, error) {
	switch x.Provider() {
	case "claude":
		return x.configureClaude(ctx)
	case "gemini":
		return x.configureGemini(ctx)
	default:
		return nil, nil
	}
}

func (x *LLM) configureClaude(ctx context.Context) (gollem.LLMClient, error) {
	client, err := claude.NewWithVertex(ctx, x.claudeLocation, x.claudeProjectID,
		claude.WithVertexModel(x.claudeModel),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Claude Vertex AI client",
			goerr.V("projectID", x.claudeProjectID),
			goerr.V("location", x.claudeLocation),
			goerr.V("model", x.claudeModel))
	}

	return client, nil
}

func (x *LLM) configureGemini(ctx context.Context) (gollem.LLMClient, error) {
	client, err := gemini.New(ctx, x.geminiProjectID, x.geminiLocation,
		gemini.WithModel(x.geminiModel),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client",
			goerr.V("projectID", x.geminiProjectID),
			goerr.V("location", x.geminiLocation))
	}

	return client, nil
}
