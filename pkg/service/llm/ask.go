package llm

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/utils/logging"
)

type askConfig[T any] struct {
	maxRetry     int
	retryPrompt  func(ctx context.Context, err error) string
	validate     func(v T) error
	systemPrompt string
	schema       *gollem.Parameter
}

type AskOption[T any] func(*askConfig[T])

func WithMaxRetry[T any](maxRetry int) AskOption[T] {
	return func(c *askConfig[T]) {
		c.maxRetry = maxRetry
	}
}

func WithRetryPrompt[T any](f func(ctx context.Context, err error) string) AskOption[T] {
	return func(c *askConfig[T]) {
		c.retryPrompt = f
	}
}

func WithValidate[T any](f func(v T) error) AskOption[T] {
	return func(c *askConfig[T]) {
		c.validate = f
	}
}

func WithSystemPrompt[T any](prompt string) AskOption[T] {
	return func(c *askConfig[T]) {
		c.systemPrompt = prompt
	}
}

// WithResponseSchema constrains the model output to schema, typically built by gollem.ToSchema.
func WithResponseSchema[T any](schema *gollem.Parameter) AskOption[T] {
	return func(c *askConfig[T]) {
		c.schema = schema
	}
}

// Ask sends prompt in JSON mode and decodes the first text part into T. Empty, undecodable or
// invalid responses are retried in the same session with a correction prompt.
func Ask[T any](ctx context.Context, llm gollem.LLMClient, prompt string, opts ...AskOption[T]) (*T, error) {
	logger := logging.From(ctx)

	config := &askConfig[T]{
		maxRetry: 3,
		retryPrompt: func(ctx context.Context, err error) string {
			return "Invalid response. Please try again: " + err.Error()
		},
	}
	for _, opt := range opts {
		opt(config)
	}

	sessionOpts := []gollem.SessionOption{gollem.WithSessionContentType(gollem.ContentTypeJSON)}
	if config.schema != nil {
		sessionOpts = append(sessionOpts, gollem.WithSessionResponseSchema(config.schema))
	}
	if config.systemPrompt != "" {
		sessionOpts = append(sessionOpts, gollem.WithSessionSystemPrompt(config.systemPrompt))
	}

	ssn, err := llm.NewSession(ctx, sessionOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create session")
	}

	var lastErr error
	for i := 0; i < config.maxRetry; i++ {
		resp, err := ssn.GenerateContent(ctx, gollem.Text(prompt))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to send message")
		}

		if len(resp.Texts) == 0 || strings.TrimSpace(resp.Texts[0]) == "" {
			lastErr = goerr.New("empty response")
			logger.Debug("empty response from LLM", "attempt", i+1, "max_retry", config.maxRetry)
			prompt = config.retryPrompt(ctx, lastErr)
			continue
		}

		text := StripCodeFence(resp.Texts[0])

		var result T
		if err := sonic.UnmarshalString(text, &result); err != nil {
			lastErr = err
			logger.Debug("failed to unmarshal text", "text", text, "error", err, "attempt", i+1)
			prompt = config.retryPrompt(ctx, err)
			continue
		}

		if config.validate != nil {
			if err := config.validate(result); err != nil {
				lastErr = err
				logger.Debug("invalid response from LLM", "text", text, "error", err, "attempt", i+1)
				prompt = config.retryPrompt(ctx, err)
				continue
			}
		}

		return &result, nil
	}

	if lastErr == nil {
		lastErr = goerr.New("no attempt made")
	}
	return nil, goerr.Wrap(lastErr, "failed to get valid response from LLM",
		goerr.V("max_retry", config.maxRetry), goerr.T(errs.TagInvalidLLMResponse))
}

// StripCodeFence removes a surrounding ```json ... ``` fence if the model added one.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
