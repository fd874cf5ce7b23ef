package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/starfinder/pkg/utils/logging"
)

func TestLoggerRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo, logging.FormatJSON, false)
	logger.Info("connect",
		slog.String("secret_password", "hunter2"),
		slog.String("warehouse", "clickhouse"),
	)

	gt.S(t, buf.String()).Contains("clickhouse").NotContains("hunter2")
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelWarn, logging.FormatJSON, false)
	logger.Info("not shown")
	logger.Warn("shown")

	gt.S(t, buf.String()).Contains("shown").NotContains("not shown")
}

func TestParseFormat(t *testing.T) {
	f, err := logging.ParseFormat("JSON")
	gt.NoError(t, err)
	gt.Equal(t, f, logging.FormatJSON)

	f, err = logging.ParseFormat("")
	gt.NoError(t, err)
	gt.Equal(t, f, logging.FormatConsole)

	_, err = logging.ParseFormat("xml")
	gt.Error(t, err)
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelDebug, logging.FormatJSON, false)

	ctx := logging.With(context.Background(), logger.With("request_id", "req-1"))
	logging.From(ctx).Debug("hello")

	gt.S(t, buf.String()).Contains("req-1").Contains("hello")
	gt.Equal(t, logging.From(context.Background()), logging.Default())
}
