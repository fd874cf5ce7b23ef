package errs

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/utils/logging"
	"github.com/secmon-lab/starfinder/pkg/utils/request_id"
)

// Handle logs err and reports it to Sentry with the request ID and goerr values attached.
func Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "[CRITICAL] panic while handling error: error=%s panic=%v\n", err.Error(), r)
		}
	}()

	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		if reqID := request_id.FromContext(ctx); reqID != "" {
			scope.SetTag("request_id", reqID)
		}
		for k, v := range goerr.Values(err) {
			scope.SetExtra(k, v)
		}
	})
	evID := hub.CaptureException(err)

	logging.From(ctx).Error("Error: "+err.Error(),
		logging.ErrAttr(err),
		slog.Any("sentry.id", evID),
	)
}
