package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/secmon-lab/starfinder/pkg/utils/logging"
	"github.com/secmon-lab/starfinder/pkg/utils/request_id"
)

type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.From(r.Context()).With("request_id", request_id.FromContext(r.Context()))

		started := time.Now()
		sw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(logging.With(r.Context(), logger)))

		logger.Info("Access Log",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("query", r.URL.Query()),
			slog.Int("status", sw.status),
			slog.Duration("elapsed", time.Since(started)),
		)
	})
}
