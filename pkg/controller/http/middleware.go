package http

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/utils/request_id"
)

const requestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

// requestIDMiddleware binds the caller's X-Request-ID, or a generated one, to the request
// context and echoes it in the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			ctx, id = request_id.Generate(ctx)
		} else {
			ctx = request_id.With(ctx, id)
		}

		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func panicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				panicErr := goerr.New("panic recovered",
					goerr.V("panic", fmt.Sprintf("%v", err)),
					goerr.V("debug_stack", string(debug.Stack())),
					goerr.V("method", r.Method),
					goerr.V("path", r.URL.Path),
					goerr.T(errs.TagInternal),
				)

				handleError(w, r, panicErr)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
