package request_id

import (
	"context"

	"github.com/google/uuid"
)

type ctxRequestIDKey struct{}

func With(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey{}, requestID)
}

// FromContext returns the request ID bound to ctx, or an empty string.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxRequestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Generate binds a new random request ID to ctx.
func Generate(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return With(ctx, id), id
}
