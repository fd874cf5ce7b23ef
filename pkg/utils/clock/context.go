package clock

import (
	"context"
	"time"
)

type ctxClockKey struct{}

type Clock func() time.Time

// Now returns the time from the clock bound to ctx, or time.Now.
func Now(ctx context.Context) time.Time {
	if c, ok := ctx.Value(ctxClockKey{}).(Clock); ok {
		return c()
	}
	return time.Now()
}

func Since(ctx context.Context, t time.Time) time.Duration {
	return Now(ctx).Sub(t)
}

func With(ctx context.Context, c Clock) context.Context {
	return context.WithValue(ctx, ctxClockKey{}, c)
}
