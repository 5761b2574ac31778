package internal

import (
	"context"
	"time"
)

// defaultStoreTimeout bounds any single store call reached through WithTimeout.
const defaultStoreTimeout = 5 * time.Second

// WithTimeout bounds store calls; a zero or negative duration applies the
// default.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = defaultStoreTimeout
	}
	return context.WithTimeout(ctx, duration)
}
