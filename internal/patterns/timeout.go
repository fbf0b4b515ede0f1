package patterns

import (
	"context"
	"time"
)

// WithTimeout derives a context that fails fast after duration. A
// non-positive duration leaves the parent's deadline alone.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, duration)
}

// DefaultTimeout bounds row and auth calls to the hosted backend
const DefaultTimeout = 3 * time.Second

// SlowServiceTimeout bounds image uploads
const SlowServiceTimeout = 10 * time.Second
