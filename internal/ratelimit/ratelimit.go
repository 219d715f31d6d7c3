// Package ratelimit enforces per-identity usage quotas over a fixed window:
// a caller gets at most N requests per window, and the N+1th fails until the
// window rolls over.
package ratelimit

import (
	"context"
	"time"
)

// Quota describes the fixed-window budget applied to each identity
type Quota struct {
	MaxRequests int
	Window      time.Duration
}

// Limiter checks and consumes quota for caller identities. Allow is atomic:
// concurrent calls for the same identity never overspend the quota.
type Limiter interface {
	// Allow consumes one unit of quota for the identity. It returns false
	// when the identity has exhausted its window budget.
	Allow(ctx context.Context, identity string) (bool, error)

	// Stats returns current limiter statistics for the stats endpoint
	Stats(ctx context.Context) map[string]any

	// Close releases limiter resources
	Close() error
}

// windowStart truncates t to the start of its quota window
func windowStart(t time.Time, window time.Duration) time.Time {
	return t.Truncate(window)
}
