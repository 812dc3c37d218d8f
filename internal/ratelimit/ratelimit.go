// Package ratelimit caps how often one client may open intake sessions and
// how fast one session may send messages, using sliding windows.
package ratelimit

import (
	"context"
	"time"
)

// Policy allows Limit requests per Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Enabled reports whether p limits anything.
func (p Policy) Enabled() bool {
	return p.Limit > 0 && p.Window > 0
}

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is set on refusals, in whole seconds.
	RetryAfter int
}

// Store counts requests per key.
type Store interface {
	Allow(ctx context.Context, key string, p Policy) (*Result, error)
}

func retryAfter(resetAt, now time.Time) int {
	secs := int(resetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
