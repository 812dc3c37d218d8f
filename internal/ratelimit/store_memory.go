package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps one sliding window per key. It is per-process; use
// RedisStore when several replicas serve the same dispatcher.
type InMemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{windows: make(map[string][]time.Time), now: time.Now}
}

func (s *InMemoryStore) Allow(_ context.Context, key string, p Policy) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stamps := prune(s.windows[key], now.Add(-p.Window))

	if len(stamps) >= p.Limit {
		s.windows[key] = stamps
		resetAt := stamps[0].Add(p.Window)
		return &Result{Allowed: false, Limit: p.Limit, ResetAt: resetAt, RetryAfter: retryAfter(resetAt, now)}, nil
	}

	stamps = append(stamps, now)
	s.windows[key] = stamps
	return &Result{
		Allowed:   true,
		Limit:     p.Limit,
		Remaining: p.Limit - len(stamps),
		ResetAt:   stamps[0].Add(p.Window),
	}, nil
}

// prune drops stamps at or before cutoff; stamps are in arrival order.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	return stamps[i:]
}
