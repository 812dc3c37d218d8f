// Package prefill reads identity records that an earlier channel (the
// eligibility check or a previous visit) left behind for a session.
package prefill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"enrollment/internal/intake/models"
	"enrollment/pkg/platform/sentinel"
)

const keyPrefix = "intake:prefill:"

// RedisSource reads records written under intake:prefill:<session id>.
type RedisSource struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSource(client *redis.Client, ttl time.Duration) *RedisSource {
	return &RedisSource{client: client, ttl: ttl}
}

func (s *RedisSource) Lookup(ctx context.Context, sessionID string) (*models.IdentityRecord, bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup prefill: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	var rec models.IdentityRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, fmt.Errorf("decode prefill: %w", err)
	}
	return &rec, true, nil
}

// Save writes a record for sessionID.
func (s *RedisSource) Save(ctx context.Context, sessionID string, rec models.IdentityRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode prefill: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+sessionID, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save prefill: %w", err)
	}
	return nil
}

// InMemorySource is the process-local variant.
type InMemorySource struct {
	mu      sync.RWMutex
	records map[string]models.IdentityRecord
}

func NewInMemorySource() *InMemorySource {
	return &InMemorySource{records: make(map[string]models.IdentityRecord)}
}

func (s *InMemorySource) Lookup(_ context.Context, sessionID string) (*models.IdentityRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[sessionID]
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

func (s *InMemorySource) Save(_ context.Context, sessionID string, rec models.IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[sessionID] = rec
	return nil
}
