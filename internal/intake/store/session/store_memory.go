// Package session persists intake sessions. Both stores run a mutation
// under a per-session guard and write the result only when it succeeds.
package session

import (
	"context"
	"sync"
	"time"

	"enrollment/internal/intake/models"
	dErrors "enrollment/pkg/domain-errors"
	"enrollment/pkg/platform/sentinel"
)

// numShards spreads the session index so lookups of different sessions
// rarely share a map lock.
const numShards = 128

type entry struct {
	mu      sync.Mutex
	session *models.Session
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// InMemoryStore keeps sessions in process. Each session has its own mutex,
// so a slow mutation (OCR) on one session never blocks another.
type InMemoryStore struct {
	shards [numShards]shard
	now    func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{now: time.Now}
	for i := range s.shards {
		s.shards[i].entries = make(map[string]*entry)
	}
	return s
}

// Execute loads the session (creating it on first contact), runs fn on a
// copy under the session lock, and stores the copy only if fn succeeds.
func (s *InMemoryStore) Execute(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "session update aborted")
	}

	e := s.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "session update aborted")
	}

	var working *models.Session
	if e.session != nil {
		working = e.session.Clone()
	} else {
		working = models.NewSession(id, s.now())
	}
	if err := fn(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = s.now()
	e.session = working.Clone()
	return working, nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	e, ok := sh.entries[id]
	sh.mu.Unlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, sentinel.ErrNotFound
	}
	return e.session.Clone(), nil
}

func (s *InMemoryStore) entryFor(id string) *entry {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, ok := sh.entries[id]
	if !ok {
		e = &entry{}
		sh.entries[id] = e
	}
	return e
}

func (s *InMemoryStore) shardFor(id string) *shard {
	return &s.shards[hashString(id)%numShards]
}

// hashString is FNV-1a.
func hashString(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
