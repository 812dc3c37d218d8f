package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"enrollment/internal/intake/models"
	"enrollment/pkg/platform/sentinel"
)

const (
	keyPrefix  = "intake:session:"
	lockPrefix = "intake:lock:"

	// defaultLockTTL outlives the slowest turn (OCR, LLM and filing
	// timeouts) so a healthy holder never loses the lock mid-turn.
	defaultLockTTL = 5 * time.Minute
	minLockBackoff = 10 * time.Millisecond
	maxLockBackoff = 250 * time.Millisecond
)

// ErrLockLost is returned when the lock expired while fn ran. Nothing is
// written in that case.
var ErrLockLost = errors.New("session lock expired before commit")

// releaseLock deletes the lock only if the caller still owns it.
var releaseLock = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// saveIfHeld writes the session only while ARGV[1] still owns the lock.
// ARGV[3] is the session TTL in milliseconds; 0 keeps the key forever.
var saveIfHeld = redis.NewScript(`
if redis.call('GET', KEYS[1]) ~= ARGV[1] then
	return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ttl)
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// RedisStore keeps sessions as JSON values shared by every replica.
// Execute holds a per-session lock (SET NX PX with an owner token) for the
// whole load, fn, save sequence, so fn runs exactly once per call and
// never alongside another turn of the same session.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
	now     func() time.Time
}

type RedisOption func(*RedisStore)

// WithLockTTL bounds how long a crashed holder can block a session.
func WithLockTTL(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		if d > 0 {
			s.lockTTL = d
		}
	}
}

func NewRedis(client *redis.Client, ttl time.Duration, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, ttl: ttl, lockTTL: defaultLockTTL, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Execute(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error) {
	token, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, id, token)

	working, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = s.now()
	payload, err := json.Marshal(working)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	saved, err := saveIfHeld.Run(ctx, s.client, []string{lockPrefix + id, keyPrefix + id},
		token, payload, s.ttl.Milliseconds()).Int()
	if err != nil {
		return nil, fmt.Errorf("save session: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	if saved != 1 {
		return nil, fmt.Errorf("session %s: %w", id, ErrLockLost)
	}
	return working, nil
}

// acquire waits for the session lock with capped exponential backoff until
// ctx is done.
func (s *RedisStore) acquire(ctx context.Context, id string) (string, error) {
	token := uuid.NewString()
	backoff := minLockBackoff
	for {
		ok, err := s.client.SetNX(ctx, lockPrefix+id, token, s.lockTTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("lock session %s: %w", id, ctx.Err())
			}
			return "", fmt.Errorf("lock session %s: %w", id, errors.Join(sentinel.ErrUnavailable, err))
		}
		if ok {
			return token, nil
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", fmt.Errorf("lock session %s: %w", id, ctx.Err())
		case <-timer.C:
		}
		backoff = min(backoff*2, maxLockBackoff)
	}
}

func (s *RedisStore) release(ctx context.Context, id, token string) {
	// The turn's context may already be cancelled; the lock must still go.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	_ = releaseLock.Run(rctx, s.client, []string{lockPrefix + id}, token).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) load(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.NewSession(id, s.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}
