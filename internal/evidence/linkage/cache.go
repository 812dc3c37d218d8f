package linkage

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

type cachedLink struct {
	linked   bool
	storedAt time.Time
}

type cachedIncome struct {
	amount   decimal.Decimal
	found    bool
	storedAt time.Time
}

// CachedRegistry fronts a Registry with a TTL cache. Concurrent misses for
// the same key share one upstream call. Errors are never cached.
type CachedRegistry struct {
	next    Registry
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group
	mu      sync.RWMutex
	links   map[string]cachedLink
	incomes map[string]cachedIncome
}

func NewCachedRegistry(next Registry, ttl time.Duration) *CachedRegistry {
	return &CachedRegistry{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		links:   make(map[string]cachedLink),
		incomes: make(map[string]cachedIncome),
	}
}

func (c *CachedRegistry) IsLinked(ctx context.Context, primaryID, secondaryID string) (bool, error) {
	key := primaryID + "|" + secondaryID
	c.mu.RLock()
	hit, ok := c.links[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(hit.storedAt) < c.ttl {
		return hit.linked, nil
	}

	v, err, _ := c.group.Do("link:"+key, func() (any, error) {
		linked, err := c.next.IsLinked(ctx, primaryID, secondaryID)
		if err != nil {
			return false, err
		}
		c.mu.Lock()
		c.links[key] = cachedLink{linked: linked, storedAt: c.now()}
		c.mu.Unlock()
		return linked, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (c *CachedRegistry) LookupKnownIncome(ctx context.Context, primaryID string) (decimal.Decimal, bool, error) {
	c.mu.RLock()
	hit, ok := c.incomes[primaryID]
	c.mu.RUnlock()
	if ok && c.now().Sub(hit.storedAt) < c.ttl {
		return hit.amount, hit.found, nil
	}

	v, err, _ := c.group.Do("income:"+primaryID, func() (any, error) {
		amount, found, err := c.next.LookupKnownIncome(ctx, primaryID)
		if err != nil {
			return cachedIncome{}, err
		}
		entry := cachedIncome{amount: amount, found: found, storedAt: c.now()}
		c.mu.Lock()
		c.incomes[primaryID] = entry
		c.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return decimal.Zero, false, err
	}
	entry := v.(cachedIncome)
	return entry.amount, entry.found, nil
}
