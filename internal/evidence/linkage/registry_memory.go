package linkage

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// InMemoryRegistry holds linkage and income records in maps.
type InMemoryRegistry struct {
	mu      sync.RWMutex
	links   map[string]map[string]struct{}
	incomes map[string]decimal.Decimal
}

func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		links:   make(map[string]map[string]struct{}),
		incomes: make(map[string]decimal.Decimal),
	}
}

func (r *InMemoryRegistry) Link(primaryID, secondaryID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.links[primaryID] == nil {
		r.links[primaryID] = make(map[string]struct{})
	}
	r.links[primaryID][secondaryID] = struct{}{}
}

func (r *InMemoryRegistry) RecordIncome(primaryID string, amount decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.incomes[primaryID] = amount
}

func (r *InMemoryRegistry) IsLinked(_ context.Context, primaryID, secondaryID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.links[primaryID][secondaryID]
	return ok, nil
}

func (r *InMemoryRegistry) LookupKnownIncome(_ context.Context, primaryID string) (decimal.Decimal, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	amount, ok := r.incomes[primaryID]
	return amount, ok, nil
}
