// Package cache provides the in-memory balance cache: customer ID to the last
// observed points balance. Entries are created or overwritten, never deleted.
package cache

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type entry struct {
	points    decimal.Decimal
	updatedAt time.Time
}

// Balances is a thread-safe map of customer ID to last observed balance.
type Balances struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New creates an empty balance cache.
func New() *Balances {
	return &Balances{entries: make(map[string]entry)}
}

// Get returns the cached balance for id and whether an entry exists.
func (b *Balances) Get(id string) (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[id]
	if !ok {
		return decimal.Zero, false
	}
	return e.points, true
}

// Set stores points for id, overwriting any previous value.
func (b *Balances) Set(id string, points decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[id] = entry{points: points, updatedAt: time.Now()}
}

// Len returns the number of tracked customers.
func (b *Balances) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Snapshot returns a copy of all cached balances.
func (b *Balances) Snapshot() map[string]decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(b.entries))
	for id, e := range b.entries {
		out[id] = e.points
	}
	return out
}

// Stats returns cache statistics.
func (b *Balances) Stats() map[string]interface{} {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var newest time.Time
	for _, e := range b.entries {
		if e.updatedAt.After(newest) {
			newest = e.updatedAt
		}
	}
	stats := map[string]interface{}{
		"tracked_customers": len(b.entries),
	}
	if !newest.IsZero() {
		stats["last_updated"] = newest.UTC().Format(time.RFC3339)
	}
	return stats
}
