// Package dedup implements the idempotency guard: an atomic check-and-reserve
// over payment ids that makes settlement exactly-once under at-least-once
// webhook delivery.
//
// Three variants, selected by configuration:
//   - MemoryGuard: mutex-guarded set, single-instance deployments
//   - StoreGuard:  sqlite-backed, survives restarts
//   - RedisGuard:  shared store, required when running more than one instance
package dedup

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL bounds reservation growth. It should cover the upstream rail's
// own webhook redelivery window with margin.
const DefaultTTL = 72 * time.Hour

// MemoryGuard is a process-lifetime guard. Check-and-insert happens inside a
// single critical section so two concurrent deliveries of the same payment id
// cannot both pass.
type MemoryGuard struct {
	mu   sync.Mutex
	seen map[string]time.Time // payment id → expiry
	ttl  time.Duration
}

// NewMemoryGuard creates an in-memory guard. ttl <= 0 uses DefaultTTL.
func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryGuard{seen: make(map[string]time.Time), ttl: ttl}
}

// CheckAndReserve returns true exactly once per payment id per TTL window.
func (g *MemoryGuard) CheckAndReserve(_ context.Context, paymentID string) (bool, error) {
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if expiry, ok := g.seen[paymentID]; ok && now.Before(expiry) {
		return false, nil
	}
	g.seen[paymentID] = now.Add(g.ttl)

	// Opportunistic sweep keeps the set bounded without a background task.
	if len(g.seen) > 10_000 {
		for id, expiry := range g.seen {
			if now.After(expiry) {
				delete(g.seen, id)
			}
		}
	}
	return true, nil
}

// Len returns the number of tracked ids (test/diagnostic).
func (g *MemoryGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}
