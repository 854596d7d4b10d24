package dedup

import (
	"context"
	"fmt"
	"time"
)

// Reserver is the persistence primitive StoreGuard needs. *sqlite.DB
// satisfies it.
type Reserver interface {
	ReservePayment(paymentID string, ttl time.Duration) (bool, error)
}

// StoreGuard backs the guard with a durable store, so dedup state survives
// daemon restarts. The store's primary-key insert supplies atomicity.
type StoreGuard struct {
	store Reserver
	ttl   time.Duration
}

// NewStoreGuard creates a store-backed guard. ttl <= 0 uses DefaultTTL.
func NewStoreGuard(store Reserver, ttl time.Duration) *StoreGuard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StoreGuard{store: store, ttl: ttl}
}

// CheckAndReserve returns true exactly once per payment id per TTL window.
func (g *StoreGuard) CheckAndReserve(_ context.Context, paymentID string) (bool, error) {
	first, err := g.store.ReservePayment(paymentID, g.ttl)
	if err != nil {
		return false, fmt.Errorf("reserve %q: %w", paymentID, err)
	}
	return first, nil
}
