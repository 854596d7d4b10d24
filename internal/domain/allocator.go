package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// ─── Percentage Allocator ───────────────────────────────────────────────────
// Pure function: a total plus configured weights becomes a per-channel split.
// Deterministic, no side effects.

// AllocationWeights are the configured relative shares per channel. They need
// not sum to 1 — normalization happens at allocation time. Negative or
// non-finite entries are treated as zero.
type AllocationWeights struct {
	Reserve float64 `json:"reserve"`
	OnChain float64 `json:"onchain"`
	Profit  float64 `json:"profit"`
}

// DefaultWeights is the fallback split used when the configured weights are
// unusable: 50% reserve, 30% on-chain, 20% profit.
func DefaultWeights() AllocationWeights {
	return AllocationWeights{Reserve: 0.5, OnChain: 0.3, Profit: 0.2}
}

// sanitized clamps negative and non-finite entries to zero.
func (w AllocationWeights) sanitized() AllocationWeights {
	clamp := func(v float64) float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return 0
		}
		return v
	}
	return AllocationWeights{
		Reserve: clamp(w.Reserve),
		OnChain: clamp(w.OnChain),
		Profit:  clamp(w.Profit),
	}
}

// Allocate splits total across the three channels proportionally to weights.
// If the weight sum is non-finite or <= 0, DefaultWeights is substituted.
// Each share is rounded independently to 2 decimals (half away from zero).
//
// Known limitation: independent rounding means the three shares can drift
// from the total by up to one cent per channel. The remainder is NOT
// redistributed; callers that need exact-sum reconciliation must do it
// themselves.
func Allocate(total Money, weights AllocationWeights) Allocation {
	w := weights.sanitized()
	sum := w.Reserve + w.OnChain + w.Profit
	if math.IsNaN(sum) || math.IsInf(sum, 0) || sum <= 0 {
		w = DefaultWeights()
		sum = w.Reserve + w.OnChain + w.Profit
	}

	share := func(weight float64) Money {
		norm := decimal.NewFromFloat(weight).Div(decimal.NewFromFloat(sum))
		return total.Mul(norm).Round2()
	}

	return Allocation{
		Reserve: share(w.Reserve),
		OnChain: share(w.OnChain),
		Profit:  share(w.Profit),
	}
}
