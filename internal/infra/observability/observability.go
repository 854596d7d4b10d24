// Package observability exposes Prometheus metrics for the settlement
// pipeline. Collectors are package-level promauto vars; the /metrics
// endpoint is mounted by the API server when enabled.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Settlement Metrics ─────────────────────────────────────────────────────

// SettlementsTotal counts orchestration calls by outcome
// (settled, deduped, invalid).
var SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "splitflow",
	Subsystem: "settlement",
	Name:      "total",
	Help:      "Total settlement calls by outcome.",
}, []string{"outcome"})

// SettlementDuration tracks orchestration wall-clock duration.
var SettlementDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "splitflow",
	Subsystem: "settlement",
	Name:      "duration_seconds",
	Help:      "Wall-clock duration of a full settlement call.",
	Buckets:   []float64{0.05, 0.1, 0.5, 1, 3, 10, 30, 60, 120},
})

// DedupHits counts duplicate deliveries short-circuited by the guard.
var DedupHits = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "splitflow",
	Subsystem: "settlement",
	Name:      "dedup_hits_total",
	Help:      "Duplicate webhook deliveries short-circuited by the idempotency guard.",
})

// ─── Channel Metrics ────────────────────────────────────────────────────────

// ChannelResults counts leg outcomes by channel and result kind.
var ChannelResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "splitflow",
	Subsystem: "channel",
	Name:      "results_total",
	Help:      "Per-channel leg outcomes by result kind.",
}, []string{"channel", "result"})

// ─── Payout Metrics ─────────────────────────────────────────────────────────

// PayoutResolveSeconds tracks time from payout creation to terminal state.
var PayoutResolveSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "splitflow",
	Subsystem: "payout",
	Name:      "resolve_seconds",
	Help:      "Time for a payout request to reach a terminal state or time out.",
	Buckets:   []float64{1, 3, 6, 9, 15, 30, 60, 90, 120},
})
