// Package payout drives a single payout request from creation to a terminal
// state. Lifecycle: Created → Polling → {Succeeded | Failed | TimedOut}.
//
// The machine:
//  1. Issues the payout-create call with a fresh idempotency key
//  2. Polls the rail at a fixed interval until the status is terminal
//  3. Gives up at a bounded timeout, reporting the last observed status
//  4. Emits every status observation to the log sink, fire-and-forget
//
// Terminal states are final — no auto-retry. Retrying is a caller decision
// and requires a new idempotency key.
package payout

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/splitflow/splitflow/internal/domain"
	"github.com/splitflow/splitflow/internal/infra/observability"
)

// successStatuses is the rail status success set.
var successStatuses = map[string]bool{
	"paid":      true,
	"complete":  true,
	"completed": true,
	"confirmed": true,
	"succeeded": true,
	"success":   true,
}

// failureStatuses is the rail status failure set.
var failureStatuses = map[string]bool{
	"failed":    true,
	"rejected":  true,
	"canceled":  true,
	"cancelled": true,
	"error":     true,
}

// Config controls polling behavior.
type Config struct {
	PollInterval time.Duration // default 3s
	PollTimeout  time.Duration // default 90s
}

// DefaultConfig returns the production polling defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval: 3 * time.Second,
		PollTimeout:  90 * time.Second,
	}
}

// Machine resolves payout requests against a rail.
type Machine struct {
	rail domain.PayoutRail
	sink domain.LogSink
	cfg  Config
}

// NewMachine creates a payout state machine. sink may be nil.
func NewMachine(rail domain.PayoutRail, sink domain.LogSink, cfg Config) *Machine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultConfig().PollTimeout
	}
	return &Machine{rail: rail, sink: sink, cfg: cfg}
}

// Run executes the full lifecycle for one request and returns a terminal
// result. Cancelling ctx abandons in-flight polling — safe, because the rail
// retains the authoritative status; the leg is reported as timed out with
// the last status seen.
func (m *Machine) Run(ctx context.Context, req domain.PayoutRequest) domain.PayoutResult {
	start := time.Now()
	defer func() {
		observability.PayoutResolveSeconds.Observe(time.Since(start).Seconds())
	}()

	// Created: a non-2xx creation response is fatal for this leg. Creation
	// is never retried — duplicate creation risk is worse than a failed leg.
	created, err := m.rail.CreatePayout(ctx, req)
	if err != nil {
		log.Printf("[payout] create failed for %s leg: %v", req.Channel, err)
		return domain.Failed(err)
	}

	m.emit("payout_created", map[string]any{
		"payout_id": created.ID,
		"channel":   string(req.Channel),
		"amount":    req.Amount.String(),
		"status":    created.Status,
	})

	if result, terminal := m.classify(created.ID, created.Status); terminal {
		return result
	}

	return m.poll(ctx, created)
}

// poll is the Polling state: fetch status at a fixed interval until terminal
// or the timeout elapses.
func (m *Machine) poll(ctx context.Context, created domain.CreatedPayout) domain.PayoutResult {
	deadline := time.NewTimer(m.cfg.PollTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(m.cfg.PollInterval)
	defer tick.Stop()

	lastStatus := created.Status

	for {
		select {
		case <-ctx.Done():
			log.Printf("[payout] %s polling abandoned: %v", created.ID, ctx.Err())
			return domain.TimedOut(created.ID, lastStatus)

		case <-deadline.C:
			log.Printf("[payout] %s timed out after %s, last status %q",
				created.ID, m.cfg.PollTimeout, lastStatus)
			return domain.TimedOut(created.ID, lastStatus)

		case <-tick.C:
			status, err := m.rail.GetPayout(ctx, created.ID)
			if err != nil {
				// A failed status fetch is not a failed payout. Keep
				// polling; the timeout bounds the overall wait.
				log.Printf("[payout] %s status fetch failed: %v", created.ID, err)
				continue
			}
			lastStatus = status

			m.emit("payout_status", map[string]any{
				"payout_id": created.ID,
				"status":    status,
			})

			if result, terminal := m.classify(created.ID, status); terminal {
				return result
			}
		}
	}
}

// classify maps a rail status onto a terminal result, if it is one.
func (m *Machine) classify(id, status string) (domain.PayoutResult, bool) {
	normalized := strings.ToLower(strings.TrimSpace(status))
	switch {
	case successStatuses[normalized]:
		return domain.Succeeded(id, normalized), true
	case failureStatuses[normalized]:
		return domain.Failed(fmt.Errorf("payout %s reached failure status %q", id, normalized)), true
	default:
		return domain.PayoutResult{}, false
	}
}

// emit forwards to the sink when one is attached. The sink's own contract
// keeps this non-blocking.
func (m *Machine) emit(stage string, data map[string]any) {
	if m.sink != nil {
		m.sink.Emit(stage, data)
	}
}
