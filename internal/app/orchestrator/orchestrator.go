// Package orchestrator coordinates one settlement: validate the incoming
// payment, consult the idempotency guard, allocate across channels, fan out
// to each leg, and aggregate the report.
//
// Lifecycle per call:
//  1. Validate (payment id, finite positive amount, currency)
//  2. Guard check-and-reserve — duplicates short-circuit with deduped=true
//  3. Allocate per configured weights
//  4. Dispatch every channel concurrently; failures stay inside their leg
//  5. Aggregate into a SettlementReport, persist, emit to the log sink
//
// Past the guard the call never fails: channel-level problems are carried
// in the report, not raised.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/splitflow/splitflow/internal/domain"
	"github.com/splitflow/splitflow/internal/infra/observability"
)

// Orchestrator is the settlement coordinator.
type Orchestrator struct {
	guard    domain.Guard
	weights  domain.AllocationWeights
	channels []domain.Channel
	store    domain.SettlementStore // optional
	sink     domain.LogSink         // optional
}

// New creates an orchestrator over the given guard, weights and channels.
func New(guard domain.Guard, weights domain.AllocationWeights, channels ...domain.Channel) *Orchestrator {
	return &Orchestrator{guard: guard, weights: weights, channels: channels}
}

// SetStore attaches report persistence.
func (o *Orchestrator) SetStore(store domain.SettlementStore) { o.store = store }

// SetSink attaches the best-effort log sink.
func (o *Orchestrator) SetSink(sink domain.LogSink) { o.sink = sink }

// Settle runs one settlement. The returned error is non-nil only for input
// validation problems or an unreachable guard — anything after the dedup
// check is reported inside the SettlementReport.
func (o *Orchestrator) Settle(ctx context.Context, paymentID string, amount float64, currency string) (domain.SettlementReport, error) {
	start := time.Now()

	if err := validate(paymentID, amount, currency); err != nil {
		observability.SettlementsTotal.WithLabelValues("invalid").Inc()
		return domain.SettlementReport{}, err
	}
	input := domain.MoneyFromFloat(amount, currency)

	first, err := o.guard.CheckAndReserve(ctx, paymentID)
	if err != nil {
		// Without a guard answer we cannot rule out double-processing;
		// refusing the settlement is the only safe outcome.
		return domain.SettlementReport{}, fmt.Errorf("%w: %v", domain.ErrGuardUnavailable, err)
	}
	if !first {
		observability.DedupHits.Inc()
		observability.SettlementsTotal.WithLabelValues("deduped").Inc()
		log.Printf("[orchestrator] duplicate delivery of %s, short-circuiting", paymentID)

		report := domain.DedupedReport(paymentID, input, time.Since(start).Milliseconds())
		o.emit("settlement_deduped", map[string]any{"payment_id": paymentID})
		return report, nil
	}

	allocation := domain.Allocate(input, o.weights)
	log.Printf("[orchestrator] settling %s: %s → reserve %s / onchain %s / profit %s",
		paymentID, input, allocation.Reserve, allocation.OnChain, allocation.Profit)

	results := o.dispatch(ctx, allocation)

	report := domain.SettlementReport{
		PaymentID: paymentID,
		Input:     input,
		PerChannel: map[domain.ChannelKind]domain.Money{
			domain.ChannelReserve: allocation.Reserve,
			domain.ChannelOnChain: allocation.OnChain,
			domain.ChannelProfit:  allocation.Profit,
		},
		Results:    results,
		DurationMs: time.Since(start).Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}

	observability.SettlementsTotal.WithLabelValues("settled").Inc()
	observability.SettlementDuration.Observe(time.Since(start).Seconds())
	for ch, res := range results {
		observability.ChannelResults.WithLabelValues(string(ch), string(res.Kind)).Inc()
	}

	if o.store != nil {
		if err := o.store.SaveReport(report); err != nil {
			// Persistence is audit, not correctness; the report still
			// returns to the caller.
			log.Printf("[orchestrator] persist report for %s failed: %v", paymentID, err)
		}
	}
	o.emit("settlement_completed", map[string]any{
		"payment_id":  paymentID,
		"duration_ms": report.DurationMs,
	})

	return report, nil
}

// dispatch runs every channel concurrently and joins the results. The legs
// are independent external calls; one leg's failure or panic never prevents
// the others from running.
func (o *Orchestrator) dispatch(ctx context.Context, allocation domain.Allocation) map[domain.ChannelKind]domain.PayoutResult {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[domain.ChannelKind]domain.PayoutResult, len(o.channels))
	)

	for _, ch := range o.channels {
		wg.Add(1)
		go func(ch domain.Channel) {
			defer wg.Done()

			result := func() (r domain.PayoutResult) {
				defer func() {
					if rec := recover(); rec != nil {
						log.Printf("[orchestrator] %s leg panicked: %v", ch.Kind(), rec)
						r = domain.Failed(fmt.Errorf("channel panic: %v", rec))
					}
				}()
				return ch.Execute(ctx, allocation.For(ch.Kind()))
			}()

			mu.Lock()
			results[ch.Kind()] = result
			mu.Unlock()
		}(ch)
	}
	wg.Wait()
	return results
}

// validate enforces the input contract: present payment id, finite positive
// amount, 3-letter currency code.
func validate(paymentID string, amount float64, currency string) error {
	if paymentID == "" {
		return domain.ErrInvalidPayment
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return domain.ErrNegativeAmount
	}
	if len(currency) != 3 {
		return domain.ErrInvalidCurrency
	}
	for _, r := range currency {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return domain.ErrInvalidCurrency
		}
	}
	return nil
}

func (o *Orchestrator) emit(stage string, data map[string]any) {
	if o.sink != nil {
		o.sink.Emit(stage, data)
	}
}
