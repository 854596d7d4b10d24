package domain

import "time"

// ─── Channel Types ──────────────────────────────────────────────────────────

// ChannelKind names a settlement leg.
type ChannelKind string

const (
	ChannelReserve ChannelKind = "reserve"
	ChannelOnChain ChannelKind = "onchain"
	ChannelProfit  ChannelKind = "profit"
)

// AllChannels lists the settlement legs in dispatch order.
func AllChannels() []ChannelKind {
	return []ChannelKind{ChannelReserve, ChannelOnChain, ChannelProfit}
}

// ─── Payout Result ──────────────────────────────────────────────────────────

// ResultKind tags a PayoutResult variant.
type ResultKind string

const (
	ResultSkipped   ResultKind = "SKIPPED"
	ResultReserved  ResultKind = "RESERVED"
	ResultSucceeded ResultKind = "SUCCEEDED"
	ResultFailed    ResultKind = "FAILED"
	ResultTimedOut  ResultKind = "TIMED_OUT"
)

// PayoutResult is the immutable outcome of one channel execution.
// Exactly one variant's fields are meaningful, selected by Kind.
type PayoutResult struct {
	Kind       ResultKind `json:"kind"`
	Reason     string     `json:"reason,omitempty"`      // SKIPPED
	Note       string     `json:"note,omitempty"`        // RESERVED
	ExternalID string     `json:"external_id,omitempty"` // SUCCEEDED
	Status     string     `json:"status,omitempty"`      // SUCCEEDED: terminal status; TIMED_OUT: last known status
	Error      string     `json:"error,omitempty"`       // FAILED
}

// Skipped marks a leg that decided not to attempt.
func Skipped(reason string) PayoutResult {
	return PayoutResult{Kind: ResultSkipped, Reason: reason}
}

// Reserved marks a bookkeeping-only leg.
func Reserved(note string) PayoutResult {
	return PayoutResult{Kind: ResultReserved, Note: note}
}

// Succeeded marks a leg whose rail request reached a terminal success status.
func Succeeded(externalID, status string) PayoutResult {
	return PayoutResult{Kind: ResultSucceeded, ExternalID: externalID, Status: status}
}

// Failed marks a leg-scoped error. The error never propagates past the
// channel boundary.
func Failed(err error) PayoutResult {
	return PayoutResult{Kind: ResultFailed, Error: err.Error()}
}

// TimedOut marks a leg whose rail request never reached a terminal status
// within the polling window.
func TimedOut(externalID, lastStatus string) PayoutResult {
	return PayoutResult{Kind: ResultTimedOut, ExternalID: externalID, Status: lastStatus}
}

// Terminal reports whether no further transition can occur. All produced
// results are terminal; this exists for callers inspecting stored reports.
func (r PayoutResult) Terminal() bool { return r.Kind != "" }

// ─── Destination ────────────────────────────────────────────────────────────

// Destination identifies where a payout leg sends funds. Exactly one of the
// identifier fields is used per request; resolution precedence is decided by
// configuration (address-book id, then wallet id, then raw address).
type Destination struct {
	AddressBookID string `json:"address_book_id,omitempty"`
	WalletID      string `json:"wallet_id,omitempty"`
	Address       string `json:"address,omitempty"`
	Chain         string `json:"chain,omitempty"` // only with Address
}

// IsZero reports whether no identifier is set.
func (d Destination) IsZero() bool {
	return d.AddressBookID == "" && d.WalletID == "" && d.Address == ""
}

// ─── Payout Request ─────────────────────────────────────────────────────────

// PayoutRequest is one rail call. IdempotencyKey is a fresh random token per
// request — distinct from the payment id — so the orchestrator's own retries
// cannot double-execute against the external rail.
type PayoutRequest struct {
	Channel        ChannelKind `json:"channel"`
	Destination    Destination `json:"destination"`
	Amount         Money       `json:"amount"`
	IdempotencyKey string      `json:"idempotency_key"`
}

// ─── Allocation ─────────────────────────────────────────────────────────────

// Allocation is the per-channel split of one incoming payment.
type Allocation struct {
	Reserve Money `json:"reserve"`
	OnChain Money `json:"onchain"`
	Profit  Money `json:"profit"`
}

// For returns the amount allocated to the given channel.
func (a Allocation) For(ch ChannelKind) Money {
	switch ch {
	case ChannelReserve:
		return a.Reserve
	case ChannelOnChain:
		return a.OnChain
	default:
		return a.Profit
	}
}

// ─── Settlement Report ──────────────────────────────────────────────────────

// SettlementReport is the aggregated outcome of one orchestration call.
// It is produced once and never mutated after return.
type SettlementReport struct {
	PaymentID  string                       `json:"payment_id"`
	Input      Money                        `json:"input"`
	PerChannel map[ChannelKind]Money        `json:"per_channel,omitempty"`
	Results    map[ChannelKind]PayoutResult `json:"results"`
	DurationMs int64                        `json:"duration_ms"`
	Deduped    bool                         `json:"deduped"`
	CreatedAt  time.Time                    `json:"created_at"`
}

// DedupedReport builds the short-circuit report for a duplicate delivery:
// every channel is marked skipped and no rail is touched.
func DedupedReport(paymentID string, input Money, durationMs int64) SettlementReport {
	results := make(map[ChannelKind]PayoutResult, 3)
	for _, ch := range AllChannels() {
		results[ch] = Skipped("duplicate payment")
	}
	return SettlementReport{
		PaymentID:  paymentID,
		Input:      input,
		Results:    results,
		DurationMs: durationMs,
		Deduped:    true,
		CreatedAt:  time.Now().UTC(),
	}
}
