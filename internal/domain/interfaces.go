package domain

import "context"

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// Guard is the idempotency check-and-reserve boundary. CheckAndReserve must
// be a single atomic check-and-insert: under concurrent deliveries of the
// same payment id, exactly one caller observes first == true.
type Guard interface {
	CheckAndReserve(ctx context.Context, paymentID string) (first bool, err error)
}

// Channel executes one settlement leg. Implementations decide independently
// whether to skip (disabled, non-positive amount, missing destination) and
// must convert every internal failure into a FAILED result — a channel never
// returns an error that could abort its siblings.
type Channel interface {
	Kind() ChannelKind
	Execute(ctx context.Context, amount Money) PayoutResult
}

// CreatedPayout is the rail's answer to a payout creation.
type CreatedPayout struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// PayoutRail abstracts the external fiat/crypto payout service.
type PayoutRail interface {
	// CreatePayout issues a payout request. A non-2xx rail response is an
	// error; creation is never retried by the caller.
	CreatePayout(ctx context.Context, req PayoutRequest) (CreatedPayout, error)

	// GetPayout fetches the current status of a previously created payout.
	GetPayout(ctx context.Context, id string) (string, error)
}

// OnChainRail abstracts the on-chain settlement service. It accepts a
// destination address and amount and returns a transfer identifier.
type OnChainRail interface {
	Transfer(ctx context.Context, address string, amount Money) (string, error)
}

// LogSink receives best-effort stage events. Emit must not block the caller
// beyond a short bound and its failures are swallowed.
type LogSink interface {
	Emit(stage string, data map[string]any)
}

// SettlementStore persists settlement reports for replay and audit.
type SettlementStore interface {
	SaveReport(report SettlementReport) error
	GetReport(paymentID string) (*SettlementReport, error)
	ListReports(limit int) ([]SettlementReport, error)
}
