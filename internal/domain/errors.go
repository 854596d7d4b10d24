package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Input validation errors (fatal to the settlement call, mapped to 4xx)
	ErrInvalidPayment  = errors.New("payment id, amount and currency are required")
	ErrNegativeAmount  = errors.New("settlement amount must be positive")
	ErrInvalidCurrency = errors.New("currency must be a 3-letter ISO 4217 code")

	// Channel-scoped errors (surfaced inside a single channel's result)
	ErrChannelDisabled    = errors.New("channel disabled by configuration")
	ErrMissingDestination = errors.New("no payout destination configured")

	// Rail errors
	ErrRailUnavailable = errors.New("payout rail unreachable")

	// Guard errors
	ErrGuardUnavailable = errors.New("idempotency store unreachable")
)
