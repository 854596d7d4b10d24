package channels

import (
	"context"

	"github.com/google/uuid"

	"github.com/splitflow/splitflow/internal/app/payout"
	"github.com/splitflow/splitflow/internal/domain"
	"github.com/splitflow/splitflow/internal/infra/rail"
)

// FiatPayoutChannel sends the profit leg through the external payout rail,
// delegating terminal-status resolution to the payout state machine.
type FiatPayoutChannel struct {
	machine     *payout.Machine
	enabled     bool
	destination rail.DestinationConfig
}

// NewFiatPayoutChannel creates the fiat payout leg.
func NewFiatPayoutChannel(machine *payout.Machine, enabled bool, destination rail.DestinationConfig) *FiatPayoutChannel {
	return &FiatPayoutChannel{machine: machine, enabled: enabled, destination: destination}
}

// Kind implements domain.Channel.
func (c *FiatPayoutChannel) Kind() domain.ChannelKind { return domain.ChannelProfit }

// Execute resolves the destination, mints a fresh idempotency key for this
// attempt, and runs the request to a terminal result. The key is distinct
// from the payment id: it protects the rail from our own retries, and a
// caller-level retry of a failed leg must mint a new one.
func (c *FiatPayoutChannel) Execute(ctx context.Context, amount domain.Money) domain.PayoutResult {
	if !c.enabled {
		return domain.Skipped("fiat payouts disabled")
	}
	if !amount.IsPositive() {
		return domain.Skipped("nothing allocated")
	}

	dest, err := c.destination.Resolve()
	if err != nil {
		return domain.Failed(err)
	}

	req := domain.PayoutRequest{
		Channel:        domain.ChannelProfit,
		Destination:    dest,
		Amount:         amount,
		IdempotencyKey: uuid.NewString(),
	}
	return c.machine.Run(ctx, req)
}
