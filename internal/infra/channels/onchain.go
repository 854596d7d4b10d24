package channels

import (
	"context"
	"fmt"
	"log"

	"github.com/splitflow/splitflow/internal/domain"
)

// OnChainChannel fires and records a transfer intent against the on-chain
// rail. It is gated by an explicit enable flag and needs a destination
// address from configuration.
type OnChainChannel struct {
	rail    domain.OnChainRail
	enabled bool
	address string
}

// NewOnChainChannel creates the on-chain leg.
func NewOnChainChannel(rail domain.OnChainRail, enabled bool, address string) *OnChainChannel {
	return &OnChainChannel{rail: rail, enabled: enabled, address: address}
}

// Kind implements domain.Channel.
func (c *OnChainChannel) Kind() domain.ChannelKind { return domain.ChannelOnChain }

// Execute submits the transfer intent. Missing configuration is a FAILED
// result for this leg only — it must not abort the sibling channels.
func (c *OnChainChannel) Execute(ctx context.Context, amount domain.Money) domain.PayoutResult {
	if !c.enabled {
		return domain.Skipped("onchain transfers disabled")
	}
	if !amount.IsPositive() {
		return domain.Skipped("nothing allocated")
	}
	if c.address == "" {
		return domain.Failed(fmt.Errorf("%w: onchain destination address", domain.ErrMissingDestination))
	}

	txID, err := c.rail.Transfer(ctx, c.address, amount)
	if err != nil {
		log.Printf("[channel] onchain transfer of %s failed: %v", amount, err)
		return domain.Failed(err)
	}

	log.Printf("[channel] onchain transfer %s recorded for %s", txID, amount)
	return domain.Succeeded(txID, "submitted")
}
