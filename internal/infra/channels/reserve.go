// Package channels implements the three settlement legs. Every variant
// honors the same contract: decide independently whether to skip, never let
// an internal failure escape as an error — a leg's problems become a FAILED
// result, not an aborted sibling.
package channels

import (
	"context"
	"fmt"

	"github.com/splitflow/splitflow/internal/domain"
)

// ReserveChannel is bookkeeping only: it records how much of the incoming
// payment must stay available to cover the known fulfillment cost. No
// external call is ever made.
type ReserveChannel struct{}

// NewReserveChannel creates the reserve leg.
func NewReserveChannel() *ReserveChannel { return &ReserveChannel{} }

// Kind implements domain.Channel.
func (c *ReserveChannel) Kind() domain.ChannelKind { return domain.ChannelReserve }

// Execute reserves the allocated amount. A negative amount can only come
// from a broken allocator, which is a bug worth surfacing loudly in the
// result rather than silently reserving.
func (c *ReserveChannel) Execute(_ context.Context, amount domain.Money) domain.PayoutResult {
	if amount.IsNegative() {
		return domain.Failed(fmt.Errorf("%w: reserve allocation %s", domain.ErrNegativeAmount, amount))
	}
	if !amount.IsPositive() {
		return domain.Skipped("nothing allocated")
	}
	return domain.Reserved(fmt.Sprintf("%s held to cover fulfillment cost", amount))
}
