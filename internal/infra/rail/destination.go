// Package rail holds the HTTP clients for the external payment rails and
// the payout destination resolution chain.
package rail

import (
	"fmt"

	"github.com/splitflow/splitflow/internal/domain"
)

// Destination identifier kinds, in default precedence order.
const (
	DestAddressBook = "address-book-id"
	DestWallet      = "wallet-id"
	DestRawAddress  = "raw-address"
)

// DefaultPrecedence is used when configuration does not override the order.
func DefaultPrecedence() []string {
	return []string{DestAddressBook, DestWallet, DestRawAddress}
}

// DestinationConfig holds the configured payout destination identifiers.
// Resolution tries each kind in precedence order; the first one configured
// wins.
type DestinationConfig struct {
	AddressBookID string
	WalletID      string
	Address       string
	Chain         string   // required with Address
	Precedence    []string // identifier kinds; empty means DefaultPrecedence
}

// Resolve returns the destination for payout requests, or
// domain.ErrMissingDestination when no identifier is configured.
func (c DestinationConfig) Resolve() (domain.Destination, error) {
	precedence := c.Precedence
	if len(precedence) == 0 {
		precedence = DefaultPrecedence()
	}

	resolvers := map[string]func() (domain.Destination, bool){
		DestAddressBook: func() (domain.Destination, bool) {
			return domain.Destination{AddressBookID: c.AddressBookID}, c.AddressBookID != ""
		},
		DestWallet: func() (domain.Destination, bool) {
			return domain.Destination{WalletID: c.WalletID}, c.WalletID != ""
		},
		DestRawAddress: func() (domain.Destination, bool) {
			return domain.Destination{Address: c.Address, Chain: c.Chain}, c.Address != ""
		},
	}

	for _, kind := range precedence {
		resolve, ok := resolvers[kind]
		if !ok {
			return domain.Destination{}, fmt.Errorf("unknown destination kind %q in precedence", kind)
		}
		if dest, ok := resolve(); ok {
			return dest, nil
		}
	}
	return domain.Destination{}, domain.ErrMissingDestination
}
