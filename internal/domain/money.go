// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing
// but the decimal arithmetic library.
package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ─── Money ──────────────────────────────────────────────────────────────────

// Money is an amount in a specific currency. Amounts are exact decimals;
// binary floating point never touches settlement arithmetic.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"` // ISO 4217 code, uppercase
}

// NewMoney creates a Money value. The currency code is normalized to
// uppercase so "eur" and "EUR" compare equal.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{
		Amount:   amount,
		Currency: strings.ToUpper(strings.TrimSpace(currency)),
	}
}

// MoneyFromFloat creates a Money value from a float64 amount.
// Intended for API ingress only; internal arithmetic stays decimal.
func MoneyFromFloat(amount float64, currency string) Money {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

// Add returns m + other. Currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Mul returns m scaled by factor, unrounded.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(factor), Currency: m.Currency}
}

// Round2 rounds to 2 decimal places, half away from zero.
func (m Money) Round2() Money {
	return Money{Amount: m.Amount.Round(2), Currency: m.Currency}
}

// IsPositive returns true if the amount is > 0.
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }

// IsNegative returns true if the amount is < 0.
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// Equal compares amount and currency.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// String formats as "12.34 EUR".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}
