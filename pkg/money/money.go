// Package money represents currency values as integer minor units so cart
// arithmetic never drifts. Decimal conversion happens only at the edges.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by an Amount.
const Scale = 2

// Amount is a non-currency-specific value in minor units (cents).
type Amount int64

// MaxAmount is the largest accepted value, 1,000,000,000.00. Cart bounds on
// quantities and lines keep every product of amounts within int64.
const MaxAmount Amount = 100_000_000_000

var (
	ErrNegative  = fmt.Errorf("amount must not be negative")
	ErrPrecision = fmt.Errorf("amount supports at most %d decimal places", Scale)
	ErrRange     = fmt.Errorf("amount must not exceed %s", MaxAmount)
)

// FromCents wraps a raw minor-unit value.
func FromCents(cents int64) Amount {
	return Amount(cents)
}

// ParseAmount parses a decimal string such as "10", "10.5" or "10.50".
func ParseAmount(raw string) (Amount, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("amount is required")
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return FromDecimal(d)
}

// FromDecimal converts a decimal value into minor units.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return 0, ErrNegative
	}
	shifted := d.Shift(Scale)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, ErrPrecision
	}
	if shifted.GreaterThan(decimal.NewFromInt(int64(MaxAmount))) {
		return 0, ErrRange
	}
	return Amount(shifted.IntPart()), nil
}

// Cents returns the raw minor-unit value.
func (a Amount) Cents() int64 {
	return int64(a)
}

// Valid reports whether a lies in [0, MaxAmount].
func (a Amount) Valid() bool {
	return a >= 0 && a <= MaxAmount
}

// Times multiplies the amount by a quantity. Callers keep both operands
// bounded; see MaxAmount.
func (a Amount) Times(qty int) Amount {
	return a * Amount(qty)
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// String renders the plain decimal form, e.g. "1234.56". Locale formatting is left to callers.
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}
