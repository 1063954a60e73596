// Package money provides the fixed-point helpers shared by the balance and
// settlement calculations and by every wire boundary.
//
// All amounts carry exactly two fraction digits. Rounding is half away from
// zero (12.345 -> 12.35, -12.345 -> -12.35), never banker's rounding.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fraction digits kept for every amount.
const Places = 2

var (
	// Cent is the smallest representable amount.
	Cent = decimal.New(1, -Places)

	// Zero is the zero amount.
	Zero = decimal.Zero

	// ErrInvalidAmount is returned when a string cannot be parsed as an amount.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Round rounds d to cents, ties away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Limits on what Parse accepts. Rounding expands the coefficient to the
// scale of the exponent, so both must be bounded before rounding.
const (
	maxInputLen = 64
	maxExponent = 12
	minExponent = -32
)

// Parse parses a decimal string ("12.34", "12,34", "7") and rounds it to cents.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	if len(s) > maxInputLen {
		return Zero, fmt.Errorf("%w: longer than %d characters", ErrInvalidAmount, maxInputLen)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if exp := d.Exponent(); exp > maxExponent || exp < minExponent {
		return Zero, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, s)
	}
	return Round(d), nil
}

// FromCents builds an amount from an integer number of cents.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -Places)
}

// Cents returns d as an integer number of cents after rounding.
func Cents(d decimal.Decimal) int64 {
	return Round(d).Shift(Places).IntPart()
}

// Format renders d with exactly two fraction digits.
func Format(d decimal.Decimal) string {
	return Round(d).StringFixed(Places)
}

// WithinTolerance reports whether |d| <= tol.
func WithinTolerance(d, tol decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(tol)
}
