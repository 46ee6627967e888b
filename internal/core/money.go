// Package core provides the transaction record and the pure reports derived
// from a list of transactions.
//
// This file contains amount parsing and formatting. Amounts are kept as
// decimals so that sums are exact.
package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Bounds on an amount: at most MaxAmountDigits significant digits, and a
// decimal exponent within ±MaxAmountExponent.
const (
	MaxAmountDigits   = 38
	MaxAmountExponent = 38
)

// ParseAmount converts a decimal string to an amount.
//
// Leading and trailing blanks are ignored, a sign is allowed and exponent
// notation is accepted. Empty strings, anything that is not a finite number
// and amounts outside the bounds above fail with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")   -> 12.34, nil
//	ParseAmount("-250.50") -> -250.5, nil
//	ParseAmount("1e3")     -> 1000, nil
//	ParseAmount("abc")     -> 0, ErrInvalidAmount
//	ParseAmount("1e500")   -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return checkBounds(d)
}

// checkBounds rejects amounts whose textual form or arithmetic would grow
// without limit.
func checkBounds(d decimal.Decimal) (decimal.Decimal, error) {
	if exp := d.Exponent(); exp > MaxAmountExponent || exp < -MaxAmountExponent {
		return decimal.Zero, fmt.Errorf("%w: exponent %d out of range", ErrInvalidAmount, exp)
	}
	if n := d.NumDigits(); n > MaxAmountDigits {
		return decimal.Zero, fmt.Errorf("%w: %d digits, at most %d", ErrInvalidAmount, n, MaxAmountDigits)
	}
	return d, nil
}

// FormatAmount returns the natural textual form used in storage: no trailing
// zeros, no fixed precision.
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}

// FormatFixed returns the amount rounded to two decimals, for display.
func FormatFixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toDecimal[T Amount](v T) (decimal.Decimal, error) {
	switch x := any(v).(type) {
	case decimal.Decimal:
		return checkBounds(x)
	case string:
		return ParseAmount(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, x)
		}
		return checkBounds(decimal.NewFromFloat(x))
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	}
	return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, v)
}
