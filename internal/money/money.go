// Package money converts between display decimals and integer minor units.
// Conversion happens once at the edge of the core; everything stored or
// compared is an int64 count of minor units.
package money

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/ledger-core/internal/domain"
)

const defaultScale int32 = 2

var scales = map[domain.Currency]int32{
	"JPY": 0,
	"KRW": 0,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
}

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// Scale returns the number of minor-unit decimal places for a currency.
func Scale(c domain.Currency) int32 {
	if s, ok := scales[c]; ok {
		return s
	}
	return defaultScale
}

// ToMinor rounds amount to the nearest minor unit, halves away from zero
// (10.005 INR becomes 1001 paise).
func ToMinor(amount decimal.Decimal, c domain.Currency) (int64, error) {
	minor := amount.Shift(Scale(c)).Round(0)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, fmt.Errorf("ToMinor: %s out of range: %w", amount, domain.ErrInvalidAmount)
	}
	return minor.IntPart(), nil
}

// ParseMinor parses a decimal string and converts it with ToMinor.
func ParseMinor(s string, c domain.Currency) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("ParseMinor: %q: %w", s, domain.ErrInvalidAmount)
	}
	return ToMinor(d, c)
}

// ToMajor is for presentation only.
func ToMajor(minor int64, c domain.Currency) decimal.Decimal {
	return decimal.New(minor, -Scale(c))
}
