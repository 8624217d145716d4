package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseCents converts decimal string amounts (major units) to minor units.
// The Storefront API reports money as strings like "299.99"; parsing through
// decimal keeps the conversion exact where float math would drift.
// Examples: "299.99" → 29999, "10" → 1000, "" → 0, "abc" → 0
func ParseCents(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.Shift(2).Round(0).IntPart()
}

// FormatAmount renders minor units as a fixed two-decimal major-unit string.
// Examples: 59998 → "599.98", 5 → "0.05", -150 → "-1.50"
func FormatAmount(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// DiscountPercent returns the rounded percentage saved when compareAt > price.
// Returns 0 when there is no discount.
func DiscountPercent(price, compareAt int64) int {
	if compareAt <= 0 || compareAt <= price {
		return 0
	}
	saved := decimal.NewFromInt(compareAt - price)
	pct := saved.Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(compareAt))
	return int(pct.Round(0).IntPart())
}
