package auction

import "github.com/shopspring/decimal"

const monetaryPrecision int32 = 2 // cents

// NormalizeAmount rounds a monetary value to cent precision.
func NormalizeAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(monetaryPrecision)
}

// Exceeds reports whether amount is strictly greater than floor once both
// are rounded to cents.  Bids equal to the floor never qualify.
func Exceeds(amount, floor decimal.Decimal) bool {
	return NormalizeAmount(amount).GreaterThan(NormalizeAmount(floor))
}

// FormatPrice renders an amount the way error messages show it.
func FormatPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(monetaryPrecision)
}
