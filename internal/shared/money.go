package shared

import "github.com/shopspring/decimal"

// Tolerance is the maximum absolute difference two monetary totals may show
// while still being considered equal. Amounts are exact to two decimals; the
// tolerance absorbs rounding at the last kept digit.
var Tolerance = decimal.New(1, -2)

// WithinTolerance reports whether a and b differ by at most Tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// Round2 normalises an amount to two decimal places.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}
