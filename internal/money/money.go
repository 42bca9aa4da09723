// Package money holds the decimal arithmetic and rounding policy shared by the
// ledger. All amounts are shopspring decimals; no float64 arithmetic happens in
// the core.
package money

import "github.com/shopspring/decimal"

// splitScale is the precision kept for per-share division. Shares like 100/3
// never terminate, so intermediate values keep well more precision than the
// two display places and are only rounded at presentation/storage boundaries.
const splitScale = 10

// Epsilon is half a currency subunit. Balances within Epsilon of zero are
// treated as zero, since repeated equal-split division leaves residues smaller
// than anything representable in the currency.
var Epsilon = decimal.NewFromFloat(0.005)

// Round2 rounds a value to 2 decimal places. Applied only at presentation and
// storage boundaries, never between netting steps.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// IsZero reports whether d is zero within Epsilon.
func IsZero(d decimal.Decimal) bool {
	return d.Abs().Cmp(Epsilon) < 0
}

// IsPositive reports whether d is a usable positive amount (strictly greater
// than zero, not just outside Epsilon — a recorded amount of 0.001 is invalid,
// not "approximately zero").
func IsPositive(d decimal.Decimal) bool {
	return d.Sign() > 0
}

// SplitEqual returns the per-share amount when total is divided across n
// sharers, at full intermediate precision. n must be positive; callers guard
// the zero-sharer case before dividing.
func SplitEqual(total decimal.Decimal, n int) decimal.Decimal {
	return total.DivRound(decimal.NewFromInt(int64(n)), splitScale)
}
