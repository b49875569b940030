// Package money holds integer-cent arithmetic shared by the commission engine.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// PercentOf returns amount*pct/100 rounded half-up to the nearest cent.
// amount must be non-negative.
func PercentOf(amount int64, pct decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(pct).Shift(-2).Round(0).IntPart()
}

// ValidPercentage reports whether pct lies in [0, 100].
func ValidPercentage(pct decimal.Decimal) bool {
	return !pct.IsNegative() && pct.LessThanOrEqual(hundred)
}

// SplitByShare splits total into the share owed to the payee (pct of total,
// rounded half-up) and the remainder. The remainder side absorbs rounding.
func SplitByShare(total int64, pct decimal.Decimal) (share, remainder int64) {
	share = PercentOf(total, pct)
	return share, total - share
}
