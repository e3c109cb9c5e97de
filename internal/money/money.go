// Package money holds the rounding and conversion rules shared by the
// pricing, loyalty, and checkout packages. Amounts round to two decimal
// places and carbon/averages to four, both half up.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round2 rounds a monetary amount to two decimal places, half up.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// Round4 rounds carbon figures and lifetime averages to four decimal places.
func Round4(d decimal.Decimal) decimal.Decimal { return d.Round(4) }

// Percent returns pct percent of base, e.g. Percent(220, 18) == 39.60. The
// rate is resolved to four decimal places before multiplying so results stay
// stable for fractional percentages.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct.DivRound(hundred, 4))
}

// ClampMax caps d at max.
func ClampMax(d, max decimal.Decimal) decimal.Decimal {
	if d.GreaterThan(max) {
		return max
	}
	return d
}

// FloorZero raises negative values to zero.
func FloorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// MinorUnits converts an amount to its smallest currency unit (cents, paise)
// for payment gateways that refuse decimal amounts.
func MinorUnits(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FromPoints converts redeemed loyalty points to a monetary amount using the
// configured conversion rate (currency per point).
func FromPoints(points int, rate decimal.Decimal) decimal.Decimal {
	return Round2(decimal.NewFromInt(int64(points)).Mul(rate))
}
