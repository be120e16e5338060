package bonus

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SalesBonus applies the tier table to monthly sales. Tiers are walked in ascending
// min_sales order and the last tier still reached by sales sets the percent.
func SalesBonus(tiers []Tier, sales decimal.Decimal) decimal.Decimal {
	if !sales.IsPositive() {
		return decimal.Zero
	}
	ordered := make([]Tier, len(tiers))
	copy(ordered, tiers)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].MinSales.LessThan(ordered[j].MinSales) })

	applied := decimal.Zero
	for _, tier := range ordered {
		if sales.LessThan(tier.MinSales) {
			continue
		}
		applied = sales.Mul(tier.BonusPercent).Div(hundred)
	}
	return applied
}

// EvaluationBonus returns the amount of the range containing score, or zero.
func EvaluationBonus(ranges []EvaluationRange, score decimal.Decimal) decimal.Decimal {
	if score.IsZero() {
		return decimal.Zero
	}
	for _, r := range ranges {
		if score.GreaterThanOrEqual(r.MinValue) && score.LessThanOrEqual(r.MaxValue) {
			return r.Amount
		}
	}
	return decimal.Zero
}
