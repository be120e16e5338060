package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/hrpanel/hrpanel/internal/bonus"
	"github.com/hrpanel/hrpanel/internal/shared"
)

var paidLeaveRate = decimal.RequireFromString("0.08")

// Compute produces the net salary breakdown for one manager. The net may be negative and
// no rounding is applied.
func Compute(in Inputs, tiers []bonus.Tier, ranges []bonus.EvaluationRange, ym shared.YearMonth) Breakdown {
	r := in.Resolve()
	years := Tenure(r.RecruitmentDate, ym)
	anniversary := ClassifyAnniversary(r.RecruitmentDate, years, ym)

	b := Breakdown{
		BaseSalary:         r.BaseSalary,
		MonthlySales:       r.MonthlySales,
		EvaluationScore:    r.EvaluationScore,
		SalesBonus:         bonus.SalesBonus(tiers, r.MonthlySales),
		EvaluationBonus:    bonus.EvaluationBonus(ranges, r.EvaluationScore),
		PaidLeave:          decimal.Zero,
		YearsBonus:         r.BaseSalary.Mul(decimal.NewFromInt(anniversary.Multiplier())),
		InventoryShortage:  r.InventoryShortage,
		SalaryAdvance:      r.SalaryAdvance,
		Sanctions:          r.Sanctions,
		RegisterDifference: r.RegisterDifference,
		EmploymentYears:    years,
		Anniversary:        anniversary,
	}
	if years >= 1 {
		b.PaidLeave = r.BaseSalary.Mul(paidLeaveRate)
	}
	b.NetSalary = b.BaseSalary.
		Add(b.SalesBonus).
		Add(b.EvaluationBonus).
		Add(b.PaidLeave).
		Add(b.YearsBonus).
		Sub(b.Deductions())
	return b
}
