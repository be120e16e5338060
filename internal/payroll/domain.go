package payroll

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hrpanel/hrpanel/internal/shared"
)

// ErrDatabase marks a query failure that aborted the whole report.
var ErrDatabase = errors.New("payroll: database error")

// ManagerRow is a manager joined with the shop they run.
type ManagerRow struct {
	EmployeeID      int64
	FullName        string
	ShopID          int64
	ShopName        string
	BaseSalary      decimal.NullDecimal
	RecruitmentDate *time.Time
}

// Inputs are the raw per-month values read for one manager. Every value may be missing.
type Inputs struct {
	BaseSalary         decimal.NullDecimal
	MonthlySales       decimal.NullDecimal
	EvaluationScore    decimal.NullDecimal
	SalaryAdvance      decimal.NullDecimal
	Sanctions          decimal.NullDecimal
	InventoryShortage  decimal.NullDecimal
	RegisterDifference decimal.NullDecimal
	RecruitmentDate    *time.Time
}

// Resolved holds Inputs after the zero-default policy: a missing value counts as zero.
type Resolved struct {
	BaseSalary         decimal.Decimal
	MonthlySales       decimal.Decimal
	EvaluationScore    decimal.Decimal
	SalaryAdvance      decimal.Decimal
	Sanctions          decimal.Decimal
	InventoryShortage  decimal.Decimal
	RegisterDifference decimal.Decimal
	RecruitmentDate    *time.Time
}

// Resolve applies the zero-default policy.
func (in Inputs) Resolve() Resolved {
	return Resolved{
		BaseSalary:         orZero(in.BaseSalary),
		MonthlySales:       orZero(in.MonthlySales),
		EvaluationScore:    orZero(in.EvaluationScore),
		SalaryAdvance:      orZero(in.SalaryAdvance),
		Sanctions:          orZero(in.Sanctions),
		InventoryShortage:  orZero(in.InventoryShortage),
		RegisterDifference: orZero(in.RegisterDifference),
		RecruitmentDate:    in.RecruitmentDate,
	}
}

func orZero(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}

// Anniversary classifies the years-of-service bonus for a month.
type Anniversary string

const (
	AnniversaryNone   Anniversary = ""
	AnniversaryYearly Anniversary = "yearly"
	AnniversaryFive   Anniversary = "five_year"
	AnniversaryTen    Anniversary = "ten_year"
)

// Multiplier is the number of base salaries paid for the anniversary.
func (a Anniversary) Multiplier() int64 {
	switch a {
	case AnniversaryTen:
		return 3
	case AnniversaryFive:
		return 2
	case AnniversaryYearly:
		return 1
	}
	return 0
}

// Breakdown is the net salary computation for one manager and month.
type Breakdown struct {
	BaseSalary         decimal.Decimal
	MonthlySales       decimal.Decimal
	EvaluationScore    decimal.Decimal
	SalesBonus         decimal.Decimal
	EvaluationBonus    decimal.Decimal
	PaidLeave          decimal.Decimal
	YearsBonus         decimal.Decimal
	InventoryShortage  decimal.Decimal
	SalaryAdvance      decimal.Decimal
	Sanctions          decimal.Decimal
	RegisterDifference decimal.Decimal
	NetSalary          decimal.Decimal
	EmploymentYears    int
	Anniversary        Anniversary
}

// Deductions sums every amount subtracted from the gross.
func (b Breakdown) Deductions() decimal.Decimal {
	return b.InventoryShortage.Add(b.SalaryAdvance).Add(b.Sanctions).Add(b.RegisterDifference)
}

// Add sums the money columns of two breakdowns. Tenure fields are not carried.
func (b Breakdown) Add(o Breakdown) Breakdown {
	return Breakdown{
		BaseSalary:         b.BaseSalary.Add(o.BaseSalary),
		MonthlySales:       b.MonthlySales.Add(o.MonthlySales),
		EvaluationScore:    b.EvaluationScore.Add(o.EvaluationScore),
		SalesBonus:         b.SalesBonus.Add(o.SalesBonus),
		EvaluationBonus:    b.EvaluationBonus.Add(o.EvaluationBonus),
		PaidLeave:          b.PaidLeave.Add(o.PaidLeave),
		YearsBonus:         b.YearsBonus.Add(o.YearsBonus),
		InventoryShortage:  b.InventoryShortage.Add(o.InventoryShortage),
		SalaryAdvance:      b.SalaryAdvance.Add(o.SalaryAdvance),
		Sanctions:          b.Sanctions.Add(o.Sanctions),
		RegisterDifference: b.RegisterDifference.Add(o.RegisterDifference),
		NetSalary:          b.NetSalary.Add(o.NetSalary),
	}
}

// Line is one row of the salary report.
type Line struct {
	Manager ManagerRow
	Breakdown
}

// Report is the salary report for one month.
type Report struct {
	Month  shared.YearMonth
	Lines  []Line
	Totals Breakdown
}
