package payroll

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/hrpanel/hrpanel/internal/bonus"
	"github.com/hrpanel/hrpanel/internal/shared"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func nd(v string) decimal.NullDecimal { return decimal.NewNullDecimal(d(v)) }

func date(y int, m time.Month, day int) *time.Time {
	t := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return &t
}

var (
	testTiers = []bonus.Tier{
		{MinSales: d("0"), BonusPercent: d("1")},
		{MinSales: d("1000"), BonusPercent: d("2")},
		{MinSales: d("5000"), BonusPercent: d("3")},
	}
	testRanges = []bonus.EvaluationRange{
		{MinValue: d("0"), MaxValue: d("50"), Amount: d("10")},
		{MinValue: d("51"), MaxValue: d("100"), Amount: d("50")},
	}
	june2024 = shared.YearMonth{Year: 2024, Month: 6}
)

func TestTenure(t *testing.T) {
	cases := []struct {
		name        string
		recruitment *time.Time
		ym          shared.YearMonth
		want        int
	}{
		{"ten years in the recruitment month", date(2014, time.June, 15), june2024, 10},
		{"month before the anniversary", date(2014, time.July, 1), june2024, 9},
		{"months after the anniversary", date(2014, time.January, 31), june2024, 10},
		{"recruited this month", date(2024, time.June, 3), june2024, 0},
		{"recruited in the future", date(2025, time.January, 1), june2024, 0},
		{"missing date", nil, june2024, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Tenure(tc.recruitment, tc.ym))
		})
	}
}

func TestClassifyAnniversary(t *testing.T) {
	rec := date(2014, time.June, 15)
	assert.Equal(t, AnniversaryTen, ClassifyAnniversary(rec, 10, june2024))
	assert.Equal(t, AnniversaryFive, ClassifyAnniversary(rec, 5, june2024))
	assert.Equal(t, AnniversaryYearly, ClassifyAnniversary(rec, 7, june2024))
	assert.Equal(t, AnniversaryYearly, ClassifyAnniversary(rec, 15, june2024))
	assert.Equal(t, AnniversaryNone, ClassifyAnniversary(rec, 0, june2024))
	assert.Equal(t, AnniversaryNone, ClassifyAnniversary(rec, 10, shared.YearMonth{Year: 2024, Month: 7}))
	assert.Equal(t, AnniversaryNone, ClassifyAnniversary(nil, 10, june2024))
}

func TestComputeNetSalary(t *testing.T) {
	in := Inputs{
		BaseSalary:         nd("1000"),
		MonthlySales:       nd("1000"),
		EvaluationScore:    nd("50"),
		InventoryShortage:  nd("50"),
		SalaryAdvance:      nd("0"),
		RegisterDifference: nd("25"),
		RecruitmentDate:    date(2014, time.June, 15),
	}

	b := Compute(in, testTiers, testRanges, june2024)

	assert.Equal(t, 10, b.EmploymentYears)
	assert.Equal(t, AnniversaryTen, b.Anniversary)
	assert.True(t, b.SalesBonus.Equal(d("20")), "sales bonus %s", b.SalesBonus)
	assert.True(t, b.EvaluationBonus.Equal(d("10")), "evaluation bonus %s", b.EvaluationBonus)
	assert.True(t, b.PaidLeave.Equal(d("80")), "paid leave %s", b.PaidLeave)
	assert.True(t, b.YearsBonus.Equal(d("3000")), "years bonus %s", b.YearsBonus)
	assert.True(t, b.Sanctions.IsZero(), "missing sanctions default to zero")
	assert.True(t, b.NetSalary.Equal(d("4035")), "net %s", b.NetSalary)
}

func TestComputeFirstYearHasNoLeaveOrYearsBonus(t *testing.T) {
	in := Inputs{
		BaseSalary:      nd("800"),
		RecruitmentDate: date(2023, time.December, 1),
	}
	b := Compute(in, testTiers, testRanges, june2024)

	assert.Equal(t, 0, b.EmploymentYears)
	assert.True(t, b.PaidLeave.IsZero())
	assert.True(t, b.YearsBonus.IsZero())
	assert.True(t, b.SalesBonus.IsZero())
	assert.True(t, b.NetSalary.Equal(d("800")))
}

func TestComputePaidLeaveUsesReportMonth(t *testing.T) {
	in := Inputs{BaseSalary: nd("1000"), RecruitmentDate: date(2023, time.March, 1)}

	before := Compute(in, nil, nil, shared.YearMonth{Year: 2024, Month: 2})
	after := Compute(in, nil, nil, shared.YearMonth{Year: 2024, Month: 3})

	assert.True(t, before.PaidLeave.IsZero())
	assert.True(t, after.PaidLeave.Equal(d("80")))
	assert.Equal(t, AnniversaryYearly, after.Anniversary)
	assert.True(t, after.YearsBonus.Equal(d("1000")))
}

func TestComputeNetMayBeNegative(t *testing.T) {
	in := Inputs{
		BaseSalary:    nd("500"),
		SalaryAdvance: nd("400"),
		Sanctions:     nd("250.75"),
	}
	b := Compute(in, nil, nil, june2024)
	assert.True(t, b.NetSalary.Equal(d("-150.75")), "net %s", b.NetSalary)
}

func TestComputeAllInputsMissing(t *testing.T) {
	b := Compute(Inputs{}, testTiers, testRanges, june2024)
	assert.True(t, b.NetSalary.IsZero())
	assert.Equal(t, AnniversaryNone, b.Anniversary)
}
