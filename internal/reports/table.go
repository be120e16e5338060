package reports

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hrpanel/hrpanel/internal/payroll"
	"github.com/hrpanel/hrpanel/internal/snapshots"
)

// Table is the export shape shared by CSV, XLSX and PDF output.
type Table struct {
	Title   string
	Headers []string
	// Numeric marks money columns, written as numbers in spreadsheets.
	Numeric []bool
	Rows    [][]string
	Footer  []string
}

var salaryHeaders = []string{
	"Manager", "Shop", "Years", "Base salary", "Monthly sales", "Sales bonus", "Evaluation score",
	"Evaluation bonus", "Paid leave", "Years bonus", "Inventory shortage", "Salary advance",
	"Sanctions", "Register difference", "Net salary",
}

// SalaryTable flattens a salary view for export.
func SalaryTable(v SalaryView) Table {
	numeric := make([]bool, len(salaryHeaders))
	for i := 3; i < len(numeric); i++ {
		numeric[i] = true
	}
	numeric[2] = true
	t := Table{
		Title:   "Salary report " + v.Month.Label(),
		Headers: salaryHeaders,
		Numeric: numeric,
		Rows:    make([][]string, 0, len(v.Report.Lines)),
	}
	for _, line := range v.Report.Lines {
		t.Rows = append(t.Rows, append(
			[]string{line.Manager.FullName, line.Manager.ShopName, strconv.Itoa(line.EmploymentYears)},
			moneyColumns(line.Breakdown)...))
	}
	t.Footer = append([]string{"Total", "", ""}, moneyColumns(v.Report.Totals)...)
	return t
}

func moneyColumns(b payroll.Breakdown) []string {
	return []string{
		fixed(b.BaseSalary), fixed(b.MonthlySales), fixed(b.SalesBonus), fixed(b.EvaluationScore),
		fixed(b.EvaluationBonus), fixed(b.PaidLeave), fixed(b.YearsBonus), fixed(b.InventoryShortage),
		fixed(b.SalaryAdvance), fixed(b.Sanctions), fixed(b.RegisterDifference), fixed(b.NetSalary),
	}
}

var storeHeaders = []string{
	"Shop", "Location", "Manager", "Manager recruited", "Manager end date", "Recommender", "Manager position",
	"Assistant", "Assistant recruited", "Assistant end date", "Assistant position",
}

// StoreTable flattens a store management view for export.
func StoreTable(v StoreView) Table {
	title := "Store management " + v.Month.Label()
	if v.SnapshotDate != nil {
		title += " (archived " + v.SnapshotDate.Format("2006-01-02") + ")"
	} else if v.Live() {
		title += " (live)"
	}
	t := Table{
		Title:   title,
		Headers: storeHeaders,
		Numeric: make([]bool, len(storeHeaders)),
		Rows:    make([][]string, 0, len(v.Rows)),
	}
	for _, a := range v.Rows {
		t.Rows = append(t.Rows, storeColumns(a))
	}
	return t
}

func storeColumns(a snapshots.Assignment) []string {
	return []string{
		a.ShopName, a.ShopLocation,
		str(a.ManagerName), day(a.ManagerRecruitmentDate), day(a.ManagerEndDate), str(a.ManagerRecommender), str(a.ManagerPosition),
		str(a.AssistantName), day(a.AssistantRecruitmentDate), day(a.AssistantEndDate), str(a.AssistantPosition),
	}
}

func fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func day(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
