package payroll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrpanel/hrpanel/internal/bonus"
	"github.com/hrpanel/hrpanel/internal/shared"
)

type stubStore struct {
	managers  []ManagerRow
	inputs    map[int64]Inputs
	listErr   error
	inputsErr map[int64]error
}

func (s *stubStore) ListManagers(context.Context, shared.YearMonth) ([]ManagerRow, error) {
	return s.managers, s.listErr
}

func (s *stubStore) LoadInputs(_ context.Context, m ManagerRow, _ shared.YearMonth) (Inputs, error) {
	if err := s.inputsErr[m.EmployeeID]; err != nil {
		return Inputs{}, err
	}
	in := s.inputs[m.EmployeeID]
	in.BaseSalary = m.BaseSalary
	in.RecruitmentDate = m.RecruitmentDate
	return in, nil
}

type stubTables struct {
	tiersErr error
}

func (s stubTables) ListTiers(context.Context) ([]bonus.Tier, error) {
	return testTiers, s.tiersErr
}

func (s stubTables) ListRanges(context.Context) ([]bonus.EvaluationRange, error) {
	return testRanges, nil
}

type durationRecorder struct {
	mu      sync.Mutex
	reports []string
}

func (r *durationRecorder) ObserveReport(report string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
}

func reportStore() *stubStore {
	return &stubStore{
		managers: []ManagerRow{
			{EmployeeID: 1, FullName: "Ana", ShopID: 10, ShopName: "Central", BaseSalary: nd("1000"), RecruitmentDate: date(2014, time.June, 15)},
			{EmployeeID: 2, FullName: "Ben", ShopID: 11, ShopName: "Harbor", BaseSalary: nd("900"), RecruitmentDate: date(2024, time.January, 2)},
		},
		inputs: map[int64]Inputs{
			1: {MonthlySales: nd("1000"), EvaluationScore: nd("50"), InventoryShortage: nd("50"), RegisterDifference: nd("25")},
			2: {MonthlySales: nd("6000"), EvaluationScore: nd("75"), SalaryAdvance: nd("100")},
		},
	}
}

func TestSalaryReportComputesLinesAndTotals(t *testing.T) {
	recorder := &durationRecorder{}
	svc := NewService(reportStore(), stubTables{}, recorder)

	report, err := svc.SalaryReport(context.Background(), 6, 2024)
	require.NoError(t, err)

	assert.Equal(t, june2024, report.Month)
	require.Len(t, report.Lines, 2)
	assert.Equal(t, "Ana", report.Lines[0].Manager.FullName)
	assert.True(t, report.Lines[0].NetSalary.Equal(d("4035")))
	// 900 + 180 sales bonus + 50 evaluation bonus - 100 advance
	assert.True(t, report.Lines[1].NetSalary.Equal(d("1030")), "net %s", report.Lines[1].NetSalary)

	assert.True(t, report.Totals.NetSalary.Equal(d("5065")))
	assert.True(t, report.Totals.BaseSalary.Equal(d("1900")))
	assert.True(t, report.Totals.SalesBonus.Equal(d("200")))
	assert.True(t, report.Totals.Deductions().Equal(d("175")))
	assert.Equal(t, []string{"salary"}, recorder.reports)
}

func TestSalaryReportAbortsOnQueryError(t *testing.T) {
	store := reportStore()
	store.inputsErr = map[int64]error{2: errors.New("connection reset")}
	svc := NewService(store, stubTables{}, nil)

	report, err := svc.SalaryReport(context.Background(), 6, 2024)
	require.ErrorIs(t, err, ErrDatabase)
	assert.Empty(t, report.Lines, "no partial results")
}

func TestSalaryReportAbortsWhenTablesFail(t *testing.T) {
	svc := NewService(reportStore(), stubTables{tiersErr: errors.New("timeout")}, nil)

	_, err := svc.SalaryReport(context.Background(), 6, 2024)
	require.ErrorIs(t, err, ErrDatabase)
}

func TestSalaryReportRejectsInvalidMonth(t *testing.T) {
	svc := NewService(reportStore(), stubTables{}, nil)
	_, err := svc.SalaryReport(context.Background(), 0, 2024)
	require.Error(t, err)
}

func TestSalaryReportWithoutManagers(t *testing.T) {
	svc := NewService(&stubStore{}, stubTables{}, nil)
	report, err := svc.SalaryReport(context.Background(), 6, 2024)
	require.NoError(t, err)
	assert.Empty(t, report.Lines)
	assert.True(t, report.Totals.NetSalary.IsZero())
}
