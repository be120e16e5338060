package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/hrpanel/hrpanel/internal/months"
	"github.com/hrpanel/hrpanel/internal/payroll"
	"github.com/hrpanel/hrpanel/internal/shared"
	"github.com/hrpanel/hrpanel/internal/snapshots"
)

// Periods resolves which month a report shows.
type Periods interface {
	ResolvePeriod(ctx context.Context, month, year int) (shared.YearMonth, error)
	ListOpenPeriods(ctx context.Context) ([]months.Period, error)
}

// SalaryReporter builds salary reports.
type SalaryReporter interface {
	SalaryReport(ctx context.Context, month, year int) (payroll.Report, error)
}

// Assignments reads live and archived store management rows.
type Assignments interface {
	LiveAssignments(ctx context.Context) ([]snapshots.Assignment, error)
	ListForMonth(ctx context.Context, month, year int) ([]snapshots.Snapshot, error)
}

// DurationRecorder observes report build time.
type DurationRecorder interface {
	ObserveReport(report string, took time.Duration)
}

// Service assembles report page models.
type Service struct {
	periods     Periods
	salary      SalaryReporter
	assignments Assignments
	metrics     DurationRecorder
	now         func() time.Time
}

// NewService constructs a Service. metrics may be nil.
func NewService(periods Periods, salary SalaryReporter, assignments Assignments, metrics DurationRecorder) *Service {
	return &Service{periods: periods, salary: salary, assignments: assignments, metrics: metrics, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Salary builds the salary report for the resolved period.
func (s *Service) Salary(ctx context.Context, month, year int) (SalaryView, error) {
	requested := shared.YearMonth{Year: year, Month: month}
	ym, err := s.periods.ResolvePeriod(ctx, month, year)
	if err != nil {
		return SalaryView{}, fmt.Errorf("reports: resolve period: %w", err)
	}
	open, err := s.periods.ListOpenPeriods(ctx)
	if err != nil {
		return SalaryView{}, fmt.Errorf("reports: list open periods: %w", err)
	}
	report, err := s.salary.SalaryReport(ctx, ym.Month, ym.Year)
	if err != nil {
		return SalaryView{}, err
	}
	return SalaryView{
		Month:       ym,
		Requested:   requested,
		Fallback:    requested.Valid() && year > 0 && requested != ym,
		Report:      report,
		OpenPeriods: open,
	}, nil
}

// StoreManagement shows live assignments for the current month and the archived snapshot
// for any other month. A zero month or year means the current month.
func (s *Service) StoreManagement(ctx context.Context, month, year int) (StoreView, error) {
	start := time.Now()
	if s.metrics != nil {
		defer func() { s.metrics.ObserveReport("store_management", time.Since(start)) }()
	}
	current := shared.NewYearMonth(s.now())
	ym := shared.YearMonth{Year: year, Month: month}
	if !ym.Valid() || year <= 0 {
		ym = current
	}

	open, err := s.periods.ListOpenPeriods(ctx)
	if err != nil {
		return StoreView{}, fmt.Errorf("reports: list open periods: %w", err)
	}
	view := StoreView{Month: ym, OpenPeriods: open}

	if ym == current {
		rows, err := s.assignments.LiveAssignments(ctx)
		if err != nil {
			return StoreView{}, err
		}
		view.Source = SourceLive
		view.Rows = rows
		return view, nil
	}

	archived, err := s.assignments.ListForMonth(ctx, ym.Month, ym.Year)
	if err != nil {
		return StoreView{}, err
	}
	view.Source = SourceArchive
	view.Rows = make([]snapshots.Assignment, 0, len(archived))
	for _, snap := range archived {
		view.Rows = append(view.Rows, snap.Assignment)
	}
	if len(archived) > 0 {
		date := archived[0].SnapshotDate
		view.SnapshotDate = &date
	}
	return view, nil
}
