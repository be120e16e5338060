package payroll

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hrpanel/hrpanel/internal/bonus"
	"github.com/hrpanel/hrpanel/internal/shared"
)

const loadConcurrency = 4

// Store reads payroll inputs.
type Store interface {
	ListManagers(ctx context.Context, ym shared.YearMonth) ([]ManagerRow, error)
	LoadInputs(ctx context.Context, m ManagerRow, ym shared.YearMonth) (Inputs, error)
}

// BonusTables supplies the tier and evaluation range lookups.
type BonusTables interface {
	ListTiers(ctx context.Context) ([]bonus.Tier, error)
	ListRanges(ctx context.Context) ([]bonus.EvaluationRange, error)
}

// DurationRecorder observes report build time.
type DurationRecorder interface {
	ObserveReport(report string, took time.Duration)
}

// Service builds salary reports.
type Service struct {
	store   Store
	bonuses BonusTables
	metrics DurationRecorder
}

// NewService constructs a Service. metrics may be nil.
func NewService(store Store, bonuses BonusTables, metrics DurationRecorder) *Service {
	return &Service{store: store, bonuses: bonuses, metrics: metrics}
}

// SalaryReport computes the breakdown of every manager for (month, year). Any query failure
// aborts the report and no partial result is returned.
func (s *Service) SalaryReport(ctx context.Context, month, year int) (Report, error) {
	ym := shared.YearMonth{Year: year, Month: month}
	if !ym.Valid() {
		return Report{}, fmt.Errorf("payroll: invalid month %d/%d", month, year)
	}
	start := time.Now()
	if s.metrics != nil {
		defer func() { s.metrics.ObserveReport("salary", time.Since(start)) }()
	}

	var (
		tiers    []bonus.Tier
		ranges   []bonus.EvaluationRange
		managers []ManagerRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tiers, err = s.bonuses.ListTiers(gctx)
		return dbErr("load bonus tiers", err)
	})
	g.Go(func() error {
		var err error
		ranges, err = s.bonuses.ListRanges(gctx)
		return dbErr("load evaluation ranges", err)
	})
	g.Go(func() error {
		var err error
		managers, err = s.store.ListManagers(gctx, ym)
		return dbErr("list managers", err)
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	lines := make([]Line, len(managers))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, m := range managers {
		i, m := i, m
		g.Go(func() error {
			in, err := s.store.LoadInputs(gctx, m, ym)
			if err != nil {
				return dbErr("load inputs", err)
			}
			lines[i] = Line{Manager: m, Breakdown: Compute(in, tiers, ranges, ym)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{Month: ym, Lines: lines}
	for _, line := range lines {
		report.Totals = report.Totals.Add(line.Breakdown)
	}
	return report, nil
}

func dbErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrDatabase, op, err)
}
