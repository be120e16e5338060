package bonus

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store is the persistence used by the Service.
type Store interface {
	ListTiers(ctx context.Context) ([]Tier, error)
	UpsertTier(ctx context.Context, t Tier) error
	DeleteTier(ctx context.Context, minSales decimal.Decimal) error
	ListRanges(ctx context.Context) ([]EvaluationRange, error)
	InsertRange(ctx context.Context, r EvaluationRange) (EvaluationRange, error)
	DeleteRange(ctx context.Context, id int64) error
}

// Service validates and persists the bonus lookup tables.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ListTiers returns tiers ordered by min_sales.
func (s *Service) ListTiers(ctx context.Context) ([]Tier, error) {
	return s.store.ListTiers(ctx)
}

// SaveTier inserts or updates the tier for t.MinSales.
func (s *Service) SaveTier(ctx context.Context, t Tier) error {
	var problems []string
	if t.MinSales.IsNegative() {
		problems = append(problems, "minimum sales cannot be negative")
	}
	if t.BonusPercent.IsNegative() || t.BonusPercent.GreaterThan(hundred) {
		problems = append(problems, "bonus percent must be between 0 and 100")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return s.store.UpsertTier(ctx, t)
}

// DeleteTier removes the tier keyed by minSales.
func (s *Service) DeleteTier(ctx context.Context, minSales decimal.Decimal) error {
	return s.store.DeleteTier(ctx, minSales)
}

// ListRanges returns evaluation ranges ordered by min_value.
func (s *Service) ListRanges(ctx context.Context) ([]EvaluationRange, error) {
	return s.store.ListRanges(ctx)
}

// CreateRange stores a range that must not intersect any existing one.
func (s *Service) CreateRange(ctx context.Context, r EvaluationRange) (EvaluationRange, error) {
	var problems []string
	if r.MinValue.IsNegative() {
		problems = append(problems, "minimum score cannot be negative")
	}
	if r.MaxValue.LessThan(r.MinValue) {
		problems = append(problems, "maximum score must not be below the minimum")
	}
	if r.Amount.IsNegative() {
		problems = append(problems, "amount cannot be negative")
	}
	if len(problems) > 0 {
		return EvaluationRange{}, &ValidationError{Problems: problems}
	}
	existing, err := s.store.ListRanges(ctx)
	if err != nil {
		return EvaluationRange{}, err
	}
	for _, other := range existing {
		if r.Overlaps(other) {
			return EvaluationRange{}, ErrRangeOverlap
		}
	}
	return s.store.InsertRange(ctx, r)
}

// DeleteRange removes an evaluation range.
func (s *Service) DeleteRange(ctx context.Context, id int64) error {
	return s.store.DeleteRange(ctx, id)
}
