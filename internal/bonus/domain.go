package bonus

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates the tier or range does not exist.
	ErrNotFound = errors.New("bonus: not found")
	// ErrRangeOverlap indicates a range intersects an existing one.
	ErrRangeOverlap = errors.New("bonus: evaluation range overlaps an existing range")
	// ErrInvalidInput indicates rejected form values.
	ErrInvalidInput = errors.New("bonus: invalid input")
)

// Tier pays BonusPercent of monthly sales once sales reach MinSales.
type Tier struct {
	MinSales     decimal.Decimal
	BonusPercent decimal.Decimal
}

// EvaluationRange pays a flat Amount for scores between MinValue and MaxValue inclusive.
type EvaluationRange struct {
	ID       int64
	MinValue decimal.Decimal
	MaxValue decimal.Decimal
	Amount   decimal.Decimal
}

// Overlaps reports whether the two closed intervals intersect.
func (r EvaluationRange) Overlaps(other EvaluationRange) bool {
	return r.MinValue.LessThanOrEqual(other.MaxValue) && other.MinValue.LessThanOrEqual(r.MaxValue)
}

// ValidationError lists every problem found in a form.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "bonus: invalid input: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
