package months

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hrpanel/hrpanel/internal/shared"
)

var (
	// ErrNotFound indicates the period id does not exist.
	ErrNotFound = errors.New("months: period not found")
	// ErrDuplicatePeriod indicates the (year, month) pair already exists.
	ErrDuplicatePeriod = errors.New("months: period already exists")
	// ErrInvalidInput indicates rejected form values.
	ErrInvalidInput = errors.New("months: invalid input")
)

// Period is one payroll month.
type Period struct {
	ID        int64
	Year      int
	Month     int
	IsOpen    bool
	OpenedAt  *time.Time
	ClosedAt  *time.Time
	Notes     string
	CreatedAt time.Time
}

// YearMonth returns the calendar month of the period.
func (p Period) YearMonth() shared.YearMonth {
	return shared.YearMonth{Year: p.Year, Month: p.Month}
}

// Label formats the period for display.
func (p Period) Label() string {
	return p.YearMonth().Label()
}

// CreatePeriodInput carries a new period request.
type CreatePeriodInput struct {
	Year    int    `validate:"gte=2000,lte=2100"`
	Month   int    `validate:"gte=1,lte=12"`
	Notes   string `validate:"max=2000"`
	ActorID int64
}

// OpenResult is returned by OpenPeriod. Warning is set when the prior month could not be
// archived; the period is open regardless.
type OpenResult struct {
	Period   Period
	Snapshot SnapshotSummary
	Warning  *SnapshotWarning
}

// SnapshotSummary reports what the archiver did during an open.
type SnapshotSummary struct {
	Month   shared.YearMonth
	Rows    int
	Skipped bool
	Message string
}

// SnapshotWarning carries a non-fatal archive failure.
type SnapshotWarning struct {
	Month     shared.YearMonth
	Err       error
	Scheduled bool
}

func (w *SnapshotWarning) Error() string {
	return fmt.Sprintf("snapshot for %s failed: %v", w.Month.Label(), w.Err)
}

func (w *SnapshotWarning) Unwrap() error {
	return w.Err
}

// ValidationError lists every problem found in a request before any write.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "months: invalid input: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
