package snapshots

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hrpanel/hrpanel/internal/shared"
)

// Store is the persistence used by the Archiver.
type Store interface {
	EnsureSchema(ctx context.Context) error
	WithMonthLock(ctx context.Context, ym shared.YearMonth, fn func(MonthTx) error) error
	MonthArchived(ctx context.Context, ym shared.YearMonth) (bool, error)
	LiveAssignments(ctx context.Context, refs PositionRefs) ([]Assignment, error)
	ListForMonth(ctx context.Context, ym shared.YearMonth) ([]Snapshot, error)
}

// RowRecorder receives the number of archived rows.
type RowRecorder interface {
	SnapshotArchived(rows int)
}

// Archiver freezes shop management assignments of the month before a period opens.
type Archiver struct {
	store   Store
	refs    PositionRefs
	logger  *slog.Logger
	metrics RowRecorder
}

// NewArchiver constructs an Archiver.
func NewArchiver(store Store, refs PositionRefs, logger *slog.Logger, metrics RowRecorder) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{store: store, refs: refs, logger: logger, metrics: metrics}
}

// ArchivePriorMonth snapshots live assignments for the month before (currentMonth, currentYear).
// A month that already holds snapshot rows is left untouched.
func (a *Archiver) ArchivePriorMonth(ctx context.Context, currentMonth, currentYear int) (Result, error) {
	current := shared.YearMonth{Year: currentYear, Month: currentMonth}
	if !current.Valid() {
		return Result{}, fmt.Errorf("snapshots: invalid month %d/%d", currentMonth, currentYear)
	}
	prev := current.Prev()
	result := Result{Month: prev, SnapshotDate: prev.LastDay()}

	if err := a.store.EnsureSchema(ctx); err != nil {
		return result, err
	}

	err := a.store.WithMonthLock(ctx, prev, func(tx MonthTx) error {
		exists, err := tx.MonthArchived(ctx, prev)
		if err != nil {
			return err
		}
		if exists {
			result.Skipped = true
			result.Message = MessageAlreadyExists
			return nil
		}
		live, err := tx.LiveAssignments(ctx, a.refs)
		if err != nil {
			return err
		}
		if len(live) == 0 {
			return ErrNoShops
		}
		n, err := tx.InsertSnapshots(ctx, prev, result.SnapshotDate, live)
		if err != nil {
			return err
		}
		result.Rows = n
		result.Message = fmt.Sprintf("archived %d shops for %s", n, prev.Label())
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoShops) {
			a.logger.Warn("snapshot skipped", slog.String("month", prev.String()), slog.Any("error", err))
		}
		return result, err
	}
	if result.Rows > 0 {
		a.logger.Info("snapshot archived", slog.String("month", prev.String()), slog.Int("rows", result.Rows))
		if a.metrics != nil {
			a.metrics.SnapshotArchived(result.Rows)
		}
	}
	return result, nil
}

// ListForMonth returns archived rows for (month, year).
func (a *Archiver) ListForMonth(ctx context.Context, month, year int) ([]Snapshot, error) {
	return a.store.ListForMonth(ctx, shared.YearMonth{Year: year, Month: month})
}

// MonthExists reports whether (month, year) has been archived.
func (a *Archiver) MonthExists(ctx context.Context, month, year int) (bool, error) {
	return a.store.MonthArchived(ctx, shared.YearMonth{Year: year, Month: month})
}

// LiveAssignments returns the current shop assignments without archiving them.
func (a *Archiver) LiveAssignments(ctx context.Context) ([]Assignment, error) {
	return a.store.LiveAssignments(ctx, a.refs)
}
