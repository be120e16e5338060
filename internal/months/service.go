package months

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hrpanel/hrpanel/internal/shared"
	"github.com/hrpanel/hrpanel/internal/snapshots"
)

// Store is the persistence used by the Service.
type Store interface {
	Create(ctx context.Context, year, month int, notes string) (Period, error)
	Get(ctx context.Context, id int64) (Period, error)
	Exists(ctx context.Context, year, month int) (bool, error)
	MarkOpen(ctx context.Context, id int64, at time.Time) (Period, error)
	MarkClosed(ctx context.Context, id int64, at time.Time) (Period, error)
	UpdateNotes(ctx context.Context, id int64, notes string) (Period, error)
	ListOpen(ctx context.Context) ([]Period, error)
	ListAll(ctx context.Context) ([]Period, error)
	IsOpen(ctx context.Context, year, month int) (bool, error)
}

// Archiver snapshots the month before a period.
type Archiver interface {
	ArchivePriorMonth(ctx context.Context, currentMonth, currentYear int) (snapshots.Result, error)
}

// RetryScheduler queues a background archive attempt for a period.
type RetryScheduler interface {
	ScheduleSnapshotRetry(ctx context.Context, month, year int) error
}

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Recorder receives lifecycle metrics.
type Recorder interface {
	PeriodTransition(action string)
	SnapshotWarning()
}

// Service orchestrates the month lifecycle.
type Service struct {
	store    Store
	archiver Archiver
	retry    RetryScheduler
	audit    AuditRecorder
	metrics  Recorder
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithRetryScheduler enables background retries of failed archives.
func WithRetryScheduler(r RetryScheduler) Option {
	return func(s *Service) { s.retry = r }
}

// WithAudit records every mutation to the audit log.
func WithAudit(a AuditRecorder) Option {
	return func(s *Service) { s.audit = a }
}

// WithMetrics records lifecycle counters.
func WithMetrics(m Recorder) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService constructs a Service instance.
func NewService(store Store, archiver Archiver, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:    store,
		archiver: archiver,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreatePeriod registers a closed period for the current or a future month.
func (s *Service) CreatePeriod(ctx context.Context, in CreatePeriodInput) (Period, error) {
	if err := s.validateCreate(in); err != nil {
		return Period{}, err
	}
	exists, err := s.store.Exists(ctx, in.Year, in.Month)
	if err != nil {
		return Period{}, err
	}
	if exists {
		return Period{}, ErrDuplicatePeriod
	}
	period, err := s.store.Create(ctx, in.Year, in.Month, in.Notes)
	if err != nil {
		return Period{}, err
	}
	s.recordTransition(ctx, in.ActorID, ActionCreate, period, map[string]any{"notes": in.Notes})
	return period, nil
}

// OpenPeriod archives the prior month and opens the period. Archive failures are reported in
// OpenResult.Warning and never prevent the open.
func (s *Service) OpenPeriod(ctx context.Context, id, actorID int64) (OpenResult, error) {
	period, err := s.store.Get(ctx, id)
	if err != nil {
		return OpenResult{}, err
	}

	var result OpenResult
	snap, archiveErr := s.archiver.ArchivePriorMonth(ctx, period.Month, period.Year)
	result.Snapshot = SnapshotSummary{Month: snap.Month, Rows: snap.Rows, Skipped: snap.Skipped, Message: snap.Message}
	if archiveErr != nil {
		result.Warning = s.snapshotWarning(ctx, period, archiveErr)
	}

	opened, err := s.store.MarkOpen(ctx, id, s.now())
	if err != nil {
		return OpenResult{}, err
	}
	result.Period = opened

	meta := map[string]any{"snapshot": snap.Message, "snapshot_rows": snap.Rows}
	if result.Warning != nil {
		meta["snapshot_warning"] = result.Warning.Err.Error()
	}
	s.recordTransition(ctx, actorID, ActionOpen, opened, meta)
	return result, nil
}

// ClosePeriod closes a period.
func (s *Service) ClosePeriod(ctx context.Context, id, actorID int64) (Period, error) {
	period, err := s.store.MarkClosed(ctx, id, s.now())
	if err != nil {
		return Period{}, err
	}
	s.recordTransition(ctx, actorID, ActionClose, period, nil)
	return period, nil
}

// UpdateNotes replaces a period's notes.
func (s *Service) UpdateNotes(ctx context.Context, id int64, notes string, actorID int64) (Period, error) {
	if len(notes) > 2000 {
		return Period{}, &ValidationError{Problems: []string{"notes must be at most 2000 characters"}}
	}
	period, err := s.store.UpdateNotes(ctx, id, notes)
	if err != nil {
		return Period{}, err
	}
	s.recordTransition(ctx, actorID, ActionUpdateNotes, period, map[string]any{"notes": notes})
	return period, nil
}

// ListOpenPeriods returns open periods ordered by year descending then month ascending.
func (s *Service) ListOpenPeriods(ctx context.Context) ([]Period, error) {
	return s.store.ListOpen(ctx)
}

// ListPeriods returns every period, newest first.
func (s *Service) ListPeriods(ctx context.Context) ([]Period, error) {
	return s.store.ListAll(ctx)
}

// IsOpen reports whether (month, year) has an open period.
func (s *Service) IsOpen(ctx context.Context, month, year int) (bool, error) {
	return s.store.IsOpen(ctx, year, month)
}

// ResolvePeriod picks the month a report should show. An open requested month is used as
// is. With no open periods the requested month, or the current month when none was given,
// is used. Otherwise the most recently opened period wins.
func (s *Service) ResolvePeriod(ctx context.Context, month, year int) (shared.YearMonth, error) {
	requested := shared.YearMonth{Year: year, Month: month}
	hasRequest := requested.Valid() && year > 0

	open, err := s.store.ListOpen(ctx)
	if err != nil {
		return shared.YearMonth{}, err
	}
	if len(open) == 0 {
		if hasRequest {
			return requested, nil
		}
		return shared.NewYearMonth(s.now()), nil
	}
	if hasRequest {
		for _, p := range open {
			if p.YearMonth() == requested {
				return requested, nil
			}
		}
	}
	return mostRecentlyOpened(open).YearMonth(), nil
}

func mostRecentlyOpened(periods []Period) Period {
	best := periods[0]
	for _, p := range periods[1:] {
		if openedAfter(p, best) {
			best = p
		}
	}
	return best
}

func openedAfter(a, b Period) bool {
	switch {
	case a.OpenedAt != nil && b.OpenedAt == nil:
		return true
	case a.OpenedAt == nil && b.OpenedAt != nil:
		return false
	case a.OpenedAt != nil && b.OpenedAt != nil && !a.OpenedAt.Equal(*b.OpenedAt):
		return a.OpenedAt.After(*b.OpenedAt)
	}
	return b.YearMonth().Before(a.YearMonth())
}

func (s *Service) validateCreate(in CreatePeriodInput) error {
	var problems []string
	if err := s.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("months: validate: %w", err)
		}
		for _, fe := range fieldErrs {
			problems = append(problems, fieldMessage(fe))
		}
	}
	if len(problems) == 0 {
		requested := shared.YearMonth{Year: in.Year, Month: in.Month}
		if requested.Before(shared.NewYearMonth(s.now())) {
			problems = append(problems, "only the current or a future month can be created")
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Year":
		return "year must be between 2000 and 2100"
	case "Month":
		return "month must be between 1 and 12"
	case "Notes":
		return "notes must be at most 2000 characters"
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

func (s *Service) snapshotWarning(ctx context.Context, period Period, err error) *SnapshotWarning {
	warning := &SnapshotWarning{Month: period.YearMonth().Prev(), Err: err}
	s.logger.Warn("snapshot failed during open",
		slog.String("period", period.YearMonth().String()),
		slog.Any("error", err))
	if s.metrics != nil {
		s.metrics.SnapshotWarning()
	}
	if s.retry == nil || errors.Is(err, snapshots.ErrNoShops) {
		return warning
	}
	if retryErr := s.retry.ScheduleSnapshotRetry(ctx, period.Month, period.Year); retryErr != nil {
		s.logger.Error("schedule snapshot retry", slog.Any("error", retryErr))
		return warning
	}
	warning.Scheduled = true
	return warning
}

func (s *Service) recordTransition(ctx context.Context, actorID int64, action string, period Period, meta map[string]any) {
	if s.metrics != nil {
		s.metrics.PeriodTransition(action)
	}
	if s.audit == nil {
		return
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["month"] = period.YearMonth().String()
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "months." + action,
		Entity:   "month",
		EntityID: strconv.FormatInt(period.ID, 10),
		Meta:     meta,
		At:       s.now(),
	})
	if err != nil {
		s.logger.Error("audit month transition", slog.String("action", action), slog.Any("error", err))
	}
}
