package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/hrpanel/hrpanel/internal/jobs"
	"github.com/hrpanel/hrpanel/internal/snapshots"
)

// Archiver is the snapshot operation the retry task runs.
type Archiver interface {
	ArchivePriorMonth(ctx context.Context, currentMonth, currentYear int) (snapshots.Result, error)
}

// SnapshotArchiveHandler processes TaskSnapshotArchive tasks.
type SnapshotArchiveHandler struct {
	archiver Archiver
	logger   *slog.Logger
	metrics  *jobmetrics.Metrics
}

// NewSnapshotArchiveHandler constructs the handler. metrics may be nil.
func NewSnapshotArchiveHandler(archiver Archiver, logger *slog.Logger, metrics *jobmetrics.Metrics) *SnapshotArchiveHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotArchiveHandler{archiver: archiver, logger: logger, metrics: metrics}
}

// TaskHandler registers the handler with a worker.
func (h *SnapshotArchiveHandler) TaskHandler() TaskHandler {
	return TaskHandler{Type: TaskSnapshotArchive, Handler: h.ProcessTask}
}

// ProcessTask archives the month before the payload month. Missing shops and bad payloads are
// not retried; any other failure is returned so Asynq retries with backoff.
func (h *SnapshotArchiveHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload SnapshotArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode snapshot payload: %v: %w", err, asynq.SkipRetry)
	}
	tracker := h.metrics.Track(TaskSnapshotArchive)
	result, err := h.archiver.ArchivePriorMonth(ctx, payload.Month, payload.Year)
	switch {
	case errors.Is(err, snapshots.ErrNoShops):
		h.logger.Warn("snapshot retry found no shops", slog.Int("month", payload.Month), slog.Int("year", payload.Year))
		return tracker.End(fmt.Errorf("%v: %w", err, asynq.SkipRetry))
	case err != nil:
		h.logger.Error("snapshot retry failed", slog.Int("month", payload.Month), slog.Int("year", payload.Year), slog.Any("error", err))
		return tracker.End(err)
	}
	h.logger.Info("snapshot retry done",
		slog.String("month", result.Month.String()),
		slog.Int("rows", result.Rows),
		slog.Bool("skipped", result.Skipped))
	return tracker.End(nil)
}
