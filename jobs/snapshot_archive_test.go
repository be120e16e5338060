package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/hrpanel/hrpanel/internal/jobs"
	"github.com/hrpanel/hrpanel/internal/shared"
	"github.com/hrpanel/hrpanel/internal/snapshots"
)

type stubArchiver struct {
	month, year int
	result      snapshots.Result
	err         error
}

func (s *stubArchiver) ArchivePriorMonth(_ context.Context, month, year int) (snapshots.Result, error) {
	s.month, s.year = month, year
	return s.result, s.err
}

func newHandler(archiver Archiver) (*SnapshotArchiveHandler, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSnapshotArchiveHandler(archiver, logger, jobmetrics.NewMetrics(reg)), reg
}

func TestNewSnapshotArchiveTaskPayload(t *testing.T) {
	task, err := NewSnapshotArchiveTask(1, 2025)
	require.NoError(t, err)
	assert.Equal(t, TaskSnapshotArchive, task.Type())

	var payload SnapshotArchivePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, SnapshotArchivePayload{Month: 1, Year: 2025}, payload)
	assert.Equal(t, "snapshot:archive:2025-01", snapshotTaskID(1, 2025))
}

func TestSnapshotArchiveHandlerArchives(t *testing.T) {
	archiver := &stubArchiver{result: snapshots.Result{Month: shared.YearMonth{Year: 2024, Month: 12}, Rows: 4}}
	h, reg := newHandler(archiver)
	task, err := NewSnapshotArchiveTask(1, 2025)
	require.NoError(t, err)

	require.NoError(t, h.ProcessTask(context.Background(), task))
	assert.Equal(t, 1, archiver.month)
	assert.Equal(t, 2025, archiver.year)

	count, err := testutil.GatherAndCount(reg, "hrpanel_jobs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSnapshotArchiveHandlerRetriesDatabaseErrors(t *testing.T) {
	dbErr := errors.New("connection refused")
	h, _ := newHandler(&stubArchiver{err: dbErr})
	task, err := NewSnapshotArchiveTask(3, 2024)
	require.NoError(t, err)

	err = h.ProcessTask(context.Background(), task)
	require.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestSnapshotArchiveHandlerSkipsRetryWithoutShops(t *testing.T) {
	h, _ := newHandler(&stubArchiver{err: snapshots.ErrNoShops})
	task, err := NewSnapshotArchiveTask(3, 2024)
	require.NoError(t, err)

	err = h.ProcessTask(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSnapshotArchiveHandlerRejectsBadPayload(t *testing.T) {
	h, _ := newHandler(&stubArchiver{})
	err := h.ProcessTask(context.Background(), asynq.NewTask(TaskSnapshotArchive, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
