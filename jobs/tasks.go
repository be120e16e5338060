package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSnapshotArchive re-runs the store snapshot for a month that opened without one.
	TaskSnapshotArchive = "snapshot:archive"

	snapshotMaxRetry = 10
)

// SnapshotArchivePayload identifies the opened month; the snapshot covers the month before it.
type SnapshotArchivePayload struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// NewSnapshotArchiveTask constructs an Asynq task. The task id is derived from the month so
// repeated opens of the same period queue a single retry.
func NewSnapshotArchiveTask(month, year int, opts ...asynq.Option) (*asynq.Task, error) {
	body, err := json.Marshal(SnapshotArchivePayload{Month: month, Year: year})
	if err != nil {
		return nil, err
	}
	base := []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(snapshotMaxRetry),
		asynq.TaskID(snapshotTaskID(month, year)),
	}
	return asynq.NewTask(TaskSnapshotArchive, body, append(base, opts...)...), nil
}

func snapshotTaskID(month, year int) string {
	return fmt.Sprintf("%s:%04d-%02d", TaskSnapshotArchive, year, month)
}
