package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	assert.NoError(t, m.Track("snapshot:archive").End(nil))
	failure := errors.New("boom")
	assert.ErrorIs(t, m.Track("snapshot:archive").End(failure), failure)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("snapshot:archive", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("snapshot:archive", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("snapshot:archive")))
}

func TestNilMetricsTrackerPassesErrorThrough(t *testing.T) {
	var m *Metrics
	err := errors.New("boom")
	assert.ErrorIs(t, m.Track("job").End(err), err)
}
