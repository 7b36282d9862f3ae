package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("warmup").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("warmup").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("warmup", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("warmup", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("warmup")))
}

func TestAddPrefetched(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddPrefetched("product", 3)
	m.AddPrefetched("product", 0)
	m.AddPrefetched("department", 2)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.prefetched.WithLabelValues("product")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.prefetched.WithLabelValues("department")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.AddPrefetched("product", 1)
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("warmup").End(boom), boom)
}
