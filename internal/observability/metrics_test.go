package observability

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordSweepCell(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.RecordSweepCell("band", 0.01, nil)
	m.RecordSweepCell("band", 0.02, nil)
	m.RecordSweepCell("band", 0.01, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SweepCellsTotal.WithLabelValues("band", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepCellsTotal.WithLabelValues("band", "error")))
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	// Two instances on different registries must not collide
	a := NewMetrics("test", prometheus.NewRegistry())
	b := NewMetrics("test", prometheus.NewRegistry())

	a.RecordCacheStats(3, 1)
	assert.Equal(t, 3.0, testutil.ToFloat64(a.RollingCacheHits))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RollingCacheHits))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordBacktest("band", 1, 10, nil)
	m.RecordSweep("band", 1, 0, nil)
	m.WorkerStarted()
	m.WorkerStopped()
}

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)
	m.RecordBarsIngested("btc-1h", 42)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `test_ingestion_bars_ingested_total{dataset="btc-1h"} 42`))
}
