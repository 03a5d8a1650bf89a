package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRun(t *testing.T) {
	m := New()
	m.ObserveRun("tat", 10, 2, 7, 15*time.Millisecond)
	m.ObserveRun("tat", 5, 0, 5, time.Millisecond)
	assert.Equal(t, 15.0, testutil.ToFloat64(m.rowsLoaded.WithLabelValues("tat")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rowsInvalid.WithLabelValues("tat")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.rowsMatched.WithLabelValues("tat")))

	m.CacheResult("tat", "hit")
	m.StaleDiscarded("tat")
	m.Invalidated("tat", "event")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheResults.WithLabelValues("tat", "hit")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.SourceError("revenue")
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `labops_source_errors_total{dashboard="revenue"} 1`))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun("tat", 1, 1, 1, time.Second)
		m.SourceError("tat")
		m.CacheResult("tat", "miss")
		m.StaleDiscarded("tat")
		m.Invalidated("tat", "refresh")
	})
}
