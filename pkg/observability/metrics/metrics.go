package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is nil-safe: a nil *Metrics records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	rowsLoaded     *prometheus.CounterVec
	rowsInvalid    *prometheus.CounterVec
	rowsMatched    *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	sourceErrors   *prometheus.CounterVec
	cacheResults   *prometheus.CounterVec
	staleDiscarded *prometheus.CounterVec
	invalidations  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labops_dashboard_rows_loaded_total",
			Help: "Rows handed to the engine per dashboard.",
		}, []string{"dashboard"}),
		rowsInvalid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labops_dashboard_rows_invalid_total",
			Help: "Rows excluded because their date could not be parsed.",
		}, []string{"dashboard"}),
		rowsMatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labops_dashboard_rows_matched_total",
			Help: "Rows that passed the filter predicate.",
		}, []string{"dashboard"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "labops_dashboard_run_duration_seconds",
			Help:    "Time spent loading, filtering and aggregating one dashboard.",
			Buckets: prometheus.DefBuckets,
		}, []string{"dashboard"}),
		sourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labops_source_errors_total",
			Help: "Failed source loads per dashboard.",
		}, []string{"dashboard"}),
		cacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labops_source_cache_total",
			Help: "Row cache lookups by result (hit, miss, error).",
		}, []string{"dashboard", "result"}),
		staleDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labops_source_stale_writes_discarded_total",
			Help: "Superseded loads whose rows were not written to the cache.",
		}, []string{"dashboard"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labops_source_cache_invalidations_total",
			Help: "Cache invalidations by trigger (event, refresh).",
		}, []string{"dashboard", "trigger"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rowsLoaded,
		m.rowsInvalid,
		m.rowsMatched,
		m.runDuration,
		m.sourceErrors,
		m.cacheResults,
		m.staleDiscarded,
		m.invalidations,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRun(dashboard string, loaded, invalid, matched int, took time.Duration) {
	if m == nil {
		return
	}
	m.rowsLoaded.WithLabelValues(dashboard).Add(float64(loaded))
	m.rowsInvalid.WithLabelValues(dashboard).Add(float64(invalid))
	m.rowsMatched.WithLabelValues(dashboard).Add(float64(matched))
	m.runDuration.WithLabelValues(dashboard).Observe(took.Seconds())
}

func (m *Metrics) SourceError(dashboard string) {
	if m == nil {
		return
	}
	m.sourceErrors.WithLabelValues(dashboard).Inc()
}

func (m *Metrics) CacheResult(dashboard, result string) {
	if m == nil {
		return
	}
	m.cacheResults.WithLabelValues(dashboard, result).Inc()
}

func (m *Metrics) StaleDiscarded(dashboard string) {
	if m == nil {
		return
	}
	m.staleDiscarded.WithLabelValues(dashboard).Inc()
}

func (m *Metrics) Invalidated(dashboard, trigger string) {
	if m == nil {
		return
	}
	m.invalidations.WithLabelValues(dashboard, trigger).Inc()
}
