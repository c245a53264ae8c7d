package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for roomsync.
// A nil *MetricsRegistry is valid and records nothing.
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Sync Metrics
	SyncRunsTotal          *prometheus.CounterVec
	DispatchAttemptsTotal  *prometheus.CounterVec
	DispatchDuration       *prometheus.HistogramVec
	QueueEntries           *prometheus.GaugeVec
	DispatchQueueLength    prometheus.Gauge
	OverbookedDatesTotal   prometheus.Counter
	StaleProcessingEntries prometheus.Gauge
	SyncJobDuration        *prometheus.HistogramVec
	SyncLogWriteFailures   prometheus.Counter
}

// NewMetricsRegistry registers every metric with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomsync_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roomsync_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "roomsync_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Cache Metrics
		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomsync_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomsync_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		// Sync Metrics
		SyncRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomsync_sync_runs_total",
				Help: "Sync orchestrations by trigger source and outcome",
			},
			[]string{"triggered_by", "outcome"},
		),
		DispatchAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomsync_dispatch_attempts_total",
				Help: "Channel push attempts by transport and outcome",
			},
			[]string{"transport", "outcome"},
		),
		DispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roomsync_dispatch_duration_seconds",
				Help:    "Channel push latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"transport"},
		),
		QueueEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "roomsync_queue_entries",
				Help: "Sync queue entries by status",
			},
			[]string{"status"},
		),
		DispatchQueueLength: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "roomsync_dispatch_queue_length",
				Help: "Tasks waiting in the dispatch hand-off queue",
			},
		),
		OverbookedDatesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "roomsync_overbooked_dates_total",
				Help: "Dates reported as overbooked by availability computations",
			},
		),
		StaleProcessingEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "roomsync_stale_processing_entries",
				Help: "Queue entries stuck in processing longer than the stale threshold",
			},
		),
		SyncJobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roomsync_sync_job_duration_seconds",
				Help:    "Background job execution time in seconds",
				Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"job_name"},
		),
	}
}

func (m *MetricsRegistry) RecordSyncRun(triggeredBy, outcome string) {
	if m == nil {
		return
	}
	m.SyncRunsTotal.WithLabelValues(triggeredBy, outcome).Inc()
}

func (m *MetricsRegistry) RecordDispatch(transport, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.DispatchAttemptsTotal.WithLabelValues(transport, outcome).Inc()
	m.DispatchDuration.WithLabelValues(transport).Observe(seconds)
}

func (m *MetricsRegistry) RecordOverbooked(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.OverbookedDatesTotal.Add(float64(n))
}

func (m *MetricsRegistry) RecordCache(pattern string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(pattern).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(pattern).Inc()
}

func (m *MetricsRegistry) SetQueueEntries(counts map[string]int64) {
	if m == nil {
		return
	}
	for status, n := range counts {
		m.QueueEntries.WithLabelValues(status).Set(float64(n))
	}
}

func (m *MetricsRegistry) SetDispatchQueueLength(n int64) {
	if m == nil {
		return
	}
	m.DispatchQueueLength.Set(float64(n))
}

func (m *MetricsRegistry) SetStaleProcessing(n int64) {
	if m == nil {
		return
	}
	m.StaleProcessingEntries.Set(float64(n))
}

func (m *MetricsRegistry) ObserveJob(name string, seconds float64) {
	if m == nil {
		return
	}
	m.SyncJobDuration.WithLabelValues(name).Observe(seconds)
}

func (m *MetricsRegistry) RecordSyncLogFailure() {
	if m == nil {
		return
	}
	m.SyncLogWriteFailures.Inc()
}
