package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegistry_RecordDispatch(t *testing.T) {
	m := NewMetricsRegistry(prometheus.NewRegistry())

	m.RecordDispatch("webhook", "success", 0.2)
	m.RecordDispatch("webhook", "success", 0.3)
	m.RecordDispatch("api", "retry", 1.1)

	if got := testutil.ToFloat64(m.DispatchAttemptsTotal.WithLabelValues("webhook", "success")); got != 2 {
		t.Errorf("Expected 2 webhook successes, got %v", got)
	}
	if got := testutil.ToFloat64(m.DispatchAttemptsTotal.WithLabelValues("api", "retry")); got != 1 {
		t.Errorf("Expected 1 api retry, got %v", got)
	}
}

func TestMetricsRegistry_SeparateRegistriesDoNotCollide(t *testing.T) {
	NewMetricsRegistry(prometheus.NewRegistry())
	NewMetricsRegistry(prometheus.NewRegistry())
}

func TestMetricsRegistry_NilIsSafe(t *testing.T) {
	var m *MetricsRegistry
	m.RecordSyncRun("manual", "queued")
	m.RecordDispatch("api", "success", 1)
	m.RecordOverbooked(3)
	m.RecordCache("snapshot", true)
	m.SetQueueEntries(map[string]int64{"pending": 1})
	m.SetDispatchQueueLength(4)
	m.SetStaleProcessing(1)
	m.ObserveJob("retry_sweep", 0.1)
	m.RecordSyncLogFailure()
}

func TestMetricsRegistry_Gauges(t *testing.T) {
	m := NewMetricsRegistry(prometheus.NewRegistry())

	m.SetQueueEntries(map[string]int64{"pending": 3, "failed": 1})
	m.RecordOverbooked(2)
	m.RecordOverbooked(0)

	if got := testutil.ToFloat64(m.QueueEntries.WithLabelValues("pending")); got != 3 {
		t.Errorf("Expected 3 pending, got %v", got)
	}
	if got := testutil.ToFloat64(m.OverbookedDatesTotal); got != 2 {
		t.Errorf("Expected 2 overbooked dates, got %v", got)
	}
}
