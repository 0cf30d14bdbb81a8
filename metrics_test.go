package authcore

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoops(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricIssueSuccess)
	m.Observe(MetricValidateLatency, time.Millisecond)

	if m.Value(MetricIssueSuccess) != 0 {
		t.Fatal("disabled metrics must not count")
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("disabled snapshot should be empty: %+v", snap)
	}
}

func TestMetricsCountersConcurrent(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 8
	const perGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				m.Inc(MetricRefreshSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricRefreshSuccess); got != goroutines*perGoroutine {
		t.Fatalf("expected %d, got %d", goroutines*perGoroutine, got)
	}
}

func TestMetricsLatencyHistogram(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	samples := []time.Duration{
		time.Millisecond,        // bucket 0
		8 * time.Millisecond,    // bucket 1
		600 * time.Millisecond,  // bucket 7
		2000 * time.Millisecond, // bucket 7
	}
	for _, d := range samples {
		m.Observe(MetricValidateLatency, d)
	}
	// Non-latency IDs never record samples.
	m.Observe(MetricIssueSuccess, time.Millisecond)

	buckets := m.Snapshot().Histograms[MetricValidateLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("unexpected bucket count %d", len(buckets))
	}
	if buckets[0] != 1 || buckets[1] != 1 || buckets[7] != 2 {
		t.Fatalf("unexpected bucket distribution: %v", buckets)
	}
}

func TestMetricsSnapshotIsCopy(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricIssueSuccess)

	snap := m.Snapshot()
	m.Inc(MetricIssueSuccess)

	if snap.Counters[MetricIssueSuccess] != 1 {
		t.Fatalf("snapshot should be frozen at capture time: %d", snap.Counters[MetricIssueSuccess])
	}
	if m.Value(MetricIssueSuccess) != 2 {
		t.Fatalf("live counter should keep moving: %d", m.Value(MetricIssueSuccess))
	}
}
