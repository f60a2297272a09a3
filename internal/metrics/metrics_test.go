package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderObserveSource(t *testing.T) {
	rec := NewRecorder()

	rec.ObserveSource("philadelphia", true, 3*time.Second)
	rec.ObserveSource("philadelphia", true, 4*time.Second)
	rec.ObserveSource("baltimore", false, 45*time.Second)

	if val := testutil.ToFloat64(sourceRunsTotal.WithLabelValues("philadelphia", "ok")); val != 2 {
		t.Errorf("Expected 2 ok runs for philadelphia, got %f", val)
	}
	if val := testutil.ToFloat64(sourceRunsTotal.WithLabelValues("baltimore", "failed")); val != 1 {
		t.Errorf("Expected 1 failed run for baltimore, got %f", val)
	}
	if val := testutil.CollectAndCount(sourceDurationSeconds); val <= 0 {
		t.Errorf("Expected source durations to be observed, got %d", val)
	}
}

func TestRecorderObserveRun(t *testing.T) {
	rec := NewRecorder()

	rec.ObserveRun(7, 2, 90*time.Second)

	if val := testutil.ToFloat64(ingestionSourceOutcomes.WithLabelValues("ok")); val != 7 {
		t.Errorf("Expected ok gauge 7, got %f", val)
	}
	if val := testutil.ToFloat64(ingestionSourceOutcomes.WithLabelValues("failed")); val != 2 {
		t.Errorf("Expected failed gauge 2, got %f", val)
	}
}
