package slo

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSLOTargetsAreReasonable(t *testing.T) {
	if AvailabilitySLO < 90.0 || AvailabilitySLO > 100.0 {
		t.Errorf("AvailabilitySLO = %v, should be between 90 and 100", AvailabilitySLO)
	}
	if LatencyP99SLO <= LatencyP95SLO {
		t.Errorf("LatencyP99SLO = %v, should be greater than P95 (%v)", LatencyP99SLO, LatencyP95SLO)
	}
	if ErrorRateSLO < 0 || ErrorRateSLO > 0.05 {
		t.Errorf("ErrorRateSLO = %v, should be between 0 and 0.05", ErrorRateSLO)
	}
}

func TestTracker_EmptyWindow(t *testing.T) {
	snap := NewTracker(10).Snapshot()
	assert.Equal(t, Snapshot{Availability: 1}, snap)
}

func TestTracker_Ratios(t *testing.T) {
	tr := NewTracker(10)
	for i := 0; i < 8; i++ {
		tr.Observe(true, time.Second)
	}
	tr.Observe(false, 2*time.Second)
	tr.Observe(false, 3*time.Second)

	snap := tr.Snapshot()
	assert.Equal(t, 10, snap.Calls)
	assert.InDelta(t, 0.8, snap.Availability, 1e-9)
	assert.InDelta(t, 0.2, snap.ErrorRate, 1e-9)
	assert.Equal(t, 3*time.Second, snap.P95)
	assert.Equal(t, 3*time.Second, snap.P99)
}

func TestTracker_WindowEvictsOldest(t *testing.T) {
	tr := NewTracker(4)
	for i := 0; i < 4; i++ {
		tr.Observe(false, time.Second)
	}
	for i := 0; i < 4; i++ {
		tr.Observe(true, time.Second)
	}

	snap := tr.Snapshot()
	assert.Equal(t, 4, snap.Calls)
	assert.InDelta(t, 1.0, snap.Availability, 1e-9)
	assert.Zero(t, snap.ErrorRate)
}

func TestTracker_Percentiles(t *testing.T) {
	tr := NewTracker(100)
	for i := 1; i <= 100; i++ {
		tr.Observe(true, time.Duration(i)*time.Millisecond)
	}
	snap := tr.Snapshot()
	assert.Equal(t, 95*time.Millisecond, snap.P95)
	assert.Equal(t, 99*time.Millisecond, snap.P99)
}

func TestNewTracker_DefaultWindow(t *testing.T) {
	assert.Len(t, NewTracker(0).samples, DefaultWindow)
}

func TestObserve_PublishesGauges(t *testing.T) {
	Observe(false, 4*time.Second)

	assert.Less(t, testutil.ToFloat64(SLOAvailability), 1.0)
	assert.Greater(t, testutil.ToFloat64(SLOErrorRate), 0.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(SLOLatencyP99), testutil.ToFloat64(SLOLatencyP95))
}

func TestMetricsAreRegistered(t *testing.T) {
	for _, c := range []prometheus.Collector{SLOAvailability, SLOLatencyP95, SLOLatencyP99, SLOErrorRate} {
		assert.Equal(t, 1, testutil.CollectAndCount(c))
	}
}
