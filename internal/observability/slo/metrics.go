// Package slo tracks the chat relay against its service level objectives.
package slo

import (
	"math"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SLO targets for the chat relay. Replies are produced by an AI workflow,
// so latency targets are in seconds rather than milliseconds.
const (
	// AvailabilitySLO is the target percentage of webhook calls that succeed.
	AvailabilitySLO = 99.0

	// LatencyP95SLO is the p95 reply latency target in seconds.
	LatencyP95SLO = 8.0

	// LatencyP99SLO is the p99 reply latency target in seconds.
	LatencyP99SLO = 15.0

	// ErrorRateSLO is the maximum acceptable error ratio.
	ErrorRateSLO = 0.01

	// DefaultWindow is the number of recent calls the gauges are computed from.
	DefaultWindow = 500
)

var (
	// SLOAvailability tracks the availability ratio (0-1) over the window.
	SLOAvailability = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_chat_availability_ratio",
			Help: "Chat relay availability ratio (0-1) over recent calls, target: 0.99",
		},
	)

	// SLOLatencyP95 tracks the p95 reply latency in seconds over the window.
	SLOLatencyP95 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_chat_latency_p95_seconds",
			Help: "Chat relay p95 latency in seconds over recent calls, target: 8",
		},
	)

	// SLOLatencyP99 tracks the p99 reply latency in seconds over the window.
	SLOLatencyP99 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_chat_latency_p99_seconds",
			Help: "Chat relay p99 latency in seconds over recent calls, target: 15",
		},
	)

	// SLOErrorRate tracks the error ratio (0-1) over the window.
	SLOErrorRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_chat_error_rate_ratio",
			Help: "Chat relay error ratio (0-1) over recent calls, target: 0.01",
		},
	)
)

// UpdateAvailability sets the availability gauge.
func UpdateAvailability(ratio float64) {
	SLOAvailability.Set(ratio)
}

// UpdateLatencyP95 sets the p95 latency gauge.
func UpdateLatencyP95(seconds float64) {
	SLOLatencyP95.Set(seconds)
}

// UpdateLatencyP99 sets the p99 latency gauge.
func UpdateLatencyP99(seconds float64) {
	SLOLatencyP99.Set(seconds)
}

// UpdateErrorRate sets the error rate gauge.
func UpdateErrorRate(ratio float64) {
	SLOErrorRate.Set(ratio)
}

type sample struct {
	ok       bool
	duration time.Duration
}

// Snapshot is the state of a Tracker's window.
type Snapshot struct {
	Calls        int
	Availability float64
	ErrorRate    float64
	P95          time.Duration
	P99          time.Duration
}

// Tracker keeps the outcomes of the most recent calls in a ring buffer and
// publishes the derived SLO gauges after every observation.
type Tracker struct {
	mu      sync.Mutex
	samples []sample
	next    int
	full    bool
	publish bool
}

// NewTracker creates a Tracker over the last window calls. A window of zero
// or less uses DefaultWindow.
func NewTracker(window int) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{samples: make([]sample, window)}
}

var defaultTracker = &Tracker{samples: make([]sample, DefaultWindow), publish: true}

// Observe records a call on the process-wide tracker and updates the gauges.
func Observe(ok bool, d time.Duration) {
	defaultTracker.Observe(ok, d)
}

// Observe records the outcome of one call.
func (t *Tracker) Observe(ok bool, d time.Duration) {
	t.mu.Lock()
	t.samples[t.next] = sample{ok: ok, duration: d}
	t.next = (t.next + 1) % len(t.samples)
	if t.next == 0 {
		t.full = true
	}
	snap := t.snapshotLocked()
	t.mu.Unlock()

	if t.publish {
		UpdateAvailability(snap.Availability)
		UpdateErrorRate(snap.ErrorRate)
		UpdateLatencyP95(snap.P95.Seconds())
		UpdateLatencyP99(snap.P99.Seconds())
	}
}

// Snapshot returns the current window statistics.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	n := t.next
	if t.full {
		n = len(t.samples)
	}
	if n == 0 {
		return Snapshot{Availability: 1}
	}

	durations := make([]time.Duration, 0, n)
	failed := 0
	for _, s := range t.samples[:n] {
		if !s.ok {
			failed++
		}
		durations = append(durations, s.duration)
	}
	slices.Sort(durations)

	errRate := float64(failed) / float64(n)
	return Snapshot{
		Calls:        n,
		Availability: 1 - errRate,
		ErrorRate:    errRate,
		P95:          percentile(durations, 0.95),
		P99:          percentile(durations, 0.99),
	}
}

// percentile uses the nearest-rank method on sorted values.
func percentile(sorted []time.Duration, q float64) time.Duration {
	rank := int(math.Ceil(q*float64(len(sorted)))) - 1
	rank = max(rank, 0)
	return sorted[rank]
}
