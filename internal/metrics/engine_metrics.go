// Package metrics collects in-process counters and latency histograms for the
// draft engine.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

const histogramSize = 2048

// EngineMetrics tracks snapshot ingestion, advisory traffic and connection
// churn. All methods are safe for concurrent use.
type EngineMetrics struct {
	ApplyLatency    *Histogram
	AdvisoryLatency *Histogram

	SnapshotsApplied atomic.Uint64
	SnapshotsIgnored atomic.Uint64
	DraftsStarted    atomic.Uint64
	ConnectionLosses atomic.Uint64

	AdvisoryRequests atomic.Uint64
	AdvisoryErrors   atomic.Uint64
	AdvisoryDiscards atomic.Uint64

	clock     clockwork.Clock
	startTime atomic.Pointer[time.Time]
}

// New creates a metrics collector. clock may be nil.
func New(clock clockwork.Clock) *EngineMetrics {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	m := &EngineMetrics{
		ApplyLatency:    NewHistogram(histogramSize),
		AdvisoryLatency: NewHistogram(histogramSize),
		clock:           clock,
	}
	now := clock.Now()
	m.startTime.Store(&now)
	return m
}

// SnapshotApplied records a snapshot that replaced the current draft.
func (m *EngineMetrics) SnapshotApplied(d time.Duration) {
	m.SnapshotsApplied.Add(1)
	m.ApplyLatency.Record(d)
}

// SnapshotIgnored records a snapshot dropped because no draft was active.
func (m *EngineMetrics) SnapshotIgnored() {
	m.SnapshotsIgnored.Add(1)
}

// DraftStarted records entry into a draft.
func (m *EngineMetrics) DraftStarted() {
	m.DraftsStarted.Add(1)
}

// ConnectionLost records a transition to disconnected.
func (m *EngineMetrics) ConnectionLost() {
	m.ConnectionLosses.Add(1)
}

// AdvisoryIssued records an outgoing advisory request.
func (m *EngineMetrics) AdvisoryIssued() {
	m.AdvisoryRequests.Add(1)
}

// AdvisoryCompleted records how long a request took and whether it failed.
func (m *EngineMetrics) AdvisoryCompleted(d time.Duration, err error) {
	m.AdvisoryLatency.Record(d)
	if err != nil {
		m.AdvisoryErrors.Add(1)
	}
}

// AdvisoryDiscarded records a response that arrived after a newer request.
func (m *EngineMetrics) AdvisoryDiscarded() {
	m.AdvisoryDiscards.Add(1)
}

// Stats is a point-in-time copy of the metrics.
type Stats struct {
	ApplyLatency    LatencyStats `json:"apply_latency"`
	AdvisoryLatency LatencyStats `json:"advisory_latency"`

	SnapshotsApplied uint64 `json:"snapshots_applied"`
	SnapshotsIgnored uint64 `json:"snapshots_ignored"`
	DraftsStarted    uint64 `json:"drafts_started"`
	ConnectionLosses uint64 `json:"connection_losses"`

	AdvisoryRequests    uint64  `json:"advisory_requests"`
	AdvisoryErrors      uint64  `json:"advisory_errors"`
	AdvisoryDiscarded   uint64  `json:"advisory_discarded"`
	AdvisorySuccessRate float64 `json:"advisory_success_rate"` // percentage

	Uptime string `json:"uptime"`
}

// LatencyStats summarises a histogram in milliseconds.
type LatencyStats struct {
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Stats returns a snapshot of the current statistics.
func (m *EngineMetrics) Stats() *Stats {
	requests := m.AdvisoryRequests.Load()
	errs := m.AdvisoryErrors.Load()
	discards := m.AdvisoryDiscards.Load()

	// Superseded requests never produce a visible result either way.
	rate := 0.0
	if requests > discards && errs <= requests-discards {
		settled := requests - discards
		rate = float64(settled-errs) / float64(settled) * 100
	}

	return &Stats{
		ApplyLatency:        m.ApplyLatency.Summary(),
		AdvisoryLatency:     m.AdvisoryLatency.Summary(),
		SnapshotsApplied:    m.SnapshotsApplied.Load(),
		SnapshotsIgnored:    m.SnapshotsIgnored.Load(),
		DraftsStarted:       m.DraftsStarted.Load(),
		ConnectionLosses:    m.ConnectionLosses.Load(),
		AdvisoryRequests:    requests,
		AdvisoryErrors:      errs,
		AdvisoryDiscarded:   discards,
		AdvisorySuccessRate: rate,
		Uptime:              m.clock.Since(*m.startTime.Load()).Round(time.Second).String(),
	}
}

// Reset clears all metrics and restarts the uptime clock.
func (m *EngineMetrics) Reset() {
	m.ApplyLatency.Reset()
	m.AdvisoryLatency.Reset()
	for _, c := range []*atomic.Uint64{
		&m.SnapshotsApplied, &m.SnapshotsIgnored, &m.DraftsStarted, &m.ConnectionLosses,
		&m.AdvisoryRequests, &m.AdvisoryErrors, &m.AdvisoryDiscards,
	} {
		c.Store(0)
	}
	now := m.clock.Now()
	m.startTime.Store(&now)
}
