// Package countdown turns sparse authoritative timer readings into a smooth local countdown.
package countdown

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ramonehamilton/LoL-Companion/internal/draft"
)

// Ceilings holds the maximum displayable timer per phase kind.
type Ceilings struct {
	Ban          time.Duration
	Pick         time.Duration
	Planning     time.Duration
	Finalization time.Duration
	Default      time.Duration
}

// DefaultCeilings returns the ceilings used by the live game client.
func DefaultCeilings() Ceilings {
	return Ceilings{
		Ban:          30 * time.Second,
		Pick:         30 * time.Second,
		Planning:     30 * time.Second,
		Finalization: 60 * time.Second,
		Default:      90 * time.Second,
	}
}

// For returns the ceiling for a phase kind.
func (c Ceilings) For(kind draft.PhaseKind) time.Duration {
	switch kind {
	case draft.PhaseBan:
		return c.Ban
	case draft.PhasePick:
		return c.Pick
	case draft.PhasePlanning:
		return c.Planning
	case draft.PhaseFinalization:
		return c.Finalization
	default:
		return c.Default
	}
}

// Reading is the displayed timer at one instant.
type Reading struct {
	Remaining time.Duration `json:"remaining"`
	Ceiling   time.Duration `json:"ceiling"`
	Running   bool          `json:"running"`
}

// Seconds returns the remaining time in seconds.
func (r Reading) Seconds() float64 {
	return r.Remaining.Seconds()
}

// Reconciler interpolates between authoritative timer values. It is not safe
// for concurrent use; the engine loop owns it.
type Reconciler struct {
	clock    clockwork.Clock
	ceilings Ceilings

	// baseline: authoritative value t0 observed at local time c0
	t0      time.Duration
	c0      time.Time
	hasBase bool
	ceiling time.Duration
}

// NewReconciler creates a reconciler using the given clock.
func NewReconciler(clock clockwork.Clock, ceilings Ceilings) *Reconciler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Reconciler{
		clock:    clock,
		ceilings: ceilings,
		ceiling:  ceilings.Default,
	}
}

// Observe applies a snapshot. A timer value always replaces the baseline, even
// when it is higher than the current countdown. Without one the previous
// baseline keeps running.
func (r *Reconciler) Observe(s *draft.Snapshot) {
	if s == nil {
		return
	}

	r.ceiling = r.ceilings.For(s.Kind())

	if s.TimerSeconds == nil {
		return
	}

	secs := *s.TimerSeconds
	if secs < 0 {
		secs = 0
	}
	r.t0 = time.Duration(secs * float64(time.Second))
	r.c0 = r.clock.Now()
	r.hasBase = true
}

// Read returns the displayed value at the clock's current time. It never
// changes the baseline.
func (r *Reconciler) Read() Reading {
	reading := Reading{Ceiling: r.ceiling}
	if !r.hasBase {
		return reading
	}

	remaining := r.t0 - r.clock.Since(r.c0)
	if remaining < 0 {
		remaining = 0
	}
	if r.ceiling > 0 && remaining > r.ceiling {
		remaining = r.ceiling
	}

	reading.Remaining = remaining
	reading.Running = remaining > 0
	return reading
}

// Reset discards the baseline.
func (r *Reconciler) Reset() {
	r.t0 = 0
	r.c0 = time.Time{}
	r.hasBase = false
	r.ceiling = r.ceilings.Default
}
