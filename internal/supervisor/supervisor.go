// Package supervisor tracks whether the game client is reachable and whether
// a draft is in progress.
package supervisor

import (
	"context"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// State is the connection lifecycle state.
type State int

const (
	Disconnected State = iota
	ConnectedNoDraft
	ConnectedInDraft
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case ConnectedNoDraft:
		return "connected_no_draft"
	case ConnectedInDraft:
		return "connected_in_draft"
	default:
		return "disconnected"
	}
}

// MarshalText encodes the state as its name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Prober is the part of the game client integration the supervisor polls.
type Prober interface {
	// ProbeConnection returns nil when the client answers.
	ProbeConnection(ctx context.Context) error
	// ProbeGamePhase returns the client's coarse game phase.
	ProbeGamePhase(ctx context.Context) (string, error)
}

// Config holds supervisor settings.
type Config struct {
	// ProbeInterval is the connectivity probe period, used both to retry while
	// disconnected and to detect loss while connected
	ProbeInterval time.Duration

	// PhasePollInterval is the phase probe period while in a draft
	PhasePollInterval time.Duration

	// ProbeTimeout bounds a single probe
	ProbeTimeout time.Duration

	// DraftPhases are the game phases that count as a draft
	DraftPhases []string
}

// DefaultConfig returns the default supervisor settings.
func DefaultConfig() Config {
	return Config{
		ProbeInterval:     2 * time.Second,
		PhasePollInterval: time.Second,
		ProbeTimeout:      3 * time.Second,
		DraftPhases:       []string{"ChampSelect"},
	}
}

// Transition describes a state change.
type Transition struct {
	From   State     `json:"from"`
	To     State     `json:"to"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// LeftDraft reports whether the transition ended a draft.
func (t Transition) LeftDraft() bool {
	return t.From == ConnectedInDraft && t.To != ConnectedInDraft
}

// Supervisor is the connection state machine. All methods must be called from
// the owner's event loop; probe results come back through post.
type Supervisor struct {
	prober Prober
	clock  clockwork.Clock
	cfg    Config
	post   func(func())

	state   State
	running bool

	// epoch changes on every transition; results and ticks from an older
	// epoch are ignored
	epoch uint64

	probeTimer clockwork.Timer
	phaseTimer clockwork.Timer
	probing    bool
	polling    bool

	onTransition func(Transition)
}

// New creates a supervisor in the Disconnected state.
func New(prober Prober, clock clockwork.Clock, cfg Config, post func(func())) *Supervisor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if len(cfg.DraftPhases) == 0 {
		cfg.DraftPhases = DefaultConfig().DraftPhases
	}
	return &Supervisor{
		prober: prober,
		clock:  clock,
		cfg:    cfg,
		post:   post,
		state:  Disconnected,
	}
}

// OnTransition registers a callback run on the loop after every state change.
func (s *Supervisor) OnTransition(fn func(Transition)) {
	s.onTransition = fn
}

// Start probes immediately and keeps probing until Stop.
func (s *Supervisor) Start() {
	if s.running {
		return
	}
	s.running = true
	s.probe()
}

// Stop cancels all timers.
func (s *Supervisor) Stop() {
	s.running = false
	s.epoch++
	s.stopTimers()
}

// State returns the current state.
func (s *Supervisor) State() State {
	return s.state
}

// DraftStarted is called when a snapshot with at least one team arrives. It
// reports whether the supervisor is now in a draft.
func (s *Supervisor) DraftStarted() bool {
	if s.state == ConnectedNoDraft {
		s.transition(ConnectedInDraft, "draft snapshot received")
	}
	return s.state == ConnectedInDraft
}

func (s *Supervisor) probe() {
	if !s.running || s.probing {
		return
	}
	s.probing = true
	epoch := s.epoch

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ProbeTimeout)
		defer cancel()

		err := s.prober.ProbeConnection(ctx)
		s.post(func() { s.probeDone(epoch, err) })
	}()
}

func (s *Supervisor) probeDone(epoch uint64, err error) {
	if epoch != s.epoch {
		return
	}
	s.probing = false

	switch {
	case err != nil && s.state != Disconnected:
		log.Warn().Err(err).Str("state", s.state.String()).Msg("connectivity probe failed")
		s.transition(Disconnected, "connectivity probe failed")
	case err != nil:
		log.Debug().Err(err).Msg("game client not reachable, retrying")
		s.scheduleProbe()
	case s.state == Disconnected:
		s.transition(ConnectedNoDraft, "connectivity probe succeeded")
	default:
		s.scheduleProbe()
	}
}

func (s *Supervisor) scheduleProbe() {
	if !s.running {
		return
	}
	epoch := s.epoch
	s.probeTimer = s.clock.AfterFunc(s.cfg.ProbeInterval, func() {
		s.post(func() {
			if epoch == s.epoch {
				s.probe()
			}
		})
	})
}

func (s *Supervisor) schedulePhasePoll() {
	if !s.running || s.state != ConnectedInDraft {
		return
	}
	epoch := s.epoch
	s.phaseTimer = s.clock.AfterFunc(s.cfg.PhasePollInterval, func() {
		s.post(func() {
			if epoch == s.epoch {
				s.pollPhase()
			}
		})
	})
}

func (s *Supervisor) pollPhase() {
	if s.polling || s.state != ConnectedInDraft {
		return
	}
	s.polling = true
	epoch := s.epoch

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ProbeTimeout)
		defer cancel()

		phase, err := s.prober.ProbeGamePhase(ctx)
		s.post(func() { s.phaseDone(epoch, phase, err) })
	}()
}

func (s *Supervisor) phaseDone(epoch uint64, phase string, err error) {
	if epoch != s.epoch {
		return
	}
	s.polling = false

	if err != nil {
		// Losing the client entirely is the connectivity probe's call.
		log.Warn().Err(err).Msg("phase probe failed")
		s.schedulePhasePoll()
		return
	}

	if !s.isDraftPhase(phase) {
		s.transition(ConnectedNoDraft, "game phase is "+phase)
		return
	}
	s.schedulePhasePoll()
}

func (s *Supervisor) isDraftPhase(phase string) bool {
	for _, p := range s.cfg.DraftPhases {
		if strings.EqualFold(p, phase) {
			return true
		}
	}
	return false
}

// transition moves to a new state and restarts both timers from scratch.
func (s *Supervisor) transition(to State, reason string) {
	from := s.state
	if from == to {
		return
	}

	s.state = to
	s.epoch++
	s.stopTimers()
	s.probing = false
	s.polling = false

	log.Info().
		Str("from", from.String()).
		Str("to", to.String()).
		Str("reason", reason).
		Msg("connection state changed")

	s.scheduleProbe()
	s.schedulePhasePoll()

	if s.onTransition != nil {
		s.onTransition(Transition{From: from, To: to, Reason: reason, At: s.clock.Now()})
	}
}

func (s *Supervisor) stopTimers() {
	if s.probeTimer != nil {
		s.probeTimer.Stop()
		s.probeTimer = nil
	}
	if s.phaseTimer != nil {
		s.phaseTimer.Stop()
		s.phaseTimer = nil
	}
}
