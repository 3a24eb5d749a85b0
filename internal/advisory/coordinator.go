package advisory

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/ramonehamilton/LoL-Companion/internal/draft"
	"github.com/ramonehamilton/LoL-Companion/internal/draft/identity"
)

// Status is the state of the advisory section shown to the operator.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusPending    Status = "pending"
	StatusLoading    Status = "loading"
	StatusReady      Status = "ready"
	StatusError      Status = "error"
	StatusSuppressed Status = "suppressed"
)

// Config holds coordinator settings.
type Config struct {
	// Debounce is the quiet period before a request is issued
	Debounce time.Duration

	// Timeout bounds a single advisory request
	Timeout time.Duration

	// TopK is the number of suggestions requested
	TopK int
}

// DefaultConfig returns the default coordinator settings.
func DefaultConfig() Config {
	return Config{
		Debounce: 300 * time.Millisecond,
		Timeout:  5 * time.Second,
		TopK:     5,
	}
}

// Recorder receives advisory traffic measurements.
type Recorder interface {
	AdvisoryIssued()
	AdvisoryCompleted(elapsed time.Duration, err error)
	AdvisoryDiscarded()
}

type nopRecorder struct{}

func (nopRecorder) AdvisoryIssued()                        {}
func (nopRecorder) AdvisoryCompleted(time.Duration, error) {}
func (nopRecorder) AdvisoryDiscarded()                     {}

// View is a copy of the coordinator's current output.
type View struct {
	Status         Status       `json:"status"`
	Generation     uint64       `json:"generation"`
	Suggestions    []Suggestion `json:"suggestions,omitempty"`
	WinProbability *float64     `json:"win_probability,omitempty"`
	Error          string       `json:"error,omitempty"`
}

// Coordinator debounces advisory requests and discards stale responses.
//
// All methods must be called from the owner's event loop. Timer callbacks and
// responses are handed back through post, which must schedule the function on
// that same loop.
type Coordinator struct {
	advisor  Advisor
	clock    clockwork.Clock
	cfg      Config
	post     func(func())
	recorder Recorder

	pending     *Request
	debounce    clockwork.Timer
	debounceSeq uint64

	// generation tags every issued request; only the current one is accepted
	generation uint64
	awaiting   bool

	result     *Result
	lastErr    error
	suppressed bool

	onChange func()
}

// NewCoordinator creates a coordinator.
func NewCoordinator(advisor Advisor, clock clockwork.Clock, cfg Config, post func(func())) *Coordinator {
	if advisor == nil {
		advisor = NoopAdvisor{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig().TopK
	}
	return &Coordinator{
		advisor:  advisor,
		clock:    clock,
		cfg:      cfg,
		post:     post,
		recorder: nopRecorder{},
	}
}

// SetRecorder installs a metrics sink. nil disables recording.
func (c *Coordinator) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	c.recorder = r
}

// OnChange registers a callback run on the loop whenever the view changes
// outside of Trigger or Reset.
func (c *Coordinator) OnChange(fn func()) {
	c.onChange = fn
}

// Trigger schedules a request for the given draft state. Calls arriving
// within the debounce window restart it; only the latest state is sent. Once
// the operator has locked in, requests stop for the rest of the draft.
func (c *Coordinator) Trigger(snap *draft.Snapshot, role identity.Role, operatorLocked bool) {
	if c.suppressed {
		return
	}
	if operatorLocked {
		c.suppress()
		return
	}

	c.pending = &Request{
		Snapshot: snap.Clone(),
		TopK:     c.cfg.TopK,
		Role:     role,
	}

	c.stopDebounce()
	c.debounceSeq++
	seq := c.debounceSeq
	c.debounce = c.clock.AfterFunc(c.cfg.Debounce, func() {
		c.post(func() { c.fire(seq) })
	})
}

func (c *Coordinator) fire(seq uint64) {
	if seq != c.debounceSeq || c.suppressed || c.pending == nil {
		return
	}

	req := *c.pending
	c.pending = nil
	c.debounce = nil
	c.generation++
	gen := c.generation
	c.awaiting = true

	log.Debug().Uint64("generation", gen).Str("role", string(req.Role)).Msg("issuing advisory request")
	c.recorder.AdvisoryIssued()

	start := c.clock.Now()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
		defer cancel()

		res, err := c.advisor.Advise(ctx, req)
		elapsed := c.clock.Since(start)
		c.post(func() { c.complete(gen, res, err, elapsed) })
	}()

	c.changed()
}

func (c *Coordinator) complete(gen uint64, res *Result, err error, elapsed time.Duration) {
	if gen != c.generation {
		c.recorder.AdvisoryDiscarded()
		log.Debug().Uint64("generation", gen).Uint64("current", c.generation).Msg("discarding stale advisory response")
		return
	}
	c.awaiting = false
	c.recorder.AdvisoryCompleted(elapsed, err)

	if err != nil {
		log.Warn().Err(err).Uint64("generation", gen).Msg("advisory request failed")
		c.lastErr = err
	} else {
		c.result = res
		c.lastErr = nil
	}
	c.changed()
}

func (c *Coordinator) suppress() {
	c.stopDebounce()
	c.pending = nil
	c.generation++
	c.awaiting = false
	c.suppressed = true
	log.Info().Msg("operator locked in, advisory output suppressed")
}

// Reset drops pending, in-flight and cached state.
func (c *Coordinator) Reset() {
	c.stopDebounce()
	c.pending = nil
	c.generation++
	c.awaiting = false
	c.result = nil
	c.lastErr = nil
	c.suppressed = false
}

// Suppressed reports whether output is suppressed for this draft.
func (c *Coordinator) Suppressed() bool {
	return c.suppressed
}

// Generation returns the token of the most recently issued request.
func (c *Coordinator) Generation() uint64 {
	return c.generation
}

// View returns the current output.
func (c *Coordinator) View() View {
	v := View{Generation: c.generation}

	switch {
	case c.suppressed:
		v.Status = StatusSuppressed
		return v
	case c.pending != nil:
		v.Status = StatusPending
	case c.awaiting:
		v.Status = StatusLoading
	case c.lastErr != nil:
		v.Status = StatusError
	case c.result != nil:
		v.Status = StatusReady
	default:
		v.Status = StatusIdle
	}

	if c.lastErr != nil {
		v.Error = c.lastErr.Error()
	}
	if c.result != nil {
		v.Suggestions = append([]Suggestion(nil), c.result.Suggestions...)
		p := c.result.WinProbability
		v.WinProbability = &p
	}
	return v
}

func (c *Coordinator) stopDebounce() {
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	c.debounceSeq++
}

func (c *Coordinator) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
