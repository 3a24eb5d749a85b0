// Package engine runs the single reconciliation loop that owns all draft
// state and publishes a consistent projection of it.
package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/ramonehamilton/LoL-Companion/internal/advisory"
	"github.com/ramonehamilton/LoL-Companion/internal/draft"
	"github.com/ramonehamilton/LoL-Companion/internal/draft/countdown"
	"github.com/ramonehamilton/LoL-Companion/internal/draft/identity"
	"github.com/ramonehamilton/LoL-Companion/internal/events"
	"github.com/ramonehamilton/LoL-Companion/internal/metrics"
	"github.com/ramonehamilton/LoL-Companion/internal/supervisor"
)

// ErrNoDraft is returned for draft operations while no draft is active.
var ErrNoDraft = errors.New("no draft in progress")

// ErrStopped is returned when the engine loop is no longer running.
var ErrStopped = errors.New("engine stopped")

// Integration is what the engine needs from the game client.
type Integration interface {
	supervisor.Prober

	// Subscribe delivers draft snapshots to handler until ctx is done.
	Subscribe(ctx context.Context, handler func(*draft.Snapshot)) error

	// Resync asks for the current snapshot to be delivered again even if it
	// has not changed since the last delivery.
	Resync()
}

// Config holds engine settings.
type Config struct {
	// Tick is the render interval for the interpolated timer
	Tick time.Duration

	Ceilings   countdown.Ceilings
	Advisory   advisory.Config
	Supervisor supervisor.Config
	AutoAssign identity.AutoAssignPolicy

	// Metrics receives engine measurements. A private collector is used when nil.
	Metrics *metrics.EngineMetrics
}

// DefaultConfig returns the default engine settings.
func DefaultConfig() Config {
	return Config{
		Tick:       50 * time.Millisecond,
		Ceilings:   countdown.DefaultCeilings(),
		Advisory:   advisory.DefaultConfig(),
		Supervisor: supervisor.DefaultConfig(),
		AutoAssign: identity.AutoAssignNone,
	}
}

// Engine owns the current snapshot and everything derived from it. State is
// only touched from the Run goroutine; other goroutines hand work in through
// the inbox.
type Engine struct {
	cfg         Config
	clock       clockwork.Clock
	integration Integration
	dispatcher  *events.EventDispatcher

	inbox   chan func()
	stopped chan struct{}

	// loop-owned
	snapshot    *draft.Snapshot
	sessionID   uuid.UUID
	locks       map[draft.CellID]draft.ChampionID
	reconciler  *countdown.Reconciler
	resolver    *identity.Resolver
	coordinator *advisory.Coordinator
	supervisor  *supervisor.Supervisor
	version     uint64

	projection atomic.Pointer[Projection]
}

// New creates an engine. dispatcher may be nil.
func New(integration Integration, advisor advisory.Advisor, dispatcher *events.EventDispatcher, clock clockwork.Clock, cfg Config) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultConfig().Tick
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New(clock)
	}

	e := &Engine{
		cfg:         cfg,
		clock:       clock,
		integration: integration,
		dispatcher:  dispatcher,
		inbox:       make(chan func(), 256),
		stopped:     make(chan struct{}),
		locks:       make(map[draft.CellID]draft.ChampionID),
		reconciler:  countdown.NewReconciler(clock, cfg.Ceilings),
		resolver:    identity.NewResolver(cfg.AutoAssign),
	}
	e.coordinator = advisory.NewCoordinator(advisor, clock, cfg.Advisory, e.post)
	e.coordinator.OnChange(e.publish)
	e.coordinator.SetRecorder(cfg.Metrics)
	e.supervisor = supervisor.New(integration, clock, cfg.Supervisor, e.post)
	e.supervisor.OnTransition(e.onTransition)

	e.projection.Store(e.build())
	return e
}

// Run processes snapshots, probe results and render ticks until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.stopped)

	ticker := e.clock.NewTicker(e.cfg.Tick)
	defer ticker.Stop()

	if e.integration != nil {
		go func() {
			if err := e.integration.Subscribe(ctx, e.Submit); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("snapshot subscription ended")
			}
		}()
	}

	e.supervisor.Start()
	e.publish()
	log.Info().Dur("tick", e.cfg.Tick).Msg("draft engine started")

	for {
		select {
		case <-ctx.Done():
			e.supervisor.Stop()
			e.coordinator.Reset()
			log.Info().Msg("draft engine stopped")
			return nil
		case fn := <-e.inbox:
			fn()
		case <-ticker.Chan():
			e.tick()
		}
	}
}

// post schedules fn on the loop. It never blocks once the loop has exited.
func (e *Engine) post(fn func()) {
	select {
	case e.inbox <- fn:
	case <-e.stopped:
	}
}

// Submit hands a snapshot to the loop. Safe for concurrent use; the engine
// keeps its own copy.
func (e *Engine) Submit(snap *draft.Snapshot) {
	if snap == nil {
		return
	}
	owned := snap.Clone()
	e.post(func() { e.apply(owned) })
}

// SelectRole records the operator's manual role. RoleUnassigned clears it.
func (e *Engine) SelectRole(ctx context.Context, role identity.Role) error {
	result := make(chan error, 1)
	e.post(func() { result <- e.selectRole(role) })

	select {
	case err := <-result:
		return err
	case <-e.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Metrics returns the engine's metrics collector.
func (e *Engine) Metrics() *metrics.EngineMetrics {
	return e.cfg.Metrics
}

// Projection returns the latest projection. The returned value must not be modified.
func (e *Engine) Projection() *Projection {
	return e.projection.Load()
}

func (e *Engine) selectRole(role identity.Role) error {
	if e.snapshot == nil {
		return ErrNoDraft
	}

	before := e.resolver.OperatorRole(e.snapshot)
	if err := e.resolver.Select(e.snapshot, role); err != nil {
		return err
	}

	if e.resolver.OperatorRole(e.snapshot) != before {
		e.triggerAdvice()
	}
	e.publish()
	return nil
}

func (e *Engine) tick() {
	if e.supervisor.State() != supervisor.ConnectedInDraft {
		return
	}

	cur := e.projection.Load()
	next := *cur
	next.Timer = timerView(e.reconciler.Read())
	e.projection.Store(&next)

	e.dispatch(events.TypeTimer, events.TimerTickEvent{
		SessionID:        next.SessionID,
		RemainingSeconds: next.Timer.RemainingSeconds,
		CeilingSeconds:   next.Timer.CeilingSeconds,
		Running:          next.Timer.Running,
	})
}

func (e *Engine) dispatch(eventType string, data any) {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.Dispatch(events.NewTypedEvent(eventType, data, context.Background()))
}
