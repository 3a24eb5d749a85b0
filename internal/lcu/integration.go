package lcu

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/LoL-Companion/internal/draft"
)

// DefaultPollInterval is how often the session is polled.
const DefaultPollInterval = 250 * time.Millisecond

// Timer changes smaller than this are not forwarded on their own.
const timerEpsilon = 0.01

// Config configures the integration adapter.
type Config struct {
	PollInterval   time.Duration
	UseEventStream bool
	WatchLockfile  bool
}

// Integration feeds the draft engine from the local client: a poller plus an
// optional push stream, deduplicated so each change is forwarded once.
type Integration struct {
	client *Client
	store  *CredentialStore
	stream *EventStream
	clock  clockwork.Clock
	cfg    Config

	mu      sync.Mutex
	forward *deduper
}

// NewIntegration creates an integration adapter.
func NewIntegration(client *Client, store *CredentialStore, clock clockwork.Clock, cfg Config) *Integration {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	in := &Integration{
		client: client,
		store:  store,
		clock:  clock,
		cfg:    cfg,
	}
	if cfg.UseEventStream {
		in.stream = NewEventStream(store)
	}
	return in
}

// ProbeConnection implements the connection probe.
func (in *Integration) ProbeConnection(ctx context.Context) error {
	return in.client.ProbeConnection(ctx)
}

// ProbeGamePhase implements the phase probe.
func (in *Integration) ProbeGamePhase(ctx context.Context) (string, error) {
	return in.client.ProbeGamePhase(ctx)
}

// Subscribe runs the poller, and the event stream when enabled, until ctx is
// done. handler sees each distinct snapshot once.
func (in *Integration) Subscribe(ctx context.Context, handler func(*draft.Snapshot)) error {
	forward := newDeduper(handler)
	in.mu.Lock()
	in.forward = forward
	in.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return in.poll(ctx, forward)
	})
	if in.stream != nil {
		g.Go(func() error {
			return in.stream.Run(ctx, forward.offer)
		})
	}
	if in.cfg.WatchLockfile {
		g.Go(func() error {
			if err := in.store.Watch(ctx); err != nil {
				log.Warn().Err(err).Msg("lockfile watch stopped")
			}
			return nil
		})
	}
	return g.Wait()
}

// Resync makes the next poll forward the current session even if it matches
// the last one delivered.
func (in *Integration) Resync() {
	in.mu.Lock()
	forward := in.forward
	in.mu.Unlock()

	if forward != nil {
		forward.reset()
	}
}

// poll fetches the session on every tick. Losing the session resets the
// deduper so the same draft is forwarded again after a reconnect.
func (in *Integration) poll(ctx context.Context, forward *deduper) error {
	ticker := in.clock.NewTicker(in.cfg.PollInterval)
	defer ticker.Stop()

	for {
		snap, err := in.client.Snapshot(ctx)
		switch {
		case err == nil:
			forward.offer(snap)
		case errors.Is(err, ErrNoSession), errors.Is(err, ErrNotRunning):
			forward.reset()
		case ctx.Err() != nil:
			return nil
		default:
			log.Debug().Err(err).Msg("session poll failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
		}
	}
}

// deduper forwards a snapshot only when its content or timer changed.
type deduper struct {
	mu      sync.Mutex
	last    *draft.Snapshot
	handler func(*draft.Snapshot)
}

func newDeduper(handler func(*draft.Snapshot)) *deduper {
	return &deduper{handler: handler}
}

func (d *deduper) offer(snap *draft.Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.last != nil && draft.SameContent(d.last, snap) && !timerMoved(d.last.TimerSeconds, snap.TimerSeconds) {
		return
	}
	d.last = snap
	d.handler(snap)
}

func (d *deduper) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = nil
}

func timerMoved(a, b *float64) bool {
	if a == nil || b == nil {
		return (a == nil) != (b == nil)
	}
	return math.Abs(*a-*b) > timerEpsilon
}
