package supervisor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type testLoop struct {
	work chan func()
}

func (l *testLoop) post(fn func()) { l.work <- fn }

func (l *testLoop) runNext(t *testing.T) {
	t.Helper()
	select {
	case fn := <-l.work:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for loop work")
	}
}

func (l *testLoop) assertIdle(t *testing.T) {
	t.Helper()
	select {
	case <-l.work:
		t.Fatal("unexpected loop work")
	case <-time.After(50 * time.Millisecond):
	}
}

type fakeProber struct {
	mu          sync.Mutex
	connErr     error
	phase       string
	connProbes  int
	phaseProbes int
}

func (p *fakeProber) ProbeConnection(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connProbes++
	return p.connErr
}

func (p *fakeProber) ProbeGamePhase(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phaseProbes++
	return p.phase, nil
}

func (p *fakeProber) set(connErr error, phase string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connErr = connErr
	p.phase = phase
}

func (p *fakeProber) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connProbes, p.phaseProbes
}

func newTestSupervisor(p *fakeProber) (*Supervisor, *testLoop, fakeClock, *[]Transition) {
	loop := &testLoop{work: make(chan func(), 64)}
	clock := clockwork.NewFakeClock()
	s := New(p, clock, DefaultConfig(), loop.post)

	var transitions []Transition
	s.OnTransition(func(tr Transition) { transitions = append(transitions, tr) })
	return s, loop, clock, &transitions
}

// tick advances one probe interval and processes the timer and probe result.
func tick(t *testing.T, loop *testLoop, clock fakeClock, d time.Duration) {
	t.Helper()
	clock.Advance(d)
	loop.runNext(t) // timer callback
	loop.runNext(t) // probe result
}

// runUntil processes loop work until cond holds.
func runUntil(t *testing.T, loop *testLoop, cond func() bool) {
	t.Helper()
	for i := 0; i < 20 && !cond(); i++ {
		loop.runNext(t)
	}
	require.True(t, cond())
}

func TestSupervisor_ConnectsOnSuccessfulProbe(t *testing.T) {
	p := &fakeProber{}
	s, loop, _, transitions := newTestSupervisor(p)

	assert.Equal(t, Disconnected, s.State())
	s.Start()
	loop.runNext(t)

	assert.Equal(t, ConnectedNoDraft, s.State())
	require.Len(t, *transitions, 1)
	assert.Equal(t, Disconnected, (*transitions)[0].From)
	assert.Equal(t, ConnectedNoDraft, (*transitions)[0].To)
}

func TestSupervisor_RetriesWhileDisconnected(t *testing.T) {
	p := &fakeProber{connErr: errors.New("lockfile not found")}
	s, loop, clock, transitions := newTestSupervisor(p)

	s.Start()
	loop.runNext(t)
	assert.Equal(t, Disconnected, s.State())

	for i := 0; i < 3; i++ {
		tick(t, loop, clock, DefaultConfig().ProbeInterval)
		assert.Equal(t, Disconnected, s.State())
	}
	conn, _ := p.counts()
	assert.Equal(t, 4, conn)
	assert.Empty(t, *transitions)

	p.set(nil, "")
	tick(t, loop, clock, DefaultConfig().ProbeInterval)
	assert.Equal(t, ConnectedNoDraft, s.State())
}

func TestSupervisor_DraftLifecycleViaPhaseProbe(t *testing.T) {
	p := &fakeProber{phase: "ChampSelect"}
	s, loop, clock, transitions := newTestSupervisor(p)

	s.Start()
	loop.runNext(t)
	require.Equal(t, ConnectedNoDraft, s.State())

	assert.True(t, s.DraftStarted())
	assert.Equal(t, ConnectedInDraft, s.State())
	assert.True(t, s.DraftStarted(), "repeated snapshots keep the draft")

	// Phase still ChampSelect: stays in draft.
	tick(t, loop, clock, DefaultConfig().PhasePollInterval)
	assert.Equal(t, ConnectedInDraft, s.State())

	// The next phase poll lands together with the connectivity probe.
	p.set(nil, "InProgress")
	clock.Advance(DefaultConfig().PhasePollInterval)
	runUntil(t, loop, func() bool { return s.State() == ConnectedNoDraft })

	last := (*transitions)[len(*transitions)-1]
	assert.True(t, last.LeftDraft())
	assert.Equal(t, "game phase is InProgress", last.Reason)
}

func TestSupervisor_ProbeFailureMidDraft(t *testing.T) {
	p := &fakeProber{phase: "ChampSelect"}
	s, loop, clock, transitions := newTestSupervisor(p)

	s.Start()
	loop.runNext(t)
	s.DraftStarted()

	p.set(errors.New("connection refused"), "ChampSelect")

	// The phase poll fires first and keeps the draft; the connectivity
	// probe then fails.
	clock.Advance(DefaultConfig().ProbeInterval)
	runUntil(t, loop, func() bool { return s.State() == Disconnected })

	last := (*transitions)[len(*transitions)-1]
	assert.Equal(t, ConnectedInDraft, last.From)
	assert.Equal(t, Disconnected, last.To)
	assert.True(t, last.LeftDraft())
}

func TestSupervisor_IgnoresDraftWhileDisconnected(t *testing.T) {
	p := &fakeProber{connErr: errors.New("down")}
	s, loop, _, _ := newTestSupervisor(p)

	s.Start()
	loop.runNext(t)

	assert.False(t, s.DraftStarted())
	assert.Equal(t, Disconnected, s.State())
}

func TestSupervisor_StopCancelsTimers(t *testing.T) {
	p := &fakeProber{}
	s, loop, clock, _ := newTestSupervisor(p)

	s.Start()
	loop.runNext(t)
	s.Stop()

	clock.Advance(10 * DefaultConfig().ProbeInterval)
	loop.assertIdle(t)

	conn, _ := p.counts()
	assert.Equal(t, 1, conn)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "connected_no_draft", ConnectedNoDraft.String())
	assert.Equal(t, "connected_in_draft", ConnectedInDraft.String())
}
