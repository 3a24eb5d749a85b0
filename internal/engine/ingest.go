package engine

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ramonehamilton/LoL-Companion/internal/draft"
	"github.com/ramonehamilton/LoL-Companion/internal/draft/identity"
	"github.com/ramonehamilton/LoL-Companion/internal/events"
	"github.com/ramonehamilton/LoL-Companion/internal/supervisor"
)

// apply replaces the current snapshot. Everything derived from it is updated
// before the projection is published, so readers never see a mix.
func (e *Engine) apply(snap *draft.Snapshot) {
	start := e.clock.Now()

	switch e.supervisor.State() {
	case supervisor.Disconnected:
		log.Debug().Msg("ignoring snapshot while disconnected")
		e.cfg.Metrics.SnapshotIgnored()
		return
	case supervisor.ConnectedNoDraft:
		if !snap.HasTeams() {
			e.cfg.Metrics.SnapshotIgnored()
			return
		}
	}

	if !e.supervisor.DraftStarted() {
		e.cfg.Metrics.SnapshotIgnored()
		return
	}

	e.carryLocks(snap)

	prev := e.snapshot
	prevRole := e.resolver.OperatorRole(prev)

	e.snapshot = snap
	e.reconciler.Observe(snap)
	e.resolver.Observe(snap)

	if !draft.SameContent(prev, snap) || e.resolver.OperatorRole(snap) != prevRole {
		e.triggerAdvice()
	}
	e.publish()
	e.cfg.Metrics.SnapshotApplied(e.clock.Since(start))
}

// carryLocks keeps a cell locked for the rest of the draft once it has been
// seen locked, even if a later snapshot omits the value.
func (e *Engine) carryLocks(snap *draft.Snapshot) {
	for ti := range snap.Teams {
		cells := snap.Teams[ti].Cells
		for ci := range cells {
			c := &cells[ci]
			if c.LockedChampionID.IsChampion() {
				if _, seen := e.locks[c.CellID]; !seen {
					e.locks[c.CellID] = c.LockedChampionID
				}
				continue
			}
			if locked, seen := e.locks[c.CellID]; seen {
				log.Debug().Int64("cell", int64(c.CellID)).Msg("snapshot dropped a lock, keeping it")
				c.LockedChampionID = locked
			}
		}
	}
}

func (e *Engine) triggerAdvice() {
	local, conf := e.resolver.Identity()
	locked := false
	if conf != identity.Unknown {
		if cell, _, ok := e.snapshot.FindCell(local); ok {
			locked = cell.LockedChampionID.IsChampion()
		}
	}
	e.coordinator.Trigger(e.snapshot, e.resolver.OperatorRole(e.snapshot), locked)
}

func (e *Engine) onTransition(tr supervisor.Transition) {
	if tr.LeftDraft() {
		e.clear()
	}
	if tr.To == supervisor.Disconnected {
		e.cfg.Metrics.ConnectionLost()
	}
	// Snapshots are dropped while disconnected, so the draft in progress has
	// to be delivered again once the client answers.
	if tr.From == supervisor.Disconnected && tr.To == supervisor.ConnectedNoDraft && e.integration != nil {
		go e.integration.Resync()
	}
	if tr.To == supervisor.ConnectedInDraft {
		e.cfg.Metrics.DraftStarted()
		e.sessionID = uuid.New()
		log.Info().Str("draft_session", e.sessionID.String()).Msg("draft started")
	}

	e.dispatch(events.TypeConnection, events.ConnectionStateEvent{
		From:   tr.From.String(),
		To:     tr.To.String(),
		Reason: tr.Reason,
	})
	e.publish()
}

// clear drops the snapshot and all derived state in one step.
func (e *Engine) clear() {
	if e.sessionID != uuid.Nil {
		log.Info().Str("draft_session", e.sessionID.String()).Msg("draft ended")
	}
	e.snapshot = nil
	e.sessionID = uuid.Nil
	e.locks = make(map[draft.CellID]draft.ChampionID)
	e.reconciler.Reset()
	e.resolver.Reset()
	e.coordinator.Reset()
}
