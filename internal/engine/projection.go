package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/ramonehamilton/LoL-Companion/internal/advisory"
	"github.com/ramonehamilton/LoL-Companion/internal/draft"
	"github.com/ramonehamilton/LoL-Companion/internal/draft/countdown"
	"github.com/ramonehamilton/LoL-Companion/internal/draft/identity"
	"github.com/ramonehamilton/LoL-Companion/internal/events"
	"github.com/ramonehamilton/LoL-Companion/internal/supervisor"
)

// Projection is the read-only view handed to the presentation layer. Every
// field is derived from the same snapshot.
type Projection struct {
	Version    uint64           `json:"version"`
	SessionID  string           `json:"session_id,omitempty"`
	Connection supervisor.State `json:"connection"`
	InDraft    bool             `json:"in_draft"`
	// Waiting is set while in a draft whose snapshot has no teams yet.
	Waiting  bool             `json:"waiting"`
	Phase    string           `json:"phase,omitempty"`
	Teams    []draft.TeamView `json:"teams"`
	Timer    TimerView        `json:"timer"`
	Operator OperatorView     `json:"operator"`
	Roles    []TeamRoles      `json:"roles"`
	Advisory AdvisoryView     `json:"advisory"`
	At       time.Time        `json:"at"`
}

// TimerView is the interpolated countdown.
type TimerView struct {
	RemainingSeconds float64 `json:"remaining_seconds"`
	CeilingSeconds   float64 `json:"ceiling_seconds"`
	Running          bool    `json:"running"`
}

// OperatorView describes the local player.
type OperatorView struct {
	CellID         *draft.CellID       `json:"cell_id,omitempty"`
	TeamID         int                 `json:"team_id,omitempty"`
	Confidence     identity.Confidence `json:"confidence"`
	Role           identity.Role       `json:"role"`
	AvailableRoles []identity.Role     `json:"available_roles"`
	CanSelectRole  bool                `json:"can_select_role"`
}

// TeamRoles lists the displayed role of each cell of a team.
type TeamRoles struct {
	TeamID int                            `json:"team_id"`
	Cells  []CellRole                     `json:"cells"`
	Taken  map[identity.Role]draft.CellID `json:"taken"`
}

// CellRole is one cell's displayed role.
type CellRole struct {
	CellID draft.CellID  `json:"cell_id"`
	Role   identity.Role `json:"role"`
}

// AdvisoryView is the advisory section. Peers holds teammates' provisional
// picks and is hidden together with the suggestions once suppressed.
type AdvisoryView struct {
	advisory.View
	Peers []advisory.PeerIntent `json:"peers,omitempty"`
}

func timerView(r countdown.Reading) TimerView {
	return TimerView{
		RemainingSeconds: r.Remaining.Seconds(),
		CeilingSeconds:   r.Ceiling.Seconds(),
		Running:          r.Running,
	}
}

// publish rebuilds the projection and notifies observers.
func (e *Engine) publish() {
	p := e.build()
	e.projection.Store(p)
	e.dispatch(events.TypeProjection, p)
}

func (e *Engine) build() *Projection {
	e.version++
	state := e.supervisor.State()

	p := &Projection{
		Version:    e.version,
		Connection: state,
		InDraft:    state == supervisor.ConnectedInDraft,
		Teams:      []draft.TeamView{},
		Roles:      []TeamRoles{},
		At:         e.clock.Now(),
	}
	if e.sessionID != uuid.Nil {
		p.SessionID = e.sessionID.String()
	}
	p.Advisory.View = e.coordinator.View()

	snap := e.snapshot
	if snap == nil {
		p.Waiting = p.InDraft
		return p
	}

	p.Phase = snap.Phase
	p.Waiting = !snap.HasTeams()
	p.Teams = draft.Classify(snap).Teams
	p.Timer = timerView(e.reconciler.Read())

	local, conf := e.resolver.Identity()
	p.Operator.Confidence = conf
	p.Operator.AvailableRoles = []identity.Role{}
	if conf != identity.Unknown {
		id := local
		p.Operator.CellID = &id
		assigned := false
		if cell, teamID, ok := snap.FindCell(local); ok {
			p.Operator.TeamID = teamID
			assigned = cell.AssignedPosition != ""
		}
		p.Operator.Role = e.resolver.OperatorRole(snap)
		if avail := e.resolver.Available(snap); avail != nil {
			p.Operator.AvailableRoles = avail
			p.Operator.CanSelectRole = !assigned
		}
		if !e.coordinator.Suppressed() {
			p.Advisory.Peers = advisory.PeerIntents(snap, local)
		}
	}

	for _, t := range snap.Teams {
		tr := TeamRoles{
			TeamID: t.TeamID,
			Cells:  make([]CellRole, 0, len(t.Cells)),
			Taken:  e.resolver.TeamRoles(snap, t.TeamID),
		}
		for _, c := range t.Cells {
			role := identity.RoleUnassigned
			for r, holder := range tr.Taken {
				if holder == c.CellID {
					role = r
					break
				}
			}
			tr.Cells = append(tr.Cells, CellRole{CellID: c.CellID, Role: role})
		}
		p.Roles = append(p.Roles, tr)
	}

	return p
}
