// Package draft models champion-select state and derives per-slot display states from it.
package draft

// CellID identifies a player slot for the lifetime of one draft.
type CellID int64

// ChampionID identifies a champion. Zero means nothing chosen.
type ChampionID int64

// NoBan is the champion value of a ban slot whose owner explicitly banned nothing.
const NoBan ChampionID = -1

// IsChampion reports whether the id names an actual champion.
func (c ChampionID) IsChampion() bool {
	return c > 0
}

// ActionType is the kind of turn a DraftAction represents.
type ActionType string

const (
	ActionTypePick ActionType = "pick"
	ActionTypeBan  ActionType = "ban"
)

// Team identifiers used by the game client.
const (
	TeamBlue = 100
	TeamRed  = 200
)

// TeamSize is the number of cells and ban slots per team.
const TeamSize = 5

// Snapshot is the authoritative draft state. Each one replaces the previous wholesale.
type Snapshot struct {
	Phase             string   `json:"phase"`
	TimerSeconds      *float64 `json:"timer_seconds,omitempty"`
	Teams             []Team   `json:"teams"`
	Actions           []Action `json:"actions"`
	LocalPlayerCellID *CellID  `json:"local_player_cell_id,omitempty"`
}

// Team is one side of the draft.
type Team struct {
	TeamID int       `json:"team_id"`
	Cells  []Cell    `json:"cells"`
	Bans   []BanSlot `json:"bans"`
}

// Cell is a pick slot.
type Cell struct {
	CellID                CellID     `json:"cell_id"`
	LockedChampionID      ChampionID `json:"locked_champion_id"`
	PreselectedChampionID ChampionID `json:"preselected_champion_id"`
	AssignedPosition      string     `json:"assigned_position,omitempty"`
}

// BanSlot is a ban slot. CellID is nil until an owner is known.
type BanSlot struct {
	CellID     *CellID    `json:"cell_id,omitempty"`
	ChampionID ChampionID `json:"champion_id"`
	Completed  bool       `json:"completed"`
}

// Action is a transient turn record.
type Action struct {
	ID          int64      `json:"id"`
	ActorCellID *CellID    `json:"actor_cell_id,omitempty"`
	ChampionID  ChampionID `json:"champion_id"`
	Type        ActionType `json:"type"`
	Completed   bool       `json:"completed"`
	InProgress  bool       `json:"in_progress"`
}

// Pending reports whether the action is the actor's current, unfinished turn.
func (a Action) Pending() bool {
	return a.InProgress && !a.Completed
}

// Clone returns a deep copy so the ingestor owns its snapshot exclusively.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	out := &Snapshot{
		Phase:             s.Phase,
		TimerSeconds:      cloneFloat(s.TimerSeconds),
		LocalPlayerCellID: cloneCell(s.LocalPlayerCellID),
	}

	if s.Teams != nil {
		out.Teams = make([]Team, len(s.Teams))
		for i, t := range s.Teams {
			out.Teams[i] = Team{TeamID: t.TeamID}
			if t.Cells != nil {
				out.Teams[i].Cells = make([]Cell, len(t.Cells))
				copy(out.Teams[i].Cells, t.Cells)
			}
			if t.Bans != nil {
				out.Teams[i].Bans = make([]BanSlot, len(t.Bans))
				for j, b := range t.Bans {
					b.CellID = cloneCell(b.CellID)
					out.Teams[i].Bans[j] = b
				}
			}
		}
	}

	if s.Actions != nil {
		out.Actions = make([]Action, len(s.Actions))
		for i, a := range s.Actions {
			a.ActorCellID = cloneCell(a.ActorCellID)
			out.Actions[i] = a
		}
	}

	return out
}

// HasTeams reports whether the snapshot describes an actual draft.
func (s *Snapshot) HasTeams() bool {
	return s != nil && len(s.Teams) > 0
}

// FindCell returns the cell and its team id.
func (s *Snapshot) FindCell(id CellID) (Cell, int, bool) {
	if s == nil {
		return Cell{}, 0, false
	}
	for _, t := range s.Teams {
		for _, c := range t.Cells {
			if c.CellID == id {
				return c, t.TeamID, true
			}
		}
	}
	return Cell{}, 0, false
}

// Team returns the team with the given id.
func (s *Snapshot) Team(teamID int) (Team, bool) {
	if s == nil {
		return Team{}, false
	}
	for _, t := range s.Teams {
		if t.TeamID == teamID {
			return t, true
		}
	}
	return Team{}, false
}

// FirstPendingActor returns the actor of the first in-progress, unfinished action.
func (s *Snapshot) FirstPendingActor() (CellID, bool) {
	if s == nil {
		return 0, false
	}
	for _, a := range s.Actions {
		if a.Pending() && a.ActorCellID != nil {
			return *a.ActorCellID, true
		}
	}
	return 0, false
}

// CellPtr is a helper for optional cell ids.
func CellPtr(id CellID) *CellID {
	return &id
}

// SecondsPtr is a helper for optional timer values.
func SecondsPtr(v float64) *float64 {
	return &v
}

func cloneCell(p *CellID) *CellID {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
