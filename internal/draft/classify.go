package draft

// CellState is the display state of a pick cell.
type CellState string

const (
	CellEmpty             CellState = "EMPTY"
	CellActivelySelecting CellState = "ACTIVELY_SELECTING"
	CellProvisional       CellState = "PROVISIONAL"
	CellLocked            CellState = "LOCKED"
)

// BanState is the display state of a ban slot.
type BanState string

const (
	BanEmpty           BanState = "EMPTY"
	BanActivelyBanning BanState = "ACTIVELY_BANNING"
	BanProvisional     BanState = "PROVISIONAL"
	BanNone            BanState = "NO_BAN"
	BanCompleted       BanState = "COMPLETED"
)

// CellView is a classified pick cell.
type CellView struct {
	CellID     CellID     `json:"cell_id"`
	TeamID     int        `json:"team_id"`
	State      CellState  `json:"state"`
	ChampionID ChampionID `json:"champion_id"`
	// OnTurn is set while the cell owns a pending pick, even before anything is hovered.
	OnTurn bool `json:"on_turn"`
}

// BanView is a classified ban slot.
type BanView struct {
	CellID     *CellID    `json:"cell_id,omitempty"`
	TeamID     int        `json:"team_id"`
	State      BanState   `json:"state"`
	ChampionID ChampionID `json:"champion_id"`
	OnTurn     bool       `json:"on_turn"`
}

// TeamView holds the classified slots of one team.
type TeamView struct {
	TeamID int        `json:"team_id"`
	Cells  []CellView `json:"cells"`
	Bans   []BanView  `json:"bans"`
}

// Classification is the derived display state for a whole snapshot.
type Classification struct {
	Teams []TeamView `json:"teams"`
}

// Cell returns the classified cell with the given id.
func (c Classification) Cell(id CellID) (CellView, bool) {
	for _, t := range c.Teams {
		for _, v := range t.Cells {
			if v.CellID == id {
				return v, true
			}
		}
	}
	return CellView{}, false
}

// Classify derives the display state of every cell and ban slot. It keeps no
// state between calls.
func Classify(s *Snapshot) Classification {
	var out Classification
	if s == nil {
		return out
	}

	out.Teams = make([]TeamView, 0, len(s.Teams))
	for _, t := range s.Teams {
		tv := TeamView{
			TeamID: t.TeamID,
			Cells:  make([]CellView, 0, len(t.Cells)),
			Bans:   make([]BanView, 0, len(t.Bans)),
		}
		for _, c := range t.Cells {
			tv.Cells = append(tv.Cells, classifyCell(s.Actions, t.TeamID, c))
		}
		for _, b := range t.Bans {
			tv.Bans = append(tv.Bans, classifyBan(s.Actions, t.TeamID, b))
		}
		out.Teams = append(out.Teams, tv)
	}
	return out
}

func classifyCell(actions []Action, teamID int, c Cell) CellView {
	v := CellView{CellID: c.CellID, TeamID: teamID, State: CellEmpty}

	if c.LockedChampionID.IsChampion() {
		v.State = CellLocked
		v.ChampionID = c.LockedChampionID
		return v
	}

	action, onTurn := pendingAction(actions, ActionTypePick, c.CellID)
	v.OnTurn = onTurn

	provisional := c.PreselectedChampionID
	if onTurn && action.ChampionID.IsChampion() {
		provisional = action.ChampionID
	}

	switch {
	case onTurn && provisional.IsChampion():
		v.State = CellActivelySelecting
		v.ChampionID = provisional
	case provisional.IsChampion():
		v.State = CellProvisional
		v.ChampionID = provisional
	}
	return v
}

func classifyBan(actions []Action, teamID int, b BanSlot) BanView {
	v := BanView{TeamID: teamID, State: BanEmpty}
	if b.CellID != nil {
		id := *b.CellID
		v.CellID = &id
	}

	switch {
	case b.Completed && b.ChampionID.IsChampion():
		v.State = BanCompleted
		v.ChampionID = b.ChampionID
		return v
	case b.ChampionID == NoBan:
		v.State = BanNone
		v.ChampionID = NoBan
		return v
	}

	if b.CellID != nil {
		_, v.OnTurn = pendingAction(actions, ActionTypeBan, *b.CellID)
	}

	switch {
	case v.OnTurn && b.ChampionID.IsChampion():
		v.State = BanActivelyBanning
		v.ChampionID = b.ChampionID
	case b.ChampionID.IsChampion():
		v.State = BanProvisional
		v.ChampionID = b.ChampionID
	}
	return v
}

// pendingAction finds the pending action of the given type for a cell.
// When several match, the most recently listed one wins.
func pendingAction(actions []Action, typ ActionType, cell CellID) (Action, bool) {
	var (
		found Action
		ok    bool
	)
	for _, a := range actions {
		if a.Type != typ || !a.Pending() || a.ActorCellID == nil || *a.ActorCellID != cell {
			continue
		}
		found, ok = a, true
	}
	return found, ok
}
