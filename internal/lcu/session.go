package lcu

import (
	"errors"

	"github.com/tidwall/gjson"

	"github.com/ramonehamilton/LoL-Companion/internal/draft"
)

// Timer values above this are milliseconds.
const millisecondThreshold = 1000

// ParseSession converts a champ select session document into a snapshot.
// Missing or oddly typed fields fall back to empty values.
func ParseSession(data []byte) (*draft.Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid champ select session json")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, errors.New("champ select session is not an object")
	}

	snap := &draft.Snapshot{
		Phase:        doc.Get("timer.phase").String(),
		TimerSeconds: parseTimer(doc.Get("timer")),
		Actions:      parseActions(doc.Get("actions")),
	}

	for _, side := range []struct {
		path   string
		teamID int
	}{
		{"myTeam", draft.TeamBlue},
		{"theirTeam", draft.TeamRed},
	} {
		cells := parseCells(doc.Get(side.path))
		if len(cells) == 0 {
			continue
		}
		snap.Teams = append(snap.Teams, draft.Team{TeamID: side.teamID, Cells: cells})
	}
	assignBans(snap)

	if local := doc.Get("localPlayerCellId"); local.Exists() && local.Type == gjson.Number && local.Int() >= 0 {
		snap.LocalPlayerCellID = draft.CellPtr(draft.CellID(local.Int()))
	}

	return snap, nil
}

func parseTimer(timer gjson.Result) *float64 {
	v := timer.Get("adjustedTimeLeftInPhase")
	if !v.Exists() || v.Type == gjson.Null {
		v = timer.Get("timeLeftInPhase")
	}
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}

	seconds := v.Float()
	if seconds > millisecondThreshold {
		seconds /= 1000
	}
	return draft.SecondsPtr(seconds)
}

// championID reads a champion key that may be a number or a numeric string.
func championID(v gjson.Result) draft.ChampionID {
	if !v.Exists() {
		return 0
	}
	return draft.ChampionID(v.Int())
}

func parseCells(team gjson.Result) []draft.Cell {
	var cells []draft.Cell
	team.ForEach(func(_, c gjson.Result) bool {
		cell := draft.Cell{
			CellID:           draft.CellID(c.Get("cellId").Int()),
			AssignedPosition: c.Get("assignedPosition").String(),
		}

		if locked := championID(c.Get("championId")); locked.IsChampion() {
			cell.LockedChampionID = locked
		} else {
			intent := championID(c.Get("championPickIntent"))
			if !intent.IsChampion() {
				intent = championID(c.Get("selectedChampionId"))
			}
			if intent.IsChampion() {
				cell.PreselectedChampionID = intent
			}
		}

		cells = append(cells, cell)
		return true
	})
	return cells
}

// parseActions flattens the nested turn groups, keeping their order.
func parseActions(groups gjson.Result) []draft.Action {
	var actions []draft.Action
	groups.ForEach(func(_, group gjson.Result) bool {
		group.ForEach(func(_, a gjson.Result) bool {
			typ := draft.ActionType(a.Get("type").String())
			if typ != draft.ActionTypePick && typ != draft.ActionTypeBan {
				return true
			}
			action := draft.Action{
				ID:         a.Get("id").Int(),
				ChampionID: championID(a.Get("championId")),
				Type:       typ,
				Completed:  a.Get("completed").Bool(),
				InProgress: a.Get("isInProgress").Bool(),
			}
			if actor := a.Get("actorCellId"); actor.Exists() && actor.Type == gjson.Number {
				action.ActorCellID = draft.CellPtr(draft.CellID(actor.Int()))
			}
			actions = append(actions, action)
			return true
		})
		return true
	})
	return actions
}

// assignBans builds every team's ban slots from the ban actions. Slots are
// owned by the actor's team and padded to a full row with unowned slots.
func assignBans(snap *draft.Snapshot) {
	owner := make(map[draft.CellID]int)
	for _, t := range snap.Teams {
		for _, c := range t.Cells {
			owner[c.CellID] = t.TeamID
		}
	}

	bans := make(map[int][]draft.BanSlot)
	for _, a := range snap.Actions {
		if a.Type != draft.ActionTypeBan || a.ActorCellID == nil {
			continue
		}
		teamID, ok := owner[*a.ActorCellID]
		if !ok {
			teamID = draft.TeamBlue
			if *a.ActorCellID >= draft.TeamSize {
				teamID = draft.TeamRed
			}
		}

		slot := draft.BanSlot{
			CellID:     draft.CellPtr(*a.ActorCellID),
			ChampionID: a.ChampionID,
			Completed:  a.Completed,
		}
		if a.Completed && !a.ChampionID.IsChampion() {
			slot.ChampionID = draft.NoBan
		}
		if len(bans[teamID]) < draft.TeamSize {
			bans[teamID] = append(bans[teamID], slot)
		}
	}

	for i := range snap.Teams {
		slots := bans[snap.Teams[i].TeamID]
		for len(slots) < draft.TeamSize {
			slots = append(slots, draft.BanSlot{})
		}
		snap.Teams[i].Bans = slots
	}
}
