package advisory

import (
	"github.com/ramonehamilton/LoL-Companion/internal/draft"
)

// PeerIntent is a teammate's staged, unlocked pick.
type PeerIntent struct {
	CellID     draft.CellID     `json:"cell_id"`
	ChampionID draft.ChampionID `json:"champion_id"`
}

// PeerIntents lists the provisional picks of the operator's teammates.
func PeerIntents(s *draft.Snapshot, local draft.CellID) []PeerIntent {
	_, teamID, ok := s.FindCell(local)
	if !ok {
		return nil
	}
	team, _ := s.Team(teamID)

	var out []PeerIntent
	for _, c := range team.Cells {
		if c.CellID == local || c.LockedChampionID.IsChampion() || !c.PreselectedChampionID.IsChampion() {
			continue
		}
		out = append(out, PeerIntent{CellID: c.CellID, ChampionID: c.PreselectedChampionID})
	}
	return out
}
