package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/LoL-Companion/internal/draft"
)

// teamSnapshot builds a blue team of cells 0-4 and a red team of cells 5-9.
func teamSnapshot() *draft.Snapshot {
	snap := &draft.Snapshot{Phase: "BAN_PICK"}
	for _, teamID := range []int{draft.TeamBlue, draft.TeamRed} {
		team := draft.Team{TeamID: teamID}
		base := draft.CellID(0)
		if teamID == draft.TeamRed {
			base = 5
		}
		for i := 0; i < draft.TeamSize; i++ {
			team.Cells = append(team.Cells, draft.Cell{CellID: base + draft.CellID(i)})
		}
		snap.Teams = append(snap.Teams, team)
	}
	return snap
}

func withTurn(s *draft.Snapshot, actor draft.CellID) *draft.Snapshot {
	s.Actions = []draft.Action{{ID: 1, ActorCellID: draft.CellPtr(actor), Type: draft.ActionTypePick, InProgress: true}}
	return s
}

func TestResolver_AuthoritativeIdentityIsFinal(t *testing.T) {
	r := NewResolver(AutoAssignNone)

	snap := teamSnapshot()
	snap.LocalPlayerCellID = draft.CellPtr(2)
	r.Observe(snap)

	cell, conf := r.Identity()
	assert.Equal(t, draft.CellID(2), cell)
	assert.Equal(t, Confirmed, conf)

	// Neither later turns nor a different value move a confirmed identity.
	later := withTurn(teamSnapshot(), 4)
	later.LocalPlayerCellID = draft.CellPtr(3)
	r.Observe(later)

	cell, conf = r.Identity()
	assert.Equal(t, draft.CellID(2), cell)
	assert.Equal(t, Confirmed, conf)
}

func TestResolver_GuessFromFirstPendingActor(t *testing.T) {
	r := NewResolver(AutoAssignNone)

	r.Observe(teamSnapshot())
	_, conf := r.Identity()
	assert.Equal(t, Unknown, conf)
	assert.Nil(t, r.Available(teamSnapshot()))

	r.Observe(withTurn(teamSnapshot(), 1))
	cell, conf := r.Identity()
	assert.Equal(t, draft.CellID(1), cell)
	assert.Equal(t, Guessed, conf)

	// Between turns the previous guess is kept.
	r.Observe(teamSnapshot())
	cell, _ = r.Identity()
	assert.Equal(t, draft.CellID(1), cell)
}

func TestResolver_MigratesGuessedRoleOnce(t *testing.T) {
	r := NewResolver(AutoAssignNone)

	guessed := withTurn(teamSnapshot(), 1)
	r.Observe(guessed)
	require.NoError(t, r.Select(guessed, RoleMiddle))
	assert.Equal(t, RoleMiddle, r.RoleOf(guessed, 1))

	confirmed := teamSnapshot()
	confirmed.LocalPlayerCellID = draft.CellPtr(3)
	r.Observe(confirmed)

	assert.Equal(t, RoleMiddle, r.RoleOf(confirmed, 3))
	assert.Equal(t, RoleUnassigned, r.RoleOf(confirmed, 1), "old key must not keep a duplicate")
	assert.Len(t, r.manual, 1)

	// A fresh choice after confirmation stays put.
	require.NoError(t, r.Select(confirmed, RoleTop))
	r.Observe(confirmed)
	assert.Equal(t, RoleTop, r.RoleOf(confirmed, 3))
	assert.Len(t, r.manual, 1)
}

func TestResolver_ReselectUnderNewGuessDropsOldEntry(t *testing.T) {
	r := NewResolver(AutoAssignNone)

	first := withTurn(teamSnapshot(), 0)
	r.Observe(first)
	require.NoError(t, r.Select(first, RoleJungle))

	second := withTurn(teamSnapshot(), 2)
	r.Observe(second)
	require.NoError(t, r.Select(second, RoleJungle))

	assert.Equal(t, RoleUnassigned, r.RoleOf(second, 0))
	assert.Equal(t, RoleJungle, r.RoleOf(second, 2))
}

func TestResolver_DisplayedRolePrecedence(t *testing.T) {
	r := NewResolver(AutoAssignNone)
	snap := teamSnapshot()
	snap.LocalPlayerCellID = draft.CellPtr(0)
	snap.Teams[0].Cells[1].AssignedPosition = "jungle"
	r.Observe(snap)

	require.NoError(t, r.Select(snap, RoleBottom))

	assert.Equal(t, RoleBottom, r.RoleOf(snap, 0))
	assert.Equal(t, RoleJungle, r.RoleOf(snap, 1))
	assert.Equal(t, RoleUnassigned, r.RoleOf(snap, 2))
	assert.Equal(t, RoleUnassigned, r.RoleOf(snap, 42))
}

func TestResolver_SelectValidation(t *testing.T) {
	r := NewResolver(AutoAssignNone)
	snap := teamSnapshot()

	assert.ErrorIs(t, r.Select(snap, RoleTop), ErrIdentityUnknown)

	snap.LocalPlayerCellID = draft.CellPtr(0)
	snap.Teams[0].Cells[1].AssignedPosition = "TOP"
	r.Observe(snap)

	assert.ErrorIs(t, r.Select(snap, Role("SUPPORT_ADC")), ErrInvalidRole)
	assert.ErrorIs(t, r.Select(snap, RoleTop), ErrRoleTaken)
	require.NoError(t, r.Select(snap, RoleUtility))
	require.NoError(t, r.Select(snap, RoleUtility), "own role is re-confirmable")
	require.NoError(t, r.Select(snap, RoleUnassigned))
	assert.Equal(t, RoleUnassigned, r.OperatorRole(snap))

	snap.Teams[0].Cells[0].AssignedPosition = "MIDDLE"
	assert.ErrorIs(t, r.Select(snap, RoleBottom), ErrRoleAssigned)
}

func TestResolver_AvailableExcludesTeammatesOnly(t *testing.T) {
	r := NewResolver(AutoAssignNone)
	snap := teamSnapshot()
	snap.LocalPlayerCellID = draft.CellPtr(0)
	snap.Teams[0].Cells[1].AssignedPosition = "TOP"
	snap.Teams[1].Cells[0].AssignedPosition = "MIDDLE"
	r.Observe(snap)
	require.NoError(t, r.Select(snap, RoleBottom))

	avail := r.Available(snap)
	assert.Equal(t, []Role{RoleJungle, RoleMiddle, RoleBottom, RoleUtility}, avail)
}

func TestResolver_NoTwoCellsShareRole(t *testing.T) {
	r := NewResolver(AutoAssignNone)
	snap := teamSnapshot()
	snap.LocalPlayerCellID = draft.CellPtr(0)
	r.Observe(snap)
	require.NoError(t, r.Select(snap, RoleMiddle))

	// The client later assigns the same role to a teammate.
	snap.Teams[0].Cells[3].AssignedPosition = "MIDDLE"

	seen := make(map[Role]draft.CellID)
	for _, c := range snap.Teams[0].Cells {
		role := r.RoleOf(snap, c.CellID)
		if role == RoleUnassigned {
			continue
		}
		if other, dup := seen[role]; dup {
			t.Fatalf("cells %d and %d both show %s", other, c.CellID, role)
		}
		seen[role] = c.CellID
	}
	assert.Equal(t, RoleMiddle, r.RoleOf(snap, 3))
}

func TestResolver_NeverAutoAssignsByDefault(t *testing.T) {
	r := NewResolver(AutoAssignNone)
	snap := teamSnapshot()
	snap.LocalPlayerCellID = draft.CellPtr(0)
	r.Observe(snap)

	assert.Equal(t, RoleUnassigned, r.OperatorRole(snap))
}

func TestResolver_FirstAvailablePolicy(t *testing.T) {
	r := NewResolver(AutoAssignFirstAvailable)
	snap := teamSnapshot()
	snap.LocalPlayerCellID = draft.CellPtr(0)
	snap.Teams[0].Cells[1].AssignedPosition = "TOP"
	r.Observe(snap)

	assert.Equal(t, RoleJungle, r.OperatorRole(snap))

	require.NoError(t, r.Select(snap, RoleUtility))
	r.Observe(snap)
	assert.Equal(t, RoleUtility, r.OperatorRole(snap))
}

func TestResolver_Reset(t *testing.T) {
	r := NewResolver(AutoAssignNone)
	snap := teamSnapshot()
	snap.LocalPlayerCellID = draft.CellPtr(0)
	r.Observe(snap)
	require.NoError(t, r.Select(snap, RoleTop))

	r.Reset()

	_, conf := r.Identity()
	assert.Equal(t, Unknown, conf)
	assert.Empty(t, r.manual)
	assert.Equal(t, RoleUnassigned, r.RoleOf(snap, 0))
}

func TestParseRole(t *testing.T) {
	tests := map[string]Role{
		"top": RoleTop, "JUNGLE": RoleJungle, "mid": RoleMiddle,
		"bottom": RoleBottom, "support": RoleUtility, "": RoleUnassigned,
	}
	for in, expected := range tests {
		got, ok := ParseRole(in)
		if !ok || got != expected {
			t.Errorf("ParseRole(%q) = %q, %v; expected %q", in, got, ok, expected)
		}
	}

	if _, ok := ParseRole("feeder"); ok {
		t.Error("Expected unknown role to be rejected")
	}
}

func TestResolver_GuessedRoleFollowsMovingGuess(t *testing.T) {
	r := NewResolver(AutoAssignNone)

	first := withTurn(teamSnapshot(), 0)
	r.Observe(first)
	require.NoError(t, r.Select(first, RoleJungle))

	second := withTurn(teamSnapshot(), 2)
	r.Observe(second)

	assert.Equal(t, RoleUnassigned, r.RoleOf(second, 0))
	assert.Equal(t, RoleJungle, r.OperatorRole(second))
	assert.Contains(t, r.Available(second), RoleJungle)
	require.NoError(t, r.Select(second, RoleJungle))
	assert.Len(t, r.manual, 1)

	confirmed := teamSnapshot()
	confirmed.LocalPlayerCellID = draft.CellPtr(4)
	r.Observe(confirmed)

	assert.Equal(t, RoleJungle, r.RoleOf(confirmed, 4))
	assert.Equal(t, RoleUnassigned, r.RoleOf(confirmed, 2))
	assert.Len(t, r.manual, 1)
}
