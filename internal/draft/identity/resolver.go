// Package identity works out which cell belongs to the local operator and
// tracks the roles the operator chooses during a draft.
package identity

import (
	"errors"

	"github.com/ramonehamilton/LoL-Companion/internal/draft"
)

var (
	// ErrIdentityUnknown is returned when the operator's cell is not known yet.
	ErrIdentityUnknown = errors.New("local player cell is not known yet")
	// ErrInvalidRole is returned for labels outside the role catalogue.
	ErrInvalidRole = errors.New("invalid role")
	// ErrRoleTaken is returned when a teammate already holds the role.
	ErrRoleTaken = errors.New("role is held by a teammate")
	// ErrRoleAssigned is returned when the game client already assigned the operator a role.
	ErrRoleAssigned = errors.New("role is assigned by the game client")
)

// Confidence describes how the local cell was determined.
type Confidence int

const (
	Unknown Confidence = iota
	Guessed
	Confirmed
)

// String returns the confidence name.
func (c Confidence) String() string {
	switch c {
	case Guessed:
		return "guessed"
	case Confirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the confidence as its name.
func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Resolver holds the operator identity and manual role map for one draft.
// It is not safe for concurrent use; the engine loop owns it.
type Resolver struct {
	policy AutoAssignPolicy

	local      draft.CellID
	confidence Confidence

	manual map[draft.CellID]Role

	// guessKey is where a role chosen under a guessed identity was stored.
	guessKey *draft.CellID
	migrated bool
}

// NewResolver creates a resolver with the given auto-assign policy.
func NewResolver(policy AutoAssignPolicy) *Resolver {
	return &Resolver{
		policy: policy,
		manual: make(map[draft.CellID]Role),
	}
}

// Observe updates the operator identity from a snapshot. A confirmed identity
// is final until Reset.
func (r *Resolver) Observe(s *draft.Snapshot) {
	if s == nil {
		return
	}

	switch {
	case r.confidence == Confirmed:
	case s.LocalPlayerCellID != nil:
		r.confirm(*s.LocalPlayerCellID)
	default:
		if actor, ok := s.FirstPendingActor(); ok {
			r.local = actor
			r.confidence = Guessed
			r.followGuess()
		}
	}

	r.autoAssign(s)
}

// followGuess keeps a role chosen under a guessed identity on the current
// guess, so it never lingers on a cell that turned out to be a teammate's.
func (r *Resolver) followGuess() {
	if r.guessKey == nil || *r.guessKey == r.local {
		return
	}
	if role, ok := r.manual[*r.guessKey]; ok {
		delete(r.manual, *r.guessKey)
		r.manual[r.local] = role
	}
	key := r.local
	r.guessKey = &key
}

// confirm fixes the identity and moves a role chosen under a guess onto the
// confirmed cell. This happens once per draft.
func (r *Resolver) confirm(id draft.CellID) {
	r.local = id
	r.confidence = Confirmed

	if r.migrated {
		return
	}
	r.migrated = true

	if r.guessKey != nil && *r.guessKey != id {
		if role, ok := r.manual[*r.guessKey]; ok {
			delete(r.manual, *r.guessKey)
			if _, exists := r.manual[id]; !exists {
				r.manual[id] = role
			}
		}
	}
	r.guessKey = nil
}

// Identity returns the operator's cell and how it was determined.
func (r *Resolver) Identity() (draft.CellID, Confidence) {
	return r.local, r.confidence
}

// Select records the operator's manual role. RoleUnassigned clears it.
func (r *Resolver) Select(s *draft.Snapshot, role Role) error {
	if r.confidence == Unknown {
		return ErrIdentityUnknown
	}
	if role != RoleUnassigned && !validRole(role) {
		return ErrInvalidRole
	}

	cell, teamID, ok := s.FindCell(r.local)
	if !ok {
		return ErrIdentityUnknown
	}
	if assigned, _ := ParseRole(cell.AssignedPosition); assigned != RoleUnassigned {
		return ErrRoleAssigned
	}

	if role == RoleUnassigned {
		delete(r.manual, r.local)
		return nil
	}

	if holder, taken := r.TeamRoles(s, teamID)[role]; taken && holder != r.local {
		return ErrRoleTaken
	}

	r.store(role)
	return nil
}

func (r *Resolver) store(role Role) {
	if r.confidence == Guessed {
		if r.guessKey != nil && *r.guessKey != r.local {
			delete(r.manual, *r.guessKey)
		}
		key := r.local
		r.guessKey = &key
	}
	r.manual[r.local] = role
}

// TeamRoles returns the displayed role holders of a team. Client-assigned
// positions come first; a manual entry is shown only while no other cell on
// the team holds the same role.
func (r *Resolver) TeamRoles(s *draft.Snapshot, teamID int) map[Role]draft.CellID {
	held := make(map[Role]draft.CellID)
	team, ok := s.Team(teamID)
	if !ok {
		return held
	}

	for _, c := range team.Cells {
		if role, _ := ParseRole(c.AssignedPosition); role != RoleUnassigned {
			if _, dup := held[role]; !dup {
				held[role] = c.CellID
			}
		}
	}
	for _, c := range team.Cells {
		if assigned, _ := ParseRole(c.AssignedPosition); assigned != RoleUnassigned {
			continue
		}
		role, ok := r.manual[c.CellID]
		if !ok {
			continue
		}
		if _, dup := held[role]; !dup {
			held[role] = c.CellID
		}
	}
	return held
}

// RoleOf returns the displayed role of a cell.
func (r *Resolver) RoleOf(s *draft.Snapshot, id draft.CellID) Role {
	_, teamID, ok := s.FindCell(id)
	if !ok {
		return RoleUnassigned
	}
	for role, holder := range r.TeamRoles(s, teamID) {
		if holder == id {
			return role
		}
	}
	return RoleUnassigned
}

// OperatorRole returns the operator's displayed role.
func (r *Resolver) OperatorRole(s *draft.Snapshot) Role {
	if r.confidence == Unknown {
		return RoleUnassigned
	}
	return r.RoleOf(s, r.local)
}

// Available lists the roles the operator may select. It is empty while the
// identity is unknown.
func (r *Resolver) Available(s *draft.Snapshot) []Role {
	if r.confidence == Unknown {
		return nil
	}
	_, teamID, ok := s.FindCell(r.local)
	if !ok {
		return nil
	}

	held := r.TeamRoles(s, teamID)
	out := make([]Role, 0, len(Roles))
	for _, role := range Roles {
		if holder, taken := held[role]; taken && holder != r.local {
			continue
		}
		out = append(out, role)
	}
	return out
}

func (r *Resolver) autoAssign(s *draft.Snapshot) {
	if r.policy != AutoAssignFirstAvailable || r.confidence == Unknown {
		return
	}
	if r.OperatorRole(s) != RoleUnassigned {
		return
	}
	cell, _, ok := s.FindCell(r.local)
	if !ok || cell.AssignedPosition != "" {
		return
	}
	if avail := r.Available(s); len(avail) > 0 {
		r.store(avail[0])
	}
}

// Reset clears identity and roles at the end of a draft.
func (r *Resolver) Reset() {
	r.local = 0
	r.confidence = Unknown
	r.manual = make(map[draft.CellID]Role)
	r.guessKey = nil
	r.migrated = false
}

func validRole(role Role) bool {
	for _, known := range Roles {
		if role == known {
			return true
		}
	}
	return false
}
