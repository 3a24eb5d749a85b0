package draft

import (
	"reflect"
	"strings"
)

// PhaseKind groups phase identifiers by which timer ceiling applies.
type PhaseKind int

const (
	PhaseOther PhaseKind = iota
	PhaseBan
	PhasePick
	PhasePlanning
	PhaseFinalization
)

// String returns the kind's name.
func (k PhaseKind) String() string {
	switch k {
	case PhaseBan:
		return "ban"
	case PhasePick:
		return "pick"
	case PhasePlanning:
		return "planning"
	case PhaseFinalization:
		return "finalization"
	default:
		return "other"
	}
}

// IsBanPhase reports whether a phase identifier names a ban-only phase.
// Combined identifiers such as BAN_PICK are not ban phases on their own.
func IsBanPhase(phase string) bool {
	p := strings.ToUpper(phase)
	return strings.Contains(p, "BAN") && !strings.Contains(p, "PICK")
}

// Kind classifies the snapshot's phase. For the combined BAN_PICK phase the
// type of the first pending action decides between ban and pick.
func (s *Snapshot) Kind() PhaseKind {
	if s == nil {
		return PhaseOther
	}

	p := strings.ToUpper(s.Phase)
	switch {
	case IsBanPhase(p):
		return PhaseBan
	case strings.Contains(p, "BAN") && strings.Contains(p, "PICK"):
		for _, a := range s.Actions {
			if a.Pending() {
				if a.Type == ActionTypeBan {
					return PhaseBan
				}
				return PhasePick
			}
		}
		return PhasePick
	case strings.Contains(p, "PICK"):
		return PhasePick
	case strings.Contains(p, "PLANNING"):
		return PhasePlanning
	case strings.Contains(p, "FINALIZATION"):
		return PhaseFinalization
	default:
		return PhaseOther
	}
}

// SameContent reports whether two snapshots describe the same draft state,
// ignoring the timer value.
func SameContent(a, b *Snapshot) bool {
	if a == nil || b == nil {
		return a == b
	}
	x, y := *a, *b
	x.TimerSeconds, y.TimerSeconds = nil, nil
	return reflect.DeepEqual(x, y)
}
