package identity

import (
	"strings"
)

// Role is a lane position label.
type Role string

const (
	RoleUnassigned Role = ""
	RoleTop        Role = "TOP"
	RoleJungle     Role = "JUNGLE"
	RoleMiddle     Role = "MIDDLE"
	RoleBottom     Role = "BOTTOM"
	RoleUtility    Role = "UTILITY"
)

// Roles lists every selectable role in display order.
var Roles = []Role{RoleTop, RoleJungle, RoleMiddle, RoleBottom, RoleUtility}

// ParseRole normalises a role label from the game client or an operator.
// Unknown labels return false.
func ParseRole(s string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return RoleUnassigned, true
	case "TOP":
		return RoleTop, true
	case "JUNGLE", "JG":
		return RoleJungle, true
	case "MIDDLE", "MID":
		return RoleMiddle, true
	case "BOTTOM", "BOT", "ADC":
		return RoleBottom, true
	case "UTILITY", "SUPPORT", "SUP":
		return RoleUtility, true
	default:
		return RoleUnassigned, false
	}
}

// AutoAssignPolicy controls whether a role is picked for the operator.
type AutoAssignPolicy string

const (
	// AutoAssignNone requires an explicit selection.
	AutoAssignNone AutoAssignPolicy = "none"
	// AutoAssignFirstAvailable gives the operator the first free role once identity is known.
	AutoAssignFirstAvailable AutoAssignPolicy = "first_available"
)

// ParseAutoAssignPolicy parses a configuration value.
func ParseAutoAssignPolicy(s string) (AutoAssignPolicy, bool) {
	switch AutoAssignPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", AutoAssignNone:
		return AutoAssignNone, true
	case AutoAssignFirstAvailable:
		return AutoAssignFirstAvailable, true
	default:
		return AutoAssignNone, false
	}
}
