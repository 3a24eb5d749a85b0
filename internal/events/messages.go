package events

// Event types published by the engine.
const (
	// TypeProjection carries a full projection after every state change.
	TypeProjection = "draft:projection"
	// TypeTimer carries the interpolated timer on each render tick.
	TypeTimer = "draft:timer"
	// TypeConnection carries connection state transitions.
	TypeConnection = "connection:state"
)

// TimerTickEvent is the payload for draft:timer events.
type TimerTickEvent struct {
	SessionID        string  `json:"session_id"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	CeilingSeconds   float64 `json:"ceiling_seconds"`
	Running          bool    `json:"running"`
}

// ConnectionStateEvent is the payload for connection:state events.
type ConnectionStateEvent struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}
