package websocket

import (
	"github.com/rs/zerolog/log"

	"github.com/ramonehamilton/LoL-Companion/internal/events"
)

// WebSocketObserver forwards dispatched events to WebSocket clients.
type WebSocketObserver struct {
	name string
	hub  *Hub
}

// NewWebSocketObserver creates a new observer that forwards events to WebSocket clients.
func NewWebSocketObserver(hub *Hub) *WebSocketObserver {
	return &WebSocketObserver{
		name: "WebSocketObserver",
		hub:  hub,
	}
}

// OnEvent broadcasts the event payload. Timer ticks are dropped while nobody
// is listening.
func (o *WebSocketObserver) OnEvent(event events.Event) error {
	if o.hub == nil {
		log.Warn().Str("observer", o.name).Str("event", event.Type).Msg("cannot emit event: hub is nil")
		return nil
	}
	if event.Type == events.TypeTimer && o.hub.ClientCount() == 0 {
		return nil
	}

	o.hub.BroadcastEvent(Event{
		Type: event.Type,
		Data: event.TypedData,
	})
	return nil
}

// GetName returns the observer's name.
func (o *WebSocketObserver) GetName() string {
	return o.name
}

// ShouldHandle returns true for all events.
func (o *WebSocketObserver) ShouldHandle(string) bool {
	return true
}

// Ensure WebSocketObserver implements the Observer interface.
var _ events.Observer = (*WebSocketObserver)(nil)
