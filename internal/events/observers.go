package events

import (
	"github.com/rs/zerolog/log"
)

// LogObserver writes connection events at info level and everything else at
// trace level.
type LogObserver struct {
	name string
}

// NewLogObserver creates a new logging observer.
func NewLogObserver() *LogObserver {
	return &LogObserver{name: "LogObserver"}
}

// OnEvent logs the event.
func (o *LogObserver) OnEvent(event Event) error {
	if ev, ok := GetTypedData[ConnectionStateEvent](event); ok {
		log.Info().Str("from", ev.From).Str("to", ev.To).Str("reason", ev.Reason).Msg("connection event")
		return nil
	}
	log.Trace().Str("event", event.Type).Msg("event dispatched")
	return nil
}

// GetName returns the observer's name.
func (o *LogObserver) GetName() string {
	return o.name
}

// ShouldHandle skips timer ticks, which arrive many times per second.
func (o *LogObserver) ShouldHandle(eventType string) bool {
	return eventType != TypeTimer
}

// Ensure LogObserver implements the Observer interface.
var _ Observer = (*LogObserver)(nil)
