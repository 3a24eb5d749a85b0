// Package events fans engine state changes out to observers such as the
// WebSocket hub and the log.
package events

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
)

// Event is one notification. TypedData holds one of the payloads in
// messages.go or an engine projection.
type Event struct {
	Type      string
	TypedData any
	Context   context.Context
}

// Observer receives events it declares interest in.
type Observer interface {
	OnEvent(event Event) error
	GetName() string
	ShouldHandle(eventType string) bool
}

// EventDispatcher delivers events to observers in registration order. It is
// safe for concurrent use; delivery happens on the caller's goroutine, so the
// engine loop sees observers run in the same order it emitted events.
type EventDispatcher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventDispatcher creates an empty dispatcher.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{}
}

// Register appends an observer.
func (d *EventDispatcher) Register(observer Observer) {
	d.mu.Lock()
	d.observers = append(d.observers, observer)
	d.mu.Unlock()
	log.Debug().Str("observer", observer.GetName()).Msg("registered observer")
}

// Unregister removes an observer, keeping the order of the rest.
func (d *EventDispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = slices.DeleteFunc(d.observers, func(o Observer) bool { return o == observer })
}

// Dispatch hands event to every interested observer. An observer error is
// logged and delivery continues.
func (d *EventDispatcher) Dispatch(event Event) {
	d.mu.RLock()
	observers := slices.Clone(d.observers)
	d.mu.RUnlock()

	for _, o := range observers {
		if !o.ShouldHandle(event.Type) {
			continue
		}
		if err := o.OnEvent(event); err != nil {
			log.Warn().Err(err).Str("observer", o.GetName()).Str("event", event.Type).Msg("observer failed")
		}
	}
}

// ObserverCount returns the number of registered observers.
func (d *EventDispatcher) ObserverCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.observers)
}

// Clear drops every observer.
func (d *EventDispatcher) Clear() {
	d.mu.Lock()
	d.observers = nil
	d.mu.Unlock()
}

// NewTypedEvent builds an Event carrying data.
func NewTypedEvent[T any](eventType string, data T, ctx context.Context) Event {
	return Event{Type: eventType, TypedData: data, Context: ctx}
}

// GetTypedData returns the payload as T, or false when it is absent or of
// another type.
func GetTypedData[T any](event Event) (T, bool) {
	typed, ok := event.TypedData.(T)
	return typed, ok
}
