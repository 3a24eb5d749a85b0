package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/ramonehamilton/LoL-Companion/internal/events"
)

func TestWebSocketObserver_GetName(t *testing.T) {
	observer := NewWebSocketObserver(NewHub())

	if name := observer.GetName(); name != "WebSocketObserver" {
		t.Errorf("Expected 'WebSocketObserver', got '%s'", name)
	}
	for _, eventType := range []string{events.TypeProjection, events.TypeTimer, events.TypeConnection} {
		if !observer.ShouldHandle(eventType) {
			t.Errorf("Expected ShouldHandle(%s) to return true", eventType)
		}
	}
}

func TestWebSocketObserver_OnEvent_NilHub(t *testing.T) {
	observer := &WebSocketObserver{name: "TestObserver"}

	if err := observer.OnEvent(events.Event{Type: events.TypeProjection}); err != nil {
		t.Errorf("Expected nil error with nil hub, got %v", err)
	}
}

func TestWebSocketObserver_ForwardsTypedData(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	waitForClients(t, hub, 1)

	dispatcher := events.NewEventDispatcher()
	dispatcher.Register(NewWebSocketObserver(hub))

	dispatcher.Dispatch(events.NewTypedEvent(events.TypeConnection, events.ConnectionStateEvent{
		From:   "disconnected",
		To:     "connected_no_draft",
		Reason: "probe succeeded",
	}, context.Background()))

	received := readEvent(t, conn)
	if received.Type != events.TypeConnection {
		t.Fatalf("Expected %s, got %s", events.TypeConnection, received.Type)
	}
	data, ok := received.Data.(map[string]any)
	if !ok {
		t.Fatalf("Expected object payload, got %T", received.Data)
	}
	if data["to"] != "connected_no_draft" {
		t.Errorf("Expected to=connected_no_draft, got %v", data["to"])
	}
}

func TestWebSocketObserver_SkipsTimerWithoutClients(t *testing.T) {
	hub := NewHub()
	observer := NewWebSocketObserver(hub)

	// The hub is not running, so a forwarded event would block on the
	// broadcast queue only once it fills; a dropped one returns at once.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			_ = observer.OnEvent(events.NewTypedEvent(events.TypeTimer, events.TimerTickEvent{}, context.Background()))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected timer ticks to be dropped without clients")
	}
}
