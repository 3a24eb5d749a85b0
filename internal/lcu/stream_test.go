package lcu

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/LoL-Companion/internal/draft"
)

func eventFrame(eventType, data string) string {
	return fmt.Sprintf(`[8,%q,{"data":%s,"eventType":%q,"uri":"/lol-champ-select/v1/session"}]`, SessionTopic, data, eventType)
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name      string
		frame     string
		wantSnap  bool
		wantError bool
	}{
		{"update", eventFrame("Update", sessionFixture), true, false},
		{"create", eventFrame("Create", sessionFixture), true, false},
		{"delete", eventFrame("Delete", "null"), false, false},
		{"other topic", `[8,"OnJsonApiEvent_lol-gameflow_v1_gameflow-phase",{"data":"Lobby","eventType":"Update"}]`, false, false},
		{"welcome", `[0,"abc",1,"server"]`, false, false},
		{"empty", ``, false, false},
		{"garbage", `[8,`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := decodeEvent([]byte(tt.frame))
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSnap, snap != nil)
		})
	}
}

func TestEventStream_SubscribesAndReconnects(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var connections atomic.Int32

	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		n := connections.Add(1)

		var sub []any
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		if len(sub) != 2 || sub[0] != float64(wampSubscribe) || sub[1] != SessionTopic {
			t.Errorf("Expected subscribe frame, got %v", sub)
			return
		}

		phase := "BAN_PICK"
		if n > 1 {
			phase = "FINALIZATION"
		}
		frames := []string{
			eventFrame("Delete", "null"),
			eventFrame("Update", fmt.Sprintf(`{"timer":{"phase":%q},"myTeam":[{"cellId":0}]}`, phase)),
		}
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}

		if n == 1 {
			return
		}
		// Hold the second connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))

	stream := NewEventStream(store)
	got := make(chan *draft.Snapshot, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- stream.Run(ctx, func(s *draft.Snapshot) { got <- s }) }()

	for _, want := range []string{"BAN_PICK", "FINALIZATION"} {
		select {
		case snap := <-got:
			assert.Equal(t, want, snap.Phase)
		case <-time.After(5 * time.Second):
			t.Fatalf("Timed out waiting for %s update", want)
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, int32(2), connections.Load())
	assert.Empty(t, got, "delete events are not forwarded")
}
