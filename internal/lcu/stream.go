package lcu

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/ramonehamilton/LoL-Companion/internal/draft"
)

// WAMP message types used by the client's event socket.
const (
	wampSubscribe = 5
	wampEvent     = 8
)

// SessionTopic carries champ select session updates.
const SessionTopic = "OnJsonApiEvent_lol-champ-select_v1_session"

const (
	handshakeTimeout = 5 * time.Second
	maxReconnectWait = 10 * time.Second
)

// EventStream subscribes to session updates over the client's WebSocket and
// reconnects with exponential backoff when the socket drops.
type EventStream struct {
	store  *CredentialStore
	dialer *websocket.Dialer
}

// NewEventStream creates an event stream.
func NewEventStream(store *CredentialStore) *EventStream {
	return &EventStream{
		store: store,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
			TLSClientConfig:  &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // local self-signed endpoint
		},
	}
}

// Run delivers parsed session updates to handler until ctx is done. Delete
// events are not forwarded; the end of a draft is left to the phase probe.
func (s *EventStream) Run(ctx context.Context, handler func(*draft.Snapshot)) error {
	for {
		conn, err := backoff.Retry(ctx, func() (*websocket.Conn, error) {
			return s.connect(ctx)
		},
			backoff.WithBackOff(newReconnectBackOff()),
			backoff.WithMaxElapsedTime(0),
			backoff.WithNotify(func(err error, next time.Duration) {
				log.Debug().Err(err).Dur("retry_in", next).Msg("event stream connect failed")
			}),
		)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("event stream: %w", err)
		}

		log.Info().Msg("subscribed to champ select events")
		err = s.read(ctx, conn, handler)
		if ctx.Err() != nil {
			return nil
		}
		log.Warn().Err(err).Msg("event stream closed, reconnecting")
	}
}

func newReconnectBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = maxReconnectWait
	return b
}

func (s *EventStream) connect(ctx context.Context) (*websocket.Conn, error) {
	creds, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("wss://127.0.0.1:%d/", creds.Port)
	header := http.Header{}
	header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("riot:"+creds.Password)))

	conn, _, err := s.dialer.DialContext(ctx, u, header)
	if err != nil {
		s.store.Invalidate()
		return nil, fmt.Errorf("dial: %w", err)
	}

	if err := conn.WriteJSON([]any{wampSubscribe, SessionTopic}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return conn, nil
}

func (s *EventStream) read(ctx context.Context, conn *websocket.Conn, handler func(*draft.Snapshot)) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer func() { _ = conn.Close() }()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		snap, err := decodeEvent(msg)
		if err != nil {
			log.Debug().Err(err).Msg("skipping event")
			continue
		}
		if snap != nil {
			handler(snap)
		}
	}
}

// decodeEvent parses a WAMP event frame. It returns nil for frames that carry
// no session, such as the subscription ack or a Delete.
func decodeEvent(msg []byte) (*draft.Snapshot, error) {
	if len(msg) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(msg) {
		return nil, errors.New("invalid event frame")
	}

	frame := gjson.ParseBytes(msg)
	if frame.Get("0").Int() != wampEvent || frame.Get("1").String() != SessionTopic {
		return nil, nil
	}

	payload := frame.Get("2")
	if strings.EqualFold(payload.Get("eventType").String(), "Delete") {
		return nil, nil
	}

	data := payload.Get("data")
	if !data.IsObject() {
		return nil, nil
	}
	return ParseSession([]byte(data.Raw))
}
