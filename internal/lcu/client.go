// Package lcu talks to the League client's local API.
package lcu

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/ramonehamilton/LoL-Companion/internal/draft"
)

// ErrNoSession is returned when the client has no champ select session.
var ErrNoSession = errors.New("no champ select session")

const (
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 5 * time.Second

	// DefaultRequestsPerSecond bounds traffic to the local API.
	DefaultRequestsPerSecond = 20
)

// StatusError is a non-2xx reply from the local API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, e.Body)
}

// ClientOptions configures the local API client.
type ClientOptions struct {
	// Timeout for HTTP requests (default: 5 seconds)
	Timeout time.Duration

	// RequestsPerSecond limits request frequency (default: 20)
	RequestsPerSecond float64

	// HTTPClient allows a custom HTTP client
	HTTPClient *http.Client
}

// DefaultClientOptions returns the default options.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:           DefaultTimeout,
		RequestsPerSecond: DefaultRequestsPerSecond,
	}
}

// Client is an HTTPS client for the local API. The client serves a
// self-signed certificate, so verification is skipped.
type Client struct {
	store      *CredentialStore
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client that resolves credentials through store.
func NewClient(store *CredentialStore, options ClientOptions) *Client {
	if options.Timeout == 0 {
		options.Timeout = DefaultTimeout
	}
	if options.RequestsPerSecond <= 0 {
		options.RequestsPerSecond = DefaultRequestsPerSecond
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: options.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // local self-signed endpoint
			},
		}
	}

	burst := int(options.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}

	return &Client{
		store:      store,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(options.RequestsPerSecond), burst),
	}
}

// GameflowPhase returns the client's current gameflow phase, e.g. "ChampSelect".
func (c *Client) GameflowPhase(ctx context.Context) (string, error) {
	body, err := c.get(ctx, "/lol-gameflow/v1/gameflow-phase")
	if err != nil {
		return "", fmt.Errorf("failed to get gameflow phase: %w", err)
	}
	return strings.Trim(strings.TrimSpace(string(body)), `"`), nil
}

// ChampSelectSession returns the raw champ select session document.
func (c *Client) ChampSelectSession(ctx context.Context) ([]byte, error) {
	body, err := c.get(ctx, "/lol-champ-select/v1/session")
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to get champ select session: %w", err)
	}
	return body, nil
}

// Snapshot fetches and parses the current champ select session.
func (c *Client) Snapshot(ctx context.Context) (*draft.Snapshot, error) {
	body, err := c.ChampSelectSession(ctx)
	if err != nil {
		return nil, err
	}
	return ParseSession(body)
}

// ProbeConnection succeeds when credentials resolve and the API answers.
func (c *Client) ProbeConnection(ctx context.Context) error {
	_, err := c.GameflowPhase(ctx)
	return err
}

// ProbeGamePhase returns the gameflow phase.
func (c *Client) ProbeGamePhase(ctx context.Context) (string, error) {
	return c.GameflowPhase(ctx)
}

// get performs a GET. A failed attempt drops the cached credentials and is
// retried once, since the client may have restarted on a new port.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	body, err := c.do(ctx, path)
	if err == nil || !retryable(err) {
		return body, err
	}

	log.Debug().Err(err).Str("path", path).Msg("request failed, refreshing credentials")
	c.store.Invalidate()
	return c.do(ctx, path)
}

func retryable(err error) bool {
	if errors.Is(err, ErrNotRunning) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusUnauthorized || se.StatusCode >= 500
	}
	return true
}

func (c *Client) do(ctx context.Context, path string) ([]byte, error) {
	creds, err := c.store.Get(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, creds.BaseURL()+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth("riot", creds.Password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
