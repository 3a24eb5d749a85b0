package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ClientConfig holds configuration for the advisory HTTP client.
type ClientConfig struct {
	// BaseURL is the advisory service root (e.g., "http://localhost:8000")
	BaseURL string

	// Timeout bounds a single request
	Timeout time.Duration
}

// DefaultClientConfig returns a ClientConfig with sensible defaults.
func DefaultClientConfig(baseURL string) *ClientConfig {
	return &ClientConfig{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}
}

// Client talks to an HTTP advisory service. It never retries; the coordinator
// decides when to ask again.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new advisory client.
func NewClient(config *ClientConfig) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Advise posts the draft to the service and decodes the ranking.
func (c *Client) Advise(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal advice request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/v1/advice"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request advice: %w", err)
	}
	defer func() {
		//nolint:errcheck // Ignore error on cleanup
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("advice request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode advice response: %w", err)
	}

	if result.WinProbability < 0 {
		result.WinProbability = 0
	} else if result.WinProbability > 1 {
		result.WinProbability = 1
	}
	if len(result.Suggestions) > req.TopK && req.TopK > 0 {
		result.Suggestions = result.Suggestions[:req.TopK]
	}

	return &result, nil
}
