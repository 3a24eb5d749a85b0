// Package champions provides static champion reference data from Data Dragon,
// cached in SQLite.
package champions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/ramonehamilton/LoL-Companion/internal/draft"
)

const (
	// DefaultBaseURL is the public Data Dragon CDN.
	DefaultBaseURL = "https://ddragon.leagueoflegends.com"

	// DefaultLocale is used when none is configured.
	DefaultLocale = "en_US"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 15 * time.Second
)

// DefaultRateLimit keeps CDN traffic modest.
var DefaultRateLimit = rate.Every(500 * time.Millisecond)

// Champion is one entry of the reference catalog.
type Champion struct {
	ID      draft.ChampionID `json:"id"`
	Alias   string           `json:"alias"`
	Name    string           `json:"name"`
	Title   string           `json:"title"`
	Tags    []string         `json:"tags"`
	Version string           `json:"version"`
}

// DataDragonOptions configures the Data Dragon client.
type DataDragonOptions struct {
	// BaseURL of the CDN (default: DefaultBaseURL)
	BaseURL string

	// Locale for names and titles (default: en_US)
	Locale string

	// Timeout for HTTP requests (default: 15 seconds)
	Timeout time.Duration

	// RateLimit controls request frequency (default: 2 req/second)
	RateLimit rate.Limit

	// HTTPClient allows a custom HTTP client
	HTTPClient *http.Client
}

// DataDragon fetches versions and champion data from the CDN.
type DataDragon struct {
	baseURL    string
	locale     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewDataDragon creates a Data Dragon client.
func NewDataDragon(options DataDragonOptions) *DataDragon {
	if options.BaseURL == "" {
		options.BaseURL = DefaultBaseURL
	}
	if options.Locale == "" {
		options.Locale = DefaultLocale
	}
	if options.Timeout == 0 {
		options.Timeout = DefaultTimeout
	}
	if options.RateLimit == 0 {
		options.RateLimit = DefaultRateLimit
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.Timeout}
	}

	return &DataDragon{
		baseURL:    strings.TrimRight(options.BaseURL, "/"),
		locale:     options.Locale,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(options.RateLimit, 1),
	}
}

// LatestVersion returns the newest patch version.
func (d *DataDragon) LatestVersion(ctx context.Context) (string, error) {
	body, err := d.get(ctx, "/api/versions.json")
	if err != nil {
		return "", fmt.Errorf("failed to fetch versions: %w", err)
	}

	latest := gjson.GetBytes(body, "0").String()
	if latest == "" {
		return "", errors.New("versions list is empty")
	}
	return latest, nil
}

// Champions returns every champion for a patch version.
func (d *DataDragon) Champions(ctx context.Context, version string) ([]Champion, error) {
	path := fmt.Sprintf("/cdn/%s/data/%s/champion.json", url.PathEscape(version), url.PathEscape(d.locale))
	body, err := d.get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch champions for %s: %w", version, err)
	}

	var champions []Champion
	var parseErr error
	gjson.GetBytes(body, "data").ForEach(func(alias, c gjson.Result) bool {
		id := c.Get("key").Int()
		if id <= 0 {
			parseErr = fmt.Errorf("champion %s has no numeric key", alias.String())
			return false
		}

		var tags []string
		c.Get("tags").ForEach(func(_, tag gjson.Result) bool {
			tags = append(tags, tag.String())
			return true
		})

		champions = append(champions, Champion{
			ID:      draft.ChampionID(id),
			Alias:   c.Get("id").String(),
			Name:    c.Get("name").String(),
			Title:   c.Get("title").String(),
			Tags:    tags,
			Version: version,
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if len(champions) == 0 {
		return nil, errors.New("champion list is empty")
	}
	return champions, nil
}

func (d *DataDragon) get(ctx context.Context, path string) ([]byte, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "LoL-Companion/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
