package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

var (
	// ErrRejected means the gateway answered but did not return a
	// notification id, which is how it signals refusal.
	ErrRejected = errors.New("gateway rejected notification")
	// ErrUnreachable wraps transport-level failures.
	ErrUnreachable = errors.New("gateway unreachable")
	// ErrNotFound means the gateway has no record of the notification id.
	ErrNotFound = errors.New("notification not found on gateway")
	// ErrEmptyContent is returned when composing with a blank title or description.
	ErrEmptyContent = errors.New("title and description are required")
	// ErrNoTargets is returned when composing a targeted payload with no player ids.
	ErrNoTargets = errors.New("no target player ids")
)

// Config carries everything the client needs; nothing is read from the
// process environment.
type Config struct {
	BaseURL string
	AppID   string
	APIKey  string
	Timeout time.Duration
}

// Client is a thin wrapper over the push gateway REST API.
type Client struct {
	baseURL *url.URL
	appID   string
	apiKey  string
	http    *http.Client
}

// New creates a gateway API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme == "" {
		return nil, fmt.Errorf("base url must include scheme")
	}
	if cfg.AppID == "" {
		return nil, fmt.Errorf("app id is required")
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	return &Client{
		baseURL: parsed,
		appID:   cfg.AppID,
		apiKey:  cfg.APIKey,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// createResponse models the gateway answer to a create call. Acceptance
// is indicated only by the presence of the id field.
type createResponse struct {
	ID         string          `json:"id"`
	Recipients int             `json:"recipients"`
	Errors     json.RawMessage `json:"errors"`
}

// PlatformStats is a per-platform delivery counter block.
type PlatformStats struct {
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Errored    int `json:"errored"`
	Converted  int `json:"converted"`
}

// RawStats is the gateway view of a dispatched notification.
type RawStats struct {
	ID        string                   `json:"id"`
	Platforms map[string]PlatformStats `json:"platform_delivery_stats"`
}

// Platform returns the counters for one platform, zero-valued when the
// gateway reported nothing for it.
func (s *RawStats) Platform(name string) PlatformStats {
	if s == nil {
		return PlatformStats{}
	}
	return s.Platforms[name]
}

// Send posts a composed payload and returns the gateway notification id.
// One request per call, no retries.
func (c *Client) Send(ctx context.Context, payload *Payload) (string, error) {
	wire := struct {
		AppID string `json:"app_id"`
		*Payload
	}{AppID: c.appID, Payload: payload}
	body, err := json.Marshal(wire)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve("/notifications"), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	c.decorate(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	var parsed createResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: undecodable response (%s)", ErrRejected, resp.Status)
	}
	if parsed.ID == "" {
		if len(parsed.Errors) > 0 {
			return "", fmt.Errorf("%w: %s", ErrRejected, parsed.Errors)
		}
		return "", fmt.Errorf("%w: no notification id in response", ErrRejected)
	}
	return parsed.ID, nil
}

// FetchStats queries delivery statistics for a previously sent notification.
func (c *Client) FetchStats(ctx context.Context, notificationID string) (*RawStats, error) {
	if strings.TrimSpace(notificationID) == "" {
		return nil, ErrNotFound
	}
	u := c.resolve("/notifications/" + notificationID)
	values := url.Values{}
	values.Set("app_id", c.appID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.decorate(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: stats http status %s", ErrUnreachable, resp.Status)
	}
	var stats RawStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, err
	}
	if stats.ID == "" {
		return nil, ErrNotFound
	}
	return &stats, nil
}

func (c *Client) resolve(p string) string {
	u := *c.baseURL
	u.Path = path.Join(c.baseURL.Path, p)
	return u.String()
}

// decorate sets the gateway credential header. The REST key is sent once;
// the gateway accepts it as a Basic credential.
func (c *Client) decorate(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Basic "+c.apiKey)
	}
}

// BaseURL returns the configured gateway URL without trailing slash.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.baseURL.String(), "/")
}
