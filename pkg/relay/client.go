package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// APIError is a non-2xx response from the relay.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("relay returned %d: %s", e.StatusCode, truncate(e.Body, 256))
}

// Client is the REST client for the relay service. All mutating
// operations go through /settings; liveness comes from /connections.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a relay REST client. baseURL has no trailing slash.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// GetConnections fetches the full per-account liveness snapshot.
func (c *Client) GetConnections(ctx context.Context) ([]Connection, error) {
	var conns []Connection
	if err := c.do(ctx, http.MethodGet, "/connections", nil, &conns); err != nil {
		return nil, fmt.Errorf("get connections: %w", err)
	}
	return conns, nil
}

// GetSettings fetches the authoritative copy-link list.
func (c *Client) GetSettings(ctx context.Context) ([]CopyLink, error) {
	var links []CopyLink
	if err := c.do(ctx, http.MethodGet, "/settings", nil, &links); err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return links, nil
}

// CreateSetting creates a link and returns the authoritative record with
// its server-assigned id.
func (c *Client) CreateSetting(ctx context.Context, link CopyLink) (*CopyLink, error) {
	var created CopyLink
	if err := c.do(ctx, http.MethodPost, "/settings", link, &created); err != nil {
		return nil, fmt.Errorf("create setting: %w", err)
	}
	return &created, nil
}

// UpdateSetting replaces a link record. The server may return the
// authoritative payload; a nil result means the speculative record stands.
func (c *Client) UpdateSetting(ctx context.Context, link CopyLink) (*CopyLink, error) {
	var updated CopyLink
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/settings/%d", link.ID), link, &updated); err != nil {
		return nil, fmt.Errorf("update setting %d: %w", link.ID, err)
	}
	if updated.ID == 0 {
		return nil, nil
	}
	return &updated, nil
}

// DeleteSetting removes a link by id.
func (c *Client) DeleteSetting(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/settings/%d", id), nil, nil); err != nil {
		return fmt.Errorf("delete setting %d: %w", id, err)
	}
	return nil
}

// ToggleSetting sets the enabled state of a link.
func (c *Client) ToggleSetting(ctx context.Context, id int64, enabled bool) (*CopyLink, error) {
	body := map[string]bool{"enabled": enabled}
	var updated CopyLink
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/settings/%d/toggle", id), body, &updated); err != nil {
		return nil, fmt.Errorf("toggle setting %d: %w", id, err)
	}
	if updated.ID == 0 {
		return nil, nil
	}
	return &updated, nil
}

// do performs one request with a JSON body and decodes a JSON response
// into out when out is non-nil and the response has a body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("relay request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
