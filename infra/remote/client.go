// Package remote contains HTTP clients for the external demand-signal and
// transfer-suggestion services.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds one round trip when the config leaves it unset.
const DefaultTimeout = 10 * time.Second

// ErrMissingURL is returned when a client is configured without an endpoint.
var ErrMissingURL = errors.New("remote: url is required")

// Config describes one remote endpoint.
type Config struct {
	URL            string `json:"url"`
	Token          string `json:"token"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

func (c Config) timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type client struct {
	url   string
	token string
	http  *http.Client
}

func newClient(cfg Config) (*client, error) {
	if cfg.URL == "" {
		return nil, ErrMissingURL
	}
	return &client{
		url:   cfg.URL,
		token: cfg.Token,
		http:  &http.Client{Timeout: cfg.timeout()},
	}, nil
}

// post sends body as JSON and returns the raw response payload. A single
// attempt is made.
func (c *client) post(ctx context.Context, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	return data, nil
}

// decodeList accepts either a bare JSON array or an object carrying the
// array under key.
func decodeList[T any](data []byte, key string) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	if data[0] == '[' {
		var out []T
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return out, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	raw, ok := wrapped[key]
	if !ok {
		return nil, fmt.Errorf("failed to decode response: missing %q", key)
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}
