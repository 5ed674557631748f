// Package agent talks to a devicelab agent over HTTP. The agent owns the
// device connection; this package only speaks its JSON API.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devicelab-dev/suitekit/pkg/logger"
)

const requestTimeout = 60 * time.Second

// Client communicates with a devicelab agent.
type Client struct {
	http      *http.Client
	baseURL   string
	sessionID string
}

// NewClient creates a client for the agent at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		http:    &http.Client{Timeout: requestTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SessionID returns the current session ID.
func (c *Client) SessionID() string { return c.sessionID }

// HasSession returns true if a session is active.
func (c *Client) HasSession() bool { return c.sessionID != "" }

// sessionPath returns path with the session ID prefix.
func (c *Client) sessionPath(path string) string {
	return "/session/" + c.sessionID + path
}

// request sends one agent call and returns the raw response body.
// Responses with status >= 400 become errors, decoding the agent's
// error envelope when present.
func (c *Client) request(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Debug("agent: %s %s [%v] error: %v", method, path, time.Since(start), err)
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	logger.Debug("agent: %s %s [%v] %d", method, path, time.Since(start), resp.StatusCode)

	if resp.StatusCode >= 400 {
		return nil, decodeError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// requestInto sends one agent call and unmarshals the response into out.
// A nil out discards the response body.
func (c *Client) requestInto(ctx context.Context, method, path string, body, out interface{}) error {
	data, err := c.request(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

// decodeError maps an agent error response onto a Go error.
func decodeError(status int, body []byte) error {
	var envelope struct {
		Value ErrorValue `json:"value"`
	}
	if json.Unmarshal(body, &envelope) == nil && (envelope.Value.Error != "" || envelope.Value.Message != "") {
		return fmt.Errorf("%s: %s", envelope.Value.Error, envelope.Value.Message)
	}
	return fmt.Errorf("agent error %d: %s", status, string(body))
}

// Status checks if the agent is ready to accept sessions.
func (c *Client) Status(ctx context.Context) (bool, error) {
	var resp struct {
		Value struct {
			Ready   bool   `json:"ready"`
			Message string `json:"message"`
		} `json:"value"`
	}
	if err := c.requestInto(ctx, "GET", "/status", nil, &resp); err != nil {
		return false, err
	}
	return resp.Value.Ready, nil
}

// CreateSession starts a new automation session on the device.
func (c *Client) CreateSession(ctx context.Context, deviceID, packageName string) error {
	req := SessionRequest{DeviceID: deviceID, PackageName: packageName}
	data, err := c.request(ctx, "POST", "/session", req)
	if err != nil {
		return err
	}

	id, err := parseSessionID(data)
	if err != nil {
		return err
	}
	c.sessionID = id
	return nil
}

// parseSessionID accepts both response shapes agents produce: a flat
// sessionId field or one nested under a value envelope.
func parseSessionID(data []byte) (string, error) {
	var flat struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(data, &flat); err != nil {
		return "", fmt.Errorf("parse session response: %w", err)
	}
	if flat.SessionID != "" {
		return flat.SessionID, nil
	}

	var nested struct {
		Value struct {
			SessionID string `json:"sessionId"`
		} `json:"value"`
	}
	if json.Unmarshal(data, &nested) == nil && nested.Value.SessionID != "" {
		return nested.Value.SessionID, nil
	}
	return "", fmt.Errorf("no session ID in response")
}

// DeleteSession ends the current session. Without an active session it
// is a no-op.
func (c *Client) DeleteSession(ctx context.Context) error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.request(ctx, "DELETE", c.sessionPath(""), nil)
	c.sessionID = ""
	return err
}
