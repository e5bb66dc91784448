package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/devdeck/dd-cli/internal/protocol"
)

// ErrUnauthorized is returned for HTTP 401 so callers can suggest
// re-running `dd-cli login`.
var ErrUnauthorized = errors.New("unauthorized: check your API key")

const requestTimeout = 30 * time.Second

// Client talks to the dashboard's command API. It is safe for concurrent
// use; the heartbeat and poll loops share one instance.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	token string
}

// New returns a client for the dashboard at baseURL authenticating with the
// given API key.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
		token:   token,
	}
}

// SetToken replaces the API key used for subsequent requests. The listener
// calls this when the config file is rewritten on disk.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// BaseURL returns the dashboard address the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do issues one request and decodes the dashboard's reply envelope. There is
// no retry here: every caller runs on a fixed tick, so the next tick is the
// retry.
func (c *Client) do(ctx context.Context, method, path string, body any) (*protocol.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s %s: %s", method, path, errorDetail(resp.Body, resp.Status))
	}

	var envelope protocol.Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", path, err)
	}
	if !envelope.Success {
		msg := envelope.Error
		if msg == "" {
			msg = "dashboard rejected the request"
		}
		return &envelope, fmt.Errorf("%s %s: %s", method, path, msg)
	}
	return &envelope, nil
}

// errorDetail prefers the envelope's error field over raw body text.
func errorDetail(body io.Reader, status string) string {
	raw, _ := io.ReadAll(io.LimitReader(body, 4096))
	var envelope protocol.Response
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	if detail := strings.TrimSpace(string(raw)); detail != "" {
		return fmt.Sprintf("%s: %s", status, detail)
	}
	return status
}

// RegisterSession announces a new listener session to the dashboard.
func (c *Client) RegisterSession(ctx context.Context, reg protocol.SessionRegistration) error {
	_, err := c.do(ctx, http.MethodPost, "/api/cli-session", reg)
	return err
}

// Heartbeat keeps the session marked as alive.
func (c *Client) Heartbeat(ctx context.Context, sessionID string) error {
	_, err := c.do(ctx, http.MethodPut, "/api/cli-session", protocol.Heartbeat{SessionID: sessionID})
	return err
}

// DeregisterSession removes the session during graceful shutdown.
func (c *Client) DeregisterSession(ctx context.Context, sessionID string) error {
	path := "/api/cli-session?" + url.Values{"sessionId": {sessionID}}.Encode()
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}

// PendingCommands fetches commands queued for the session since the last poll.
func (c *Client) PendingCommands(ctx context.Context, sessionID string) ([]protocol.CommandRequest, error) {
	query := url.Values{"action": {"pending"}, "sessionId": {sessionID}}
	envelope, err := c.do(ctx, http.MethodGet, "/api/remote-cli?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return envelope.Commands, nil
}

// ReportResult delivers one command's outcome back to the dashboard.
func (c *Client) ReportResult(ctx context.Context, report protocol.ResultReport) error {
	_, err := c.do(ctx, http.MethodPut, "/api/remote-cli", report)
	return err
}

// EchoCommand forwards an internal command for server-side execution and
// returns the output the dashboard produced for it.
func (c *Client) EchoCommand(ctx context.Context, command string, args []string) (string, error) {
	envelope, err := c.do(ctx, http.MethodPost, "/api/echo-command", protocol.EchoRequest{
		Command: command,
		Args:    args,
	})
	if err != nil {
		return "", err
	}
	return envelope.Output, nil
}
