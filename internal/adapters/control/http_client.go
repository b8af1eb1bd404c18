package control

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hardware-forge/fij-go/internal/core/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client talks to a remote engine's control channel, for the case where
// the campaign runner and the engine process run on separate hosts.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

// Open performs the control channel's "open" operation and returns a
// session id for subsequent calls.
func (c *Client) Open(ctx context.Context) (string, error) {
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := c.postJSON(ctx, "/sessions", nil, &out); err != nil {
		return "", err
	}
	return out.SessionID, nil
}

// ExecAndFault performs the control channel's EXEC_AND_FAULT operation.
func (c *Client) ExecAndFault(ctx context.Context, sessionID string, req domain.ExecutionRequest) (domain.ExecutionResult, error) {
	var result domain.ExecutionResult
	err := c.postJSON(ctx, fmt.Sprintf("/sessions/%s/exec", sessionID), req, &result)
	return result, err
}

// Kill performs the control channel's KILL operation.
func (c *Client) Kill(ctx context.Context, sessionID string) error {
	return c.postJSON(ctx, fmt.Sprintf("/sessions/%s/kill", sessionID), nil, nil)
}

// Close performs the control channel's "close" operation.
func (c *Client) Close(ctx context.Context, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/sessions/"+sessionID, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("control client: %s returned %d", path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
