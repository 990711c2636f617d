// Package wa talks to a WAHA-compatible WhatsApp HTTP gateway.
package wa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Messenger is the outbound surface of the messaging gateway used by the
// orchestrator. SendSeen failures are treated as non-fatal by callers;
// SendText failures are not.
type Messenger interface {
	// SendText sends a plain text message to the given chat.
	SendText(ctx context.Context, chatID, text string) error

	// SendSeen marks the given chat as read on the sender's side.
	SendSeen(ctx context.Context, chatID string) error
}

// Client is the concrete Messenger backed by the WAHA HTTP API.
type Client struct {
	baseURL string
	session string
	apiKey  string
	http    *http.Client
}

// NewClient creates a gateway client. session is the WAHA session name
// (usually "default"). apiKey may be empty when the gateway is unsecured.
//
// No request timeout is set: the orchestrator runs each webhook as one
// blocking task and defines no outbound deadlines.
func NewClient(baseURL, session, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		session: session,
		apiKey:  apiKey,
		http:    &http.Client{},
	}
}

// SendText implements the Messenger interface.
func (c *Client) SendText(ctx context.Context, chatID, text string) error {
	payload := map[string]string{
		"session": c.session,
		"chatId":  chatID,
		"text":    text,
	}
	if err := c.post(ctx, "/api/sendText", payload); err != nil {
		return fmt.Errorf("SendText: %w", err)
	}
	return nil
}

// SendSeen implements the Messenger interface.
func (c *Client) SendSeen(ctx context.Context, chatID string) error {
	payload := map[string]string{
		"session": c.session,
		"chatId":  chatID,
	}
	if err := c.post(ctx, "/api/sendSeen", payload); err != nil {
		return fmt.Errorf("SendSeen: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("serializing request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending request to gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, snippet)
	}

	return nil
}

// Ensure Client implements the Messenger interface.
var _ Messenger = (*Client)(nil)
