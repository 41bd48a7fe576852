// Package smsgw implements the notify Adapter against a self-hosted SMS
// gateway's REST API.
package smsgw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/verdant/drip/internal/notify"
)

const defaultTimeout = 10 * time.Second

// httpDoer abstracts the HTTP client, enabling test doubles.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Adapter posts messages to the gateway's /v1/messages endpoint.
type Adapter struct {
	baseURL string
	apiKey  string
	client  httpDoer
}

// AdapterOpts holds parameters for creating an SMS gateway Adapter.
type AdapterOpts struct {
	GatewayURL string
	APIKey     string
	// For testing: inject a mock HTTP client.
	Client httpDoer
}

// New creates an SMS gateway Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.GatewayURL == "" {
		return nil, fmt.Errorf("smsgw: gateway URL is required")
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Adapter{
		baseURL: opts.GatewayURL,
		apiKey:  opts.APIKey,
		client:  client,
	}, nil
}

// Name implements notify.Adapter.
func (a *Adapter) Name() string { return "sms" }

// sendRequest is the gateway's message submission payload.
type sendRequest struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

// sendResponse is the gateway's acknowledgment.
type sendResponse struct {
	MessageID string `json:"message_id"`
}

// Send submits one SMS. The gateway queues delivery; the returned ID
// references its queue entry.
func (a *Adapter) Send(ctx context.Context, msg notify.Message) (string, error) {
	payload, err := json.Marshal(sendRequest{To: msg.To, From: msg.From, Body: msg.Body})
	if err != nil {
		return "", fmt.Errorf("smsgw: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("smsgw: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("X-Device-Key", a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("smsgw: send to %s: %w", msg.To, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("smsgw: gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var ack sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil || ack.MessageID == "" {
		// Some gateway builds return an empty body on accept; fabricate
		// a local delivery ID so the log row is still traceable.
		return uuid.NewString(), nil
	}
	return ack.MessageID, nil
}
