// Package push delivers batched messages to an Expo-compatible push gateway.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/apex/log"
)

// Outcome is the structured result of a dispatch. Send never fails with an
// error; transport and gateway failures are captured here, since dispatch is
// always invoked from a best-effort context.
type Outcome struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
}

// message is one push envelope, replicated per destination token
type message struct {
	To    string         `json:"to"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data"`
	Sound string         `json:"sound"`
}

// Client sends push notifications over HTTP with a bounded timeout
type Client struct {
	gatewayURL string
	httpClient *http.Client
}

// NewClient creates a push gateway client. The timeout bounds the whole
// request so a slow or unreachable gateway cannot stall callers.
func NewClient(gatewayURL string, timeout time.Duration) *Client {
	return &Client{
		gatewayURL: gatewayURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send submits one envelope per token as a single batched POST. An empty
// token set is a successful no-op and makes no network call.
func (c *Client) Send(ctx context.Context, tokens []string, title, body string, data map[string]any) Outcome {
	if len(tokens) == 0 {
		return Outcome{Success: true, Count: 0}
	}

	messages := make([]message, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, message{
			To:    token,
			Title: title,
			Body:  body,
			Data:  data,
			Sound: "default",
		})
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		log.WithError(err).Error("Failed to marshal push messages")
		return Outcome{Success: false, Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewBuffer(payload))
	if err != nil {
		log.WithError(err).Error("Failed to create push gateway request")
		return Outcome{Success: false, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Errorf("Push gateway request failed for %d tokens", len(tokens))
		return Outcome{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Errorf("Push gateway returned %d: %s", resp.StatusCode, string(respBody))
		return Outcome{Success: false, Error: string(respBody)}
	}

	log.Infof("Sent %d push notifications (status %d)", len(tokens), resp.StatusCode)
	return Outcome{Success: true, Count: len(tokens)}
}
