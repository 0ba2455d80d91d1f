package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Expo caps a single push request at 100 messages.
const batchSize = 100

// Client sends push notifications via Expo's Push API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	logger     zerolog.Logger
}

// New constructs an Expo push client. Expo needs no credentials; the endpoint
// is configurable so tests can point it at a local server.
func New(endpoint string, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   endpoint,
		logger:     logger.With().Str("component", "expo").Logger(),
	}
}

type pushMessage struct {
	To       []string `json:"to"`
	Body     string   `json:"body"`
	Sound    string   `json:"sound,omitempty"`
	Priority string   `json:"priority,omitempty"`
}

type pushResponse struct {
	Data []pushTicket `json:"data"`
}

type pushTicket struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Send delivers one notification text to the given push tokens. Delivery is
// best effort; a non-nil error covers transport failures only, individual
// ticket errors are logged.
func (c *Client) Send(ctx context.Context, pushTokens []string, text string, silent bool) error {
	if len(pushTokens) == 0 {
		return nil
	}

	for start := 0; start < len(pushTokens); start += batchSize {
		end := start + batchSize
		if end > len(pushTokens) {
			end = len(pushTokens)
		}
		if err := c.sendBatch(ctx, pushTokens[start:end], text, silent); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) sendBatch(ctx context.Context, tokens []string, text string, silent bool) error {
	message := pushMessage{
		To:       tokens,
		Body:     text,
		Priority: "high",
	}
	if !silent {
		message.Sound = "default"
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send push request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read push response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expo push rejected: status=%d body=%s", resp.StatusCode, string(body))
	}

	var parsed pushResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		// Push was accepted; a malformed receipt is not worth failing over.
		c.logger.Warn().Err(err).Msg("failed to parse expo push response")
		return nil
	}

	for i, ticket := range parsed.Data {
		if ticket.Status != "ok" {
			c.logger.Warn().Int("index", i).Str("reason", ticket.Message).Msg("expo push ticket failed")
		}
	}

	return nil
}
