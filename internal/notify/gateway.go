package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Gateway sends text messages through an Evolution-style WhatsApp API.
// Sends are rate limited so a burst of reminders cannot trip the
// provider's spam protection.
type Gateway struct {
	baseURL  string
	apiKey   string
	instance string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *zerolog.Logger
}

// NewGateway builds a gateway client. ratePerSecond and burst bound the
// outgoing message rate.
func NewGateway(baseURL, apiKey, instance string, ratePerSecond float64, burst int, logger *zerolog.Logger) *Gateway {
	return &Gateway{
		baseURL:  baseURL,
		apiKey:   apiKey,
		instance: instance,
		client:   &http.Client{Timeout: 15 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		logger:   logger,
	}
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type sendTextResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// SendText delivers a message to a phone number and returns the
// provider's message id. The call blocks until the rate limiter admits
// it or ctx is done.
func (g *Gateway) SendText(ctx context.Context, number, text string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(sendTextRequest{Number: number, Text: text})
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}

	url := fmt.Sprintf("%s/message/sendText/%s", g.baseURL, g.instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", g.apiKey)
	// Idempotency key so provider-side retries do not duplicate sends.
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("gateway returned %d: %s", resp.StatusCode, raw)
	}

	var out sendTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	if !out.Success {
		return "", fmt.Errorf("gateway rejected message: status %q", out.Status)
	}

	g.logger.Debug().
		Str("number", number).
		Str("message_id", out.MessageID).
		Msg("message sent")
	return out.MessageID, nil
}
