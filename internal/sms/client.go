package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/svco/mentoring-server-go/internal/errors"
)

const sendTimeout = 5 * time.Second

// Sender issues an outbound SMS request to the provider.
type Sender interface {
	Send(ctx context.Context, text, msisdn string) error
}

// Client posts {text, msisdn} to the configured provider endpoint. The
// endpoint is injected at construction; the provider's response body is not
// consumed beyond the status code.
type Client struct {
	endpoint string
	client   *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: sendTimeout,
		},
	}
}

type sendRequest struct {
	Text   string `json:"text"`
	Msisdn string `json:"msisdn"`
}

func (c *Client) Send(ctx context.Context, text, msisdn string) error {
	body, err := json.Marshal(sendRequest{Text: text, Msisdn: msisdn})
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("sms provider request error")
		return apperrors.Wrap(apperrors.ErrCodeExternal, "sms request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("sms provider rejected request")
		return apperrors.New(apperrors.ErrCodeExternal, fmt.Sprintf("sms provider returned status %d", resp.StatusCode))
	}

	log.Info().
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("sms sent")

	return nil
}
