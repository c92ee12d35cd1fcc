// Package forward relays normalized listings to an external
// automation webhook.
package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stayscout/stayscout/internal/logger"
	"github.com/stayscout/stayscout/pkg/listing"
)

// ErrWebhookRejected indicates the webhook answered with a non-2xx
// status.
var ErrWebhookRejected = errors.New("webhook rejected listing")

// Forwarder posts listings to a configured webhook endpoint.
type Forwarder struct {
	url        string
	authToken  string
	httpClient *http.Client
}

// New creates a forwarder for the given webhook URL. The token, when
// set, is sent as a bearer credential.
func New(url, authToken string) *Forwarder {
	return &Forwarder{
		url:       url,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send validates and posts one listing. The webhook's verdict passes
// through: nil on 2xx, ErrWebhookRejected otherwise.
func (f *Forwarder) Send(ctx context.Context, l *listing.Listing) error {
	if err := l.Validate(); err != nil {
		return fmt.Errorf("refusing to forward invalid listing: %w", err)
	}

	body, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode listing: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if f.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+f.authToken)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read a little of the body for the log; webhooks tend to
		// explain rejections there.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Warn("webhook rejected listing",
			"status", resp.StatusCode,
			"url", l.URL,
			"detail", string(detail))
		return fmt.Errorf("%w: status %d", ErrWebhookRejected, resp.StatusCode)
	}

	logger.Debug("listing forwarded", "url", l.URL, "status", resp.StatusCode)
	return nil
}
