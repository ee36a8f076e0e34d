package notifications

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	userAgent       = "pointsync/1.0"
	headerDelivery  = "X-Pointsync-Delivery"
	headerSignature = "X-Pointsync-Signature"
)

// ErrWebhookStatus is returned when the webhook answers with a non-2xx status.
var ErrWebhookStatus = errors.New("webhook returned non-2xx status")

// WebhookSender posts balance changes to a webhook URL. It never retries.
type WebhookSender struct {
	url        string
	secret     string
	httpClient *http.Client
}

// NewWebhookSender builds a sender for url. When secret is non-empty every
// request carries an HMAC-SHA256 signature of the body.
func NewWebhookSender(url, secret string, timeout time.Duration) *WebhookSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{
		url:        url,
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Notify posts the change payload and returns the delivery ID sent with it.
func (s *WebhookSender) Notify(ctx context.Context, change Change) (string, error) {
	deliveryID := uuid.NewString()

	raw, err := json.Marshal(NewPayload(change))
	if err != nil {
		return deliveryID, fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return deliveryID, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(headerDelivery, deliveryID)
	if s.secret != "" {
		req.Header.Set(headerSignature, Sign(raw, s.secret))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return deliveryID, fmt.Errorf("send webhook request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return deliveryID, fmt.Errorf("%w: %s", ErrWebhookStatus, resp.Status)
	}
	return deliveryID, nil
}

// Sign returns the signature header value for body: "sha256=" + hex HMAC.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
