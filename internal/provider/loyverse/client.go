// Package loyverse provides the HTTP client for the Loyverse customers API.
//
// Loyverse uses bearer token auth. Only the first page of the customers list
// is read: when the response carries a cursor for further pages, the client
// logs a warning and ignores it. Rate limiting is handled via a token bucket
// limiter.
package loyverse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrMissingCustomers is returned when the response body has no customers field.
	ErrMissingCustomers = errors.New("response missing customers field")

	// ErrUnexpectedStatus is returned for any non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Client fetches customer records from the Loyverse API.
type Client struct {
	httpClient *http.Client
	url        string
	token      string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a Loyverse HTTP client with rate limiting.
func NewClient(url, token string, timeout time.Duration, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		token:      token,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// listResponse is the Loyverse customers list envelope.
type listResponse struct {
	Customers *[]Customer `json:"customers"`
	Cursor    string      `json:"cursor"`
}

// FetchCustomers returns the current customers list. On any failure it logs
// the error and returns an empty slice together with the error, so callers
// can treat the tick as "no changes" rather than "everyone deleted".
func (c *Client) FetchCustomers(ctx context.Context) ([]Customer, error) {
	customers, err := c.ListCustomers(ctx)
	if err != nil {
		c.logger.Error("Error fetching customers", "url", c.url, "error", err)
		return []Customer{}, err
	}
	return customers, nil
}

// ListCustomers performs a rate-limited GET of the customers endpoint.
func (c *Client) ListCustomers(ctx context.Context) ([]Customer, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: loyverse returned %d: %s", ErrUnexpectedStatus, resp.StatusCode, truncate(body, 200))
	}

	var result listResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if result.Customers == nil {
		return nil, ErrMissingCustomers
	}

	if result.Cursor != "" {
		c.logger.Warn("Customers list has more pages; only the first page is tracked",
			"count", len(*result.Customers))
	}

	return *result.Customers, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
