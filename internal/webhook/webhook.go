// Package webhook posts the finished sweep summary to an HTTP endpoint,
// with exponential-backoff retries for transient failures.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"time"
)

// Config describes the endpoint and retry policy.
type Config struct {
	URL       string
	AuthType  string // none, bearer, api-key
	AuthToken string

	// Timeout is the overall budget across all attempts.
	Timeout time.Duration

	// Retries is the number of attempts after the first.
	Retries    int
	RetryDelay time.Duration
}

// Client sends JSON payloads to a webhook endpoint.
type Client struct {
	config     Config
	httpClient *http.Client
	verbose    bool
}

const (
	defaultTimeout    = 30 * time.Second
	defaultRetryDelay = time.Second
	maxRetryDelay     = 30 * time.Second
	backoffMultiplier = 2.0
)

// NewClient builds a client, filling zero config fields with defaults.
func NewClient(config Config, verbose bool) *Client {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = defaultRetryDelay
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		verbose:    verbose,
	}
}

// Send POSTs the payload as JSON, retrying transient failures until the
// overall timeout runs out.
func (c *Client) Send(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= c.config.Retries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			if c.verbose {
				fmt.Fprintf(os.Stderr, "[WEBHOOK] Retry %d/%d after %v\n", attempt, c.config.Retries, delay)
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("webhook: timed out after %d attempts: %w", attempt, ctx.Err())
			}
		}

		status, err := c.post(ctx, body)
		if err == nil && status >= 200 && status < 300 {
			if c.verbose {
				fmt.Fprintf(os.Stderr, "[WEBHOOK] Sent (status %d)\n", status)
			}
			return nil
		}

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
		} else {
			lastErr = fmt.Errorf("attempt %d: status %d", attempt+1, status)
		}
		if status > 0 && !retryableStatus(status) {
			return lastErr
		}
	}
	return fmt.Errorf("webhook: failed after %d attempts: %w", c.config.Retries+1, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	switch c.config.AuthType {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	case "api-key":
		req.Header.Set("X-API-Key", c.config.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// backoff grows exponentially, capped, with ±10% jitter.
func (c *Client) backoff(attempt int) time.Duration {
	delay := float64(c.config.RetryDelay) * math.Pow(backoffMultiplier, float64(attempt-1))
	if delay > float64(maxRetryDelay) {
		delay = float64(maxRetryDelay)
	}
	jitter := delay * 0.1
	delay += (rand.Float64()*2 - 1) * jitter
	return time.Duration(delay)
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
