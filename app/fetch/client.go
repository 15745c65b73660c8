package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultBackoff = 400 * time.Millisecond

// HTTPError is a non-2xx response. 5xx and 429 are retryable; other 4xx are
// terminal for the URL.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client is the shared resilient fetcher: bounded per-attempt deadline,
// bounded retry with linear backoff. Network failures (DNS, TLS, resets)
// consume the retry budget like retryable status codes.
type Client struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
}

func NewClient(userAgent string, timeout time.Duration, maxRetries int) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 5,
			},
		},
		userAgent:  userAgent,
		timeout:    timeout,
		maxRetries: maxRetries,
		backoff:    defaultBackoff,
	}
}

// Fetch retrieves a URL, returning the body and status code. Retries only on
// 5xx, 429 and transport errors, sleeping backoff × attempt between tries.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, int, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * c.backoff
			slog.Debug("Retrying fetch", "url", url, "attempt", attempt+1, "delay", delay.String())
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, status, err := c.fetchOnce(ctx, url)
		if err == nil {
			return body, status, nil
		}
		lastErr = err

		var httpErr *HTTPError
		if errors.As(err, &httpErr) && !httpErr.Retryable() {
			return nil, httpErr.StatusCode, err
		}
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
	}

	return nil, 0, fmt.Errorf("fetch failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}
