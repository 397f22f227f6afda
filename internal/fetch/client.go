// Package fetch retrieves license texts and source archives over HTTP and
// classifies fetched license files.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kompline/kompline/internal/model"
)

// maxBody bounds a fetched response. License files and API payloads are
// small; source archives go through the archive package, not here.
const maxBody = 8 * 1024 * 1024

// Client fetches external resources. GETs are retried once on transient
// failure; a throttling response is surfaced as ErrRateLimited and never
// retried, hammering a rate limiter only extends the penalty window.
type Client struct {
	HTTP *http.Client
	Log  *slog.Logger

	// RetryDelay is the pause before the single retry. Zero means one second.
	RetryDelay time.Duration
}

func NewClient() *Client {
	return &Client{HTTP: &http.Client{Timeout: 30 * time.Second}}
}

// Get fetches url and returns the body. One retry for network errors and
// 5xx responses; 403 and 429 map to ErrRateLimited, 404 to ErrUnresolved.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	body, err := c.once(ctx, url)
	if err == nil || !retryable(err) {
		return body, err
	}

	c.logger().Debug("retrying fetch", "url", url, "error", err)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.retryDelay()):
	}
	return c.once(ctx, url)
}

func (c *Client) once(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request for %s: %v", model.ErrValidation, url, err)
	}

	resp, err := c.http().Do(req)
	if err != nil {
		return nil, &transientError{err: fmt.Errorf("fetching %s: %w", url, err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return nil, &transientError{err: fmt.Errorf("reading %s: %w", url, err)}
		}
		return body, nil
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s answered %d", model.ErrRateLimited, url, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s answered 404", model.ErrUnresolved, url)
	case resp.StatusCode >= 500:
		return nil, &transientError{err: fmt.Errorf("%s answered %d", url, resp.StatusCode)}
	default:
		return nil, fmt.Errorf("%s answered unexpected status %d", url, resp.StatusCode)
	}
}

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

func (c *Client) http() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c *Client) retryDelay() time.Duration {
	if c.RetryDelay <= 0 {
		return time.Second
	}
	return c.RetryDelay
}

func (c *Client) logger() *slog.Logger {
	if c.Log == nil {
		return slog.Default()
	}
	return c.Log
}
