package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"
)

// ============================================================================
// UPSTREAM HTTP - shared by the transit and pedestrian clients
// ============================================================================
// Every call uses the same timeout and gets at most one retry, and only when
// the failure is transient (network error, timeout, HTTP 5xx or 429).
// ============================================================================

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// StatusError is a non-2xx upstream response
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Service, e.StatusCode, e.Body)
}

// Client wraps an http.Client with the retry policy
type Client struct {
	service    string
	httpClient *http.Client
	retryDelay time.Duration
}

// NewClient creates a client for the named service with a fixed per-call timeout
func NewClient(service string, timeout time.Duration) *Client {
	return &Client{
		service:    service,
		httpClient: &http.Client{Timeout: timeout},
		retryDelay: 200 * time.Millisecond,
	}
}

// WithHTTPClient replaces the underlying client (tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Do executes the request built by build and returns the body. build is called
// again for the retry so request bodies can be re-created.
func (c *Client) Do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	body, err := c.once(ctx, build)
	if err == nil || !IsTransient(err) || ctx.Err() != nil {
		return body, err
	}

	log.Printf("[%s] ⚠️  transient error, retrying once: %v", c.service, err)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.retryDelay):
	}
	return c.once(ctx, build)
}

func (c *Client) once(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	req, err := build(ctx)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", c.service, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", c.service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{Service: c.service, StatusCode: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

// IsTransient reports whether a retry could plausibly succeed.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 || se.StatusCode == http.StatusTooManyRequests
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var oe *net.OpError
	return errors.As(err, &oe)
}
