package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"

	clierr "github.com/ggonzalez94/defi-router/internal/errors"
)

// Client is a retrying JSON HTTP client shared by all quote-service calls.
type Client struct {
	httpClient *http.Client
	retries    int
	userAgent  string
}

func New(timeout time.Duration, retries int) *Client {
	if retries < 0 {
		retries = 0
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		retries:    retries,
		userAgent:  "defi-router/1.0",
	}
}

// GetJSON issues a GET and decodes a JSON response body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, clierr.Wrap(clierr.CodeInternal, "build request", err)
	}
	return c.DoJSON(ctx, req, out)
}

// DoJSON executes req with retries on transient failures and decodes the
// response into out. The returned status code is the last one observed; it
// is zero when no response was received at all.
func (c *Client) DoJSON(ctx context.Context, req *http.Request, out any) (int, error) {
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var lastErr error
	lastStatus := 0
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return lastStatus, clierr.Wrap(clierr.CodeUnavailable, "request cancelled", ctx.Err())
			case <-time.After(backoff(attempt)):
			}
		}

		cloneReq := req.Clone(ctx)
		resp, err := c.httpClient.Do(cloneReq)
		if err != nil {
			lastErr = mapNetError(err)
			if attempt < c.retries {
				continue
			}
			return lastStatus, lastErr
		}

		buf, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		lastStatus = resp.StatusCode
		if readErr != nil {
			return lastStatus, clierr.Wrap(clierr.CodeUnavailable, "read quote service response", readErr)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = clierr.New(clierr.CodeRateLimited, "quote service rate limited request")
			if attempt < c.retries {
				continue
			}
			return lastStatus, lastErr
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return lastStatus, clierr.New(clierr.CodeAuth, "quote service authentication failed")
		case resp.StatusCode >= http.StatusInternalServerError:
			lastErr = clierr.New(clierr.CodeUnavailable, fmt.Sprintf("quote service unavailable (status %d)", resp.StatusCode))
			if attempt < c.retries {
				continue
			}
			return lastStatus, lastErr
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity:
			// A venue that cannot price this pair/amount; the caller maps
			// this to a dropped candidate, never a routing error.
			return lastStatus, clierr.New(clierr.CodeUnavailable, fmt.Sprintf("venue cannot quote request (status %d)", resp.StatusCode))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return lastStatus, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("quote service returned unexpected status %d", resp.StatusCode))
		}

		if out == nil {
			return lastStatus, nil
		}
		if len(bytes.TrimSpace(buf)) == 0 {
			return lastStatus, clierr.New(clierr.CodeUnavailable, "quote service returned empty response")
		}
		if err := json.Unmarshal(buf, out); err != nil {
			return lastStatus, clierr.Wrap(clierr.CodeUnavailable, "decode quote service JSON", err)
		}
		return lastStatus, nil
	}

	if lastErr != nil {
		return lastStatus, lastErr
	}
	return lastStatus, clierr.New(clierr.CodeUnavailable, "request failed")
}

func mapNetError(err error) error {
	if nerr, ok := err.(net.Error); ok {
		if nerr.Timeout() {
			return clierr.Wrap(clierr.CodeUnavailable, "quote service timeout", err)
		}
	}
	return clierr.Wrap(clierr.CodeUnavailable, "quote service request failed", err)
}

func backoff(attempt int) time.Duration {
	base := 120 * time.Millisecond
	d := base * time.Duration(1<<uint(attempt-1))
	if d > 2*time.Second {
		d = 2 * time.Second
	}
	jitter := time.Duration(rand.Intn(75)) * time.Millisecond
	return d + jitter
}
