package apis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/factweave/veridex/internal/breaker"
	"github.com/factweave/veridex/internal/model"
	"github.com/factweave/veridex/internal/util"
)

// StatusError reports a non-2xx response from an external API.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// Retryable reports whether the failure is transient. 5xx and 429 are
// retried; other 4xx are client errors where retrying only wastes quota.
func (e *StatusError) Retryable() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// Client is the shared outbound HTTP layer for all adapters. Every call
// passes through the per-API circuit breaker, which wraps an
// exponential-backoff retry loop (base delay doubling per attempt), which
// wraps the raw request. Exhausted retries count as one breaker failure.
type Client struct {
	http       *http.Client
	breakers   *breaker.Registry
	userAgent  string
	maxBytes   int64
	maxRetries int
	baseDelay  time.Duration

	sleep func(time.Duration) // Injectable for tests
}

// NewClient builds the shared API client.
func NewClient(httpCfg model.HTTPConfig, breakerCfg model.BreakerConfig, breakers *breaker.Registry) *Client {
	maxRetries := breakerCfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := breakerCfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	maxBytes := httpCfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}

	return &Client{
		http: &http.Client{
			Timeout: httpCfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
			},
		},
		breakers:   breakers,
		userAgent:  httpCfg.UserAgent,
		maxBytes:   maxBytes,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		sleep:      time.Sleep,
	}
}

// GetJSON fetches rawURL under apiName's breaker and decodes the response
// body into out.
func (c *Client) GetJSON(ctx context.Context, apiName, rawURL string, out any) error {
	body, err := c.Get(ctx, apiName, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		// Malformed responses are permanent failures: log-and-skip
		// territory for the caller, never retried.
		return fmt.Errorf("decode %s response: %w", apiName, err)
	}
	return nil
}

// GetJSONWithBasicAuth is GetJSON for APIs that authenticate with a basic
// auth username (Companies House style: key as user, empty password).
func (c *Client) GetJSONWithBasicAuth(ctx context.Context, apiName, rawURL, user string, out any) error {
	var body []byte
	err := c.breakers.Get(apiName).Call(ctx, func(ctx context.Context) error {
		var err error
		body, err = c.getWithRetryAuth(ctx, rawURL, user)
		return err
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", apiName, err)
	}
	return nil
}

// Get fetches rawURL through breaker and retry layers, returning the body.
func (c *Client) Get(ctx context.Context, apiName, rawURL string) ([]byte, error) {
	var body []byte

	err := c.breakers.Get(apiName).Call(ctx, func(ctx context.Context) error {
		var err error
		body, err = c.getWithRetry(ctx, rawURL)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// getWithRetry runs the raw request with exponential backoff. Non-retryable
// failures return immediately.
func (c *Client) getWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	return c.getWithRetryAuth(ctx, rawURL, "")
}

func (c *Client) getWithRetryAuth(ctx context.Context, rawURL, basicAuthUser string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay << uint(attempt-1) // 1s, 2s, 4s...
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			c.sleep(delay)
		}

		body, err := c.getOnce(ctx, rawURL, basicAuthUser)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

func (c *Client) getOnce(ctx context.Context, rawURL, basicAuthUser string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if basicAuthUser != "" {
		req.SetBasicAuth(basicAuthUser, "")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
