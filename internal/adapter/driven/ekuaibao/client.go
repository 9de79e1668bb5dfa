// Package ekuaibao implements the TokenIssuer and ExpensePlatform ports
// against the Ekuaibao OpenAPI.
package ekuaibao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/ericfisherdev/requisitionbot/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.TokenIssuer     = (*Client)(nil)
	_ driven.ExpensePlatform = (*Client)(nil)
)

// Config configures a Client.
type Config struct {
	BaseURL     string // e.g. "https://app.ekuaibao.com/api/openapi"
	AppKey      string
	AppSecurity string
	PowerCode   string

	// Timeout for individual requests (default: 30s).
	Timeout time.Duration

	// RateLimit is the sustained requests per second (default: 10).
	RateLimit float64

	// RateBurst is the maximum burst size (default: 5).
	RateBurst int

	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to the expense platform. Requests are never retried; every
// request waits on a shared rate limiter first.
type Client struct {
	baseURL     string
	appKey      string
	appSecurity string
	powerCode   string
	http        *http.Client
	limiter     *rate.Limiter
}

// NewClient creates a Client from cfg, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 10
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 5
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:     cfg.BaseURL,
		appKey:      cfg.AppKey,
		appSecurity: cfg.AppSecurity,
		powerCode:   cfg.PowerCode,
		http:        httpClient,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}
}

// response is a raw platform response.
type response struct {
	StatusCode int
	Body       []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// do sends one request. query may be nil; body, when non-nil, is sent as JSON.
// A non-2xx status is not an error here; callers decide what it means.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response of %s %s: %w", method, path, err)
	}

	slog.Debug("ekuaibao request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return &response{StatusCode: resp.StatusCode, Body: data}, nil
}

// getJSON performs a GET and decodes a 2xx body into target.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("GET %s failed (status %d): %s", path, resp.StatusCode, truncate(resp.Body))
	}
	if err := json.Unmarshal(resp.Body, target); err != nil {
		return fmt.Errorf("decode response of GET %s: %w", path, err)
	}
	return nil
}

// tokenQuery returns query parameters carrying the access token.
func tokenQuery(token string) url.Values {
	q := url.Values{}
	q.Set("accessToken", token)
	return q
}

// truncate shortens a response body for error messages.
func truncate(body []byte) string {
	const limit = 512
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
