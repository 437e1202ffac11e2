// Package client provides a typed Go SDK for the wifimap REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout = 5 * time.Minute
	maxRetryWait   = 30 * time.Second
)

// Client is the top-level wifimap API client.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	retries    int
	httpClient *http.Client

	Networks *NetworkService
	Notes    *NoteService
	History  *HistoryService
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the API key sent as a bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the HTTP client timeout. Imports of large exports can
// take minutes, hence the generous default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetries retries a request up to n times when the server answers 503
// (another import holds the store) or 429, waiting as long as Retry-After
// asks, capped at 30s.
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = max(n, 0) }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for baseURL, e.g. "http://localhost:3031".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  "wifimap-go-client",
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}

	c.Networks = &NetworkService{c: c}
	c.Notes = &NoteService{c: c}
	c.History = &HistoryService{c: c}

	return c
}

// Health returns the liveness check response.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.getJSON(ctx, "/api/v1/health", nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Ready returns the readiness check response. A store that is not ready
// yields an *APIError with status 503.
func (c *Client) Ready(ctx context.Context) (*ReadyResponse, error) {
	var resp ReadyResponse
	if err := c.getJSON(ctx, "/api/v1/ready", nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Stats returns aggregate counts over the stored networks.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var resp Stats
	if err := c.getJSON(ctx, "/api/v1/stats", nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// call is one API request. body is held as bytes so a retry can resend it.
type call struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

func jsonCall(method, path string, payload any) (call, error) {
	cl := call{method: method, path: path}
	if payload == nil {
		return cl, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return cl, fmt.Errorf("marshal request: %w", err)
	}

	cl.body = data
	cl.contentType = "application/json"

	return cl, nil
}

func (c *Client) request(ctx context.Context, cl call) (*http.Request, error) {
	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader = http.NoBody
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}

	req.Header.Set("User-Agent", c.userAgent)

	return req, nil
}

// send runs cl, retrying busy and rate-limited answers as configured, and
// returns the raw response body.
func (c *Client) send(ctx context.Context, cl call) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		req, err := c.request(ctx, cl)
		if err != nil {
			return nil, err
		}

		body, wait, err := c.roundTrip(req)
		if err == nil || wait == 0 || attempt >= c.retries {
			return body, err
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()

			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// roundTrip performs req once. A non-zero wait means the failure is worth
// retrying after that long.
func (c *Client) roundTrip(req *http.Request) ([]byte, time.Duration, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusBadRequest {
		return body, 0, nil
	}

	apiErr := parseAPIError(resp.StatusCode, body)

	switch resp.StatusCode {
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		return nil, retryAfter(resp.Header.Get("Retry-After")), apiErr
	default:
		return nil, 0, apiErr
	}
}

// retryAfter reads a Retry-After value in seconds, defaulting to one second.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return time.Second
	}

	return min(time.Duration(secs)*time.Second, maxRetryWait)
}

func (c *Client) decode(ctx context.Context, cl call, result any) error {
	body, err := c.send(ctx, cl)
	if err != nil {
		return err
	}

	if result == nil || len(body) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, result any) error {
	return c.decode(ctx, call{method: http.MethodGet, path: path, query: query}, result)
}

func (c *Client) deleteJSON(ctx context.Context, path string, query url.Values, result any) error {
	return c.decode(ctx, call{method: http.MethodDelete, path: path, query: query}, result)
}

func (c *Client) putJSON(ctx context.Context, path string, payload, result any) error {
	cl, err := jsonCall(http.MethodPut, path, payload)
	if err != nil {
		return err
	}

	return c.decode(ctx, cl, result)
}
