// Package http is the JSON transport for the NepaliPay REST API. It resolves
// paths against a base URL, keeps the session cookie between calls and
// retries idempotent requests with exponential backoff.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nepalipay/nepalipay-web3/internal/logger"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// ClientOption configures a Client.
type ClientOption func(*Client)

// Middleware wraps the transport of every attempt.
type Middleware func(http.RoundTripper) http.RoundTripper

// HTTPError is a response with status >= 400. Body holds the response text.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
	Method     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d %s: %s", e.Method, e.URL, e.StatusCode, e.Status, e.Body)
}

// RetryConfig tunes the backoff for idempotent requests.
type RetryConfig struct {
	MaxRetries           int
	InitialInterval      time.Duration
	MaxInterval          time.Duration
	Multiplier           float64
	MaxElapsedTime       time.Duration
	RetryableStatusCodes []int
}

// DefaultRetryConfig retries gateway and throttling errors a few times.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:           3,
		InitialInterval:      100 * time.Millisecond,
		MaxInterval:          10 * time.Second,
		Multiplier:           2.0,
		MaxElapsedTime:       30 * time.Second,
		RetryableStatusCodes: []int{408, 429, 500, 502, 503, 504},
	}
}

// Client sends JSON requests to one API.
type Client struct {
	http        *http.Client
	baseURL     string
	header      http.Header
	retry       *RetryConfig
	middlewares []Middleware
	logger      *zap.Logger
}

// New creates a client. Cookies set by the server are replayed on later
// requests.
func New(options ...ClientOption) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		http: &http.Client{Timeout: defaultTimeout, Jar: jar},
		header: http.Header{
			"Content-Type": {"application/json"},
			"Accept":       {"application/json"},
		},
		retry:  DefaultRetryConfig(),
		logger: logger.Named("http"),
	}
	for _, option := range options {
		option(c)
	}

	// The first middleware is the outermost.
	var transport http.RoundTripper = http.DefaultTransport
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		transport = c.middlewares[i](transport)
	}
	c.http.Transport = transport
	return c
}

// WithBaseURL resolves request paths against baseURL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithDefaultHeader sets a header on every request.
func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.header.Set(key, value)
	}
}

// WithRetryConfig replaces the retry policy; nil disables retries.
func WithRetryConfig(config *RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = config
	}
}

// WithMiddleware wraps the transport.
func WithMiddleware(middleware Middleware) ClientOption {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, middleware)
	}
}

// Do sends one request with body encoded as JSON. Idempotent methods are
// retried on transport errors and retryable statuses; POST and PATCH are
// sent exactly once. A status >= 400 is returned as *HTTPError with the body
// already read.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	start := time.Now()
	target := c.resolve(path)

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var resp *http.Response
	operation := func() error {
		req, err := c.newRequest(ctx, method, target, payload)
		if err != nil {
			return backoff.Permanent(err)
		}
		r, err := c.http.Do(req)
		if err != nil {
			return err
		}
		if r.StatusCode < 400 {
			resp = r
			return nil
		}

		httpErr := readError(r)
		if c.retryableStatus(r.StatusCode) {
			return httpErr
		}
		return backoff.Permanent(httpErr)
	}

	err := backoff.Retry(operation, c.policy(ctx, method))
	duration := time.Since(start)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			c.logger.Warn("HTTP error response",
				zap.String("method", method),
				zap.String("url", target),
				zap.Int("status", httpErr.StatusCode),
				zap.Duration("duration", duration))
			return nil, httpErr
		}
		c.logger.Error("HTTP request failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.Error(err),
			zap.Duration("duration", duration))
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	c.logger.Debug("HTTP request successful",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration))
	return resp, nil
}

// DecodeJSON decodes a successful response into target and closes it. A nil
// target or a 204 discards the body.
func (c *Client) DecodeJSON(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	if target == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

func (c *Client) newRequest(ctx context.Context, method, target string, payload []byte) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = c.header.Clone()
	return req, nil
}

func (c *Client) policy(ctx context.Context, method string) backoff.BackOff {
	if c.retry == nil || c.retry.MaxRetries <= 0 || !idempotent(method) {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.retry.InitialInterval
	exp.MaxInterval = c.retry.MaxInterval
	exp.Multiplier = c.retry.Multiplier
	exp.MaxElapsedTime = c.retry.MaxElapsedTime
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.retry.MaxRetries)), ctx)
}

func (c *Client) resolve(path string) string {
	if c.baseURL == "" {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func (c *Client) retryableStatus(status int) bool {
	if c.retry == nil {
		return false
	}
	for _, code := range c.retry.RetryableStatusCodes {
		if status == code {
			return true
		}
	}
	return false
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func readError(resp *http.Response) *HTTPError {
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		URL:        resp.Request.URL.String(),
		Method:     resp.Request.Method,
		Body:       string(body),
	}
}

// LoggingMiddleware logs every attempt, including retries, at debug level.
// Cookie values are never logged.
func LoggingMiddleware(log *zap.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("url", req.URL.String()),
				zap.Bool("cookie", req.Header.Get("Cookie") != ""),
			}

			resp, err := next.RoundTrip(req)
			fields = append(fields, zap.Duration("duration", time.Since(start)))
			if err != nil {
				log.Debug("API attempt failed", append(fields, zap.Error(err))...)
				return resp, err
			}
			log.Debug("API attempt", append(fields, zap.Int("status", resp.StatusCode))...)
			return resp, nil
		})
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
