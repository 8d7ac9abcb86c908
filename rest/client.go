// Package rest is the HTTP client for the platform's REST API. It owns
// request execution (serialization, authentication cookie, rate-limit
// resubmission, error mapping) and exposes one method per API operation.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/8r2y5/guilded/config"
	"github.com/8r2y5/guilded/errors"
	"github.com/8r2y5/guilded/metric"
	"github.com/8r2y5/guilded/pkg/retry"
)

// clientMetrics holds Prometheus metrics for the REST client.
type clientMetrics struct {
	requests    *prometheus.CounterVec
	rateLimited prometheus.Counter
	duration    prometheus.Histogram
}

func newClientMetrics(registry *metric.Registry) *clientMetrics {
	if registry == nil {
		return nil
	}

	m := &clientMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guilded",
			Subsystem: "rest",
			Name:      "requests_total",
			Help:      "REST requests by method and status code",
		}, []string{"method", "status"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "guilded",
			Subsystem: "rest",
			Name:      "rate_limited_total",
			Help:      "Requests deferred by a rate-limit response",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "guilded",
			Subsystem: "rest",
			Name:      "request_duration_seconds",
			Help:      "Wall time of individual request attempts",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if err := registry.RegisterCounterVec("rest", "requests", m.requests); err != nil {
		return nil
	}
	if err := registry.RegisterCounter("rest", "rate_limited", m.rateLimited); err != nil {
		return nil
	}
	if err := registry.RegisterHistogram("rest", "duration", m.duration); err != nil {
		return nil
	}

	return m
}

// Client executes REST operations against the platform API. It is safe for
// concurrent use once authenticated; the cookie is written only by Login.
type Client struct {
	http    *http.Client
	cfg     config.Config
	logger  *slog.Logger
	metrics *clientMetrics

	userAgent string
	cookie    string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics exports client metrics through registry.
func WithMetrics(registry *metric.Registry) Option {
	return func(c *Client) {
		c.metrics = newClientMetrics(registry)
	}
}

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a REST client for the given configuration.
func New(cfg config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "rest", "New", "validate configuration")
	}

	c := &Client{
		http:      &http.Client{Timeout: cfg.HTTPTimeout},
		cfg:       cfg,
		logger:    slog.Default(),
		userAgent: "guilded-go (github.com/8r2y5/guilded)",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Cookie returns the authentication cookie captured by Login, or "" when
// the client has not logged in.
func (c *Client) Cookie() string {
	return c.cookie
}

// baseFor resolves a route's base URL from configuration.
func (c *Client) baseFor(r Route) string {
	switch r.Base {
	case BaseMedia:
		return c.cfg.MediaBase
	case BaseCDN:
		return c.cfg.CDNBase
	default:
		return c.cfg.APIBase
	}
}

// requestOption mutates an outgoing request before it is sent.
type requestOption func(*requestSpec)

type requestSpec struct {
	body    []byte
	headers http.Header

	// err holds a body-construction failure; the request is never sent.
	err error
}

// withJSONBody serializes v as the request body. A marshal failure is a
// client-side error, not a request with an empty body.
func withJSONBody(v any) requestOption {
	return func(s *requestSpec) {
		b, err := json.Marshal(v)
		if err != nil {
			s.err = errors.WrapInvalid(err, "rest", "withJSONBody", "encode request body")
			return
		}
		s.body = b
		s.headers.Set("Content-Type", "application/json")
	}
}

// withRawBody attaches body verbatim with the given content type.
func withRawBody(body []byte, contentType string) requestOption {
	return func(s *requestSpec) {
		s.body = body
		s.headers.Set("Content-Type", contentType)
	}
}

// attempt is one HTTP exchange: build, send, classify. It returns the
// response body and headers on success, retry.Delayed on a rate-limit
// response, and a typed HTTPError on any other failure status.
func (c *Client) attempt(ctx context.Context, route Route, spec *requestSpec) ([]byte, http.Header, error) {
	url := c.baseFor(route) + route.Path

	var reader io.Reader
	if spec.body != nil {
		reader = bytes.NewReader(spec.body)
	}
	req, err := http.NewRequestWithContext(ctx, route.Method, url, reader)
	if err != nil {
		return nil, nil, errors.WrapInvalid(err, "rest", "attempt", "build request")
	}
	for k, vs := range spec.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, errors.WrapTransient(err, "rest", "attempt", "execute request")
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.duration.Observe(time.Since(start).Seconds())
		c.metrics.requests.WithLabelValues(route.Method, strconv.Itoa(resp.StatusCode)).Inc()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.WrapTransient(err, "rest", "attempt", "read response body")
	}

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, resp.Header, nil

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, resp.Header, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		delay := c.retryAfter(resp.Header)
		c.logger.Warn("rate limited, deferring request",
			"method", route.Method, "path", route.Path, "delay", delay)
		if c.metrics != nil {
			c.metrics.rateLimited.Inc()
		}
		return nil, resp.Header, retry.Delayed(delay, errors.NewHTTPError(resp.StatusCode, resp.Header, body))

	default:
		return nil, resp.Header, errors.NewHTTPError(resp.StatusCode, resp.Header, body)
	}
}

// retryAfter reads the server's requested wait from the Retry-After header,
// falling back to the configured delay when it is absent or malformed.
func (c *Client) retryAfter(h http.Header) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return c.cfg.RateLimit.FallbackDelay
}

// do executes a route, resubmitting on rate-limit responses per the
// configured policy, and returns the successful response body (nil for
// 204 No Content).
func (c *Client) do(ctx context.Context, route Route, opts ...requestOption) ([]byte, error) {
	body, _, err := c.doWithHeaders(ctx, route, opts...)
	return body, err
}

// doWithHeaders is do plus the response headers of the final attempt, for
// operations that read them (login's cookie capture).
func (c *Client) doWithHeaders(ctx context.Context, route Route, opts ...requestOption) ([]byte, http.Header, error) {
	spec := &requestSpec{headers: make(http.Header)}
	for _, opt := range opts {
		opt(spec)
	}
	if spec.err != nil {
		return nil, nil, spec.err
	}

	type result struct {
		body    []byte
		headers http.Header
	}
	res, err := retry.DoWithResult(ctx, retry.Config{MaxAttempts: c.cfg.RateLimit.MaxRetries},
		func() (result, error) {
			b, h, err := c.attempt(ctx, route, spec)
			return result{body: b, headers: h}, err
		})
	if err != nil {
		return nil, nil, err
	}
	return res.body, res.headers, nil
}

// doJSON executes a route and decodes the response body into a generic
// JSON value. A 204 yields nil.
func (c *Client) doJSON(ctx context.Context, route Route, opts ...requestOption) (map[string]any, error) {
	body, err := c.do(ctx, route, opts...)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.Wrap(err, "rest", "doJSON", "decode response")
	}
	return out, nil
}
