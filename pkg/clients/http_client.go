// Package clients provides the HTTP client, circuit breaker and rate limiter
// used to talk to the upstream API
package clients

import (
	"context"
	"crypto/tls"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/ajitpratap0/opendota-datasource/pkg/config"
	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
	"github.com/ajitpratap0/opendota-datasource/pkg/json"
)

const (
	// DefaultMaxResponseSize caps a decoded body (heroStats is a few hundred KB)
	DefaultMaxResponseSize = 16 * 1024 * 1024

	// DefaultErrorPreviewSize is the maximum size of error body preview in HTTPError
	DefaultErrorPreviewSize = 512

	// DefaultUserAgent identifies the connector to the upstream
	DefaultUserAgent = "opendota-datasource/1.0"
)

// HTTPClient is a pooled HTTP client with HTTP/2 support and request metrics
type HTTPClient struct {
	config     *HTTPConfig
	logger     *zap.Logger
	httpClient *http.Client
	transport  *http.Transport
	metrics    *HTTPMetrics
}

// HTTPConfig configures the HTTP client
type HTTPConfig struct {
	// Connection settings
	MaxIdleConns        int           `json:"max_idle_conns"`
	MaxIdleConnsPerHost int           `json:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `json:"idle_conn_timeout"`
	DisableCompression  bool          `json:"disable_compression"`

	// HTTP/2 settings
	EnableHTTP2 bool `json:"enable_http2"`

	// Timeouts
	DialTimeout           time.Duration `json:"dial_timeout"`
	TLSHandshakeTimeout   time.Duration `json:"tls_handshake_timeout"`
	ResponseHeaderTimeout time.Duration `json:"response_header_timeout"`
	KeepAlive             time.Duration `json:"keep_alive"`

	// TLS settings
	InsecureSkipVerify bool   `json:"insecure_skip_verify"`
	TLSMinVersion      uint16 `json:"tls_min_version"`

	// Response handling
	MaxResponseSize int64  `json:"max_response_size"`
	UserAgent       string `json:"user_agent"`
}

// DefaultHTTPConfig returns default configuration
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		DisableCompression:    false,
		EnableHTTP2:           true,
		DialTimeout:           10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		KeepAlive:             30 * time.Second,
		InsecureSkipVerify:    false,
		TLSMinVersion:         tls.VersionTLS12,
		MaxResponseSize:       DefaultMaxResponseSize,
		UserAgent:             DefaultUserAgent,
	}
}

// HTTPConfigFromBase derives client settings from the connector config
func HTTPConfigFromBase(cfg *config.BaseConfig) *HTTPConfig {
	hc := DefaultHTTPConfig()
	if cfg == nil {
		return hc
	}
	if cfg.Timeouts.Connection > 0 {
		hc.DialTimeout = cfg.Timeouts.Connection
		hc.TLSHandshakeTimeout = cfg.Timeouts.Connection
	}
	if cfg.Timeouts.Request > 0 {
		hc.ResponseHeaderTimeout = cfg.Timeouts.Request
	}
	if cfg.Timeouts.Idle > 0 {
		hc.IdleConnTimeout = cfg.Timeouts.Idle
	}
	if cfg.Timeouts.KeepAlive > 0 {
		hc.KeepAlive = cfg.Timeouts.KeepAlive
	}
	if n := cfg.Performance.MaxConcurrency; n > hc.MaxIdleConnsPerHost {
		hc.MaxIdleConnsPerHost = n
		hc.MaxIdleConns = 2 * n
	}
	hc.InsecureSkipVerify = cfg.Security.TLSSkipVerify
	return hc
}

// NewHTTPClient creates a new HTTP client
func NewHTTPClient(cfg *HTTPConfig, logger *zap.Logger) *HTTPClient {
	if cfg == nil {
		cfg = DefaultHTTPConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &HTTPClient{
		config:  cfg,
		logger:  logger.With(zap.String("component", "http_client")),
		metrics: NewHTTPMetrics(),
	}

	client.transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: cfg.KeepAlive,
		}).DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		DisableCompression:    cfg.DisableCompression,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in via tls_skip_verify
			MinVersion:         cfg.TLSMinVersion,
		},
	}

	if cfg.EnableHTTP2 {
		if err := http2.ConfigureTransport(client.transport); err != nil {
			client.logger.Warn("failed to configure HTTP/2", zap.Error(err))
		} else {
			client.logger.Debug("HTTP/2 enabled")
		}
	}

	client.httpClient = &http.Client{
		Transport: client.transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return client
}

// Get performs an HTTP GET request
func (c *HTTPClient) Get(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL, headers)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Do performs an HTTP request and records its metrics
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.metrics.RecordRequest(req.URL.Host, status, time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return resp, nil
}

// FetchJSON GETs rawURL and decodes the body with numbers kept as literals.
// Errors are typed: Timeout or Canceled when ctx ends, Network for transport
// failures and non-2xx statuses (cause *HTTPError), Parse for bodies that are
// not a single JSON document. Every error carries the endpoint without its
// query string.
func (c *HTTPClient) FetchJSON(ctx context.Context, rawURL string) (interface{}, error) {
	endpoint := RedactURL(rawURL)

	resp, err := c.Get(ctx, rawURL, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, classifyTransportError(ctx, err, endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, DefaultErrorPreviewSize))
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: string(preview), URL: endpoint}
		return nil, errors.Wrap(httpErr, errors.ErrorTypeNetwork, "upstream returned a non-success status").
			WithDetail("endpoint", endpoint).
			WithDetail("status", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, c.config.MaxResponseSize+1)
	counter := &countingReader{r: limited}
	value, err := json.DecodeAny(counter)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, classifyTransportError(ctx, err, endpoint)
		}
		if counter.n > c.config.MaxResponseSize {
			return nil, errors.New(errors.ErrorTypeParse, "response body exceeds the size limit").
				WithDetail("endpoint", endpoint).
				WithDetail("limit", c.config.MaxResponseSize)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "response body is not valid JSON").
			WithDetail("endpoint", endpoint).
			WithDetail("status", resp.StatusCode)
	}
	return value, nil
}

// Probe performs a GET and reports an error unless the status is 2xx. The
// body is drained and discarded.
func (c *HTTPClient) Probe(ctx context.Context, rawURL string) error {
	endpoint := RedactURL(rawURL)
	resp, err := c.Get(ctx, rawURL, nil)
	if err != nil {
		return classifyTransportError(ctx, err, endpoint)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.config.MaxResponseSize))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Wrap(&HTTPError{StatusCode: resp.StatusCode, URL: endpoint}, errors.ErrorTypeNetwork,
			"upstream returned a non-success status").
			WithDetail("endpoint", endpoint).
			WithDetail("status", resp.StatusCode)
	}
	return nil
}

// newRequest creates a new HTTP request with default headers
func (c *HTTPClient) newRequest(ctx context.Context, method, rawURL string, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid request URL").
			WithDetail("endpoint", RedactURL(rawURL))
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	return req, nil
}

// GetStats returns current client statistics
func (c *HTTPClient) GetStats() HTTPStats {
	return c.metrics.Stats()
}

// Close releases idle connections
func (c *HTTPClient) Close() error {
	c.logger.Debug("closing HTTP client")
	c.transport.CloseIdleConnections()
	return nil
}

// classifyTransportError maps a failed round trip to a typed error
func classifyTransportError(ctx context.Context, err error, endpoint string) error {
	var typed *errors.Error
	if stderrors.As(err, &typed) {
		return err
	}
	// url.Error repeats the full URL, query string included
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) {
		err = urlErr.Err
	}
	switch {
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded), stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(err, errors.ErrorTypeTimeout, "request deadline exceeded").
			WithDetail("endpoint", endpoint)
	case stderrors.Is(ctx.Err(), context.Canceled):
		return errors.Wrap(err, errors.ErrorTypeCanceled, "request canceled").
			WithDetail("endpoint", endpoint)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(err, errors.ErrorTypeTimeout, "request timed out").
			WithDetail("endpoint", endpoint)
	}
	return errors.Wrap(err, errors.ErrorTypeNetwork, "request failed").
		WithDetail("endpoint", endpoint)
}

// RedactURL drops the query string and user info so api keys never reach
// logs or error details
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url"
	}
	u.RawQuery = ""
	u.User = nil
	u.Fragment = ""
	return u.String()
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}
