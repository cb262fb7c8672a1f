// Package gateway issues authenticated JSON requests to the document service.
//
// Every non-2xx response and every transport failure is returned as an
// *Error carrying the HTTP status (0 when no response was received). The
// gateway never retries; retry policy belongs to the caller.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/renderrelay/observability"
	"github.com/xraph/renderrelay/ratelimit"
)

const (
	maxErrorBody    = 1024     // 1KB cap on error messages
	maxResponseBody = 10 << 20 // 10MB cap on decoded responses

	defaultUserAgent = "renderrelay/1.0"
)

// ErrNoBaseURL is returned by New when the base URL is missing or invalid.
var ErrNoBaseURL = errors.New("gateway: base URL is required")

// Doer is the request capability consumed by the resolver, orchestrator and
// subscription manager.
type Doer interface {
	Do(ctx context.Context, req Request, out any) error
}

// Request describes one call to the document service.
type Request struct {
	// Op names the operation for logs, metrics and spans (e.g. "teams.list").
	Op string

	// Method is the HTTP method.
	Method string

	// Path is appended to the client's base URL.
	Path string

	// Query holds optional query parameters.
	Query url.Values

	// Body is JSON-encoded when non-nil.
	Body any

	// Header holds extra request headers.
	Header http.Header
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Limiter    *ratelimit.Limiter
	Metrics    *observability.Metrics
	Tracer     *observability.Tracer
}

// Client performs HTTP calls against the document service.
type Client struct {
	baseURL   string
	host      string
	apiKey    string
	userAgent string
	http      *http.Client
	limiter   *ratelimit.Limiter
	metrics   *observability.Metrics
	tracer    *observability.Tracer
	logger    *slog.Logger
}

var _ Doer = (*Client)(nil)

// New creates a Client. When cfg.HTTPClient is nil a client with a tuned
// transport and cfg.Timeout is built.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoBaseURL, cfg.BaseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = newHTTPClient(cfg.Timeout)
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &Client{
		baseURL:   base.String(),
		host:      base.Host,
		apiKey:    cfg.APIKey,
		userAgent: ua,
		http:      hc,
		limiter:   cfg.Limiter,
		metrics:   cfg.Metrics,
		tracer:    cfg.Tracer,
		logger:    logger,
	}, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// BaseURL returns the normalized base URL requests are issued against.
func (c *Client) BaseURL() string { return c.baseURL }

// Do sends req and decodes a 2xx JSON response body into out (when out is
// non-nil and the body is non-empty).
func (c *Client) Do(ctx context.Context, req Request, out any) (err error) {
	if req.Op == "" {
		req.Op = strings.ToLower(req.Method) + " " + req.Path
	}

	if waitErr := c.limiter.Wait(ctx, c.host); waitErr != nil {
		return c.fail(req, 0, "rate limiter: "+waitErr.Error(), waitErr)
	}

	status := 0
	start := time.Now()
	defer func() {
		c.metrics.RecordRequest(req.Op, status, time.Since(start).Seconds())
	}()

	if c.tracer != nil {
		spanCtx, span := c.tracer.StartRequestSpan(ctx, req.Op, req.Method, req.Path)
		ctx = spanCtx
		defer func() { c.tracer.EndRequestSpan(span, status, err) }()
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return c.fail(req, 0, "build request: "+err.Error(), err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.WarnContext(ctx, "remote request failed",
			"op", req.Op, "method", req.Method, "path", req.Path, "error", err)
		return c.fail(req, 0, "request failed: "+err.Error(), err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.DebugContext(ctx, "remote request rejected",
			"op", req.Op, "status", resp.StatusCode, "path", req.Path)
		return c.fail(req, resp.StatusCode, errorMessage(resp.StatusCode, raw), nil)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return c.fail(req, resp.StatusCode, "read response: "+err.Error(), err)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return c.fail(req, resp.StatusCode, "decode response: "+err.Error(), err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	return httpReq, nil
}

func (c *Client) fail(req Request, status int, msg string, cause error) error {
	return &Error{
		Op:         req.Op,
		Method:     req.Method,
		Path:       req.Path,
		StatusCode: status,
		Message:    msg,
		Err:        cause,
	}
}
