// Package upstream is the HTTP client for the public D&D 5e reference API.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds every upstream call when Config.Timeout is unset.
const DefaultTimeout = 30 * time.Second

const tracerName = "github.com/calabozos/calabozos-backend/internal/upstream"

// Config is the fixed upstream configuration injected at construction.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client performs GET calls relative to the configured base URL.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	userAgent  string
	tracer     trace.Tracer
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, fmt.Errorf("%w: upstream base URL is required", ErrInvalidArgument)
	}
	base, err := url.Parse(raw)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: malformed upstream base URL %q", ErrInvalidArgument, cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		userAgent:  cfg.UserAgent,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// FetchCollection GETs a list endpoint. Any non-2xx status, 404 included,
// is a *ConnectionError.
func (c *Client) FetchCollection(ctx context.Context, path string) (json.RawMessage, error) {
	status, reason, body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, &ConnectionError{Path: path, StatusCode: status, Reason: reason}
	}
	return decode(path, body)
}

// FetchDetail GETs a single resource. A 404 reports found=false with a nil
// error; other non-2xx statuses are a *ConnectionError.
func (c *Client) FetchDetail(ctx context.Context, path string) (json.RawMessage, bool, error) {
	status, reason, body, err := c.get(ctx, path)
	if err != nil {
		return nil, false, err
	}
	if status == http.StatusNotFound {
		return nil, false, nil
	}
	if !isSuccess(status) {
		return nil, false, &ConnectionError{Path: path, StatusCode: status, Reason: reason}
	}
	data, err := decode(path, body)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *Client) get(ctx context.Context, path string) (int, string, []byte, error) {
	ctx, span := c.tracer.Start(ctx, "GET "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	endpoint := c.baseURL.String() + path
	span.SetAttributes(
		attribute.String("http.request.method", http.MethodGet),
		attribute.String("url.full", endpoint),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, "", nil, fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, "", nil, &ConnectionError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	reason := reasonPhrase(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, "", nil, &ConnectionError{Path: path, StatusCode: resp.StatusCode, Reason: reason, Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, resp.Status)
	}
	return resp.StatusCode, reason, body, nil
}

func decode(path string, body []byte) (json.RawMessage, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: GET %s", ErrInvalidBody, path)
	}
	return json.RawMessage(body), nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// reasonPhrase extracts "Service Unavailable" from "503 Service Unavailable".
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
