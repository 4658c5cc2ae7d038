// Package client implements the HTTP calls to the CareerOS service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"careeros/internal/config"
	"careeros/internal/errors"
	"careeros/internal/schemas"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// maxResponseSize caps how much of a response body is read
const maxResponseSize = 10 << 20

// Recorder receives the outcome of every remote call
type Recorder interface {
	RecordRemoteCall(ctx context.Context, operation string, duration time.Duration, err error)
}

// Client talks to the CareerOS service. Every failure is returned as an
// *errors.AppError of type network; nothing is retried.
type Client struct {
	baseURL    string
	healthURL  string
	httpClient *http.Client
	timeouts   map[string]time.Duration
	breakers   map[string]*CircuitBreaker
	limiter    *Limiter
	recorder   Recorder
	logger     *errors.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the transport-level HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRecorder attaches a metrics recorder
func WithRecorder(recorder Recorder) Option {
	return func(c *Client) {
		c.recorder = recorder
	}
}

// New creates a client from configuration
func New(cfg *config.Config, logger *errors.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = errors.Discard()
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.API.BaseURL, "/"),
		healthURL: cfg.API.HealthURL,
		timeouts:  make(map[string]time.Duration, len(config.OperationNames)),
		breakers:  make(map[string]*CircuitBreaker, len(config.OperationNames)),
		limiter:   NewLimiter(cfg.RateLimit),
		logger:    logger,
	}
	if c.healthURL == "" {
		c.healthURL = config.DeriveHealthURL(c.baseURL)
	}

	for _, name := range config.OperationNames {
		opCfg := cfg.GetOperationConfig(name)
		c.timeouts[name] = *opCfg.Timeout
		c.breakers[name] = NewCircuitBreaker(name, opCfg.CircuitBreaker, logger)
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		transport, err := NewTransport(cfg.TLS)
		if err != nil {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to build client transport", err)
		}
		c.httpClient = &http.Client{Transport: otelhttp.NewTransport(transport)}
	}

	// Timeouts are applied per operation through the request context
	next := c.httpClient.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	c.httpClient = &http.Client{
		Transport: &headerTransport{
			next:      next,
			token:     cfg.API.Token,
			userAgent: cfg.API.UserAgent,
		},
		CheckRedirect: c.httpClient.CheckRedirect,
		Jar:           c.httpClient.Jar,
	}

	return c, nil
}

// BaseURL returns the service base address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BreakerStats reports the circuit breaker state of every operation
func (c *Client) BreakerStats() map[string]any {
	stats := make(map[string]any, len(c.breakers))
	for name, cb := range c.breakers {
		stats[name] = cb.GetStats()
	}
	return stats
}

// call describes one request to the service
type call struct {
	operation   string
	method      string
	url         string
	body        []byte
	contentType string
	schema      string
	// transform rewrites the body before schema validation
	transform func([]byte) ([]byte, error)
}

// do runs one call through the limiter, circuit breaker and per-operation timeout,
// and returns the validated response body
func (c *Client) do(ctx context.Context, cl call) (body []byte, err error) {
	ctx, span := otel.Tracer("careeros.client").Start(ctx, "client."+cl.operation)
	defer span.End()
	span.SetAttributes(
		attribute.String("careeros.operation", cl.operation),
		attribute.String("http.request.method", cl.method),
	)

	start := time.Now()
	defer func() {
		duration := time.Since(start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.logger.LogError(err, "Remote call failed", "operation", cl.operation, "duration_ms", duration.Milliseconds())
		} else {
			c.logger.Debug("Remote call succeeded", "operation", cl.operation, "duration_ms", duration.Milliseconds())
		}
		if c.recorder != nil {
			c.recorder.RecordRemoteCall(ctx, cl.operation, duration, err)
		}
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeRateLimited, "client rate limit wait aborted", err).
			WithContext("operation", cl.operation)
	}

	raw, err := c.breakers[cl.operation].Execute(func() ([]byte, error) {
		return c.send(ctx, cl)
	})
	if err != nil {
		if isOpenStateError(err) {
			return nil, errors.NewNetworkError(errors.ErrCodeCircuitOpen,
				fmt.Sprintf("%s temporarily unavailable", cl.operation), err).
				WithContext("operation", cl.operation)
		}
		return nil, err
	}

	if cl.transform != nil {
		if raw, err = cl.transform(raw); err != nil {
			return nil, invalidResponse(cl.operation, err)
		}
	}

	if cl.schema != "" {
		if err := schemas.Validate(cl.schema, raw); err != nil {
			return nil, invalidResponse(cl.operation, err)
		}
	}

	return raw, nil
}

// send performs the HTTP exchange under the operation's timeout
func (c *Client) send(ctx context.Context, cl call) ([]byte, error) {
	timeout := c.timeouts[cl.operation]
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var reader io.Reader
	if cl.body != nil {
		reader = bytes.NewReader(cl.body)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, cl.url, reader)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to build request", err).
			WithContext("operation", cl.operation)
	}
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(cl.operation, timeout, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, transportError(cl.operation, timeout, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewNetworkError(errors.ErrCodeBadStatus,
			fmt.Sprintf("%s returned status %d%s", cl.operation, resp.StatusCode, errorDetail(body)), nil).
			WithContext("operation", cl.operation).
			WithContext("status", resp.StatusCode)
	}

	return body, nil
}

func transportError(operation string, timeout time.Duration, err error) *errors.AppError {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		msg := fmt.Sprintf("%s timed out", operation)
		if timeout > 0 {
			msg = fmt.Sprintf("%s timed out after %s", operation, timeout)
		}
		return errors.NewNetworkError(errors.ErrCodeRequestTimeout, msg, err).
			WithContext("operation", operation)
	}
	return errors.NewNetworkError(errors.ErrCodeRequestFailed,
		fmt.Sprintf("%s request failed", operation), err).
		WithContext("operation", operation)
}

func invalidResponse(operation string, err error) *errors.AppError {
	return errors.NewNetworkError(errors.ErrCodeInvalidResponse,
		fmt.Sprintf("%s returned an invalid response", operation), err).
		WithContext("operation", operation)
}

// errorDetail extracts the service's error description from a failure body
func errorDetail(body []byte) string {
	var payload struct {
		Detail any    `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return ": " + payload.Error
	}
	if detail, ok := payload.Detail.(string); ok && detail != "" {
		return ": " + detail
	}
	return ""
}

// decode unmarshals a validated body into v
func decode(operation string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return invalidResponse(operation, err)
	}
	return nil
}
