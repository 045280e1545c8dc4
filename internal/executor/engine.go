// Package executor runs canonical endpoints over HTTP with conditional
// authentication, bounded retries and response normalization.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/auth"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/common"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/metrics"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/request"
)

// Engine executes endpoints. It holds no per-call state; the auth strategy is
// passed to every call.
type Engine struct {
	cfg     Config
	builder *request.Builder
	retryOn map[int]bool
	client  *http.Client
	logger  *common.Logger
	metrics *metrics.Collector
}

// Option configures an Engine.
type Option func(*Engine)

// WithHTTPClient replaces the default client. Per-attempt timeouts are
// applied through the request context, not Client.Timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) { e.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *common.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records executions on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine validates cfg and creates an engine.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid execution config: %w", err)
	}
	if cfg.MaxResponseBytes == 0 {
		cfg.MaxResponseBytes = DefaultConfig().MaxResponseBytes
	}

	e := &Engine{
		cfg: cfg,
		builder: &request.Builder{
			BaseURL:        cfg.BaseURL,
			DefaultHeaders: cfg.DefaultHeaders,
			AuthParams:     cfg.AuthParams,
			ArrayStyle:     cfg.ArrayStyle,
		},
		retryOn: make(map[int]bool, len(cfg.RetryOn)),
		client:  &http.Client{},
	}
	for _, code := range cfg.RetryOn {
		e.retryOn[code] = true
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = common.NewSilentLogger()
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Execute calls ep with args. HTTP, transport and validation failures are
// reported in the result; the error is non-nil only for a nil endpoint.
func (e *Engine) Execute(ctx context.Context, ep *models.Endpoint, args map[string]any, strategy auth.Strategy) (*models.ExecutionResult, error) {
	if ep == nil {
		return nil, ErrNilEndpoint
	}
	start := time.Now()
	result := &models.ExecutionResult{EndpointName: ep.Name, Attempts: 1}

	req, err := e.builder.Build(ep, args)
	if err != nil {
		e.logger.Warn().Str("endpoint", ep.Name).Err(err).Msg("Request build failed")
		result.Err = err
		result.Response = models.Response{Error: "Failed to build request: " + err.Error()}
		return e.finish(result, start), nil
	}

	if e.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Deadline)
		defer cancel()
	}

	bo := e.newBackOff()
	maxAttempts := e.cfg.MaxRetries + 1

	for attempt := 1; ; attempt++ {
		result.Attempts = attempt
		retryable := e.attempt(ctx, ep, req, strategy, result)

		if !retryable || attempt >= maxAttempts {
			break
		}

		delay := bo.NextBackOff()
		e.logger.Debug().
			Str("endpoint", ep.Name).
			Int("attempt", attempt).
			Int("status", result.Response.StatusCode).
			Dur("delay", delay).
			Msg("Retrying request")

		if err := sleep(ctx, delay); err != nil {
			result.Err = fmt.Errorf("retry abandoned after %d attempts: %w: %w", attempt, err, result.Err)
			result.Response.Error = result.Err.Error()
			break
		}
	}

	return e.finish(result, start), nil
}

// attempt performs one send and records the outcome in result. It reports
// whether the outcome may be retried.
func (e *Engine) attempt(ctx context.Context, ep *models.Endpoint, req *request.Request, strategy auth.Strategy, result *models.ExecutionResult) bool {
	resp, err := e.send(ctx, ep, req, strategy)
	var tooLarge *ResponseTooLargeError
	if errors.As(err, &tooLarge) {
		result.Success = false
		result.Err = tooLarge
		result.Response = resp
		result.Response.Error = tooLarge.Error()
		return false
	}
	if err != nil {
		terr := &TransportError{Attempts: result.Attempts, Err: err}
		result.Success = false
		result.Err = terr
		result.Response = models.Response{Error: terr.Error()}
		var buildErr *sendBuildError
		if errors.As(err, &buildErr) {
			result.Err = buildErr.err
			result.Response.Error = "Failed to build request: " + buildErr.err.Error()
			return false
		}
		return ctx.Err() == nil
	}

	result.Response = resp
	result.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
	if result.Success {
		result.Err = nil
		return false
	}
	result.Err = &HTTPError{StatusCode: resp.StatusCode, Message: resp.Error}
	return e.retryOn[resp.StatusCode]
}

// sendBuildError marks failures that happen before anything is sent.
type sendBuildError struct{ err error }

func (e *sendBuildError) Error() string { return e.err.Error() }

func (e *Engine) send(ctx context.Context, ep *models.Endpoint, req *request.Request, strategy auth.Strategy) (models.Response, error) {
	attemptReq := *req
	attemptReq.Header, attemptReq.Query = auth.ApplyIfSecured(ep, strategy, req.Header, req.Query)

	actx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	httpReq, err := attemptReq.HTTPRequest(actx)
	if err != nil {
		return models.Response{}, &sendBuildError{err: err}
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return models.Response{}, err
	}
	defer resp.Body.Close()

	limit := e.cfg.MaxResponseBytes
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return models.Response{}, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > limit {
		truncated := models.Response{
			StatusCode: resp.StatusCode,
			RawText:    string(body[:limit]),
			Headers:    flattenHeaders(resp.Header),
		}
		return truncated, &ResponseTooLargeError{StatusCode: resp.StatusCode, Limit: limit}
	}
	return Normalize(resp.StatusCode, resp.Header, body), nil
}

func (e *Engine) finish(result *models.ExecutionResult, start time.Time) *models.ExecutionResult {
	elapsed := time.Since(start)
	result.ExecutionTimeMs = float64(elapsed.Microseconds()) / 1000

	e.metrics.RecordExecution(result.EndpointName, result.Response.StatusCode, result.Attempts, result.Success, elapsed)

	evt := e.logger.Debug()
	if !result.Success {
		evt = e.logger.Warn().Str("error", result.Response.Error)
	}
	evt.Str("endpoint", result.EndpointName).
		Int("status", result.Response.StatusCode).
		Int("attempts", result.Attempts).
		Float64("ms", result.ExecutionTimeMs).
		Msg("Execution finished")
	return result
}

// newBackOff yields RetryBackoff, 2*RetryBackoff, 4*RetryBackoff and so on.
func (e *Engine) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.cfg.RetryBackoff
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	if e.cfg.Jitter {
		bo.RandomizationFactor = 0.25
	}
	bo.MaxInterval = time.Duration(math.MaxInt64)
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
