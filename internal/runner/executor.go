package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/torosent/salvo/internal/httpclient"
	"github.com/torosent/salvo/internal/metrics"
	"github.com/torosent/salvo/internal/tracing"
)

// Executor performs exactly one request and classifies what happened.
// Implementations never return errors or panic; every failure is an Outcome.
type Executor interface {
	Execute(ctx context.Context, target string) metrics.Outcome
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, target string) metrics.Outcome

func (f ExecutorFunc) Execute(ctx context.Context, target string) metrics.Outcome {
	return f(ctx, target)
}

// HTTPExecutor sends one request per Execute call over a shared client.
type HTTPExecutor struct {
	client  *http.Client
	builder *httpclient.RequestBuilder
	timeout time.Duration
	tracing *tracing.Provider
}

// NewHTTPExecutor returns an executor that bounds every request, body
// included, by timeout. A zero timeout leaves requests bounded only by ctx.
func NewHTTPExecutor(client *http.Client, builder *httpclient.RequestBuilder, timeout time.Duration, provider *tracing.Provider) *HTTPExecutor {
	if client == nil {
		client = httpclient.NewClient(1)
	}
	return &HTTPExecutor{
		client:  client,
		builder: builder,
		timeout: timeout,
		tracing: provider,
	}
}

func (e *HTTPExecutor) Execute(ctx context.Context, target string) metrics.Outcome {
	if e.builder == nil {
		return metrics.FailedOutcome(0, metrics.KindDispatch, "no request builder configured")
	}
	reqCtx, cancel := ctx, context.CancelFunc(func() {})
	if e.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, e.timeout)
	}
	defer cancel()

	spanCtx, span := tracing.StartRequestSpan(reqCtx, e.tracing.Tracer(), e.builder.Method(), target)

	req, err := e.builder.Build(spanCtx, target)
	if err != nil {
		o := metrics.FailedOutcome(0, metrics.KindTransport, fmt.Sprintf("build request: %v", err))
		tracing.EndRequestSpan(span, o)
		return o
	}
	if e.tracing.ShouldPropagate() {
		tracing.InjectHTTPHeaders(spanCtx, req.Header)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		o := e.failure(ctx, reqCtx, time.Since(start), err)
		tracing.EndRequestSpan(span, o)
		return o
	}
	_, err = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	latency := time.Since(start)

	var o metrics.Outcome
	if err != nil {
		o = e.failure(ctx, reqCtx, latency, fmt.Errorf("read body: %w", err))
	} else {
		o = metrics.NewOutcome(resp.StatusCode, latency)
	}
	tracing.EndRequestSpan(span, o)
	return o
}

// failure tells an operator interrupt apart from the per-request deadline
// before falling back to error classification.
func (e *HTTPExecutor) failure(parent, reqCtx context.Context, latency time.Duration, err error) metrics.Outcome {
	switch {
	case parent.Err() != nil:
		return metrics.FailedOutcome(latency, metrics.KindCanceled, fmt.Sprintf("request canceled: %v", err))
	case errors.Is(reqCtx.Err(), context.DeadlineExceeded):
		return metrics.FailedOutcome(latency, metrics.KindTimeout, fmt.Sprintf("request timed out after %s: %v", e.timeout, err))
	}
	return metrics.ErrorOutcome(latency, err)
}

// Close releases the idle connections of the executor's pool.
func (e *HTTPExecutor) Close() {
	e.client.CloseIdleConnections()
}
