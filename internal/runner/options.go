package runner

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/torosent/salvo/internal/httpclient"
	"github.com/torosent/salvo/internal/tracing"
)

// Options configure a Dispatcher.
type Options struct {
	Concurrency   int           // ceiling on requests in flight within a burst
	RatePerSecond int           // dispatch pacing within a burst (0 means unlimited)
	Timeout       time.Duration // per-request deadline used by the default executor

	Builder *httpclient.RequestBuilder // resolves endpoints and builds requests
	Tracing *tracing.Provider          // optional request spans

	// NewExecutor creates the executor for one burst, sized to the ceiling.
	// If the returned value has a Close method it is called when the burst
	// ends. Defaults to an HTTPExecutor with a fresh connection pool.
	NewExecutor func(ceiling int) Executor

	FailureLogger  FailureLogger               // optional, receives every failed outcome
	Observer       BurstObserver               // optional live view of each burst
	Logger         *zap.Logger                 // diagnostics; defaults to a no-op logger
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
}

func (o *Options) normalize() {
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.NewExecutor == nil && o.Builder != nil {
		builder, timeout, provider := o.Builder, o.Timeout, o.Tracing
		o.NewExecutor = func(ceiling int) Executor {
			return NewHTTPExecutor(httpclient.NewClient(ceiling), builder, timeout, provider)
		}
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return nil
			}
			// Burst of one keeps dispatches evenly spaced from the first permit.
			return rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}
