package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/torosent/salvo/internal/metrics"
)

// Scenario is one named burst: Requests concurrent requests against Endpoint.
type Scenario struct {
	Name     string
	Endpoint string
	Requests int
}

// BurstObserver gets a live view of each burst. BurstStarted receives the
// collector the burst records into; it must only read from it.
type BurstObserver interface {
	BurstStarted(sc Scenario, c *metrics.Collector)
	BurstFinished(sc Scenario, res metrics.BurstResult)
}

// Dispatcher fires bursts of concurrent requests under a concurrency ceiling.
type Dispatcher struct {
	opt Options
}

func NewDispatcher(opt Options) *Dispatcher {
	opt.normalize()
	return &Dispatcher{opt: opt}
}

// RunBurst launches exactly sc.Requests executions and waits for every one of
// them. Cancelling ctx stops new launches and cancels in-flight requests. The
// result is marked Interrupted only when the cancel cut the burst short: a
// launch was abandoned or a request ended as canceled. A cancel that lands
// after the last outcome leaves a complete burst.
func (d *Dispatcher) RunBurst(ctx context.Context, sc Scenario) metrics.BurstResult {
	res := metrics.BurstResult{
		Name:      sc.Name,
		Endpoint:  sc.Endpoint,
		Requested: sc.Requests,
	}
	if sc.Requests <= 0 {
		return res
	}

	target, exec := d.prepare(sc)
	if c, ok := exec.(interface{ Close() }); ok {
		defer c.Close()
	}

	workers := d.opt.Concurrency
	if workers > sc.Requests {
		workers = sc.Requests
	}
	limiter := d.opt.LimiterFactory(d.opt.RatePerSecond)
	collector := metrics.NewCollector(sc.Requests)
	if d.opt.Observer != nil {
		d.opt.Observer.BurstStarted(sc, collector)
	}
	d.opt.Logger.Debug("burst started",
		zap.String("scenario", sc.Name),
		zap.String("target", target),
		zap.Int("requests", sc.Requests),
		zap.Int("workers", workers),
	)

	permits := make(chan struct{})
	var cut atomic.Bool
	collector.Start()
	start := time.Now()

	// Scheduler: hands out exactly sc.Requests permits, pacing them when a
	// limiter is configured.
	go func() {
		defer close(permits)
		for i := 0; i < sc.Requests; i++ {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					cut.Store(true)
					return
				}
			}
			select {
			case permits <- struct{}{}:
			case <-ctx.Done():
				cut.Store(true)
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for range permits {
				if ctx.Err() != nil {
					cut.Store(true)
					continue
				}
				o := execute(ctx, exec, target, collector)
				if o.ErrorKind == metrics.KindCanceled && ctx.Err() != nil {
					cut.Store(true)
				}
			}
		}()
	}
	wg.Wait()

	res.Duration = time.Since(start)
	res.Outcomes = collector.Outcomes()
	res.Interrupted = cut.Load()

	if d.opt.Observer != nil {
		d.opt.Observer.BurstFinished(sc, res)
	}
	d.opt.Logger.Debug("burst finished",
		zap.String("scenario", sc.Name),
		zap.Int("completed", len(res.Outcomes)),
		zap.Int("successes", res.Successes()),
		zap.Duration("elapsed", res.Duration),
		zap.Bool("interrupted", res.Interrupted),
	)
	return res
}

// prepare resolves the burst target and builds its executor. Failures here
// turn every request of the burst into a dispatch outcome.
func (d *Dispatcher) prepare(sc Scenario) (string, Executor) {
	target := sc.Endpoint
	if d.opt.Builder != nil {
		resolved, err := d.opt.Builder.Target(sc.Endpoint)
		if err != nil {
			return target, dispatchFailure(fmt.Sprintf("resolve target: %v", err))
		}
		target = resolved
	}
	if d.opt.NewExecutor == nil {
		return target, dispatchFailure("no executor configured")
	}
	exec := d.opt.NewExecutor(d.opt.Concurrency)
	if exec == nil {
		return target, dispatchFailure("no executor configured")
	}
	return target, WithLogging(exec, d.opt.FailureLogger)
}

func dispatchFailure(detail string) Executor {
	return ExecutorFunc(func(context.Context, string) metrics.Outcome {
		return metrics.FailedOutcome(0, metrics.KindDispatch, detail)
	})
}

// execute records exactly one outcome, even if the executor panics, and
// returns it.
func execute(ctx context.Context, exec Executor, target string, c *metrics.Collector) (o metrics.Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			o = metrics.FailedOutcome(time.Since(start), metrics.KindDispatch, fmt.Sprintf("dispatch failed: %v", r))
		}
		c.Record(o)
	}()
	return exec.Execute(ctx, target)
}
