// Package runner is the execution engine of salvo.
//
// A [Dispatcher] fires one burst: exactly N requests for a [Scenario], at most
// Concurrency of them in flight, each one performed by an [Executor] and
// recorded as a metrics.Outcome. A [ScenarioRunner] runs bursts one after
// another, summarizes each, and pauses for a cooldown between them.
//
// # Basic Usage
//
//	d := runner.NewDispatcher(runner.Options{
//		Concurrency: 200,
//		Timeout:     30 * time.Second,
//		Builder:     builder,
//	})
//	sr := runner.NewScenarioRunner(d,
//		runner.WithCooldown(3*time.Second),
//		runner.WithReporter(reporter),
//	)
//	summaries, err := sr.Run(ctx, scenarios)
//	if errors.Is(err, runner.ErrInterrupted) {
//		// summaries holds everything measured before the interrupt
//	}
//
// # Executors
//
// [HTTPExecutor] is the production executor. It starts the clock right
// before sending, drains the response body, and stops the clock. Failures
// never surface as errors: a timeout, a refused connection or a reset all
// become outcomes with status 0 and a detail message. Only status 200 counts
// as a success.
//
// # Middleware
//
//   - [WithLogging]: report failed outcomes to a [FailureLogger]
//
// # Pacing
//
// RatePerSecond spaces out launches within a burst using a token bucket
// limiter. The default of 0 releases every request as fast as the ceiling
// allows.
package runner
