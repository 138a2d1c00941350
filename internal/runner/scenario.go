package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/torosent/salvo/internal/metrics"
)

// ErrInterrupted is returned when the operator stops a run early.
var ErrInterrupted = errors.New("load test interrupted")

// BurstRunner runs one scenario burst.
type BurstRunner interface {
	RunBurst(ctx context.Context, sc Scenario) metrics.BurstResult
}

// Reporter is told about progress through a scenario sequence. index is
// 1-based.
type Reporter interface {
	ScenarioStarted(index, total int, sc Scenario)
	ScenarioFinished(index, total int, s metrics.Summary)
	Cooldown(d time.Duration)
}

// ScenarioRunner runs scenarios one after another with a pause between them.
type ScenarioRunner struct {
	bursts   BurstRunner
	reporter Reporter
	cooldown time.Duration
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

type ScenarioRunnerOption func(*ScenarioRunner)

func WithReporter(r Reporter) ScenarioRunnerOption {
	return func(s *ScenarioRunner) { s.reporter = r }
}

func WithCooldown(d time.Duration) ScenarioRunnerOption {
	return func(s *ScenarioRunner) { s.cooldown = d }
}

func WithLogger(l *zap.Logger) ScenarioRunnerOption {
	return func(s *ScenarioRunner) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSleep replaces the context-aware sleep used for cooldowns.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) ScenarioRunnerOption {
	return func(s *ScenarioRunner) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

func NewScenarioRunner(bursts BurstRunner, opts ...ScenarioRunnerOption) *ScenarioRunner {
	r := &ScenarioRunner{
		bursts:   bursts,
		reporter: nopReporter{},
		logger:   zap.NewNop(),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.reporter == nil {
		r.reporter = nopReporter{}
	}
	return r
}

// ValidateScenarios rejects a sequence that cannot run. Run checks it before
// the first burst.
func ValidateScenarios(scenarios []Scenario) error {
	if len(scenarios) == 0 {
		return errors.New("no scenarios to run")
	}
	var issues []string
	for i, sc := range scenarios {
		if sc.Requests <= 0 {
			issues = append(issues, fmt.Sprintf("scenario %d (%s): request count must be positive, got %d", i+1, sc.Name, sc.Requests))
		}
		if strings.TrimSpace(sc.Endpoint) == "" {
			issues = append(issues, fmt.Sprintf("scenario %d (%s): endpoint is required", i+1, sc.Name))
		}
	}
	if len(issues) > 0 {
		return errors.New(strings.Join(issues, "; "))
	}
	return nil
}

// Run executes scenarios in order and returns one Summary per scenario that
// ran. A fully failed scenario does not stop the run. On cancellation the
// summaries gathered so far, including the partial one, are returned with an
// error wrapping ErrInterrupted.
func (r *ScenarioRunner) Run(ctx context.Context, scenarios []Scenario) ([]metrics.Summary, error) {
	if err := ValidateScenarios(scenarios); err != nil {
		return nil, err
	}
	if r.bursts == nil {
		return nil, errors.New("no burst runner configured")
	}

	total := len(scenarios)
	summaries := make([]metrics.Summary, 0, total)
	for i, sc := range scenarios {
		if ctx.Err() != nil {
			return summaries, fmt.Errorf("%w before scenario %q", ErrInterrupted, sc.Name)
		}

		r.logger.Info("scenario started",
			zap.Int("index", i+1),
			zap.Int("total", total),
			zap.String("scenario", sc.Name),
			zap.String("endpoint", sc.Endpoint),
			zap.Int("requests", sc.Requests),
		)
		r.reporter.ScenarioStarted(i+1, total, sc)

		res := r.bursts.RunBurst(ctx, sc)
		summary := metrics.Summarize(res)
		summaries = append(summaries, summary)
		r.reporter.ScenarioFinished(i+1, total, summary)

		r.logger.Info("scenario finished",
			zap.String("scenario", sc.Name),
			zap.Int("successes", summary.Successes),
			zap.Int("failures", summary.Failures),
			zap.Duration("elapsed", summary.Duration),
		)

		if res.Interrupted {
			return summaries, fmt.Errorf("%w during scenario %q", ErrInterrupted, sc.Name)
		}

		if i < total-1 && r.cooldown > 0 {
			r.reporter.Cooldown(r.cooldown)
			if err := r.sleep(ctx, r.cooldown); err != nil {
				return summaries, fmt.Errorf("%w during cooldown", ErrInterrupted)
			}
		}
	}
	return summaries, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type nopReporter struct{}

func (nopReporter) ScenarioStarted(int, int, Scenario)         {}
func (nopReporter) ScenarioFinished(int, int, metrics.Summary) {}
func (nopReporter) Cooldown(time.Duration)                     {}
