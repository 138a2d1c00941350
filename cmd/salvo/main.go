package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/torosent/salvo/internal/config"
	"github.com/torosent/salvo/internal/httpclient"
	"github.com/torosent/salvo/internal/logging"
	"github.com/torosent/salvo/internal/output"
	"github.com/torosent/salvo/internal/runner"
	"github.com/torosent/salvo/internal/threshold"
	"github.com/torosent/salvo/internal/tracing"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130

	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

var errThresholdsFailed = errors.New("one or more thresholds failed")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// execute runs salvo and maps the outcome to a process exit status.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := run(ctx, args, stdout, stderr)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, runner.ErrInterrupted):
		fmt.Fprintln(stderr, "\nLoad test interrupted by user")
		return exitInterrupted
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.NewLoader().Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	runID := output.NewRunID()
	logger = logger.With(zap.String("run_id", runID))
	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	builder, err := httpclient.NewRequestBuilder(cfg)
	if err != nil {
		return err
	}
	scenarios, err := resolveScenarios(builder, cfg.Scenarios)
	if err != nil {
		return err
	}

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	opts := runner.Options{
		Concurrency:   cfg.Concurrency,
		RatePerSecond: cfg.Rate,
		Timeout:       cfg.Timeout,
		Builder:       builder,
		Tracing:       provider,
		Logger:        logger,
	}
	if cfg.LogErrors {
		opts.FailureLogger = logging.NewOutcomeLogger(logger)
	}
	if cfg.Progress {
		opts.Observer = output.NewProgressReporter(progressInterval, stderr)
	}

	srOpts := []runner.ScenarioRunnerOption{
		runner.WithCooldown(cfg.Cooldown),
		runner.WithLogger(logger),
	}
	var text *output.TextReporter
	if cfg.Output == config.OutputText || cfg.Output == "" {
		text = output.NewTextReporter(stdout)
		srOpts = append(srOpts, runner.WithReporter(text))
		text.Header(runID, cfg.BaseURL, len(scenarios))
	}

	logger.Info("load test started",
		zap.String("base_url", cfg.BaseURL),
		zap.Int("scenarios", len(scenarios)),
		zap.Int("concurrency", cfg.Concurrency),
		zap.Duration("timeout", cfg.Timeout),
	)
	started := time.Now()
	summaries, runErr := runner.NewScenarioRunner(runner.NewDispatcher(opts), srOpts...).Run(ctx, scenarios)
	interrupted := errors.Is(runErr, runner.ErrInterrupted)
	if runErr != nil && !interrupted {
		return runErr
	}

	results := threshold.NewEvaluator(thresholds).EvaluateAll(summaries)
	switch cfg.Output {
	case config.OutputJSON:
		report := output.NewRunReport(runID, cfg.BaseURL, started, summaries, results, interrupted)
		if err := output.WriteJSONReport(stdout, report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	case config.OutputYAML:
		report := output.NewRunReport(runID, cfg.BaseURL, started, summaries, results, interrupted)
		if err := output.WriteYAMLReport(stdout, report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	default:
		output.PrintThresholds(stdout, results)
		if text != nil && !interrupted {
			text.Completed()
		}
	}

	logger.Info("load test finished",
		zap.Duration("elapsed", time.Since(started)),
		zap.Bool("interrupted", interrupted),
	)
	if interrupted {
		return runErr
	}
	if !threshold.AllPassed(results) {
		return errThresholdsFailed
	}
	return nil
}

// resolveScenarios checks every endpoint against the base URL before the
// first burst, so a bad endpoint is a configuration error rather than a
// burst of dispatch failures.
func resolveScenarios(builder *httpclient.RequestBuilder, scenarios []config.Scenario) ([]runner.Scenario, error) {
	out := make([]runner.Scenario, 0, len(scenarios))
	for _, sc := range scenarios {
		if _, err := builder.Target(sc.Endpoint); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		out = append(out, runner.Scenario{
			Name:     sc.Name,
			Endpoint: sc.Endpoint,
			Requests: sc.Requests,
		})
	}
	return out, nil
}
