package runner

import (
	"context"

	"github.com/torosent/salvo/internal/metrics"
)

// FailureLogger receives every failed outcome along with its target.
type FailureLogger interface {
	LogFailure(target string, o metrics.Outcome)
}

type loggingExecutor struct {
	inner  Executor
	logger FailureLogger
}

// WithLogging wraps an Executor to log failures.
func WithLogging(exec Executor, logger FailureLogger) Executor {
	if logger == nil || exec == nil {
		return exec
	}
	return &loggingExecutor{
		inner:  exec,
		logger: logger,
	}
}

func (l *loggingExecutor) Execute(ctx context.Context, target string) metrics.Outcome {
	o := l.inner.Execute(ctx, target)
	if !o.Succeeded {
		l.logger.LogFailure(target, o)
	}
	return o
}

// Close forwards to the wrapped executor so pooled connections are released.
func (l *loggingExecutor) Close() {
	if c, ok := l.inner.(interface{ Close() }); ok {
		c.Close()
	}
}
