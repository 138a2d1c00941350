// Package logging builds the zap loggers salvo writes diagnostics with.
// Reports go to stdout; everything logged here goes to stderr.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/torosent/salvo/internal/metrics"
)

// ParseLevel maps a config level name to a zap level. Unknown names fall back
// to warn, the default level.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// New creates a stderr logger at the given level.
func New(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Sampling = nil
	return cfg.Build()
}

// OutcomeLogger writes one warn entry per failed request.
type OutcomeLogger struct {
	log *zap.Logger
}

func NewOutcomeLogger(log *zap.Logger) *OutcomeLogger {
	if log == nil {
		log = zap.NewNop()
	}
	return &OutcomeLogger{log: log}
}

func (l *OutcomeLogger) LogFailure(target string, o metrics.Outcome) {
	fields := []zap.Field{
		zap.String("target", target),
		zap.Duration("latency", o.Latency),
	}
	if o.StatusCode != 0 {
		fields = append(fields, zap.Int("status", o.StatusCode))
	}
	if o.ErrorKind != "" {
		fields = append(fields, zap.String("kind", o.ErrorKind))
	}
	if o.ErrorDetail != "" {
		fields = append(fields, zap.String("detail", o.ErrorDetail))
	}
	l.log.Warn("request failed", fields...)
}
