package logging

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/torosent/salvo/internal/metrics"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level   string
		wantLvl zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"ERROR", zapcore.ErrorLevel},
		{"", zapcore.WarnLevel},
		{"unknown", zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := ParseLevel(tt.level); got != tt.wantLvl {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.wantLvl)
			}
			l, err := New(tt.level)
			if err != nil {
				t.Fatalf("New(%q) returned error: %v", tt.level, err)
			}
			if l == nil {
				t.Fatalf("New(%q) returned nil logger", tt.level)
			}
			if !l.Core().Enabled(tt.wantLvl) {
				t.Errorf("New(%q) logger does not enable %v", tt.level, tt.wantLvl)
			}
			if tt.wantLvl > zapcore.DebugLevel && l.Core().Enabled(tt.wantLvl-1) {
				t.Errorf("New(%q) logger enables level below %v", tt.level, tt.wantLvl)
			}
		})
	}
}

func TestOutcomeLoggerTransportFailure(t *testing.T) {
	core, obs := observer.New(zapcore.DebugLevel)
	l := NewOutcomeLogger(zap.New(core))

	l.LogFailure("http://localhost/health", metrics.FailedOutcome(5*time.Millisecond, metrics.KindRefused, "dial tcp: connection refused"))

	entries := obs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel || e.Message != "request failed" {
		t.Errorf("unexpected entry %v %q", e.Level, e.Message)
	}
	fields := e.ContextMap()
	if fields["target"] != "http://localhost/health" {
		t.Errorf("target field = %v", fields["target"])
	}
	if fields["kind"] != metrics.KindRefused {
		t.Errorf("kind field = %v", fields["kind"])
	}
	if _, ok := fields["status"]; ok {
		t.Error("status field must be omitted when no response was received")
	}
}

func TestOutcomeLoggerStatusFailure(t *testing.T) {
	core, obs := observer.New(zapcore.DebugLevel)
	NewOutcomeLogger(zap.New(core)).LogFailure("http://localhost/", metrics.NewOutcome(503, time.Millisecond))

	fields := obs.All()[0].ContextMap()
	if fields["status"] != int64(503) {
		t.Errorf("status field = %v (%T)", fields["status"], fields["status"])
	}
	if _, ok := fields["detail"]; ok {
		t.Error("detail field must be omitted for non-200 responses")
	}
}

func TestNilOutcomeLoggerFallsBackToNop(t *testing.T) {
	NewOutcomeLogger(nil).LogFailure("x", metrics.NewOutcome(500, 0))
}
