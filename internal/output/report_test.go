package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/torosent/salvo/internal/metrics"
	"github.com/torosent/salvo/internal/runner"
	"github.com/torosent/salvo/internal/threshold"
)

func burst(outcomes ...metrics.Outcome) metrics.BurstResult {
	return metrics.BurstResult{
		Name:      "Home page",
		Endpoint:  "/",
		Requested: len(outcomes),
		Outcomes:  outcomes,
		Duration:  2 * time.Second,
	}
}

func TestRenderBasic(t *testing.T) {
	s := metrics.Summarize(burst(
		metrics.NewOutcome(200, 10*time.Millisecond),
		metrics.NewOutcome(200, 20*time.Millisecond),
		metrics.NewOutcome(200, 30*time.Millisecond),
		metrics.NewOutcome(404, 5*time.Millisecond),
	))

	out := Render(s)
	for _, want := range []string{
		"Total Requests:    4\n",
		"Successful:        3\n",
		"Failed:            1\n",
		"Success Rate:      75.00%",
		"Duration:          2.00s",
		"Requests/sec:      2.00",
		"Median:          0.020s",
		"Std Dev:         0.010s",
		"404: 1",
		"only HTTP 200 counts as success",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "n/a") {
		t.Errorf("unexpected n/a in fully defined report:\n%s", out)
	}
}

func TestRenderFlagsUndefinedFields(t *testing.T) {
	b := burst(
		metrics.FailedOutcome(time.Millisecond, metrics.KindRefused, "dial tcp: connection refused"),
		metrics.FailedOutcome(time.Millisecond, metrics.KindRefused, "dial tcp: connection refused"),
	)
	b.Duration = 0
	out := Render(metrics.Summarize(b))

	if !strings.Contains(out, notAvailableNoSuccess) {
		t.Errorf("expected undefined latency notice:\n%s", out)
	}
	if !strings.Contains(out, "Requests/sec:      "+notAvailableNoElapsed) {
		t.Errorf("expected undefined throughput notice:\n%s", out)
	}
	if strings.Contains(out, "Mean:") || strings.Contains(out, "0.000s") {
		t.Errorf("undefined latency printed as numbers:\n%s", out)
	}
	if !strings.Contains(out, "connection refused: 2") {
		t.Errorf("expected error breakdown:\n%s", out)
	}
}

func TestRenderSingleSampleStdDev(t *testing.T) {
	out := Render(metrics.Summarize(burst(metrics.NewOutcome(200, 10*time.Millisecond))))
	if !strings.Contains(out, "Std Dev:         "+notAvailableFewSamples) {
		t.Errorf("expected undefined stddev:\n%s", out)
	}
}

func TestRenderInterrupted(t *testing.T) {
	b := burst(metrics.NewOutcome(200, time.Millisecond))
	b.Requested = 10
	b.Interrupted = true
	out := Render(metrics.Summarize(b))

	if !strings.Contains(out, "Interrupted:       yes") {
		t.Errorf("expected interruption marker:\n%s", out)
	}
	if !strings.Contains(out, "Total Requests:    1 (of 10 requested)") {
		t.Errorf("expected partial count:\n%s", out)
	}
}

func TestTextReporterNarratesRun(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf)

	r.Header("01J0000000000000000000000", "http://localhost:8080", 2)
	r.ScenarioStarted(1, 2, runner.Scenario{Name: "Home page - 10 requests", Endpoint: "/", Requests: 10})
	r.ScenarioFinished(1, 2, metrics.Summarize(burst(metrics.NewOutcome(200, time.Millisecond))))
	r.Cooldown(3 * time.Second)
	r.Completed()

	out := buf.String()
	for _, want := range []string{
		"Target:    http://localhost:8080",
		"Test 1/2: Home page - 10 requests",
		"Starting burst: 10 concurrent requests to /",
		"--- Load Test Results ---",
		"Waiting 3s before next test...",
		"Load testing completed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPrintThresholds(t *testing.T) {
	thresholds, err := threshold.ParseMultiple([]string{"http_req_failed:rate < 0.1"})
	if err != nil {
		t.Fatal(err)
	}
	results := threshold.NewEvaluator(thresholds).Evaluate(
		metrics.Summarize(burst(metrics.NewOutcome(500, time.Millisecond))))

	var buf bytes.Buffer
	PrintThresholds(&buf, results)
	out := buf.String()
	if !strings.Contains(out, "[Home page] ✗ http_req_failed:rate < 0.1") {
		t.Errorf("expected failed threshold line:\n%s", out)
	}
	if !strings.Contains(out, "Some thresholds failed") {
		t.Errorf("expected failure verdict:\n%s", out)
	}

	buf.Reset()
	PrintThresholds(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output without thresholds, got %q", buf.String())
	}
}

func sampleRunReport() RunReport {
	summaries := []metrics.Summary{
		metrics.Summarize(burst(metrics.NewOutcome(200, 10*time.Millisecond), metrics.NewOutcome(200, 30*time.Millisecond))),
		metrics.Summarize(burst(metrics.FailedOutcome(0, metrics.KindTimeout, "timed out"))),
	}
	return NewRunReport(NewRunID(), "http://localhost", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), summaries, nil, false)
}

func TestWriteJSONReport(t *testing.T) {
	report := sampleRunReport()

	var buf bytes.Buffer
	if err := WriteJSONReport(&buf, report); err != nil {
		t.Fatalf("WriteJSONReport() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["run_id"] != report.RunID || len(report.RunID) != 26 {
		t.Errorf("run_id = %v", decoded["run_id"])
	}
	if decoded["passed"] != true {
		t.Errorf("passed = %v, want true", decoded["passed"])
	}

	scenarios := decoded["scenarios"].([]any)
	first := scenarios[0].(map[string]any)
	latency := first["latency"].(map[string]any)
	if latency["mean_ms"] != 20.0 || latency["p99_ms"] != 30.0 {
		t.Errorf("latency = %v", latency)
	}
	second := scenarios[1].(map[string]any)
	if second["latency"] != nil {
		t.Errorf("undefined latency encoded as %v, want null", second["latency"])
	}
	if errs := second["errors"].(map[string]any); errs["timeout"] != 1.0 {
		t.Errorf("errors = %v", errs)
	}
}

func TestWriteYAMLReport(t *testing.T) {
	report := sampleRunReport()
	report.Interrupted = true

	var buf bytes.Buffer
	if err := WriteYAMLReport(&buf, report); err != nil {
		t.Fatalf("WriteYAMLReport() error = %v", err)
	}

	var decoded struct {
		RunID       string `yaml:"run_id"`
		Interrupted bool   `yaml:"interrupted"`
		Scenarios   []struct {
			Name      string `yaml:"name"`
			Successes int    `yaml:"successes"`
		} `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}
	if decoded.RunID != report.RunID || !decoded.Interrupted {
		t.Errorf("decoded = %+v", decoded)
	}
	if len(decoded.Scenarios) != 2 || decoded.Scenarios[0].Successes != 2 {
		t.Errorf("scenarios = %+v", decoded.Scenarios)
	}
}

func TestRunReportPassed(t *testing.T) {
	failing := []threshold.Result{{Pass: false}}
	if NewRunReport("id", "", time.Now(), nil, failing, false).Passed {
		t.Error("failed thresholds should fail the run")
	}
	if NewRunReport("id", "", time.Now(), nil, nil, true).Passed {
		t.Error("an interrupted run should not pass")
	}
	if r := NewRunReport("id", "", time.Now(), nil, nil, false); r.Scenarios == nil || !r.Passed {
		t.Errorf("empty report = %+v", r)
	}
}
