package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/torosent/salvo/internal/metrics"
	"github.com/torosent/salvo/internal/runner"
	"github.com/torosent/salvo/internal/threshold"
)

const (
	notAvailableNoSuccess  = "n/a (no successful requests)"
	notAvailableFewSamples = "n/a (fewer than 2 samples)"
	notAvailableNoElapsed  = "n/a (zero elapsed time)"

	// Legend printed under every summary.
	successLegend = "Note: only HTTP 200 counts as success; other 2xx and 3xx responses are reported as failures."
)

// Render formats one scenario summary as a human-readable block. Fields
// without a value are printed as n/a with the reason, never as zero.
func Render(s metrics.Summary) string {
	var b strings.Builder

	fmt.Fprintln(&b, "\n--- Load Test Results ---")
	if s.Interrupted {
		fmt.Fprintln(&b, "Interrupted:       yes (partial results)")
	}
	fmt.Fprintf(&b, "Total Requests:    %d", s.Total)
	if s.Total != s.Requested {
		fmt.Fprintf(&b, " (of %d requested)", s.Requested)
	}
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Successful:        %d\n", s.Successes)
	fmt.Fprintf(&b, "Failed:            %d\n", s.Failures)
	fmt.Fprintf(&b, "Success Rate:      %.2f%%\n", s.SuccessRatePercent)
	fmt.Fprintf(&b, "Duration:          %s\n", formatSeconds(s.Duration, 2))
	if s.Throughput != nil {
		fmt.Fprintf(&b, "Requests/sec:      %.2f\n", *s.Throughput)
	} else {
		fmt.Fprintf(&b, "Requests/sec:      %s\n", notAvailableNoElapsed)
	}

	fmt.Fprintln(&b, "\nLatency (successful requests):")
	if lat := s.Latency; lat != nil {
		fmt.Fprintf(&b, "  Mean:            %s\n", formatSeconds(lat.Mean, 3))
		fmt.Fprintf(&b, "  Median:          %s\n", formatSeconds(lat.Median, 3))
		fmt.Fprintf(&b, "  Min:             %s\n", formatSeconds(lat.Min, 3))
		fmt.Fprintf(&b, "  Max:             %s\n", formatSeconds(lat.Max, 3))
		if lat.StdDev != nil {
			fmt.Fprintf(&b, "  Std Dev:         %s\n", formatSeconds(*lat.StdDev, 3))
		} else {
			fmt.Fprintf(&b, "  Std Dev:         %s\n", notAvailableFewSamples)
		}
		fmt.Fprintf(&b, "  P95:             %s\n", formatSeconds(lat.P95, 3))
		fmt.Fprintf(&b, "  P99:             %s\n", formatSeconds(lat.P99, 3))
	} else {
		fmt.Fprintf(&b, "  %s\n", notAvailableNoSuccess)
	}

	if len(s.StatusCodes) > 0 {
		fmt.Fprintln(&b, "\nStatus Codes:")
		for _, bucket := range metrics.SortStatusCodes(s.StatusCodes) {
			fmt.Fprintf(&b, "  %d: %d\n", bucket.Code, bucket.Count)
		}
	}
	if len(s.Errors) > 0 {
		fmt.Fprintln(&b, "\nErrors:")
		for _, bucket := range metrics.SortErrors(s.Errors) {
			fmt.Fprintf(&b, "  %s: %d\n", bucket.Kind, bucket.Count)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", successLegend)
	return b.String()
}

// PrintReport writes the rendered summary to w.
func PrintReport(w io.Writer, s metrics.Summary) {
	fmt.Fprint(w, Render(s))
}

func formatSeconds(d time.Duration, precision int) string {
	return fmt.Sprintf("%.*fs", precision, d.Seconds())
}

// PrintThresholds writes a pass/fail line per threshold result.
func PrintThresholds(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w, "\n--- Thresholds ---")
	for _, r := range results {
		fmt.Fprintf(w, "[%s] %s\n", r.Scenario, r.Message)
	}
	if threshold.AllPassed(results) {
		fmt.Fprintln(w, "All thresholds passed")
	} else {
		fmt.Fprintln(w, "Some thresholds failed")
	}
}

// TextReporter narrates a run on w as scenarios start and finish.
type TextReporter struct {
	w io.Writer
}

var _ runner.Reporter = (*TextReporter)(nil)

func NewTextReporter(w io.Writer) *TextReporter {
	if w == nil {
		w = io.Discard
	}
	return &TextReporter{w: w}
}

// Header announces the run before the first scenario.
func (r *TextReporter) Header(runID, baseURL string, scenarios int) {
	fmt.Fprintln(r.w, "Salvo HTTP burst load test")
	fmt.Fprintln(r.w, strings.Repeat("=", 50))
	fmt.Fprintf(r.w, "Run:       %s\n", runID)
	fmt.Fprintf(r.w, "Target:    %s\n", baseURL)
	fmt.Fprintf(r.w, "Scenarios: %d\n", scenarios)
}

func (r *TextReporter) ScenarioStarted(index, total int, sc runner.Scenario) {
	fmt.Fprintf(r.w, "\nTest %d/%d: %s\n", index, total, sc.Name)
	fmt.Fprintln(r.w, strings.Repeat("-", 40))
	fmt.Fprintf(r.w, "Starting burst: %d concurrent requests to %s\n", sc.Requests, sc.Endpoint)
}

func (r *TextReporter) ScenarioFinished(_, _ int, s metrics.Summary) {
	PrintReport(r.w, s)
}

func (r *TextReporter) Cooldown(d time.Duration) {
	fmt.Fprintf(r.w, "\nWaiting %s before next test...\n", d)
}

// Completed prints the closing banner of a run that was not interrupted.
func (r *TextReporter) Completed() {
	fmt.Fprintln(r.w, "\nLoad testing completed")
}

// RunReport is the machine-readable document for a whole run.
type RunReport struct {
	RunID       string             `json:"run_id" yaml:"run_id"`
	BaseURL     string             `json:"base_url" yaml:"base_url"`
	StartedAt   time.Time          `json:"started_at" yaml:"started_at"`
	Scenarios   []metrics.Summary  `json:"scenarios" yaml:"scenarios"`
	Thresholds  []threshold.Result `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
	Passed      bool               `json:"passed" yaml:"passed"`
	Interrupted bool               `json:"interrupted" yaml:"interrupted"`
}

// NewRunID returns a sortable identifier for a run.
func NewRunID() string {
	return ulid.Make().String()
}

// NewRunReport assembles the run document. Passed is false when the run
// was interrupted or any threshold failed.
func NewRunReport(runID, baseURL string, startedAt time.Time, summaries []metrics.Summary, results []threshold.Result, interrupted bool) RunReport {
	if summaries == nil {
		summaries = []metrics.Summary{}
	}
	return RunReport{
		RunID:       runID,
		BaseURL:     baseURL,
		StartedAt:   startedAt.UTC(),
		Scenarios:   summaries,
		Thresholds:  results,
		Passed:      !interrupted && threshold.AllPassed(results),
		Interrupted: interrupted,
	}
}

// WriteJSONReport outputs the run as indented JSON.
func WriteJSONReport(w io.Writer, report RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteYAMLReport outputs the run as YAML.
func WriteYAMLReport(w io.Writer, report RunReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}
