// Package threshold evaluates pass/fail assertions against scenario summaries.
package threshold

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/salvo/internal/metrics"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // e.g., "http_req_duration", "http_req_failed"
	Aggregate string  // e.g., "p95", "p99", "avg", "max", "rate"
	Operator  string  // e.g., "<", "<=", ">", ">=", "=="
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold for one scenario.
type Result struct {
	Scenario  string    `json:"scenario" yaml:"scenario"`
	Threshold Threshold `json:"-" yaml:"-"`
	Raw       string    `json:"threshold" yaml:"threshold"`
	Actual    *float64  `json:"actual" yaml:"actual"`
	Pass      bool      `json:"pass" yaml:"pass"`
	Message   string    `json:"message" yaml:"message"`
}

// errUndefined marks a metric that has no value for a summary, such as a
// latency percentile when nothing succeeded.
var errUndefined = errors.New("undefined")

var thresholdPattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// Evaluator evaluates thresholds against scenario summaries.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Len reports how many thresholds the evaluator checks.
func (e *Evaluator) Len() int {
	if e == nil {
		return 0
	}
	return len(e.thresholds)
}

// Evaluate checks all thresholds against one scenario summary.
func (e *Evaluator) Evaluate(summary metrics.Summary) []Result {
	if e.Len() == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		result := e.evaluateOne(t, summary)
		results = append(results, result)
	}
	return results
}

// EvaluateAll checks every threshold against every summary, in order.
func (e *Evaluator) EvaluateAll(summaries []metrics.Summary) []Result {
	var results []Result
	for _, s := range summaries {
		results = append(results, e.Evaluate(s)...)
	}
	return results
}

// AllPassed is true when no result failed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func (e *Evaluator) evaluateOne(t Threshold, summary metrics.Summary) Result {
	result := Result{Scenario: summary.Name, Threshold: t, Raw: t.Raw}

	actual, err := extractMetricValue(t, summary)
	if errors.Is(err, errUndefined) {
		result.Message = fmt.Sprintf("✗ %s: no value (%v)", t.Raw, err)
		return result
	}
	if err != nil {
		result.Message = fmt.Sprintf("error: %v", err)
		return result
	}

	result.Actual = &actual
	result.Pass = compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !result.Pass {
		status = "✗"
	}
	result.Message = fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value)
	return result
}

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "http_req_duration:p95 < 500"     (latency percentile in ms)
// - "http_req_duration:avg < 200"     (average latency in ms)
// - "http_req_duration:max < 1000"    (max latency in ms)
// - "http_req_duration:stddev < 50"   (sample standard deviation in ms)
// - "http_req_failed:rate < 0.01"     (failures per requested, as decimal)
// - "http_req_failed:count < 10"      (failure count)
// - "http_requests:rate > 100"        (throughput in requests per second)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric:aggregate operator value, e.g., 'http_req_duration:p95 < 500')", s)
	}

	metric := matches[1]
	aggregate := matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if !isValidMetric(metric) {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: http_req_duration, http_req_failed, http_requests)", metric)
	}
	if !isValidAggregate(aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate: %q (supported: p50, p95, p99, avg, min, max, stddev, rate, count)", aggregate)
	}
	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errs []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}

	return result, nil
}

func isValidMetric(metric string) bool {
	switch metric {
	case "http_req_duration", "http_req_failed", "http_requests":
		return true
	}
	return false
}

func isValidAggregate(aggregate string) bool {
	switch aggregate {
	case "p50", "p95", "p99", "avg", "mean", "min", "max", "stddev", "rate", "count":
		return true
	}
	return false
}

func isValidOperator(operator string) bool {
	switch operator {
	case "<", "<=", ">", ">=", "==":
		return true
	}
	return false
}

func extractMetricValue(t Threshold, summary metrics.Summary) (float64, error) {
	switch t.Metric {
	case "http_req_duration":
		return extractLatencyMetric(t.Aggregate, summary.Latency)
	case "http_req_failed":
		return extractFailureMetric(t.Aggregate, summary)
	case "http_requests":
		return extractRequestMetric(t.Aggregate, summary)
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func extractLatencyMetric(aggregate string, lat *metrics.LatencyStats) (float64, error) {
	if !isLatencyAggregate(aggregate) {
		return 0, fmt.Errorf("unsupported aggregate %q for http_req_duration", aggregate)
	}
	if lat == nil {
		return 0, fmt.Errorf("%w: no successful requests", errUndefined)
	}
	switch aggregate {
	case "p50":
		return lat.MedianMs, nil
	case "p95":
		return lat.P95Ms, nil
	case "p99":
		return lat.P99Ms, nil
	case "avg", "mean":
		return lat.MeanMs, nil
	case "min":
		return lat.MinMs, nil
	case "max":
		return lat.MaxMs, nil
	default: // stddev
		if lat.StdDevMs == nil {
			return 0, fmt.Errorf("%w: fewer than 2 samples", errUndefined)
		}
		return *lat.StdDevMs, nil
	}
}

func isLatencyAggregate(aggregate string) bool {
	switch aggregate {
	case "p50", "p95", "p99", "avg", "mean", "min", "max", "stddev":
		return true
	}
	return false
}

func extractFailureMetric(aggregate string, summary metrics.Summary) (float64, error) {
	switch aggregate {
	case "count":
		return float64(summary.Failures), nil
	case "rate":
		if summary.Requested == 0 {
			return 0, nil
		}
		return float64(summary.Failures) / float64(summary.Requested), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for http_req_failed (use 'count' or 'rate')", aggregate)
	}
}

func extractRequestMetric(aggregate string, summary metrics.Summary) (float64, error) {
	switch aggregate {
	case "count":
		return float64(summary.Total), nil
	case "rate":
		if summary.Throughput == nil {
			return 0, fmt.Errorf("%w: zero elapsed time", errUndefined)
		}
		return *summary.Throughput, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for http_requests (use 'count' or 'rate')", aggregate)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
