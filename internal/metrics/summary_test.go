package metrics_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/torosent/salvo/internal/metrics"
)

func ms(v float64) time.Duration {
	return time.Duration(v * float64(time.Millisecond))
}

func successes(latencies ...time.Duration) []metrics.Outcome {
	out := make([]metrics.Outcome, 0, len(latencies))
	for _, l := range latencies {
		out = append(out, metrics.NewOutcome(200, l))
	}
	return out
}

func TestSummarizeCountsAndRates(t *testing.T) {
	outcomes := successes(ms(10), ms(20), ms(30))
	outcomes = append(outcomes,
		metrics.NewOutcome(500, ms(5)),
		metrics.FailedOutcome(ms(1), metrics.KindRefused, "dial tcp: connection refused"),
	)
	s := metrics.Summarize(metrics.BurstResult{
		Name:      "Homepage",
		Endpoint:  "/",
		Requested: 5,
		Outcomes:  outcomes,
		Duration:  time.Second,
	})

	if s.Total != 5 || s.Successes != 3 || s.Failures != 2 {
		t.Fatalf("unexpected counts: total=%d successes=%d failures=%d", s.Total, s.Successes, s.Failures)
	}
	if s.Successes+s.Failures != s.Total {
		t.Fatalf("successes + failures must equal total")
	}
	if s.SuccessRatePercent != 60 {
		t.Errorf("success rate = %v, want 60", s.SuccessRatePercent)
	}
	if s.StatusCodes[200] != 3 || s.StatusCodes[500] != 1 {
		t.Errorf("unexpected status codes: %v", s.StatusCodes)
	}
	if _, ok := s.StatusCodes[0]; ok {
		t.Errorf("status 0 must not be counted as a response code")
	}
	if s.Errors[metrics.KindRefused] != 1 || len(s.Errors) != 1 {
		t.Errorf("unexpected errors: %v", s.Errors)
	}
	if s.Latency == nil || s.Latency.Samples != 3 {
		t.Fatalf("expected latency over 3 successful samples, got %+v", s.Latency)
	}
	if s.Latency.Min != ms(10) || s.Latency.Max != ms(30) {
		t.Errorf("min/max = %s/%s, want 10ms/30ms", s.Latency.Min, s.Latency.Max)
	}
}

func TestSummarizeAllSuccessful(t *testing.T) {
	s := metrics.Summarize(metrics.BurstResult{
		Requested: 4,
		Outcomes:  successes(ms(1), ms(2), ms(3), ms(4)),
		Duration:  100 * time.Millisecond,
	})
	if s.SuccessRatePercent != 100.0 {
		t.Errorf("success rate = %v, want 100", s.SuccessRatePercent)
	}
	if s.Failures != 0 {
		t.Errorf("failures = %d, want 0", s.Failures)
	}
}

func TestSummarizeAllFailedLeavesLatencyUndefined(t *testing.T) {
	outcomes := []metrics.Outcome{
		metrics.FailedOutcome(ms(2), metrics.KindRefused, "refused"),
		metrics.FailedOutcome(ms(3), metrics.KindRefused, "refused"),
	}
	s := metrics.Summarize(metrics.BurstResult{Requested: 2, Outcomes: outcomes, Duration: time.Second})

	if s.Successes != 0 {
		t.Fatalf("successes = %d, want 0", s.Successes)
	}
	if s.Latency != nil {
		t.Fatalf("latency must be undefined when nothing succeeded, got %+v", s.Latency)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := parsed["latency"]; !ok || v != nil {
		t.Errorf("expected latency to be encoded as null, got %v", v)
	}
}

func TestPercentileIndexTruncation(t *testing.T) {
	sorted := []time.Duration{ms(10), ms(20), ms(30), ms(40), ms(50)}

	if got := metrics.Percentile(sorted, 0.95); got != ms(50) {
		t.Errorf("p95 = %s, want 50ms", got)
	}
	if got := metrics.Percentile(sorted, 0.99); got != ms(50) {
		t.Errorf("p99 = %s, want 50ms", got)
	}
	if got := metrics.Percentile(sorted, 0.5); got != ms(30) {
		t.Errorf("p50 = %s, want 30ms", got)
	}
	if got := metrics.Percentile(nil, 0.95); got != 0 {
		t.Errorf("empty percentile = %s, want 0", got)
	}
}

func TestPercentileHundredSamples(t *testing.T) {
	sorted := make([]time.Duration, 100)
	for i := range sorted {
		sorted[i] = time.Duration(i+1) * time.Millisecond
	}
	// floor(0.95*100) = 95 -> 96ms, floor(0.99*100) = 99 -> 100ms
	if got := metrics.Percentile(sorted, 0.95); got != 96*time.Millisecond {
		t.Errorf("p95 = %s, want 96ms", got)
	}
	if got := metrics.Percentile(sorted, 0.99); got != 100*time.Millisecond {
		t.Errorf("p99 = %s, want 100ms", got)
	}
}

func TestSummarizeLatencyDistribution(t *testing.T) {
	// Deliberately unsorted.
	s := metrics.Summarize(metrics.BurstResult{
		Requested: 5,
		Outcomes:  successes(ms(40), ms(10), ms(50), ms(30), ms(20)),
		Duration:  time.Second,
	})
	l := s.Latency
	if l == nil {
		t.Fatal("expected latency stats")
	}
	if l.Mean != ms(30) {
		t.Errorf("mean = %s, want 30ms", l.Mean)
	}
	if l.Median != ms(30) {
		t.Errorf("median = %s, want 30ms", l.Median)
	}
	if l.P95 != ms(50) || l.P99 != ms(50) {
		t.Errorf("p95/p99 = %s/%s, want 50ms/50ms", l.P95, l.P99)
	}
	// Sample standard deviation of 10..50ms is sqrt(250) ms.
	if l.StdDev == nil {
		t.Fatal("expected stddev with 5 samples")
	}
	want := 15811388 * time.Nanosecond
	if diff := *l.StdDev - want; diff < -time.Microsecond || diff > time.Microsecond {
		t.Errorf("stddev = %s, want ~%s", *l.StdDev, want)
	}
	if l.P95Ms != 50 {
		t.Errorf("p95 ms = %v, want 50", l.P95Ms)
	}
}

func TestSummarizeEvenMedian(t *testing.T) {
	s := metrics.Summarize(metrics.BurstResult{
		Requested: 4,
		Outcomes:  successes(ms(10), ms(20), ms(30), ms(40)),
		Duration:  time.Second,
	})
	if s.Latency.Median != ms(25) {
		t.Errorf("median = %s, want 25ms", s.Latency.Median)
	}
}

func TestStdDevUndefinedForSingleSample(t *testing.T) {
	s := metrics.Summarize(metrics.BurstResult{
		Requested: 1,
		Outcomes:  successes(ms(12)),
		Duration:  time.Second,
	})
	if s.Latency == nil {
		t.Fatal("expected latency stats for one sample")
	}
	if s.Latency.StdDev != nil || s.Latency.StdDevMs != nil {
		t.Errorf("stddev must be undefined with one sample, got %v / %v", s.Latency.StdDev, s.Latency.StdDevMs)
	}
	if s.Latency.Min != ms(12) || s.Latency.Max != ms(12) || s.Latency.Median != ms(12) {
		t.Errorf("single sample distribution wrong: %+v", s.Latency)
	}
}

func TestThroughputExact(t *testing.T) {
	s := metrics.Summarize(metrics.BurstResult{
		Requested: 100,
		Outcomes:  successes(ms(1)),
		Duration:  2 * time.Second,
	})
	if s.Throughput == nil {
		t.Fatal("expected throughput")
	}
	if *s.Throughput != 50.0 {
		t.Errorf("throughput = %v, want 50", *s.Throughput)
	}
}

func TestThroughputUndefinedForZeroDuration(t *testing.T) {
	s := metrics.Summarize(metrics.BurstResult{
		Requested: 10,
		Outcomes:  successes(0),
	})
	if s.Throughput != nil {
		t.Errorf("throughput must be undefined for an instant burst, got %v", *s.Throughput)
	}
}

func TestSummarizeDoesNotReorderInput(t *testing.T) {
	outcomes := successes(ms(3), ms(1), ms(2))
	metrics.Summarize(metrics.BurstResult{Requested: 3, Outcomes: outcomes, Duration: time.Second})
	if outcomes[0].Latency != ms(3) || outcomes[1].Latency != ms(1) {
		t.Errorf("Summarize mutated its input: %+v", outcomes)
	}
}

func TestSummarizeCarriesInterruption(t *testing.T) {
	s := metrics.Summarize(metrics.BurstResult{
		Requested:   10,
		Outcomes:    successes(ms(5), ms(6)),
		Duration:    time.Second,
		Interrupted: true,
	})
	if !s.Interrupted {
		t.Error("expected summary to be marked interrupted")
	}
	if s.Total != 2 || s.Total > s.Requested {
		t.Errorf("total = %d, want 2 (<= requested)", s.Total)
	}
	if s.SuccessRatePercent != 20 {
		t.Errorf("success rate = %v, want 20", s.SuccessRatePercent)
	}
}
