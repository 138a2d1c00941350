package metrics

import (
	"math"
	"sort"
	"time"
)

// Summary is the statistical view of one burst.
type Summary struct {
	Name               string         `json:"name" yaml:"name"`
	Endpoint           string         `json:"endpoint" yaml:"endpoint"`
	Requested          int            `json:"requested" yaml:"requested"`
	Total              int            `json:"total" yaml:"total"`
	Successes          int            `json:"successes" yaml:"successes"`
	Failures           int            `json:"failures" yaml:"failures"`
	SuccessRatePercent float64        `json:"success_rate_percent" yaml:"success_rate_percent"`
	Duration           time.Duration  `json:"-" yaml:"-"`
	DurationMs         float64        `json:"duration_ms" yaml:"duration_ms"`
	Throughput         *float64       `json:"requests_per_sec" yaml:"requests_per_sec"`
	Latency            *LatencyStats  `json:"latency" yaml:"latency"`
	StatusCodes        map[int]int    `json:"status_codes,omitempty" yaml:"status_codes,omitempty"`
	Errors             map[string]int `json:"errors,omitempty" yaml:"errors,omitempty"`
	Interrupted        bool           `json:"interrupted,omitempty" yaml:"interrupted,omitempty"`
}

// LatencyStats describes the latency distribution of successful requests.
type LatencyStats struct {
	Samples int            `json:"samples" yaml:"samples"`
	Mean    time.Duration  `json:"-" yaml:"-"`
	Median  time.Duration  `json:"-" yaml:"-"`
	Min     time.Duration  `json:"-" yaml:"-"`
	Max     time.Duration  `json:"-" yaml:"-"`
	P95     time.Duration  `json:"-" yaml:"-"`
	P99     time.Duration  `json:"-" yaml:"-"`
	StdDev  *time.Duration `json:"-" yaml:"-"`

	// JSON-friendly millisecond fields.
	MeanMs   float64  `json:"mean_ms" yaml:"mean_ms"`
	MedianMs float64  `json:"median_ms" yaml:"median_ms"`
	MinMs    float64  `json:"min_ms" yaml:"min_ms"`
	MaxMs    float64  `json:"max_ms" yaml:"max_ms"`
	P95Ms    float64  `json:"p95_ms" yaml:"p95_ms"`
	P99Ms    float64  `json:"p99_ms" yaml:"p99_ms"`
	StdDevMs *float64 `json:"stddev_ms" yaml:"stddev_ms"`
}

// Summarize reduces a burst to its summary statistics.
//
// Throughput is Requested divided by the burst duration and is nil when the
// burst took no measurable time. Latency is nil when no request succeeded.
func Summarize(b BurstResult) Summary {
	s := Summary{
		Name:        b.Name,
		Endpoint:    b.Endpoint,
		Requested:   b.Requested,
		Total:       len(b.Outcomes),
		Duration:    b.Duration,
		DurationMs:  toMs(b.Duration),
		Interrupted: b.Interrupted,
	}

	latencies := make([]time.Duration, 0, len(b.Outcomes))
	for _, o := range b.Outcomes {
		if o.Succeeded {
			s.Successes++
			latencies = append(latencies, o.Latency)
		} else {
			s.Failures++
		}
		if o.StatusCode != 0 {
			if s.StatusCodes == nil {
				s.StatusCodes = make(map[int]int)
			}
			s.StatusCodes[o.StatusCode]++
		}
		if o.ErrorKind != "" {
			if s.Errors == nil {
				s.Errors = make(map[string]int)
			}
			s.Errors[o.ErrorKind]++
		}
	}

	if b.Requested > 0 {
		s.SuccessRatePercent = float64(s.Successes) / float64(b.Requested) * 100
	}
	if b.Duration > 0 {
		rps := float64(b.Requested) / b.Duration.Seconds()
		s.Throughput = &rps
	}
	s.Latency = summarizeLatencies(latencies)
	return s
}

func summarizeLatencies(latencies []time.Duration) *LatencyStats {
	n := len(latencies)
	if n == 0 {
		return nil
	}

	sorted := make([]time.Duration, n)
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum float64
	for _, d := range sorted {
		sum += float64(d)
	}
	mean := sum / float64(n)

	stats := &LatencyStats{
		Samples: n,
		Mean:    time.Duration(math.Round(mean)),
		Median:  median(sorted),
		Min:     sorted[0],
		Max:     sorted[n-1],
		P95:     Percentile(sorted, 0.95),
		P99:     Percentile(sorted, 0.99),
	}

	if n >= 2 {
		var squares float64
		for _, d := range sorted {
			diff := float64(d) - mean
			squares += diff * diff
		}
		sd := time.Duration(math.Round(math.Sqrt(squares / float64(n-1))))
		stats.StdDev = &sd
		sdMs := toMs(sd)
		stats.StdDevMs = &sdMs
	}

	stats.MeanMs = toMs(stats.Mean)
	stats.MedianMs = toMs(stats.Median)
	stats.MinMs = toMs(stats.Min)
	stats.MaxMs = toMs(stats.Max)
	stats.P95Ms = toMs(stats.P95)
	stats.P99Ms = toMs(stats.P99)
	return stats
}

// Percentile picks element floor(p*n) of an ascending slice, with p a
// fraction such as 0.95. It returns 0 for an empty slice.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(p * float64(n)))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

func median(sorted []time.Duration) time.Duration {
	n := len(sorted)
	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func toMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
