package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Collector gathers the outcomes of a single burst in a thread-safe manner.
type Collector struct {
	mu        sync.Mutex
	hist      *hdrhistogram.Histogram
	outcomes  []Outcome
	successes int64
	failures  int64
	start     time.Time
}

// Progress is a point-in-time view of a burst that is still running.
type Progress struct {
	Completed      int64
	Successes      int64
	Failures       int64
	Elapsed        time.Duration
	RequestsPerSec float64
	P50Latency     time.Duration
	P99Latency     time.Duration
}

// NewCollector creates a collector sized for the expected number of outcomes.
func NewCollector(expected int) *Collector {
	if expected < 0 {
		expected = 0
	}
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:     h,
		outcomes: make([]Outcome, 0, expected),
		start:    time.Now(),
	}
}

// Start marks the moment the burst began dispatching.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
}

// Record stores one outcome.
func (c *Collector) Record(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.outcomes = append(c.outcomes, o)
	if !o.Succeeded {
		c.failures++
		return
	}
	c.successes++

	us := o.Latency.Microseconds()
	if us < c.hist.LowestTrackableValue() {
		us = c.hist.LowestTrackableValue()
	}
	if us > c.hist.HighestTrackableValue() {
		us = c.hist.HighestTrackableValue()
	}
	_ = c.hist.RecordValue(us)
}

// Outcomes returns a copy of everything recorded so far.
func (c *Collector) Outcomes() []Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Outcome, len(c.outcomes))
	copy(out, c.outcomes)
	return out
}

// Len reports how many outcomes have been recorded.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outcomes)
}

// Snapshot returns running counts and histogram-approximated percentiles of
// successful requests.
func (c *Collector) Snapshot() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := Progress{
		Completed: c.successes + c.failures,
		Successes: c.successes,
		Failures:  c.failures,
		Elapsed:   time.Since(c.start),
	}
	if p.Elapsed > 0 && p.Completed > 0 {
		p.RequestsPerSec = float64(p.Completed) / p.Elapsed.Seconds()
	}
	if c.hist.TotalCount() > 0 {
		p.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		p.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}
	return p
}
