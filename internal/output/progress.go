package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/torosent/salvo/internal/metrics"
	"github.com/torosent/salvo/internal/runner"
)

// ProgressReporter displays a live status line while each burst runs.
type ProgressReporter struct {
	interval time.Duration
	writer   io.Writer

	mu       sync.Mutex
	done     chan struct{}
	finished chan struct{}
}

var _ runner.BurstObserver = (*ProgressReporter)(nil)

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &ProgressReporter{
		interval: interval,
		writer:   writer,
	}
}

// BurstStarted begins refreshing the status line from c in a background goroutine.
func (p *ProgressReporter) BurstStarted(sc runner.Scenario, c *metrics.Collector) {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = make(chan struct{})
	p.finished = make(chan struct{})
	go p.run(sc, c, p.done, p.finished)
}

// BurstFinished stops the refresh loop once the burst has returned.
func (p *ProgressReporter) BurstFinished(runner.Scenario, metrics.BurstResult) {
	p.Stop()
}

// Stop halts progress updates, printing a final line for the current burst.
func (p *ProgressReporter) Stop() {
	p.mu.Lock()
	done, finished := p.done, p.finished
	p.done, p.finished = nil, nil
	p.mu.Unlock()

	if done == nil {
		return
	}
	close(done)
	<-finished
}

func (p *ProgressReporter) run(sc runner.Scenario, c *metrics.Collector, done, finished chan struct{}) {
	defer close(finished)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fmt.Fprint(p.writer, progressLine(sc, c.Snapshot()))
		case <-done:
			fmt.Fprintln(p.writer, progressLine(sc, c.Snapshot()))
			return
		}
	}
}

func progressLine(sc runner.Scenario, snap metrics.Progress) string {
	line := fmt.Sprintf("\rRequests: %d/%d | Successes: %d | Failures: %d | RPS: %.1f",
		snap.Completed, sc.Requests, snap.Successes, snap.Failures, snap.RequestsPerSec)
	if snap.Successes > 0 {
		line += fmt.Sprintf(" | P50: %s | P99: %s",
			snap.P50Latency.Round(time.Microsecond), snap.P99Latency.Round(time.Microsecond))
	}
	return line
}
