// Package metrics holds the outcome model and the statistics for salvo bursts.
//
// Every executed request produces exactly one [Outcome]. Outcomes of one burst
// are gathered by a [Collector], which is safe for concurrent use, and handed
// back as a [BurstResult]:
//
//	collector := metrics.NewCollector(requests)
//	collector.Start()
//	collector.Record(metrics.NewOutcome(200, 12*time.Millisecond))
//	result := metrics.BurstResult{Requested: requests, Outcomes: collector.Outcomes()}
//
// # Summaries
//
// [Summarize] reduces a [BurstResult] to a [Summary]. It is a pure function.
// The latency distribution covers successful outcomes only; when nothing
// succeeded [Summary.Latency] is nil rather than a block of zeros. Percentiles
// select index floor(p*n) of the sorted latencies without interpolation, so
// results are reproducible across runs of the same data.
//
// # Failure classification
//
// A request that never produced a response carries status code 0 and an
// error kind (see [Classify]) plus the original error text. A response with
// any status other than 200 is a failure with its real status code and no
// error detail.
//
// # Live progress
//
// [Collector.Snapshot] reports running counts and approximate percentiles
// from an HDR histogram while a burst is still in flight. Final numbers always
// come from [Summarize].
package metrics
