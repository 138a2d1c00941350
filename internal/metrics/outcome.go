package metrics

import (
	"strings"
	"time"
)

// Outcome is the classified result of one request attempt.
type Outcome struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Latency runs from dispatch until the response body was fully consumed.
	Latency time.Duration
	// Succeeded is true only for status 200.
	Succeeded bool
	// ErrorKind groups transport failures (see Classify). Empty otherwise.
	ErrorKind string
	// ErrorDetail describes a transport failure. Empty for HTTP responses.
	ErrorDetail string
}

// NewOutcome records a request that received an HTTP response.
func NewOutcome(statusCode int, latency time.Duration) Outcome {
	if latency < 0 {
		latency = 0
	}
	return Outcome{
		StatusCode: statusCode,
		Latency:    latency,
		Succeeded:  statusCode == 200,
	}
}

// FailedOutcome records a request that never produced a usable response.
func FailedOutcome(latency time.Duration, kind, detail string) Outcome {
	if latency < 0 {
		latency = 0
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = KindTransport
	}
	detail = strings.TrimSpace(detail)
	if detail == "" {
		detail = kind
	}
	return Outcome{
		Latency:     latency,
		ErrorKind:   kind,
		ErrorDetail: detail,
	}
}

// ErrorOutcome classifies err and records it as a failed outcome.
func ErrorOutcome(latency time.Duration, err error) Outcome {
	if err == nil {
		return FailedOutcome(latency, KindTransport, "")
	}
	return FailedOutcome(latency, Classify(err), err.Error())
}

// BurstResult gathers the outcomes of one burst of concurrent requests.
type BurstResult struct {
	Name        string
	Endpoint    string
	Requested   int
	Outcomes    []Outcome
	Duration    time.Duration
	Interrupted bool
}

// Successes counts outcomes with status 200.
func (b BurstResult) Successes() int {
	n := 0
	for _, o := range b.Outcomes {
		if o.Succeeded {
			n++
		}
	}
	return n
}

// Failures counts every outcome that did not succeed.
func (b BurstResult) Failures() int {
	return len(b.Outcomes) - b.Successes()
}
