package domain

import "time"

// Status classifies a target's outcome for one cycle.
type Status string

const (
	StatusOK          Status = "OK"
	StatusHighLatency Status = "HIGH_LATENCY"
	StatusDown        Status = "DOWN"
)

// Classify maps a probe outcome to a status. Latency equal to the threshold is OK.
func Classify(outcome ProbeOutcome, threshold time.Duration) Status {
	switch {
	case !outcome.Responded:
		return StatusDown
	case outcome.Latency > threshold:
		return StatusHighLatency
	default:
		return StatusOK
	}
}

// Severity orders statuses for display: DOWN > HIGH_LATENCY > OK.
func (s Status) Severity() int {
	switch s {
	case StatusDown:
		return 2
	case StatusHighLatency:
		return 1
	default:
		return 0
	}
}

// CSSClass is the report row class for the status.
func (s Status) CSSClass() string {
	switch s {
	case StatusDown:
		return "down"
	case StatusHighLatency:
		return "high-latency"
	default:
		return "ok"
	}
}

func (s Status) Valid() bool {
	return s == StatusOK || s == StatusHighLatency || s == StatusDown
}
