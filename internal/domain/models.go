package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Target is a monitored endpoint: a hostname or an IP address.
type Target string

// Normalize trims surrounding whitespace. No case folding or resolution.
func Normalize(raw string) Target {
	return Target(strings.TrimSpace(raw))
}

func (t Target) String() string { return string(t) }

// ProbeOutcome is the result of one reachability check.
// Latency is meaningful only when Responded is true.
type ProbeOutcome struct {
	Responded bool
	Latency   time.Duration
}

func Responded(latency time.Duration) ProbeOutcome {
	if latency < 0 {
		latency = 0
	}
	return ProbeOutcome{Responded: true, Latency: latency}
}

func NoResponse() ProbeOutcome {
	return ProbeOutcome{}
}

// HistoryEntry is one classified sample for a target, immutable once appended.
type HistoryEntry struct {
	At        time.Time
	Target    Target
	Responded bool
	Latency   time.Duration
	Status    Status
}

// LatencyMS returns the latency in milliseconds, or false when the target did not respond.
func (e HistoryEntry) LatencyMS() (float64, bool) {
	return latencyMS(e.Responded, e.Latency)
}

func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	var lat *float64
	if ms, ok := e.LatencyMS(); ok {
		lat = &ms
	}
	return json.Marshal(struct {
		At        time.Time `json:"at"`
		Target    Target    `json:"target"`
		LatencyMS *float64  `json:"latency_ms"`
		Status    Status    `json:"status"`
	}{e.At, e.Target, lat, e.Status})
}

func latencyMS(responded bool, d time.Duration) (float64, bool) {
	if !responded {
		return 0, false
	}
	return float64(d) / float64(time.Millisecond), true
}
