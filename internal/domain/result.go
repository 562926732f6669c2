package domain

import (
	"encoding/json"
	"time"
)

// Result is a single target's line in a cycle report.
type Result struct {
	Target    Target
	Responded bool
	Latency   time.Duration
	Status    Status
}

func (r Result) LatencyMS() (float64, bool) {
	return latencyMS(r.Responded, r.Latency)
}

// MarshalJSON renders latency as milliseconds, null when absent.
func (r Result) MarshalJSON() ([]byte, error) {
	var lat *float64
	if ms, ok := r.LatencyMS(); ok {
		lat = &ms
	}
	return json.Marshal(struct {
		Target    Target   `json:"target"`
		LatencyMS *float64 `json:"latency_ms"`
		Status    Status   `json:"status"`
	}{r.Target, lat, r.Status})
}

// CycleReport holds every target's result for one cycle, in registry order.
type CycleReport struct {
	At      time.Time `json:"at"`
	Results []Result  `json:"results"`
}

// Clone returns a report whose Results slice is not shared with r.
func (r CycleReport) Clone() CycleReport {
	out := CycleReport{At: r.At, Results: make([]Result, len(r.Results))}
	copy(out.Results, r.Results)
	return out
}

// Targets lists the report's targets in order.
func (r CycleReport) Targets() []Target {
	out := make([]Target, len(r.Results))
	for i, res := range r.Results {
		out[i] = res.Target
	}
	return out
}
