package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestClassify_Threshold(t *testing.T) {
	threshold := 150 * time.Millisecond
	cases := []struct {
		name string
		in   ProbeOutcome
		want Status
	}{
		{"fast", Responded(42 * time.Millisecond), StatusOK},
		{"zero", Responded(0), StatusOK},
		{"equal is ok", Responded(threshold), StatusOK},
		{"just above", Responded(threshold + time.Nanosecond), StatusHighLatency},
		{"slow", Responded(201 * time.Millisecond), StatusHighLatency},
		{"no response", NoResponse(), StatusDown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Classify(c.in, threshold); got != c.want {
				t.Fatalf("Classify(%+v)=%s want %s", c.in, got, c.want)
			}
		})
	}
}

func TestClassify_NoResponseIsDownForAnyThreshold(t *testing.T) {
	for _, th := range []time.Duration{0, time.Millisecond, time.Hour} {
		if got := Classify(NoResponse(), th); got != StatusDown {
			t.Fatalf("threshold %v: got %s want DOWN", th, got)
		}
	}
}

func TestClassify_ZeroThreshold(t *testing.T) {
	if got := Classify(Responded(0), 0); got != StatusOK {
		t.Fatalf("got %s want OK", got)
	}
	if got := Classify(Responded(time.Microsecond), 0); got != StatusHighLatency {
		t.Fatalf("got %s want HIGH_LATENCY", got)
	}
}

func TestResponded_ClampsNegative(t *testing.T) {
	o := Responded(-5 * time.Millisecond)
	if !o.Responded || o.Latency != 0 {
		t.Fatalf("unexpected outcome: %+v", o)
	}
}

func TestStatus_SeverityAndClass(t *testing.T) {
	if !(StatusDown.Severity() > StatusHighLatency.Severity() && StatusHighLatency.Severity() > StatusOK.Severity()) {
		t.Fatalf("severity ordering broken")
	}
	want := map[Status]string{StatusOK: "ok", StatusHighLatency: "high-latency", StatusDown: "down"}
	for s, class := range want {
		if s.CSSClass() != class {
			t.Fatalf("%s class=%q want %q", s, s.CSSClass(), class)
		}
		if !s.Valid() {
			t.Fatalf("%s should be valid", s)
		}
	}
	if Status("UP").Valid() {
		t.Fatalf("unexpected valid status")
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  10.0.0.1\t"); got != "10.0.0.1" {
		t.Fatalf("got %q", got)
	}
	if got := Normalize("Example.COM"); got != "Example.COM" {
		t.Fatalf("normalize must not fold case, got %q", got)
	}
}

func TestResult_JSONLatency(t *testing.T) {
	up := Result{Target: "10.0.0.1", Responded: true, Latency: 42 * time.Millisecond, Status: StatusOK}
	b, err := json.Marshal(up)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"target":"10.0.0.1","latency_ms":42,"status":"OK"}` {
		t.Fatalf("unexpected json: %s", b)
	}

	down := Result{Target: "10.0.0.2", Status: StatusDown}
	b, err = json.Marshal(down)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"target":"10.0.0.2","latency_ms":null,"status":"DOWN"}` {
		t.Fatalf("unexpected json: %s", b)
	}
}

func TestCycleReport_CloneDoesNotShare(t *testing.T) {
	r := CycleReport{At: time.Now(), Results: []Result{{Target: "a", Status: StatusOK}}}
	c := r.Clone()
	c.Results[0].Status = StatusDown
	if r.Results[0].Status != StatusOK {
		t.Fatalf("clone shares backing array")
	}
	if got := r.Targets(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("targets: %v", got)
	}
}
