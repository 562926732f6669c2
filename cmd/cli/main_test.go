package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchAndPrintStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"at":"2024-03-01T12:00:00Z","results":[
			{"target":"10.0.0.1","latency_ms":42,"status":"OK"},
			{"target":"10.0.0.2","latency_ms":null,"status":"DOWN"}]}`))
	}))
	defer ts.Close()

	rep, err := fetchStatus(ts.Client(), ts.URL)
	if err != nil {
		t.Fatalf("fetchStatus: %v", err)
	}
	var buf bytes.Buffer
	printStatus(&buf, rep)
	out := buf.String()
	if !strings.Contains(out, "10.0.0.1  42") || !strings.Contains(out, "N/A") || !strings.Contains(out, "DOWN") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestFetchStatus_NotReady(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()
	if _, err := fetchStatus(ts.Client(), ts.URL); err == nil {
		t.Fatalf("expected error on 503")
	}
}
