package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

type statusReport struct {
	At      time.Time `json:"at"`
	Results []struct {
		Target    string   `json:"target"`
		LatencyMS *float64 `json:"latency_ms"`
		Status    string   `json:"status"`
	} `json:"results"`
}

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}
	flag.StringVar(&api, "api", api, "base URL of a running netwatch")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}
	rep, err := fetchStatus(client, strings.TrimRight(api, "/"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error contacting API:", err)
		os.Exit(1)
	}
	printStatus(os.Stdout, rep)
}

func fetchStatus(c *http.Client, base string) (statusReport, error) {
	var rep statusReport
	resp, err := c.Get(base + "/api/status")
	if err != nil {
		return rep, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return rep, fmt.Errorf("API returned status: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		return rep, fmt.Errorf("decode status: %w", err)
	}
	return rep, nil
}

func printStatus(w io.Writer, rep statusReport) {
	fmt.Fprintf(w, "Last updated: %s\n", rep.At.Local().Format("2006-01-02 15:04:05"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tLATENCY (ms)\tSTATUS")
	for _, r := range rep.Results {
		lat := "N/A"
		if r.LatencyMS != nil {
			lat = fmt.Sprintf("%g", *r.LatencyMS)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Target, lat, r.Status)
	}
	_ = tw.Flush()
}
