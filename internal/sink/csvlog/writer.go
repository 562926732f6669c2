package csvlog

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/hamed0406/netwatch/internal/domain"
)

// Format is the on-disk encoding of the durable log.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

// TimeLayout is RFC 3339 with milliseconds.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

var header = []string{"timestamp", "target", "latency_ms", "status"}

// file is the subset of *os.File the writer needs.
type file interface {
	io.Writer
	io.Closer
	Sync() error
	Truncate(size int64) error
	Stat() (os.FileInfo, error)
}

// Writer appends one row per target per cycle. Each cycle is a single write
// followed by fsync; a failed write is truncated away so earlier rows stay intact.
type Writer struct {
	mu         sync.Mutex
	format     Format
	f          file
	size       int64
	needHeader bool
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("unsupported log format: %s", s)
	}
}

// Open opens path for appending, creating it and its directory if needed.
func Open(path string, format Format) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	w, err := newWriter(f, format)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

func newWriter(f file, format Format) (*Writer, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}
	return &Writer{
		format:     format,
		f:          f,
		size:       info.Size(),
		needHeader: format == FormatCSV && info.Size() == 0,
	}, nil
}

func (w *Writer) Name() string { return "log-" + string(w.format) }

func (w *Writer) Write(_ context.Context, report domain.CycleReport) error {
	if len(report.Results) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	buf, err := w.encode(report)
	if err != nil {
		return err
	}
	n, err := w.f.Write(buf)
	if err != nil {
		if n > 0 {
			_ = w.f.Truncate(w.size)
		}
		return fmt.Errorf("append log: %w", err)
	}
	// the rows are in the file now, whatever Sync says
	w.size += int64(n)
	w.needHeader = false
	if err := w.f.Sync(); err != nil {
		return fmt.Errorf("sync log: %w", err)
	}
	return nil
}

func (w *Writer) encode(report domain.CycleReport) ([]byte, error) {
	var buf bytes.Buffer
	ts := report.At.UTC().Format(TimeLayout)

	switch w.format {
	case FormatJSONL:
		enc := json.NewEncoder(&buf)
		for _, r := range report.Results {
			if err := enc.Encode(record{Timestamp: ts, Result: r}); err != nil {
				return nil, fmt.Errorf("encode row: %w", err)
			}
		}
	default:
		cw := csv.NewWriter(&buf)
		if w.needHeader {
			_ = cw.Write(header)
		}
		for _, r := range report.Results {
			_ = cw.Write([]string{ts, string(r.Target), FormatLatency(r), string(r.Status)})
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return nil, fmt.Errorf("encode row: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// FormatLatency renders milliseconds without trailing zeros, "" when absent.
func FormatLatency(r domain.Result) string {
	ms, ok := r.LatencyMS()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(ms, 'f', -1, 64)
}

type record struct {
	Timestamp string
	Result    domain.Result
}

func (r record) MarshalJSON() ([]byte, error) {
	var lat *float64
	if ms, ok := r.Result.LatencyMS(); ok {
		lat = &ms
	}
	return json.Marshal(struct {
		Timestamp string        `json:"timestamp"`
		Target    domain.Target `json:"target"`
		LatencyMS *float64      `json:"latency_ms"`
		Status    domain.Status `json:"status"`
	}{r.Timestamp, r.Result.Target, lat, r.Result.Status})
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
