package report

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hamed0406/netwatch/internal/domain"
	"github.com/hamed0406/netwatch/internal/history"
)

//go:embed templates/status.html.tmpl
var templatesFS embed.FS

var statusTmpl = template.Must(template.ParseFS(templatesFS, "templates/status.html.tmpl"))

const DefaultTitle = "Network Monitoring Dashboard"

type Options struct {
	Title     string
	Threshold time.Duration
	// Refresh is the meta refresh period; zero omits the tag.
	Refresh time.Duration
}

type page struct {
	Title          string
	RefreshSeconds int
	UpdatedAt      string
	Rows           []row
	Chart          *chart
}

type row struct {
	Target  string
	Latency string
	Status  string
	Class   string
}

// Write renders the status page for report and view to w.
func Write(w io.Writer, report domain.CycleReport, view history.View, opts Options) error {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	p := page{
		Title:          title,
		RefreshSeconds: int(opts.Refresh.Round(time.Second) / time.Second),
		Chart:          buildChart(view, opts.Threshold),
	}
	if !report.At.IsZero() {
		p.UpdatedAt = report.At.UTC().Format(time.RFC3339)
	} else {
		p.UpdatedAt = "never"
	}
	for _, r := range report.Results {
		lat := "N/A"
		if v, ok := r.LatencyMS(); ok {
			lat = strconv.FormatFloat(v, 'f', -1, 64)
		}
		p.Rows = append(p.Rows, row{
			Target:  string(r.Target),
			Latency: lat,
			Status:  string(r.Status),
			Class:   r.Status.CSSClass(),
		})
	}
	return statusTmpl.Execute(w, p)
}

// FileRenderer rewrites a static HTML snapshot each cycle. Readers never see a
// partially written file.
type FileRenderer struct {
	path string
	opts Options
}

func NewFileRenderer(path string, opts Options) *FileRenderer {
	return &FileRenderer{path: path, opts: opts}
}

func (r *FileRenderer) Name() string { return "html-file" }

func (r *FileRenderer) Render(_ context.Context, report domain.CycleReport, view history.View) error {
	var buf bytes.Buffer
	if err := Write(&buf, report, view, r.opts); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return writeAtomic(r.path, buf.Bytes())
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure report directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("chmod temp: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}
