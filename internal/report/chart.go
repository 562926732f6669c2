package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/netwatch/internal/history"
)

const (
	chartWidth  = 720
	chartHeight = 240
	chartPad    = 30
)

var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

type chart struct {
	Width, Height, Pad float64
	Right, Bottom      float64
	ThresholdY         float64
	MaxLabel           string
	Series             []series
}

type series struct {
	Target   string
	Color    string
	Segments []string // polyline points, split where the target was down
	Downs    []string // x positions of DOWN samples
}

// buildChart lays the view out on a fixed canvas. Time runs along x, latency
// along y, scaled so the threshold is always visible.
func buildChart(view history.View, threshold time.Duration) *chart {
	from, to, ok := view.Span()
	if !ok {
		return nil
	}

	maxMS := ms(threshold)
	for _, t := range view.Targets() {
		for _, e := range view.SeriesFor(t) {
			if v, ok := e.LatencyMS(); ok && v > maxMS {
				maxMS = v
			}
		}
	}
	if maxMS <= 0 {
		maxMS = 1
	}
	maxMS *= 1.1

	c := &chart{
		Width:    chartWidth,
		Height:   chartHeight,
		Pad:      chartPad,
		Right:    chartWidth - chartPad,
		Bottom:   chartHeight - chartPad,
		MaxLabel: strconv.FormatFloat(maxMS, 'f', 0, 64),
	}
	plotW := c.Right - c.Pad
	plotH := c.Bottom - c.Pad
	span := to.Sub(from)

	x := func(at time.Time) float64 {
		if span <= 0 {
			return c.Pad + plotW/2
		}
		return c.Pad + plotW*float64(at.Sub(from))/float64(span)
	}
	y := func(v float64) float64 { return c.Bottom - plotH*v/maxMS }

	c.ThresholdY = round(y(ms(threshold)))

	for i, t := range view.Targets() {
		s := series{Target: string(t), Color: palette[i%len(palette)]}
		var cur []string
		flush := func() {
			if len(cur) > 0 {
				s.Segments = append(s.Segments, strings.Join(cur, " "))
				cur = nil
			}
		}
		for _, e := range view.SeriesFor(t) {
			v, ok := e.LatencyMS()
			if !ok {
				flush()
				s.Downs = append(s.Downs, fmtF(x(e.At)))
				continue
			}
			cur = append(cur, fmtF(x(e.At))+","+fmtF(y(v)))
		}
		flush()
		c.Series = append(c.Series, s)
	}
	return c
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

func round(f float64) float64 {
	v, _ := strconv.ParseFloat(fmtF(f), 64)
	return v
}

func fmtF(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) }
