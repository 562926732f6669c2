package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hamed0406/netwatch/internal/domain"
)

// Metrics groups the monitor's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	Cycles        prometheus.Counter
	CycleDuration prometheus.Histogram
	Probes        *prometheus.CounterVec
	ProbeLatency  prometheus.Histogram
	TargetStatus  *prometheus.GaugeVec
	TargetLatency *prometheus.GaugeVec
	SinkFailures  *prometheus.CounterVec
	Targets       prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		Cycles: f.NewCounter(prometheus.CounterOpts{
			Name: "netwatch_cycles_total", Help: "Completed monitoring cycles",
		}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "netwatch_cycle_duration_seconds",
			Help:    "Wall time of one monitoring cycle",
			Buckets: prometheus.DefBuckets,
		}),
		Probes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "netwatch_probes_total", Help: "Probe results by status",
		}, []string{"status"}),
		ProbeLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "netwatch_probe_latency_seconds",
			Help:    "Round-trip latency of responding probes",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .15, .25, .5, 1, 2},
		}),
		TargetStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "netwatch_target_status", Help: "Latest status severity per target (0 ok, 1 high latency, 2 down)",
		}, []string{"target"}),
		TargetLatency: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "netwatch_target_latency_ms", Help: "Latest latency per target, -1 when down",
		}, []string{"target"}),
		SinkFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "netwatch_sink_failures_total", Help: "Failed sink or renderer writes",
		}, []string{"sink"}),
		Targets: f.NewGauge(prometheus.GaugeOpts{
			Name: "netwatch_targets", Help: "Number of monitored targets",
		}),
	}
}

// ObserveCycle records one committed cycle.
func (m *Metrics) ObserveCycle(report domain.CycleReport, took time.Duration) {
	if m == nil {
		return
	}
	m.Cycles.Inc()
	m.CycleDuration.Observe(took.Seconds())
	m.Targets.Set(float64(len(report.Results)))
	for _, r := range report.Results {
		m.Probes.WithLabelValues(string(r.Status)).Inc()
		m.TargetStatus.WithLabelValues(string(r.Target)).Set(float64(r.Status.Severity()))
		if ms, ok := r.LatencyMS(); ok {
			m.ProbeLatency.Observe(r.Latency.Seconds())
			m.TargetLatency.WithLabelValues(string(r.Target)).Set(ms)
		} else {
			m.TargetLatency.WithLabelValues(string(r.Target)).Set(-1)
		}
	}
}

func (m *Metrics) SinkFailed(name string) {
	if m == nil {
		return
	}
	m.SinkFailures.WithLabelValues(name).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
