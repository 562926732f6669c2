package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/netwatch/internal/domain"
	"github.com/hamed0406/netwatch/internal/history"
	"github.com/hamed0406/netwatch/internal/metrics"
	"github.com/hamed0406/netwatch/internal/probe"
	"github.com/hamed0406/netwatch/internal/sink"
)

const tracerName = "github.com/hamed0406/netwatch/internal/scheduler"

// DefaultInterval applies when Options.Interval is not positive.
const DefaultInterval = 10 * time.Second

type Options struct {
	Logger    *zap.Logger
	Targets   []domain.Target
	Prober    probe.Prober
	History   *history.Store
	Sinks     []sink.Sink
	Renderers []sink.Renderer
	Metrics   *metrics.Metrics

	Threshold    time.Duration
	Interval     time.Duration
	ProbeTimeout time.Duration
	Concurrency  int
	// SinkTimeout bounds each sink write and render call. Defaults to Interval.
	SinkTimeout  time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// Engine runs monitoring cycles over a fixed target list. Every cycle probes
// all targets, waits for all of them, then commits to history and fans the
// report out to sinks and renderers.
type Engine struct {
	log          *zap.Logger
	targets      []domain.Target
	prober       probe.Prober
	history      *history.Store
	sinks        []sink.Sink
	renderers    []sink.Renderer
	metrics      *metrics.Metrics
	threshold    time.Duration
	interval     time.Duration
	probeTimeout time.Duration
	concurrency  int
	sinkTimeout  time.Duration
	now          func() time.Time
	tracer       trace.Tracer
}

func New(o Options) *Engine {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.History == nil {
		o.History = history.New(0)
	}
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = 2 * time.Second
	}
	if o.ProbeTimeout > o.Interval {
		o.ProbeTimeout = o.Interval
	}
	if o.SinkTimeout <= 0 {
		o.SinkTimeout = o.Interval
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	targets := make([]domain.Target, len(o.Targets))
	copy(targets, o.Targets)

	return &Engine{
		log:          o.Logger,
		targets:      targets,
		prober:       probe.Bounded(o.Prober),
		history:      o.History,
		sinks:        o.Sinks,
		renderers:    o.Renderers,
		metrics:      o.Metrics,
		threshold:    o.Threshold,
		interval:     o.Interval,
		probeTimeout: o.ProbeTimeout,
		concurrency:  o.Concurrency,
		sinkTimeout:  o.SinkTimeout,
		now:          o.Now,
		tracer:       otel.Tracer(tracerName),
	}
}

// Targets returns the engine's registry in probe order.
func (e *Engine) Targets() []domain.Target {
	out := make([]domain.Target, len(e.targets))
	copy(out, e.targets)
	return out
}

// Run cycles until ctx is cancelled. The interval is measured between cycle
// starts; an overrunning cycle is followed immediately by the next one.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("engine_started",
		zap.Int("targets", len(e.targets)),
		zap.Duration("interval", e.interval),
		zap.Duration("probe_timeout", e.probeTimeout),
		zap.Int("concurrency", e.concurrency),
	)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		start := e.now()
		if _, err := e.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				e.log.Info("engine_stopped", zap.String("reason", "cancelled mid-cycle"))
				return nil
			}
			return err
		}

		delay := nextDelay(start, e.now(), e.interval)
		if delay == 0 {
			if ctx.Err() != nil {
				e.log.Info("engine_stopped")
				return nil
			}
			e.log.Debug("cycle_overrun", zap.Duration("interval", e.interval))
			continue
		}
		timer.Reset(delay)
		select {
		case <-ctx.Done():
			e.log.Info("engine_stopped")
			return nil
		case <-timer.C:
		}
	}
}

// nextDelay is the wait before the next cycle start, zero once the interval
// has already elapsed.
func nextDelay(start, now time.Time, interval time.Duration) time.Duration {
	elapsed := now.Sub(start)
	if interval <= 0 || elapsed >= interval {
		return 0
	}
	return interval - elapsed
}

// RunCycle probes every target once. If ctx is cancelled before all probes
// finish the cycle is abandoned: nothing is appended or dispatched and
// ctx.Err() is returned.
func (e *Engine) RunCycle(ctx context.Context) (domain.CycleReport, error) {
	at := e.now().UTC()
	began := time.Now()

	ctx, span := e.tracer.Start(ctx, "monitor.cycle",
		trace.WithAttributes(attribute.Int("targets", len(e.targets))))
	defer span.End()

	results := make([]domain.Result, len(e.targets))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, tgt := range e.targets {
		if ctx.Err() != nil {
			break
		}
		i, tgt := i, tgt
		g.Go(func() error {
			results[i] = e.probeOne(ctx, tgt)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cycle abandoned")
		e.log.Warn("cycle_abandoned", zap.Time("at", at), zap.Error(err))
		return domain.CycleReport{}, err
	}

	for _, r := range results {
		if prev, ok := e.history.Latest(r.Target); ok && prev.Status != r.Status {
			e.log.Info("status_changed",
				zap.String("target", string(r.Target)),
				zap.String("from", string(prev.Status)),
				zap.String("to", string(r.Status)),
			)
		}
		e.history.Append(domain.HistoryEntry{
			At:        at,
			Target:    r.Target,
			Responded: r.Responded,
			Latency:   r.Latency,
			Status:    r.Status,
		})
	}
	report := domain.CycleReport{At: at, Results: results}

	// committed; a cancellation from here on must not cut dispatch short
	dctx := context.WithoutCancel(ctx)
	failures := e.dispatch(dctx, report)

	took := time.Since(began)
	e.metrics.ObserveCycle(report, took)
	for _, r := range report.Results {
		ms, _ := r.LatencyMS()
		e.log.Info("target_checked",
			zap.String("target", string(r.Target)),
			zap.String("status", string(r.Status)),
			zap.Bool("responded", r.Responded),
			zap.Float64("latency_ms", ms),
		)
	}
	e.log.Info("cycle_complete",
		zap.Time("at", at),
		zap.Int("targets", len(results)),
		zap.Duration("took", took),
		zap.Int("sink_failures", failures),
	)
	span.SetAttributes(attribute.Int("sink_failures", failures))
	return report.Clone(), nil
}

func (e *Engine) probeOne(ctx context.Context, tgt domain.Target) domain.Result {
	pctx, cancel := context.WithTimeout(ctx, e.probeTimeout)
	defer cancel()
	pctx, span := e.tracer.Start(pctx, "monitor.probe",
		trace.WithAttributes(attribute.String("target", string(tgt))))
	defer span.End()

	out := e.prober.Probe(pctx, tgt)
	status := domain.Classify(out, e.threshold)
	span.SetAttributes(attribute.String("status", string(status)))
	if out.Responded {
		span.SetAttributes(attribute.Int64("latency_us", out.Latency.Microseconds()))
	}
	return domain.Result{
		Target:    tgt,
		Responded: out.Responded,
		Latency:   out.Latency,
		Status:    status,
	}
}

// dispatch hands the report to every sink, then every renderer. Failures are
// logged and counted and never stop the fan-out. Each call gets sinkTimeout.
func (e *Engine) dispatch(ctx context.Context, report domain.CycleReport) int {
	failures := 0
	fail := func(err *sink.WriteError) {
		failures++
		e.metrics.SinkFailed(err.Sink)
		e.log.Warn("sink_write_failed", zap.String("sink", err.Sink), zap.Error(err.Err))
	}

	for _, s := range e.sinks {
		if err := e.bounded(ctx, func(ctx context.Context) error { return s.Write(ctx, report.Clone()) }); err != nil {
			fail(&sink.WriteError{Sink: s.Name(), Err: err})
		}
	}
	if len(e.renderers) == 0 {
		return failures
	}
	view := e.history.View()
	for _, r := range e.renderers {
		if err := e.bounded(ctx, func(ctx context.Context) error { return r.Render(ctx, report.Clone(), view) }); err != nil {
			fail(&sink.WriteError{Sink: r.Name(), Err: err})
		}
	}
	return failures
}

// bounded runs fn under sinkTimeout and stops waiting once it expires, even
// when fn ignores its context. An abandoned call keeps running in the
// background with its own copy of the report.
func (e *Engine) bounded(ctx context.Context, fn func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, e.sinkTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- safeCall(func() error { return fn(cctx) }) }()

	select {
	case err := <-done:
		return err
	case <-cctx.Done():
		return fmt.Errorf("gave up after %v: %w", e.sinkTimeout, cctx.Err())
	}
}

type panicError struct{ v any }

func (p panicError) Error() string { return fmt.Sprintf("panic: %v", p.v) }

func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{v: r}
		}
	}()
	return fn()
}
