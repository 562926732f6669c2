package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/netwatch/internal/config"
	"github.com/hamed0406/netwatch/internal/domain"
	"github.com/hamed0406/netwatch/internal/gateway"
	"github.com/hamed0406/netwatch/internal/history"
	"github.com/hamed0406/netwatch/internal/httpapi"
	"github.com/hamed0406/netwatch/internal/logging"
	"github.com/hamed0406/netwatch/internal/metrics"
	"github.com/hamed0406/netwatch/internal/probe"
	"github.com/hamed0406/netwatch/internal/registry"
	"github.com/hamed0406/netwatch/internal/report"
	"github.com/hamed0406/netwatch/internal/scheduler"
	"github.com/hamed0406/netwatch/internal/sink"
	"github.com/hamed0406/netwatch/internal/sink/csvlog"
	"github.com/hamed0406/netwatch/internal/sink/postgres"
	"github.com/hamed0406/netwatch/internal/sink/redis"
	"github.com/hamed0406/netwatch/internal/telemetry"
)

func main() {
	f, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	cfg, err := config.Load(f.configPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := f.apply(&cfg); err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, f.once, logger); err != nil {
		logger.Error("netwatch_failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, once bool, logger *zap.Logger) error {
	shutdownTracing, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.OTELService, cfg.OTELInsecure)
	if err != nil {
		logger.Warn("otel_init_failed", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	targets := loadTargets(ctx, cfg, logger)

	prober, err := probe.New(cfg.Prober)
	if err != nil {
		return err
	}

	format, err := csvlog.ParseFormat(cfg.LogFormat)
	if err != nil {
		return err
	}
	logSink, err := csvlog.Open(cfg.LogFile, format)
	if err != nil {
		return err
	}
	sinks := []sink.Sink{logSink}
	closers := []any{logSink}

	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err == nil {
			err = pg.EnsureSchema(ctx)
		}
		if err != nil {
			logger.Warn("postgres_sink_disabled", zap.Error(err))
		} else {
			sinks = append(sinks, pg)
			closers = append(closers, pg)
			logger.Info("postgres_sink_enabled")
			logLastKnown(ctx, logger, pg)
		}
	}
	if cfg.RedisAddr != "" {
		rp, err := redis.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis_sink_disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			sinks = append(sinks, rp)
			closers = append(closers, rp)
			logger.Info("redis_sink_enabled", zap.String("addr", cfg.RedisAddr))
		}
	}

	reportOpts := report.Options{Threshold: cfg.Threshold(), Refresh: cfg.Interval()}
	var renderers []sink.Renderer
	if cfg.ReportFile != "" {
		renderers = append(renderers, report.NewFileRenderer(cfg.ReportFile, reportOpts))
	}

	m := metrics.New()
	store := history.New(cfg.HistoryWindow)

	var srv *http.Server
	if cfg.HTTPAddr != "" {
		live := httpapi.NewLive(logger)
		renderers = append(renderers, live)
		closers = append(closers, live)
		api := httpapi.NewServer(logger, live, targets, reportOpts, m.Handler())
		srv = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.Router(cfg.HTTPRatePerMin, cfg.HTTPBurst),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("api_listen", zap.String("addr", cfg.HTTPAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("api_listen_failed", zap.Error(err))
			}
		}()
	}

	engine := scheduler.New(scheduler.Options{
		Logger:       logger,
		Targets:      targets,
		Prober:       prober,
		History:      store,
		Sinks:        sinks,
		Renderers:    renderers,
		Metrics:      m,
		Threshold:    cfg.Threshold(),
		Interval:     cfg.Interval(),
		ProbeTimeout: cfg.ProbeTimeout(),
		Concurrency:  cfg.MaxConcurrentProbes,
	})

	if once {
		if _, err = engine.RunCycle(ctx); errors.Is(err, context.Canceled) {
			err = nil
		}
	} else {
		err = engine.Run(ctx)
	}

	if srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := srv.Shutdown(sctx); serr != nil {
			logger.Warn("api_shutdown_failed", zap.Error(serr))
		}
	}
	if cerr := sink.CloseAll(closers...); cerr != nil {
		logger.Warn("sink_close_failed", zap.Error(cerr))
	}
	logger.Info("netwatch_stopped")
	return err
}

func loadTargets(ctx context.Context, cfg config.Config, logger *zap.Logger) []domain.Target {
	targets, err := registry.Load(cfg.TargetSourcePath)
	if err != nil {
		logger.Warn("target_source_unusable", zap.String("path", cfg.TargetSourcePath), zap.Error(err))
	}
	if cfg.DetectGateway {
		gctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		gw, err := gateway.Detect(gctx)
		cancel()
		if err != nil {
			logger.Info("gateway_not_detected", zap.Error(err))
		} else {
			targets = registry.Augment(targets, gw)
			logger.Info("gateway_detected", zap.String("gateway", string(gw)))
		}
	}
	ts := make([]string, len(targets))
	for i, t := range targets {
		ts[i] = string(t)
	}
	logger.Info("monitoring_targets", zap.Strings("targets", ts))
	return targets
}

type latestSource interface {
	Latest(ctx context.Context) ([]domain.HistoryEntry, error)
}

// logLastKnown reports the most recent stored status of each target so a
// restart shows where monitoring left off. Errors are logged, not returned.
func logLastKnown(ctx context.Context, logger *zap.Logger, src latestSource) int {
	entries, err := src.Latest(ctx)
	if err != nil {
		logger.Warn("postgres_last_known_failed", zap.Error(err))
		return 0
	}
	for _, e := range entries {
		ms, _ := e.LatencyMS()
		logger.Info("postgres_last_known",
			zap.String("target", string(e.Target)),
			zap.String("status", string(e.Status)),
			zap.Float64("latency_ms", ms),
			zap.Time("at", e.At),
		)
	}
	return len(entries)
}
