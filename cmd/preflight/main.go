// cmd/preflight/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/hamed0406/netwatch/internal/config"
	"github.com/hamed0406/netwatch/internal/gateway"
	"github.com/hamed0406/netwatch/internal/registry"
)

func main() {
	configPath := flag.String("config", "netwatch.yaml", "path to YAML config file")
	flag.Parse()

	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(err.Error())
	}
	ok(fmt.Sprintf("config valid (threshold=%dms interval=%ds probe_timeout=%dms prober=%s)",
		cfg.LatencyThresholdMS, cfg.CycleIntervalSeconds, cfg.ProbeTimeoutMS, cfg.Prober))

	targets, err := registry.Load(cfg.TargetSourcePath)
	var cerr *registry.ConfigurationError
	switch {
	case errors.As(err, &cerr):
		warn(cerr.Error() + " (monitor will run with gateway only or no targets)")
	case err != nil:
		fail(err.Error())
	default:
		ok(fmt.Sprintf("%d targets in %s", len(targets), cfg.TargetSourcePath))
	}

	if cfg.DetectGateway {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		gw, err := gateway.Detect(ctx)
		cancel()
		if err != nil {
			warn("default gateway not detected: " + err.Error())
		} else {
			ok("default gateway " + string(gw))
		}
	}

	if cfg.Prober == "exec" {
		if p, err := exec.LookPath("ping"); err != nil {
			fail("prober=exec but no ping binary on PATH")
		} else {
			ok("ping binary " + p)
		}
	}

	if cfg.HTTPAddr == "" {
		warn("HTTP_ADDR empty; live view and /metrics disabled.")
	} else {
		ok("HTTP_ADDR=" + cfg.HTTPAddr)
	}
	if cfg.ReportFile == "" {
		warn("REPORT_FILE empty; no HTML snapshot will be written.")
	}
	if cfg.DatabaseURL == "" {
		warn("DATABASE_URL empty; Postgres sink disabled.")
	} else {
		ok("DATABASE_URL present")
	}
	if cfg.RedisAddr != "" {
		ok("REDIS_ADDR=" + cfg.RedisAddr)
	}

	ok("preflight passed")
}
