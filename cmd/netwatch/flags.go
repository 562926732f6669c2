package main

import (
	"flag"
	"io"

	"github.com/hamed0406/netwatch/internal/config"
)

type cliFlags struct {
	fs         *flag.FlagSet
	configPath string
	once       bool

	threshold   int
	interval    int
	targets     string
	timeout     int
	concurrency int
	window      int
	prober      string
	noGateway   bool
	logFile     string
	logFormat   string
	reportFile  string
	httpAddr    string
	logLevel    string
}

func parseFlags(args []string, out io.Writer) (*cliFlags, error) {
	f := &cliFlags{fs: flag.NewFlagSet("netwatch", flag.ContinueOnError)}
	fs := f.fs
	fs.SetOutput(out)
	fs.StringVar(&f.configPath, "config", "netwatch.yaml", "path to YAML config file (missing file uses defaults)")
	fs.BoolVar(&f.once, "once", false, "run a single cycle and exit")
	fs.IntVar(&f.threshold, "threshold", 0, "latency threshold in ms")
	fs.IntVar(&f.interval, "interval", 0, "cycle interval in seconds")
	fs.StringVar(&f.targets, "targets", "", "target list file")
	fs.IntVar(&f.timeout, "probe-timeout", 0, "per-probe timeout in ms")
	fs.IntVar(&f.concurrency, "concurrency", 0, "max concurrent probes")
	fs.IntVar(&f.window, "history-window", 0, "history entries kept per target (0 = unbounded)")
	fs.StringVar(&f.prober, "prober", "", "probe mechanism: exec, icmp or tcp")
	fs.BoolVar(&f.noGateway, "no-gateway", false, "do not auto-detect the default gateway")
	fs.StringVar(&f.logFile, "log-file", "", "durable log path")
	fs.StringVar(&f.logFormat, "log-format", "", "durable log format: csv or jsonl")
	fs.StringVar(&f.reportFile, "report-file", "", "HTML report path (empty string disables)")
	fs.StringVar(&f.httpAddr, "http", "", "HTTP listen address (empty string disables)")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// apply overrides cfg with the flags that were set explicitly on the command line.
func (f *cliFlags) apply(cfg *config.Config) error {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "threshold":
			cfg.LatencyThresholdMS = f.threshold
		case "interval":
			cfg.CycleIntervalSeconds = f.interval
		case "targets":
			cfg.TargetSourcePath = f.targets
		case "probe-timeout":
			cfg.ProbeTimeoutMS = f.timeout
		case "concurrency":
			cfg.MaxConcurrentProbes = f.concurrency
		case "history-window":
			cfg.HistoryWindow = f.window
		case "prober":
			cfg.Prober = f.prober
		case "no-gateway":
			cfg.DetectGateway = !f.noGateway
		case "log-file":
			cfg.LogFile = f.logFile
		case "log-format":
			cfg.LogFormat = f.logFormat
		case "report-file":
			cfg.ReportFile = f.reportFile
		case "http":
			cfg.HTTPAddr = f.httpAddr
		case "log-level":
			cfg.LogLevel = f.logLevel
		}
	})
	return cfg.Validate()
}
