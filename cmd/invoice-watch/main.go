package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/invoice-watch/internal/common"
	"github.com/joseph-ayodele/invoice-watch/internal/core"
	"github.com/joseph-ayodele/invoice-watch/internal/extract"
	"github.com/joseph-ayodele/invoice-watch/internal/ingest"
	"github.com/joseph-ayodele/invoice-watch/internal/journal"
	"github.com/joseph-ayodele/invoice-watch/internal/ledger"
	"github.com/joseph-ayodele/invoice-watch/internal/metrics"
	"github.com/joseph-ayodele/invoice-watch/internal/parsefields"
	"github.com/joseph-ayodele/invoice-watch/internal/pdftext"
	"github.com/joseph-ayodele/invoice-watch/internal/schedule"
	"github.com/joseph-ayodele/invoice-watch/internal/server"
	"github.com/joseph-ayodele/invoice-watch/internal/services/watch"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		configPath  string
		watchFolder string
		output      string
		processOnly bool
	)
	flag.StringVar(&configPath, "config", "config.json", "path to the JSON or YAML config file")
	flag.StringVar(&configPath, "c", "config.json", "shorthand for -config")
	flag.StringVar(&watchFolder, "watch-folder", "", "folder to watch (overrides config)")
	flag.StringVar(&watchFolder, "w", "", "shorthand for -watch-folder")
	flag.StringVar(&output, "output", "", "output CSV ledger (overrides config)")
	flag.StringVar(&output, "o", "", "shorthand for -output")
	flag.BoolVar(&processOnly, "process-only", false, "process existing files and exit")
	flag.BoolVar(&processOnly, "p", false, "shorthand for -process-only")
	flag.Parse()

	bootLogger := common.NewLogger(os.Stdout, common.LogConfig{Level: "INFO", Format: "text"})
	cfg := common.LoadConfig(configPath, bootLogger)
	if watchFolder != "" {
		cfg.Watch.Folder = watchFolder
	}
	if output != "" {
		cfg.Ledger.OutputCSV = output
	}
	if processOnly {
		cfg.Watch.WatchMode = false
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	if cfg.Watch.RescanSchedule != "" {
		if err := schedule.Validate(cfg.Watch.RescanSchedule); err != nil {
			printError("Error: %v\n", err)
			os.Exit(2)
		}
	}

	logger := common.NewLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("invoice-watch stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("invoice-watch exited cleanly")
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	logger.Info("starting invoice-watch",
		"watch_folder", cfg.Watch.Folder,
		"output_csv", cfg.Ledger.OutputCSV,
		"extensions", cfg.Watch.Extensions,
		"watch_mode", cfg.Watch.WatchMode,
		"engine", cfg.Extract.Engine,
	)

	l := ledger.Open(cfg.Ledger.OutputCSV, logger)

	textExtractor := pdftext.NewExtractor(pdftext.Config{
		Engine:    cfg.Extract.Engine,
		Pdftotext: cfg.Extract.PdftotextPath,
	}, logger)
	fieldExtractor := parsefields.NewExtractor(logger, parsefields.WithMinTextLength(cfg.Extract.MinTextLength))
	readiness := ingest.NewReadiness(ingest.ReadinessConfig{
		MaxWait:  cfg.Readiness.MaxWait,
		Interval: cfg.Readiness.Interval,
	}, logger)

	opts := []core.Option{core.WithExtensions(cfg.Watch.Extensions)}

	if cfg.Journal.DSN != "" {
		store, err := journal.Open(ctx, journal.Config{DSN: cfg.Journal.DSN}, logger)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer store.Close()
		opts = append(opts, core.WithJournal(store))
	}

	var m *metrics.Metrics
	if cfg.Server.MetricsAddr != "" {
		m = metrics.New()
		m.SetLedgerRows(l.Len())
		opts = append(opts, core.WithObserver(m))
	}

	proc := core.NewProcessor(logger,
		extract.NewPDFAdapter(textExtractor),
		extract.NewPatternAdapter(fieldExtractor),
		l,
		readiness,
		opts...,
	)

	var svcOpts []watch.Option
	var hs *server.HealthServer
	if cfg.Server.HealthAddr != "" && cfg.Watch.WatchMode {
		hs = server.NewHealthServer(cfg.Server.HealthAddr, logger)
		svcOpts = append(svcOpts, watch.WithStatusReporter(hs))
	}

	svc := watch.NewService(watch.Config{
		Folder:         cfg.Watch.Folder,
		Extensions:     cfg.Watch.Extensions,
		Debounce:       cfg.Watch.Debounce,
		Workers:        cfg.Queue.Workers,
		ProcessTimeout: cfg.Queue.ProcessTimeout,
		ShutdownGrace:  cfg.Queue.ShutdownGrace,
		RescanSchedule: cfg.Watch.RescanSchedule,
	}, proc, logger, svcOpts...)

	// the listeners live only as long as the watch
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer cancelRun()
		return svc.Run(gctx, cfg.Watch.WatchMode)
	})
	if m != nil {
		g.Go(func() error {
			return m.Serve(gctx, cfg.Server.MetricsAddr, logger)
		})
	}
	if hs != nil {
		g.Go(func() error {
			return hs.Serve(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("ledger summary", "path", l.Path(), "rows", l.Len())
	return nil
}
