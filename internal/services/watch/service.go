// Package watch drives the per-file routine: a sequential backfill of the
// folder, then a live watch that feeds new files to a worker queue.
package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-watch/constants"
	"github.com/joseph-ayodele/invoice-watch/internal/async"
	"github.com/joseph-ayodele/invoice-watch/internal/common"
	"github.com/joseph-ayodele/invoice-watch/internal/core"
	"github.com/joseph-ayodele/invoice-watch/internal/ingest"
	"github.com/joseph-ayodele/invoice-watch/internal/schedule"
)

const (
	TriggerBackfill = "backfill"
	TriggerWatch    = "watch"
	TriggerRescan   = "rescan"
)

type Config struct {
	Folder         string
	Extensions     []string
	Debounce       time.Duration
	Workers        int
	ProcessTimeout time.Duration
	ShutdownGrace  time.Duration
	RescanSchedule string // empty disables
}

// StatusReporter is told when the live watch starts and stops serving.
type StatusReporter interface {
	SetServing(serving bool)
}

// Service owns the backfill and live-watch phases.
type Service struct {
	cfg    Config
	proc   async.FileProcessor
	exts   map[string]struct{}
	status StatusReporter
	logger *slog.Logger
}

type Option func(*Service)

// WithStatusReporter wires a health endpoint into the live watch.
func WithStatusReporter(r StatusReporter) Option {
	return func(s *Service) { s.status = r }
}

func NewService(cfg Config, proc async.FileProcessor, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 30 * time.Second
	}
	s := &Service{
		cfg:    cfg,
		proc:   proc,
		exts:   constants.ExtensionSet(cfg.Extensions),
		logger: logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// BackfillResult tallies outcomes of one pass over the folder.
type BackfillResult struct {
	Stats  ingest.DirStats
	Counts map[core.Outcome]int
}

// Backfill processes every matching file already in the folder, in name
// order, on the calling goroutine. The folder is created if absent. Only
// folder-level problems are returned; per-file failures are logged.
func (s *Service) Backfill(ctx context.Context) (BackfillResult, error) {
	return s.scan(ctx, TriggerBackfill)
}

func (s *Service) scan(ctx context.Context, trigger string) (BackfillResult, error) {
	res := BackfillResult{Counts: map[core.Outcome]int{}}

	created, err := ingest.EnsureDir(s.cfg.Folder)
	if err != nil {
		s.logger.Error("failed to create watch folder", "folder", s.cfg.Folder, "error", err)
		return res, common.NewAppError("WATCH_ERROR", "create watch folder", err)
	}
	if created {
		s.logger.Info("created watch folder", "folder", s.cfg.Folder)
	}

	paths, stats, err := ingest.ListCandidates(s.cfg.Folder, s.exts)
	res.Stats = stats
	if err != nil {
		s.logger.Error("failed to list watch folder", "folder", s.cfg.Folder, "error", err)
		return res, common.NewAppError("WATCH_ERROR", "list watch folder", err)
	}
	s.logger.Info("scanning folder", "folder", s.cfg.Folder, "trigger", trigger, "candidates", len(paths))

	ctx = common.WithTrigger(ctx, trigger)
	for _, p := range paths {
		if ctx.Err() != nil {
			s.logger.Warn("scan interrupted", "trigger", trigger, "remaining", len(paths)-res.total())
			break
		}
		outcome, err := s.proc.ProcessFile(ctx, p)
		if err != nil {
			s.logger.Warn("file not recorded", "path", p, "outcome", outcome, "error", err)
		}
		res.Counts[outcome]++
	}

	s.logger.Info("scan complete",
		"trigger", trigger,
		"recorded", res.Counts[core.OutcomeRecorded],
		"skipped", res.Counts[core.OutcomeSkipped],
		"not_ready", res.Counts[core.OutcomeNotReady],
		"failed", res.Counts[core.OutcomeFailed],
	)
	return res, nil
}

func (r BackfillResult) total() int {
	n := 0
	for _, c := range r.Counts {
		n += c
	}
	return n
}

// Watch subscribes to the folder and queues every created or written file
// until ctx is done. It then stops the subscription and drains the queue
// within the shutdown grace period.
func (s *Service) Watch(ctx context.Context) error {
	// the subscription must end on every return path, not only when ctx does
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()

	events, errs, err := ingest.StartWatcher(watchCtx, ingest.WatchConfig{
		Folder:      s.cfg.Folder,
		AllowedExts: s.exts,
		Debounce:    s.cfg.Debounce,
		Logger:      s.logger,
	})
	if err != nil {
		return common.NewAppError("WATCH_ERROR", "start watcher", err)
	}

	queue := async.NewProcessorQueue(s.proc, s.logger,
		async.WithWorkers(s.cfg.Workers),
		async.WithProcessTimeout(s.cfg.ProcessTimeout),
	)

	var sched *schedule.Scheduler
	if s.cfg.RescanSchedule != "" {
		sched = schedule.NewScheduler(s.cfg.RescanSchedule, func(rctx context.Context) {
			s.rescan(rctx, queue)
		}, 0, s.logger)
		if err := sched.Start(); err != nil {
			s.shutdown(queue, nil)
			return err
		}
	}

	if s.status != nil {
		s.status.SetServing(true)
	}
	s.logger.Info("live watch started", "folder", s.cfg.Folder, "workers", s.cfg.Workers)

	for events != nil {
		select {
		case <-ctx.Done():
			events = nil
		case p, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := queue.Enqueue(ctx, async.Job{Path: p, Trigger: TriggerWatch}); err != nil {
				s.logger.Warn("failed to queue file", "path", p, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Warn("watcher reported an error", "error", err)
		}
	}

	s.logger.Info("stopping live watch")
	s.shutdown(queue, sched)
	return nil
}

func (s *Service) shutdown(queue *async.ProcessorQueue, sched *schedule.Scheduler) {
	if s.status != nil {
		s.status.SetServing(false)
	}
	if sched != nil {
		<-sched.Stop().Done()
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace)
	defer cancel()
	queue.Shutdown(ctx)
}

// rescan lists the folder again and queues every candidate; files already
// in the ledger are skipped cheaply by the processor.
func (s *Service) rescan(ctx context.Context, queue async.Queue) {
	paths, _, err := ingest.ListCandidates(s.cfg.Folder, s.exts)
	if err != nil {
		s.logger.Error("rescan failed", "folder", s.cfg.Folder, "error", err)
		return
	}
	queued := 0
	for _, p := range paths {
		if err := queue.Enqueue(ctx, async.Job{Path: p, Trigger: TriggerRescan}); err != nil {
			s.logger.Debug("rescan stopped queueing", "error", err)
			break
		}
		queued++
	}
	s.logger.Info("rescan queued files", "count", queued)
}

// Run performs the backfill and, when watchMode is set, the live watch.
func (s *Service) Run(ctx context.Context, watchMode bool) error {
	if _, err := s.Backfill(ctx); err != nil {
		return err
	}
	if !watchMode || ctx.Err() != nil {
		return nil
	}
	return s.Watch(ctx)
}
