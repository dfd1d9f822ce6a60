// Package schedule runs the periodic folder rescan using robfig/cron.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/joseph-ayodele/invoice-watch/internal/common"
)

// Job is invoked on every tick.
type Job func(ctx context.Context)

// Scheduler triggers a rescan on a standard 5-field cron expression.
type Scheduler struct {
	cron    *cron.Cron
	expr    string
	job     Job
	timeout time.Duration
	logger  *slog.Logger
}

// Validate checks that expr is a standard cron expression.
func Validate(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return common.NewAppError("CONFIG_ERROR", fmt.Sprintf("rescan_schedule %q", expr), fmt.Errorf("%w: %v", common.ErrConfig, err))
	}
	return nil
}

// NewScheduler creates a scheduler. A tick that fires while the previous
// run is still going is skipped.
func NewScheduler(expr string, job Job, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	cronLogger := cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	return &Scheduler{cron: c, expr: expr, job: job, timeout: timeout, logger: logger}
}

// Start registers the rescan and begins ticking.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.expr, s.run); err != nil {
		return common.NewAppError("CONFIG_ERROR", fmt.Sprintf("rescan_schedule %q", s.expr), fmt.Errorf("%w: %v", common.ErrConfig, err))
	}
	s.cron.Start()
	s.logger.Info("rescan scheduler started",
		slog.String("schedule", s.expr),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop halts the ticker; the returned context is done once a running job finishes.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("rescan scheduler stopping")
	return s.cron.Stop()
}

// RunNow triggers one rescan synchronously.
func (s *Scheduler) RunNow() {
	s.run()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	start := time.Now()
	s.logger.Debug("rescan started")
	s.job(ctx)
	s.logger.Debug("rescan finished", slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
}
