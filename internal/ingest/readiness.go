package ingest

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// ReadinessConfig bounds the size-polling window.
type ReadinessConfig struct {
	MaxWait  time.Duration // total window; default 5s
	Interval time.Duration // time between samples; default 500ms
}

// Readiness decides whether a file has finished being written by watching
// its size settle. It is a heuristic: a writer that stalls across the end of
// the window can still be caught mid-write.
type Readiness struct {
	cfg    ReadinessConfig
	logger *slog.Logger

	// sizeOf and sleep are swapped in tests.
	sizeOf func(path string) (int64, error)
	sleep  func(ctx context.Context, d time.Duration) bool
}

func NewReadiness(cfg ReadinessConfig, logger *slog.Logger) *Readiness {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 5 * time.Second
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	if cfg.Interval > cfg.MaxWait {
		cfg.Interval = cfg.MaxWait
	}
	return &Readiness{cfg: cfg, logger: logger, sizeOf: fileSize, sleep: sleepCtx}
}

// IsReady samples the size of path every interval until the window is used
// up, then reports whether the last two samples agree on a non-zero size. A
// writer that pauses and resumes inside the window is still caught. Any stat
// error, including the file vanishing, means not ready.
func (r *Readiness) IsReady(ctx context.Context, path string) bool {
	cur, err := r.sizeOf(path)
	if err != nil {
		r.logger.Debug("readiness stat failed", "path", path, "error", err)
		return false
	}
	prev := int64(-1)
	for waited := time.Duration(0); waited < r.cfg.MaxWait; waited += r.cfg.Interval {
		if !r.sleep(ctx, r.cfg.Interval) {
			return false
		}
		prev = cur
		if cur, err = r.sizeOf(path); err != nil {
			r.logger.Debug("readiness stat failed", "path", path, "error", err)
			return false
		}
	}
	if cur != prev || cur == 0 {
		r.logger.Debug("file size did not settle", "path", path, "last_size", cur, "previous_size", prev, "window", r.cfg.MaxWait)
		return false
	}
	return true
}

func fileSize(path string) (int64, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
