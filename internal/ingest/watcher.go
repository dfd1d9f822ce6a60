package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/invoice-watch/constants"
)

type WatchConfig struct {
	Folder      string              // single directory, not recursive
	AllowedExts map[string]struct{} // from constants.ExtensionSet; nil -> .pdf
	Debounce    time.Duration       // coalesce rapid create/write bursts; 0 emits immediately
	Logger      *slog.Logger
}

// StartWatcher subscribes to create and write events directly inside
// cfg.Folder and emits the paths of files with an allowed extension. Both
// channels are closed once ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Folder == "" {
		logger.Error("watcher start failed: no folder provided")
		return nil, nil, errors.New("no folder provided")
	}
	if cfg.AllowedExts == nil {
		cfg.AllowedExts = constants.ExtensionSet(constants.DefaultExtensions)
	}
	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}
	if err := w.Add(cfg.Folder); err != nil {
		logger.Error("failed to watch folder", "folder", cfg.Folder, "error", err)
		_ = w.Close()
		return nil, nil, err
	}
	logger.Info("watching folder", "folder", cfg.Folder, "debounce", cfg.Debounce)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func(w *fsnotify.Watcher) {
			if err := w.Close(); err != nil {
				logger.Warn("failed to close watcher", "error", err)
			}
		}(w)

		pending := map[string]struct{}{}
		var (
			timer *time.Timer
			fire  <-chan time.Time
		)

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		flush := func() bool {
			for p := range pending {
				delete(pending, p)
				if !emit(p) {
					return false
				}
			}
			return true
		}

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&(fsnotify.Create|fsnotify.Write) == 0 || IsHidden(e.Name) || !AllowedExt(e.Name, cfg.AllowedExts) {
					continue
				}
				logger.Debug("file event", "path", e.Name, "op", e.Op.String())
				if cfg.Debounce <= 0 {
					if !emit(e.Name) {
						return
					}
					continue
				}
				pending[e.Name] = struct{}{}
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(cfg.Debounce)
				fire = timer.C
			case <-fire:
				fire = nil
				if !flush() {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}
