package authn

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads r from path whenever the file changes, until ctx is
// cancelled. The parent directory is watched so that editors replacing the
// file by rename are picked up too. A broken file is logged and the previous
// tokens stay active.
func Watch(ctx context.Context, r *Registry, path string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("tokens watcher: started", slog.String("path", abs))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(reloadDebounce)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("tokens watcher: stopped")
			return nil

		case <-reloadCh:
			if err := r.LoadFile(abs); err != nil {
				logger.Warn("tokens watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Info("tokens watcher: reloaded", slog.Int("tokens", r.Len()))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("tokens watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
