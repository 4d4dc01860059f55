package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"audiodesc/internal/config"
	"audiodesc/internal/logging"
)

// configWatcher applies logging.level changes from the config file to the
// live logger. Every other setting needs a restart.
type configWatcher struct {
	path     string
	levelVar *slog.LevelVar
	logger   *slog.Logger
	load     func(string) (*config.Config, string, bool, error)
}

func newConfigWatcher(path string, levelVar *slog.LevelVar, logger *slog.Logger) *configWatcher {
	return &configWatcher{
		path:     path,
		levelVar: levelVar,
		logger:   logging.NewComponentLogger(logger, "config-watcher"),
		load:     config.Load,
	}
}

// run blocks until ctx is cancelled. The parent directory is watched so that
// editors which replace the file on save are still observed.
func (w *configWatcher) run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch config dir %s: %w", dir, err)
	}
	w.logger.Info("watching config for level changes", logging.String("path", w.path))

	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "config watcher error", "config_watch_error",
				logging.Error(err),
			)
		}
	}
}

func (w *configWatcher) reload() {
	cfg, _, _, err := w.load(w.path)
	if err != nil {
		logging.WarnWithContext(w.logger, "config reload failed; keeping current settings", "config_reload_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the config file; the daemon keeps running with the previous level"),
		)
		return
	}
	next := logging.ParseLevel(cfg.Logging.Level)
	if w.levelVar == nil || w.levelVar.Level() == next {
		return
	}
	previous := w.levelVar.Level()
	w.levelVar.Set(next)
	w.logger.Info("log level changed",
		logging.String("from", previous.String()),
		logging.String("to", next.String()),
	)
}
