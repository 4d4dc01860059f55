package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"audiodesc/internal/config"
	"audiodesc/internal/logging"
)

// ErrAlreadyRunning is returned when another daemon holds the instance lock.
var ErrAlreadyRunning = errors.New("another audiodesc daemon instance is already running")

// Options configures a Daemon.
type Options struct {
	// ConfigPath enables the level watcher when it names an existing file.
	ConfigPath string
	// LevelVar receives reloaded logging.level values.
	LevelVar *slog.LevelVar
}

// Daemon runs the API server and config watcher and enforces single-instance
// execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *apiServer
	watcher *configWatcher

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Address      string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, svc Workflows, logger *slog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil || svc == nil {
		return nil, errors.New("daemon requires config and workflows")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	server, err := newAPIServer(cfg, svc, logger)
	if err != nil {
		return nil, err
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		server:   server,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	server.daemonStatus = d.Status
	if path := strings.TrimSpace(opts.ConfigPath); path != "" && opts.LevelVar != nil {
		d.watcher = newConfigWatcher(path, opts.LevelVar, logger)
	}
	return d, nil
}

// Run acquires the instance lock and serves until ctx is cancelled or a
// component fails.
func (d *Daemon) Run(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	d.running.Store(true)
	defer func() {
		d.running.Store(false)
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
		d.logger.Info("audiodesc daemon stopped")
	}()

	d.logger.Info("audiodesc daemon started",
		logging.String("lock", d.lockPath),
		logging.String("bind", d.cfg.Server.Bind),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return d.server.serve(groupCtx)
	})
	if d.watcher != nil {
		group.Go(func() error {
			if err := d.watcher.run(groupCtx); err != nil {
				// The server keeps running without live reload.
				logging.WarnWithContext(d.logger, "config watcher unavailable", "config_watch_unavailable",
					logging.Error(err),
				)
			}
			return nil
		})
	}
	return group.Wait()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Address:      d.server.addr(),
		LockFilePath: d.lockPath,
	}
}
