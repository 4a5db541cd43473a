// Package daemon coordinates the long-lived services: boot recovery, the
// polling loop, and the local JSON API. A file lock enforces a single
// instance per data directory.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"callboard/internal/catalog"
	"callboard/internal/config"
	"callboard/internal/dispatch"
	"callboard/internal/logging"
	"callboard/internal/poller"
	"callboard/internal/provider"
	"callboard/internal/recovery"
)

type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *catalog.Store
	dispatcher *dispatch.Dispatcher
	poller     *poller.Poller
	recovery   *recovery.Service

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status is the daemon's runtime snapshot.
type Status struct {
	Running      bool
	StatusCounts map[string]int
	DBPath       string
	LockFilePath string
}

// New wires the daemon's services around a shared store and provider client.
func New(cfg *config.Config, store *catalog.Store, api provider.API, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || api == nil {
		return nil, errors.New("daemon requires config, store, and provider")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "callboard.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		dispatcher: dispatch.New(store, api, cfg, logger),
		poller:     poller.New(store, api, cfg, logger),
		recovery:   recovery.New(store, api, cfg, logger),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the instance lock, reconciles stuck clips once, then
// launches the poller and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another callboard daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	summary, err := d.recovery.Run(runCtx)
	if err != nil {
		d.logger.Error("boot recovery failed", logging.Error(err))
	} else if summary.Scanned > 0 {
		d.logger.Info("boot recovery reconciled clips",
			logging.Int("scanned", summary.Scanned),
			logging.Int("zombies", summary.Zombies))
	}

	d.poller.Start(runCtx)
	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			d.poller.Stop()
			cancel()
			d.cancel = nil
			if unlockErr := d.lock.Unlock(); unlockErr != nil {
				d.logger.Warn("failed to release daemon lock", logging.Error(unlockErr))
			}
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("callboard daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts background services and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.poller.Stop()
	if d.api != nil {
		d.api.stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("callboard daemon stopped")
}

// Close stops the daemon and releases the store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Dispatch submits one clip for generation.
func (d *Daemon) Dispatch(ctx context.Context, clipID string, opts dispatch.Options) (dispatch.Result, error) {
	return d.dispatcher.DispatchWith(ctx, clipID, opts)
}

// Poll runs one reconciliation tick on demand.
func (d *Daemon) Poll(ctx context.Context) (poller.TickStats, error) {
	return d.poller.Tick(ctx)
}

// Recover runs a recovery scan on demand.
func (d *Daemon) Recover(ctx context.Context) (recovery.Summary, error) {
	return d.recovery.Run(ctx)
}

// Archive advances a clip's archival version.
func (d *Daemon) Archive(ctx context.Context, clipID string) (catalog.Status, error) {
	return d.store.ArchiveClip(ctx, clipID)
}

// Clips lists clips, optionally filtered by status.
func (d *Daemon) Clips(ctx context.Context, status *catalog.Status) ([]*catalog.Clip, error) {
	if status == nil {
		return d.store.ListClips(ctx)
	}
	return d.store.ClipsByStatus(ctx, *status)
}

// InvalidateLibrary drops the dispatcher's cached lookup for a series.
func (d *Daemon) InvalidateLibrary(seriesID string) {
	d.dispatcher.InvalidateLibrary(seriesID)
}

// APIAddr returns the bound API address, empty until Start or when the API
// is disabled.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status reports the daemon's runtime state.
func (d *Daemon) Status(ctx context.Context) Status {
	counts, err := d.store.StatusCounts(ctx)
	if err != nil {
		d.logger.Warn("failed to read status counts", logging.Error(err))
	}
	return Status{
		Running:      d.running.Load(),
		StatusCounts: counts,
		DBPath:       d.store.Path(),
		LockFilePath: d.lockPath,
	}
}
