// Package poller reconciles outstanding generation tasks against the
// provider on a fixed interval.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"callboard/internal/catalog"
	"callboard/internal/config"
	"callboard/internal/logging"
	"callboard/internal/provider"
	"callboard/internal/services"
)

// TickStats summarizes one reconciliation pass.
type TickStats struct {
	Checked          int
	Completed        int
	Failed           int
	InFlight         int
	Skipped          int
	Zombies          int
	ZombiesCorrected int
}

// Poller owns the polling loop. Ticks are self-rescheduling: the next tick
// is armed only after the current one has fully settled, so slow provider
// responses never pile up concurrent ticks.
type Poller struct {
	store    *catalog.Store
	provider provider.API
	cfg      *config.Config
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}

	// zombieSeen counts consecutive ticks a clip has sat in Generating with
	// no task id. A single observation may just be a dispatch mid-flight.
	zombieSeen map[string]int
}

// New builds a poller.
func New(store *catalog.Store, api provider.API, cfg *config.Config, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Poller{
		store:      store,
		provider:   api,
		cfg:        cfg,
		logger:     logging.WithComponent(logger, "poller"),
		zombieSeen: make(map[string]int),
	}
}

// Start launches the polling loop. It is a no-op when already running.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})

	interval := time.Duration(p.cfg.Poller.Interval) * time.Second
	go p.run(ctx, interval, p.stop, p.done)
	p.logger.Info("polling started", logging.Duration("interval", interval))
}

// Stop halts the loop and waits for an in-progress tick to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	stop, done := p.stop, p.done
	p.mu.Unlock()

	close(stop)
	<-done
	p.logger.Info("polling stopped")
}

func (p *Poller) run(ctx context.Context, interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		stats, err := p.Tick(ctx)
		if err != nil {
			p.logger.Error("tick failed", logging.Error(err))
			continue
		}
		if stats.Checked > 0 || stats.Zombies > 0 || stats.ZombiesCorrected > 0 {
			p.logger.Info("tick complete",
				logging.Int("checked", stats.Checked),
				logging.Int("completed", stats.Completed),
				logging.Int("failed", stats.Failed),
				logging.Int("in_flight", stats.InFlight),
				logging.Int("skipped", stats.Skipped),
				logging.Int("zombies", stats.Zombies),
				logging.Int("zombies_corrected", stats.ZombiesCorrected))
		}
	}
}

// Tick runs one reconciliation pass: poll every Generating clip that has a
// task id, and debounce-correct the ones that do not.
func (p *Poller) Tick(ctx context.Context) (TickStats, error) {
	clips, err := p.store.ClipsByStatus(ctx, catalog.Generating)
	if err != nil {
		return TickStats{}, services.Wrap(services.ErrProviderPoll, "poller", "tick", "list generating clips", err)
	}

	var stats TickStats
	var pending []*catalog.Clip
	seen := make(map[string]struct{})
	for _, clip := range clips {
		if clip.TaskID == "" {
			seen[clip.ID] = struct{}{}
			p.observeZombie(ctx, clip, &stats)
			continue
		}
		pending = append(pending, clip)
	}
	p.forgetResolvedZombies(seen)

	stats.Checked = len(pending)
	if len(pending) == 0 {
		return stats, nil
	}

	var statsMu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.cfg.Poller.Parallelism)
	for _, clip := range pending {
		clip := clip
		group.Go(func() error {
			outcome := p.checkTask(groupCtx, clip)
			statsMu.Lock()
			switch outcome {
			case outcomeCompleted:
				stats.Completed++
			case outcomeFailed:
				stats.Failed++
			case outcomeInFlight:
				stats.InFlight++
			case outcomeSkipped:
				stats.Skipped++
			}
			statsMu.Unlock()
			return nil
		})
	}
	group.Wait()
	return stats, nil
}

type outcome int

const (
	outcomeInFlight outcome = iota
	outcomeCompleted
	outcomeFailed
	outcomeSkipped
)

// checkTask polls one task and applies the terminal transition. Errors are
// logged and skipped; one clip's failure never touches another's state.
func (p *Poller) checkTask(ctx context.Context, clip *catalog.Clip) outcome {
	taskCtx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.Poller.TaskTimeout)*time.Second)
	defer cancel()

	status, err := p.provider.TaskStatus(taskCtx, clip.TaskID)
	if err != nil {
		p.logger.Warn("task status check skipped",
			logging.String("clip_id", clip.ID),
			logging.String("task_id", clip.TaskID),
			logging.Error(err))
		return outcomeSkipped
	}

	switch status.State {
	case provider.StateSucceeded:
		done := catalog.Done
		update := catalog.ClipUpdate{Status: &done}
		if status.ResultURL != "" {
			resultURL := status.ResultURL
			update.ResultURL = &resultURL
		}
		if err := p.store.ApplyClipUpdate(ctx, clip.ID, update); err != nil {
			p.logger.Error("failed to persist completion",
				logging.String("clip_id", clip.ID), logging.Error(err))
			return outcomeSkipped
		}
		p.logger.Info("generation completed",
			logging.String("clip_id", clip.ID),
			logging.String("task_id", clip.TaskID))
		return outcomeCompleted
	case provider.StateFailed:
		failed := catalog.Error
		if err := p.store.ApplyClipUpdate(ctx, clip.ID, catalog.ClipUpdate{Status: &failed}); err != nil {
			p.logger.Error("failed to persist failure",
				logging.String("clip_id", clip.ID), logging.Error(err))
			return outcomeSkipped
		}
		p.logger.Info("generation failed",
			logging.String("clip_id", clip.ID),
			logging.String("task_id", clip.TaskID),
			logging.String("provider_status", status.Raw))
		return outcomeFailed
	default:
		return outcomeInFlight
	}
}

// observeZombie counts a Generating clip with no task id. After the
// configured number of consecutive observations it is corrected to Error;
// the result URL is left alone.
func (p *Poller) observeZombie(ctx context.Context, clip *catalog.Clip, stats *TickStats) {
	p.zombieSeen[clip.ID]++
	if p.zombieSeen[clip.ID] < p.cfg.Poller.ZombieTicks {
		stats.Zombies++
		p.logger.Warn("zombie clip observed",
			logging.String("clip_id", clip.ID),
			logging.Int("consecutive_ticks", p.zombieSeen[clip.ID]))
		return
	}

	delete(p.zombieSeen, clip.ID)
	errStatus := catalog.Error
	if err := p.store.ApplyClipUpdate(ctx, clip.ID, catalog.ClipUpdate{Status: &errStatus}); err != nil {
		p.logger.Error("failed to correct zombie clip",
			logging.String("clip_id", clip.ID), logging.Error(err))
		stats.Zombies++
		return
	}
	stats.ZombiesCorrected++
	p.logger.Warn("zombie clip corrected to error", logging.String("clip_id", clip.ID))
}

// forgetResolvedZombies drops debounce counters for clips that are no longer
// stuck, so a later genuine zombie starts the count fresh.
func (p *Poller) forgetResolvedZombies(seen map[string]struct{}) {
	for id := range p.zombieSeen {
		if _, ok := seen[id]; !ok {
			delete(p.zombieSeen, id)
		}
	}
}
