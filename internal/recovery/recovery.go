// Package recovery reconciles clips left in Generating by an unclean
// shutdown. It runs once at process start, not on a timer.
package recovery

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"callboard/internal/catalog"
	"callboard/internal/config"
	"callboard/internal/logging"
	"callboard/internal/provider"
	"callboard/internal/services"
)

// legacyTaskPrefix marks a task id stored in the result field by older
// versions that had no task column.
const legacyTaskPrefix = "TASK:"

// Summary reports one recovery scan.
type Summary struct {
	Scanned     int
	Completed   int
	Failed      int
	InFlight    int
	Zombies     int
	LegacyTasks int
	Skipped     int
}

// Service is the boot-time reconciler.
type Service struct {
	store    *catalog.Store
	provider provider.API
	cfg      *config.Config
	logger   *slog.Logger
}

// New builds a recovery service.
func New(store *catalog.Store, api provider.API, cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:    store,
		provider: api,
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "recovery"),
	}
}

// Run scans every Generating clip once. Clips with a task id (including a
// legacy id encoded in the result field) get a single provider check; clips
// with neither are genuine zombies and go straight to Error. Provider
// failures are logged per clip and never halt the scan.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	clips, err := s.store.ClipsByStatus(ctx, catalog.Generating)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrZombie, "recovery", "run", "list generating clips", err)
	}

	summary := Summary{Scanned: len(clips)}
	if len(clips) == 0 {
		return summary, nil
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.cfg.Poller.Parallelism)
	for _, clip := range clips {
		clip := clip
		group.Go(func() error {
			delta := s.recoverClip(groupCtx, clip)
			mu.Lock()
			summary.Completed += delta.Completed
			summary.Failed += delta.Failed
			summary.InFlight += delta.InFlight
			summary.Zombies += delta.Zombies
			summary.LegacyTasks += delta.LegacyTasks
			summary.Skipped += delta.Skipped
			mu.Unlock()
			return nil
		})
	}
	group.Wait()

	s.logger.Info("recovery scan complete",
		logging.Int("scanned", summary.Scanned),
		logging.Int("completed", summary.Completed),
		logging.Int("failed", summary.Failed),
		logging.Int("in_flight", summary.InFlight),
		logging.Int("zombies", summary.Zombies),
		logging.Int("legacy_tasks", summary.LegacyTasks),
		logging.Int("skipped", summary.Skipped))
	return summary, nil
}

func (s *Service) recoverClip(ctx context.Context, clip *catalog.Clip) Summary {
	var delta Summary

	taskID := clip.TaskID
	if taskID == "" {
		if encoded, ok := strings.CutPrefix(clip.ResultURL, legacyTaskPrefix); ok {
			taskID = strings.TrimSpace(encoded)
			delta.LegacyTasks++
			// Promote the encoded id into the task column and clear the
			// marker so the result field only ever holds real URLs again.
			empty := ""
			id := taskID
			if err := s.store.ApplyClipUpdate(ctx, clip.ID, catalog.ClipUpdate{TaskID: &id, ResultURL: &empty}); err != nil {
				s.logger.Error("failed to migrate legacy task id",
					logging.String("clip_id", clip.ID), logging.Error(err))
				delta.Skipped++
				return delta
			}
		}
	}

	if taskID == "" {
		errStatus := catalog.Error
		if err := s.store.ApplyClipUpdate(ctx, clip.ID, catalog.ClipUpdate{Status: &errStatus}); err != nil {
			s.logger.Error("failed to mark zombie clip",
				logging.String("clip_id", clip.ID), logging.Error(err))
			delta.Skipped++
			return delta
		}
		delta.Zombies++
		s.logger.Warn("zombie clip marked as error", logging.String("clip_id", clip.ID))
		return delta
	}

	taskCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Poller.TaskTimeout)*time.Second)
	defer cancel()

	status, err := s.provider.TaskStatus(taskCtx, taskID)
	if err != nil {
		s.logger.Warn("recovery status check skipped",
			logging.String("clip_id", clip.ID),
			logging.String("task_id", taskID),
			logging.Error(err))
		delta.Skipped++
		return delta
	}

	switch status.State {
	case provider.StateSucceeded:
		done := catalog.Done
		update := catalog.ClipUpdate{Status: &done}
		if status.ResultURL != "" {
			resultURL := status.ResultURL
			update.ResultURL = &resultURL
		}
		if err := s.store.ApplyClipUpdate(ctx, clip.ID, update); err != nil {
			s.logger.Error("failed to persist recovered completion",
				logging.String("clip_id", clip.ID), logging.Error(err))
			delta.Skipped++
			return delta
		}
		delta.Completed++
	case provider.StateFailed:
		failed := catalog.Error
		if err := s.store.ApplyClipUpdate(ctx, clip.ID, catalog.ClipUpdate{Status: &failed}); err != nil {
			s.logger.Error("failed to persist recovered failure",
				logging.String("clip_id", clip.ID), logging.Error(err))
			delta.Skipped++
			return delta
		}
		delta.Failed++
	default:
		delta.InFlight++
	}
	return delta
}
