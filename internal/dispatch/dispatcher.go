// Package dispatch orchestrates generation submissions: resolve references,
// build the model-family payload, submit, and persist the outcome.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"callboard/internal/catalog"
	"callboard/internal/config"
	"callboard/internal/logging"
	"callboard/internal/payload"
	"callboard/internal/provider"
	"callboard/internal/refs"
	"callboard/internal/services"
)

const (
	libraryCacheTTL   = time.Minute
	libraryCacheSweep = 5 * time.Minute
)

// Result reports a dispatch outcome.
type Result struct {
	ClipID    string
	Status    catalog.Status
	TaskID    string
	ResultURL string
}

// Options adjust a single dispatch.
type Options struct {
	// Mode controls multi-image asset expansion; the default takes the
	// first URL per asset.
	Mode refs.Mode
	// StyleImageIndex places the style image at a zero-based position in
	// the numbered sequence for families that support it.
	StyleImageIndex *int
	// ModelOverride forces a model id for this dispatch only.
	ModelOverride string
}

// Dispatcher submits clips to the generation provider.
type Dispatcher struct {
	store    *catalog.Store
	provider provider.API
	cfg      *config.Config
	logger   *slog.Logger
	// library caches per-series lookup funcs so batch dispatches do not
	// reload the asset table per clip.
	library *gocache.Cache
}

// New builds a dispatcher.
func New(store *catalog.Store, api provider.API, cfg *config.Config, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{
		store:    store,
		provider: api,
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "dispatcher"),
		library:  gocache.New(libraryCacheTTL, libraryCacheSweep),
	}
}

// Dispatch submits one clip with default options.
func (d *Dispatcher) Dispatch(ctx context.Context, clipID string) (Result, error) {
	return d.DispatchWith(ctx, clipID, Options{})
}

// DispatchWith submits one clip.
//
// Validation failures reject before any provider call and mutate nothing.
// A failed submission moves the clip to Error and clears any stale task id,
// but preserves the previous result URL so a failed regeneration does not
// destroy earlier work.
func (d *Dispatcher) DispatchWith(ctx context.Context, clipID string, opts Options) (Result, error) {
	clip, err := d.store.GetClip(ctx, clipID)
	if err != nil {
		return Result{}, services.Wrap(services.ErrSubmission, "dispatcher", "dispatch", "load clip", err)
	}
	if clip == nil {
		return Result{}, services.Wrap(services.ErrNotFound, "dispatcher", "dispatch",
			fmt.Sprintf("clip %s not found", clipID), nil)
	}

	episode, err := d.store.GetEpisode(ctx, clip.EpisodeID)
	if err != nil {
		return Result{}, services.Wrap(services.ErrSubmission, "dispatcher", "dispatch", "load episode", err)
	}
	if episode == nil {
		return Result{}, services.Wrap(services.ErrValidation, "dispatcher", "dispatch",
			fmt.Sprintf("clip %s references missing episode %s", clip.ID, clip.EpisodeID), nil)
	}

	lookup, err := d.libraryLookup(ctx, episode.SeriesID)
	if err != nil {
		return Result{}, services.Wrap(services.ErrSubmission, "dispatcher", "dispatch", "load series library", err)
	}

	resolution := refs.ResolveImages(clip, lookup, opts.Mode)
	model := d.modelFor(clip, episode, opts)
	body := payload.ForModel(model).Build(d.generationContext(clip, resolution, lookup, model, opts))

	// Persist the refreshed derived reference set before submitting so the
	// stored clip reflects what the provider was actually given.
	fullRefs := resolution.FullRefs
	if err := d.store.ApplyClipUpdate(ctx, clip.ID, catalog.ClipUpdate{
		FullRefURLs: &fullRefs,
		Model:       &model,
	}); err != nil {
		return Result{}, services.Wrap(services.ErrSubmission, "dispatcher", "dispatch", "persist resolved refs", err)
	}

	created, err := d.provider.CreateTask(ctx, body)
	if err != nil {
		d.logger.Error("task submission failed",
			logging.String("clip_id", clip.ID),
			logging.String("model", model),
			logging.Error(err))
		status := catalog.Error
		empty := ""
		if updateErr := d.store.ApplyClipUpdate(ctx, clip.ID, catalog.ClipUpdate{
			Status: &status,
			TaskID: &empty,
		}); updateErr != nil {
			d.logger.Error("failed to record submission failure",
				logging.String("clip_id", clip.ID),
				logging.Error(updateErr))
		}
		return Result{ClipID: clip.ID, Status: catalog.Error}, err
	}

	if created.ResultURL != "" {
		status := catalog.Done
		empty := ""
		resultURL := created.ResultURL
		if err := d.store.ApplyClipUpdate(ctx, clip.ID, catalog.ClipUpdate{
			Status:    &status,
			TaskID:    &empty,
			ResultURL: &resultURL,
		}); err != nil {
			return Result{}, services.Wrap(services.ErrSubmission, "dispatcher", "dispatch", "persist inline result", err)
		}
		d.logger.Info("generation completed inline",
			logging.String("clip_id", clip.ID),
			logging.String("model", model))
		return Result{ClipID: clip.ID, Status: catalog.Done, ResultURL: created.ResultURL}, nil
	}

	status := catalog.Generating
	taskID := created.TaskID
	if err := d.store.ApplyClipUpdate(ctx, clip.ID, catalog.ClipUpdate{
		Status: &status,
		TaskID: &taskID,
	}); err != nil {
		return Result{}, services.Wrap(services.ErrSubmission, "dispatcher", "dispatch", "persist task id", err)
	}
	d.logger.Info("generation task submitted",
		logging.String("clip_id", clip.ID),
		logging.String("task_id", created.TaskID),
		logging.String("model", model))
	return Result{ClipID: clip.ID, Status: catalog.Generating, TaskID: created.TaskID}, nil
}

// InvalidateLibrary drops the cached lookup for a series after its assets
// change.
func (d *Dispatcher) InvalidateLibrary(seriesID string) {
	d.library.Delete(seriesID)
}

func (d *Dispatcher) libraryLookup(ctx context.Context, seriesID string) (refs.LookupFunc, error) {
	if cached, ok := d.library.Get(seriesID); ok {
		return cached.(refs.LookupFunc), nil
	}
	items, err := d.store.StudioItemsBySeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	lookup := refs.LibraryLookup(items)
	d.library.SetDefault(seriesID, lookup)
	return lookup, nil
}

func (d *Dispatcher) modelFor(clip *catalog.Clip, episode *catalog.Episode, opts Options) string {
	for _, candidate := range []string{opts.ModelOverride, clip.Model, episode.DefaultModel} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return d.cfg.Generation.DefaultModel
}

func (d *Dispatcher) generationContext(clip *catalog.Clip, resolution refs.Resolution, lookup refs.LookupFunc, model string, opts Options) payload.GenerationContext {
	var styleImage string
	if name := strings.TrimSpace(clip.Style); name != "" {
		if stored, ok := lookup(name); ok {
			if urls := refs.SplitList(stored); len(urls) > 0 {
				styleImage = urls[0]
			}
		}
	}

	negative := clip.NegativePrompt
	if strings.TrimSpace(negative) == "" {
		negative = d.cfg.Generation.NegativePrompt
	}

	return payload.GenerationContext{
		CharacterImages: resolution.CharacterImageGroups,
		LocationImages:  resolution.LocationImageURLs,
		ContentImages:   resolution.ExplicitURLs(),
		StyleImage:      styleImage,
		StyleName:       clip.Style,
		StyleStrength:   clip.StyleStrength,
		StyleImageIndex: opts.StyleImageIndex,
		Model:           model,
		Action:          clip.Action,
		Dialog:          clip.Dialog,
		Camera:          clip.Camera,
		NegativePrompt:  negative,
	}
}
