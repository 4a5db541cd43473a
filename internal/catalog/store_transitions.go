package catalog

import (
	"context"
	"fmt"

	"callboard/internal/services"
)

// ArchiveClip advances a clip's archival version: Done becomes Saved, Saved
// becomes Saved [2], and so on. Only clips holding a result can be archived.
func (s *Store) ArchiveClip(ctx context.Context, id string) (Status, error) {
	clip, err := s.GetClip(ctx, id)
	if err != nil {
		return Status{}, err
	}
	if clip == nil {
		return Status{}, services.Wrap(services.ErrNotFound, "catalog", "archive",
			fmt.Sprintf("clip %s not found", id), nil)
	}
	if clip.Status.Kind != KindDone && !clip.Status.IsSaved() {
		return Status{}, services.Wrap(services.ErrValidation, "catalog", "archive",
			fmt.Sprintf("clip %s is %s, only Done or Saved clips can be archived", id, clip.Status.Display()), nil)
	}

	next := NextArchive(clip.Status)
	if err := s.ApplyClipUpdate(ctx, id, ClipUpdate{Status: &next}); err != nil {
		return Status{}, err
	}
	return next, nil
}
