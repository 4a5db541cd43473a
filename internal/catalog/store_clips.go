package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const clipColumns = `id, episode_id, scene, title, characters, location, style,
    style_strength, camera, action, dialog, explicit_ref_urls, full_ref_urls,
    status, task_id, result_url, model, negative_prompt, created_at, updated_at`

// CreateClip inserts a new clip, assigning an identifier and timestamps.
func (s *Store) CreateClip(ctx context.Context, clip *Clip) (*Clip, error) {
	if clip == nil {
		return nil, errors.New("clip is nil")
	}
	if strings.TrimSpace(clip.EpisodeID) == "" {
		return nil, errors.New("clip episode id required")
	}
	now := time.Now().UTC()
	inserted := *clip
	inserted.ID = uuid.NewString()
	inserted.CreatedAt = now
	inserted.UpdatedAt = now

	_, err := s.execWithRetry(ctx,
		`INSERT INTO clips (`+clipColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inserted.ID,
		inserted.EpisodeID,
		nullableString(inserted.Scene),
		nullableString(inserted.Title),
		nullableString(inserted.Characters),
		nullableString(inserted.Location),
		nullableString(inserted.Style),
		inserted.StyleStrength,
		nullableString(inserted.Camera),
		nullableString(inserted.Action),
		nullableString(inserted.Dialog),
		nullableStringPtr(inserted.ExplicitRefURLs),
		nullableString(inserted.FullRefURLs),
		inserted.Status.String(),
		nullableString(inserted.TaskID),
		nullableString(inserted.ResultURL),
		nullableString(inserted.Model),
		nullableString(inserted.NegativePrompt),
		timestamp(now),
		timestamp(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert clip: %w", err)
	}
	return &inserted, nil
}

// GetClip fetches a clip by identifier; nil when absent.
func (s *Store) GetClip(ctx context.Context, id string) (*Clip, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clipColumns+` FROM clips WHERE id = ?`, id)
	clip, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get clip: %w", err)
	}
	return clip, nil
}

// ClipsByStatus returns clips matching a status ordered by creation time.
func (s *Store) ClipsByStatus(ctx context.Context, status Status) ([]*Clip, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+clipColumns+` FROM clips WHERE status = ? ORDER BY created_at`,
		status.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query clips by status: %w", err)
	}
	defer rows.Close()
	return collectClips(rows)
}

// ClipsByEpisode returns an episode's clips ordered by creation time.
func (s *Store) ClipsByEpisode(ctx context.Context, episodeID string) ([]*Clip, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+clipColumns+` FROM clips WHERE episode_id = ? ORDER BY created_at`,
		episodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("query clips by episode: %w", err)
	}
	defer rows.Close()
	return collectClips(rows)
}

// ListClips returns all clips ordered by creation time.
func (s *Store) ListClips(ctx context.Context) ([]*Clip, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+clipColumns+` FROM clips ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()
	return collectClips(rows)
}

// UpdateClip persists all mutable fields of an existing clip.
func (s *Store) UpdateClip(ctx context.Context, clip *Clip) error {
	if clip == nil {
		return errors.New("clip is nil")
	}
	clip.UpdatedAt = time.Now().UTC()
	_, err := s.execWithRetry(ctx,
		`UPDATE clips
         SET scene = ?, title = ?, characters = ?, location = ?, style = ?,
             style_strength = ?, camera = ?, action = ?, dialog = ?,
             explicit_ref_urls = ?, full_ref_urls = ?, status = ?, task_id = ?,
             result_url = ?, model = ?, negative_prompt = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(clip.Scene),
		nullableString(clip.Title),
		nullableString(clip.Characters),
		nullableString(clip.Location),
		nullableString(clip.Style),
		clip.StyleStrength,
		nullableString(clip.Camera),
		nullableString(clip.Action),
		nullableString(clip.Dialog),
		nullableStringPtr(clip.ExplicitRefURLs),
		nullableString(clip.FullRefURLs),
		clip.Status.String(),
		nullableString(clip.TaskID),
		nullableString(clip.ResultURL),
		nullableString(clip.Model),
		nullableString(clip.NegativePrompt),
		timestamp(clip.UpdatedAt),
		clip.ID,
	)
	if err != nil {
		return fmt.Errorf("update clip: %w", err)
	}
	return nil
}

// ClipUpdate describes a partial update. Nil fields are left untouched;
// a pointer to the empty string clears the column.
type ClipUpdate struct {
	Status      *Status
	TaskID      *string
	ResultURL   *string
	FullRefURLs *string
	Model       *string
}

// ApplyClipUpdate atomically updates the provided fields of a single clip.
func (s *Store) ApplyClipUpdate(ctx context.Context, id string, update ClipUpdate) error {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)

	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, update.Status.String())
	}
	if update.TaskID != nil {
		sets = append(sets, "task_id = ?")
		args = append(args, nullableString(*update.TaskID))
	}
	if update.ResultURL != nil {
		sets = append(sets, "result_url = ?")
		args = append(args, nullableString(*update.ResultURL))
	}
	if update.FullRefURLs != nil {
		sets = append(sets, "full_ref_urls = ?")
		args = append(args, nullableString(*update.FullRefURLs))
	}
	if update.Model != nil {
		sets = append(sets, "model = ?")
		args = append(args, nullableString(*update.Model))
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, timestamp(time.Now().UTC()))
	args = append(args, id)

	res, err := s.execWithRetry(ctx,
		`UPDATE clips SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("apply clip update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("clip %s not found", id)
	}
	return nil
}

// DeleteClip removes a clip by identifier.
func (s *Store) DeleteClip(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM clips WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete clip: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// StatusCounts returns a count of clips grouped by serialized status.
func (s *Store) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM clips GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func collectClips(rows *sql.Rows) ([]*Clip, error) {
	var clips []*Clip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	return clips, rows.Err()
}

func scanClip(scanner rowScanner) (*Clip, error) {
	var (
		clip        Clip
		scene       sql.NullString
		title       sql.NullString
		characters  sql.NullString
		location    sql.NullString
		style       sql.NullString
		camera      sql.NullString
		action      sql.NullString
		dialog      sql.NullString
		explicitRef sql.NullString
		fullRef     sql.NullString
		statusRaw   string
		taskID      sql.NullString
		resultURL   sql.NullString
		model       sql.NullString
		negative    sql.NullString
		createdRaw  string
		updatedRaw  string
	)

	if err := scanner.Scan(
		&clip.ID,
		&clip.EpisodeID,
		&scene,
		&title,
		&characters,
		&location,
		&style,
		&clip.StyleStrength,
		&camera,
		&action,
		&dialog,
		&explicitRef,
		&fullRef,
		&statusRaw,
		&taskID,
		&resultURL,
		&model,
		&negative,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	clip.Scene = scene.String
	clip.Title = title.String
	clip.Characters = characters.String
	clip.Location = location.String
	clip.Style = style.String
	clip.Camera = camera.String
	clip.Action = action.String
	clip.Dialog = dialog.String
	if explicitRef.Valid {
		value := explicitRef.String
		clip.ExplicitRefURLs = &value
	}
	clip.FullRefURLs = fullRef.String
	clip.TaskID = taskID.String
	clip.ResultURL = resultURL.String
	clip.Model = model.String
	clip.NegativePrompt = negative.String

	status, err := scanStatus(statusRaw)
	if err != nil {
		return nil, fmt.Errorf("clip %s: %w", clip.ID, err)
	}
	clip.Status = status

	if created, err := parseTimeString(createdRaw); err == nil {
		clip.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		clip.UpdatedAt = updated
	}
	return &clip, nil
}
