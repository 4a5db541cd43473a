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

// CreateSeries inserts a new series.
func (s *Store) CreateSeries(ctx context.Context, title string) (*Series, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("series title required")
	}
	now := time.Now().UTC()
	series := &Series{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO series (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		series.ID, series.Title, timestamp(now), timestamp(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert series: %w", err)
	}
	return series, nil
}

// GetSeries fetches a series by identifier; nil when absent.
func (s *Store) GetSeries(ctx context.Context, id string) (*Series, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM series WHERE id = ?`, id)
	series, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	return series, nil
}

// ListSeries returns all series ordered by creation time.
func (s *Store) ListSeries(ctx context.Context) ([]*Series, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at FROM series ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	var out []*Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, series)
	}
	return out, rows.Err()
}

// CreateEpisode inserts a new episode; Number must be unique within the series.
func (s *Store) CreateEpisode(ctx context.Context, seriesID string, number int, title, defaultModel string) (*Episode, error) {
	if strings.TrimSpace(seriesID) == "" {
		return nil, errors.New("series id required")
	}
	if number <= 0 {
		return nil, errors.New("episode number must be positive")
	}
	now := time.Now().UTC()
	episode := &Episode{
		ID:           uuid.NewString(),
		SeriesID:     seriesID,
		Number:       number,
		Title:        strings.TrimSpace(title),
		DefaultModel: strings.TrimSpace(defaultModel),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO episodes (id, series_id, number, title, default_model, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		episode.ID, episode.SeriesID, episode.Number,
		nullableString(episode.Title), nullableString(episode.DefaultModel),
		timestamp(now), timestamp(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert episode: %w", err)
	}
	return episode, nil
}

// GetEpisode fetches an episode by identifier; nil when absent.
func (s *Store) GetEpisode(ctx context.Context, id string) (*Episode, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, series_id, number, title, default_model, created_at, updated_at
         FROM episodes WHERE id = ?`, id)
	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return episode, nil
}

// EpisodesBySeries returns a series' episodes ordered by number.
func (s *Store) EpisodesBySeries(ctx context.Context, seriesID string) ([]*Episode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, series_id, number, title, default_model, created_at, updated_at
         FROM episodes WHERE series_id = ? ORDER BY number`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var out []*Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, episode)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanSeries(scanner rowScanner) (*Series, error) {
	var (
		series     Series
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&series.ID, &series.Title, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		series.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		series.UpdatedAt = updated
	}
	return &series, nil
}

func scanEpisode(scanner rowScanner) (*Episode, error) {
	var (
		episode      Episode
		title        sql.NullString
		defaultModel sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(&episode.ID, &episode.SeriesID, &episode.Number, &title, &defaultModel, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	episode.Title = title.String
	episode.DefaultModel = defaultModel.String
	if created, err := parseTimeString(createdRaw); err == nil {
		episode.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		episode.UpdatedAt = updated
	}
	return &episode, nil
}
