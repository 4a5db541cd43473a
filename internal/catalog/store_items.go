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

const itemColumns = `id, series_id, type, name, description, ref_image_urls,
    task_id, status, created_at, updated_at`

// CreateStudioItem inserts a new library asset.
func (s *Store) CreateStudioItem(ctx context.Context, item *StudioItem) (*StudioItem, error) {
	if item == nil {
		return nil, errors.New("studio item is nil")
	}
	if strings.TrimSpace(item.SeriesID) == "" {
		return nil, errors.New("studio item series id required")
	}
	if strings.TrimSpace(item.Name) == "" {
		return nil, errors.New("studio item name required")
	}
	if _, ok := ParseItemType(string(item.Type)); !ok {
		return nil, fmt.Errorf("unknown studio item type %q", item.Type)
	}

	now := time.Now().UTC()
	inserted := *item
	inserted.ID = uuid.NewString()
	inserted.Name = strings.TrimSpace(item.Name)
	inserted.CreatedAt = now
	inserted.UpdatedAt = now

	_, err := s.execWithRetry(ctx,
		`INSERT INTO studio_items (`+itemColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inserted.ID,
		inserted.SeriesID,
		string(inserted.Type),
		inserted.Name,
		nullableString(inserted.Description),
		nullableString(inserted.RefImageURLs),
		nullableString(inserted.TaskID),
		inserted.Status.String(),
		timestamp(now),
		timestamp(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert studio item: %w", err)
	}
	return &inserted, nil
}

// GetStudioItem fetches a library asset by identifier; nil when absent.
func (s *Store) GetStudioItem(ctx context.Context, id string) (*StudioItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM studio_items WHERE id = ?`, id)
	item, err := scanStudioItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get studio item: %w", err)
	}
	return item, nil
}

// StudioItemsBySeries returns a series' library assets ordered by name.
func (s *Store) StudioItemsBySeries(ctx context.Context, seriesID string) ([]*StudioItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM studio_items WHERE series_id = ? ORDER BY name`,
		seriesID,
	)
	if err != nil {
		return nil, fmt.Errorf("query studio items: %w", err)
	}
	defer rows.Close()

	var items []*StudioItem
	for rows.Next() {
		item, err := scanStudioItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateStudioItem persists mutable fields of an existing library asset.
func (s *Store) UpdateStudioItem(ctx context.Context, item *StudioItem) error {
	if item == nil {
		return errors.New("studio item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	_, err := s.execWithRetry(ctx,
		`UPDATE studio_items
         SET type = ?, name = ?, description = ?, ref_image_urls = ?,
             task_id = ?, status = ?, updated_at = ?
         WHERE id = ?`,
		string(item.Type),
		item.Name,
		nullableString(item.Description),
		nullableString(item.RefImageURLs),
		nullableString(item.TaskID),
		item.Status.String(),
		timestamp(item.UpdatedAt),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update studio item: %w", err)
	}
	return nil
}

func scanStudioItem(scanner rowScanner) (*StudioItem, error) {
	var (
		item        StudioItem
		typeRaw     string
		description sql.NullString
		refURLs     sql.NullString
		taskID      sql.NullString
		statusRaw   string
		createdRaw  string
		updatedRaw  string
	)

	if err := scanner.Scan(
		&item.ID,
		&item.SeriesID,
		&typeRaw,
		&item.Name,
		&description,
		&refURLs,
		&taskID,
		&statusRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item.Type = ItemType(typeRaw)
	item.Description = description.String
	item.RefImageURLs = refURLs.String
	item.TaskID = taskID.String

	status, err := scanStatus(statusRaw)
	if err != nil {
		return nil, fmt.Errorf("studio item %s: %w", item.ID, err)
	}
	item.Status = status

	if created, err := parseTimeString(createdRaw); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	return &item, nil
}
