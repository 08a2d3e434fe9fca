package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vrchat-albums/internal/photo"

	"github.com/google/uuid"
)

const upsertPhotoQuery = `
	INSERT INTO photos (id, photo_path, photo_taken_at, width, height)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(photo_path) DO UPDATE SET
		photo_taken_at = excluded.photo_taken_at,
		width = excluded.width,
		height = excluded.height,
		updated_at = strftime('%s', 'now')
	RETURNING id
`

// UpsertPhotoEntries writes entries in one transaction and returns them with
// their IDs. Existing rows keep their ID. Any failure rolls back the whole
// batch.
func (d *Database) UpsertPhotoEntries(ctx context.Context, entries []photo.Entry) (stored []photo.Entry, err error) {
	if len(entries) == 0 {
		return nil, nil
	}

	start := time.Now()
	defer func() { recordQuery("upsert_photos", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	stored = make([]photo.Entry, 0, len(entries))
	err = d.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertPhotoQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare photo upsert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, e := range entries {
			var id string
			if err := stmt.QueryRowContext(ctx,
				uuid.NewString(), e.PhotoPath, e.TakenAt.UnixMilli(), e.Width, e.Height,
			).Scan(&id); err != nil {
				return fmt.Errorf("failed to upsert photo %s: %w", e.PhotoPath, err)
			}
			e.ID = id
			stored = append(stored, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// GetPhotoByPath returns the entry for a photo path.
// Returns sql.ErrNoRows if the path is not indexed.
func (d *Database) GetPhotoByPath(ctx context.Context, path string) (photo.Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var e photo.Entry
	var takenAt int64
	err := d.db.QueryRowContext(ctx,
		"SELECT id, photo_path, photo_taken_at, width, height FROM photos WHERE photo_path = ?", path,
	).Scan(&e.ID, &e.PhotoPath, &takenAt, &e.Width, &e.Height)
	if err != nil {
		return photo.Entry{}, err
	}
	e.TakenAt = time.UnixMilli(takenAt)
	return e, nil
}

// CountPhotos returns the number of indexed photos.
func (d *Database) CountPhotos(ctx context.Context) (count int, err error) {
	start := time.Now()
	defer func() { recordQuery("count_photos", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM photos").Scan(&count)
	return count, err
}

// RecentPhotoPaths returns up to limit photo paths, newest first by the time
// the photo was taken. A limit of 0 or less returns every path.
func (d *Database) RecentPhotoPaths(ctx context.Context, limit int) (paths []string, err error) {
	start := time.Now()
	defer func() { recordQuery("recent_photo_paths", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.QueryContext(ctx,
		"SELECT photo_path FROM photos ORDER BY photo_taken_at DESC, photo_path LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}
