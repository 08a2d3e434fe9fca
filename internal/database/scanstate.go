package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vrchat-albums/internal/indexer"
)

// FolderScanStates loads every stored folder state keyed by folder path.
func (d *Database) FolderScanStates(ctx context.Context) (states map[string]indexer.FolderScanState, err error) {
	start := time.Now()
	defer func() { recordQuery("get_scan_states", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, "SELECT folder_path, digest, last_scanned_at FROM folder_scan_states")
	if err != nil {
		return nil, fmt.Errorf("failed to query folder scan states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	states = make(map[string]indexer.FolderScanState)
	for rows.Next() {
		var s indexer.FolderScanState
		var digest string
		var scannedAt int64
		if err := rows.Scan(&s.FolderPath, &digest, &scannedAt); err != nil {
			return nil, fmt.Errorf("failed to scan folder state: %w", err)
		}
		s.Digest = indexer.FolderDigest(digest)
		s.LastScannedAt = time.UnixMilli(scannedAt)
		states[s.FolderPath] = s
	}
	return states, rows.Err()
}

// SetFolderScanStates replaces all stored folder states in one transaction.
func (d *Database) SetFolderScanStates(ctx context.Context, states map[string]indexer.FolderScanState) (err error) {
	start := time.Now()
	defer func() { recordQuery("set_scan_states", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM folder_scan_states"); err != nil {
			return fmt.Errorf("failed to clear folder scan states: %w", err)
		}
		if len(states) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO folder_scan_states (folder_path, digest, last_scanned_at) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare folder state insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for path, s := range states {
			if _, err := stmt.ExecContext(ctx, path, string(s.Digest), s.LastScannedAt.UnixMilli()); err != nil {
				return fmt.Errorf("failed to store folder state %s: %w", path, err)
			}
		}
		return nil
	})
}

// CountFolderStates returns the number of folders with a stored state.
func (d *Database) CountFolderStates(ctx context.Context) (count int, err error) {
	start := time.Now()
	defer func() { recordQuery("count_folders", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM folder_scan_states").Scan(&count)
	return count, err
}
