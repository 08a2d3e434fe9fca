package database

import (
	"context"

	"vrchat-albums/internal/indexer"
)

// Settings provides the photo directories from configuration and the folder
// scan states from the database.
type Settings struct {
	db      *Database
	primary string
	extras  []string
}

var _ indexer.Settings = (*Settings)(nil)

// NewSettings creates a settings provider.
func NewSettings(db *Database, primary string, extras []string) *Settings {
	return &Settings{db: db, primary: primary, extras: extras}
}

// PrimaryPhotoDir returns the main VRChat photo directory.
func (s *Settings) PrimaryPhotoDir() string { return s.primary }

// ExtraPhotoDirs returns additional directories to index.
func (s *Settings) ExtraPhotoDirs() []string { return s.extras }

// FolderScanStates implements indexer.Settings.
func (s *Settings) FolderScanStates(ctx context.Context) (map[string]indexer.FolderScanState, error) {
	return s.db.FolderScanStates(ctx)
}

// SetFolderScanStates implements indexer.Settings.
func (s *Settings) SetFolderScanStates(ctx context.Context, states map[string]indexer.FolderScanState) error {
	return s.db.SetFolderScanStates(ctx, states)
}
