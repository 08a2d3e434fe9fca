package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vrchat-albums/internal/indexer"
	"vrchat-albums/internal/photo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests for database operations with real SQLite database

func setupTestDB(t testing.TB) (db *Database, dbPath string) {
	t.Helper()

	dbPath = filepath.Join(t.TempDir(), "test.db")
	db, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, dbPath
}

func testEntry(path string, minute int) photo.Entry {
	return photo.Entry{
		PhotoPath: path,
		TakenAt:   time.Date(2024, 1, 15, 10, minute, 0, 0, time.UTC),
		Width:     1920,
		Height:    1080,
	}
}

func TestNewDatabase(t *testing.T) {
	db, dbPath := setupTestDB(t)
	assert.FileExists(t, dbPath)

	count, err := db.CountPhotos(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNewDatabaseReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	db, err := New(ctx, dbPath)
	require.NoError(t, err)
	_, err = db.UpsertPhotoEntries(ctx, []photo.Entry{testEntry("/photos/a.png", 0)})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = New(ctx, dbPath)
	require.NoError(t, err)
	defer db.Close()

	count, err := db.CountPhotos(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "schema creation keeps existing rows")
}

func TestNewDatabaseMissingDirectory(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "test.db"))
	assert.Error(t, err)
}

func TestUpsertPhotoEntries(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	entries := []photo.Entry{
		testEntry("/photos/2024-01/a.png", 0),
		testEntry("/photos/2024-01/b.png", 5),
	}
	stored, err := db.UpsertPhotoEntries(ctx, entries)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	for i, e := range stored {
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, entries[i].PhotoPath, e.PhotoPath)
	}
	assert.NotEqual(t, stored[0].ID, stored[1].ID)

	got, err := db.GetPhotoByPath(ctx, "/photos/2024-01/b.png")
	require.NoError(t, err)
	assert.Equal(t, stored[1].ID, got.ID)
	assert.True(t, got.TakenAt.Equal(entries[1].TakenAt))
	assert.Equal(t, 1920, got.Width)
	assert.Equal(t, 1080, got.Height)
}

func TestRecentPhotoPaths(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	_, err := db.UpsertPhotoEntries(ctx, []photo.Entry{
		testEntry("/photos/2024-01/old.png", 0),
		testEntry("/photos/2024-01/new.png", 30),
		testEntry("/photos/2024-01/mid.png", 15),
	})
	require.NoError(t, err)

	paths, err := db.RecentPhotoPaths(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"/photos/2024-01/new.png", "/photos/2024-01/mid.png"}, paths)

	all, err := db.RecentPhotoPaths(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpsertPhotoEntriesKeepsID(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	first, err := db.UpsertPhotoEntries(ctx, []photo.Entry{testEntry("/photos/a.png", 0)})
	require.NoError(t, err)

	updated := testEntry("/photos/a.png", 0)
	updated.Width, updated.Height = 1280, 720
	second, err := db.UpsertPhotoEntries(ctx, []photo.Entry{updated})
	require.NoError(t, err)

	assert.Equal(t, first[0].ID, second[0].ID)

	got, err := db.GetPhotoByPath(ctx, "/photos/a.png")
	require.NoError(t, err)
	assert.Equal(t, 1280, got.Width)

	count, err := db.CountPhotos(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsertPhotoEntriesEmpty(t *testing.T) {
	db, _ := setupTestDB(t)

	stored, err := db.UpsertPhotoEntries(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestUpsertPhotoEntriesRollsBack(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := db.UpsertPhotoEntries(ctx, []photo.Entry{testEntry("/photos/a.png", 0)})
	require.Error(t, err)

	count, err := db.CountPhotos(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetPhotoByPathMissing(t *testing.T) {
	db, _ := setupTestDB(t)

	_, err := db.GetPhotoByPath(context.Background(), "/photos/none.png")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFolderScanStates(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	states, err := db.FolderScanStates(ctx)
	require.NoError(t, err)
	assert.Empty(t, states)

	scannedAt := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	want := map[string]indexer.FolderScanState{
		"/photos/2024-01": {FolderPath: "/photos/2024-01", Digest: "00000000000000aa", LastScannedAt: scannedAt},
		"/photos/2024-02": {FolderPath: "/photos/2024-02", Digest: "00000000000000bb", LastScannedAt: scannedAt.Add(time.Hour)},
	}
	require.NoError(t, db.SetFolderScanStates(ctx, want))

	got, err := db.FolderScanStates(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for path, w := range want {
		g, ok := got[path]
		require.True(t, ok, path)
		assert.Equal(t, w.FolderPath, g.FolderPath)
		assert.Equal(t, w.Digest, g.Digest)
		assert.True(t, w.LastScannedAt.Equal(g.LastScannedAt))
	}

	folders, err := db.CountFolderStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, folders)
}

func TestSetFolderScanStatesReplaces(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SetFolderScanStates(ctx, map[string]indexer.FolderScanState{
		"/a": {FolderPath: "/a", Digest: "1", LastScannedAt: time.Now()},
		"/b": {FolderPath: "/b", Digest: "2", LastScannedAt: time.Now()},
	}))
	require.NoError(t, db.SetFolderScanStates(ctx, map[string]indexer.FolderScanState{
		"/b": {FolderPath: "/b", Digest: "3", LastScannedAt: time.Now()},
	}))

	got, err := db.FolderScanStates(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, indexer.FolderDigest("3"), got["/b"].Digest)

	require.NoError(t, db.SetFolderScanStates(ctx, map[string]indexer.FolderScanState{}))
	got, err = db.FolderScanStates(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLastScan(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	last, err := db.GetLastScan(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	now := time.Date(2024, 2, 4, 12, 30, 0, 0, time.UTC)
	require.NoError(t, db.SetLastScan(ctx, now))
	last, err = db.GetLastScan(ctx)
	require.NoError(t, err)
	assert.True(t, now.Equal(last))

	require.NoError(t, db.SetLastScan(ctx, time.Time{}))
	last, err = db.GetLastScan(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())
}

func TestSettings(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	settings := NewSettings(db, "/photos", []string{"/extra"})

	assert.Equal(t, "/photos", settings.PrimaryPhotoDir())
	assert.Equal(t, []string{"/extra"}, settings.ExtraPhotoDirs())

	states := map[string]indexer.FolderScanState{
		"/photos/2024-01": {FolderPath: "/photos/2024-01", Digest: "d", LastScannedAt: time.Now()},
	}
	require.NoError(t, settings.SetFolderScanStates(ctx, states))
	got, err := settings.FolderScanStates(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

// TestIndexerWithDatabase runs the scan pipeline against a real database.
func TestIndexerWithDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, _ := setupTestDB(t)
	ctx := context.Background()

	root := t.TempDir()
	folder := filepath.Join(root, "2024-01")
	require.NoError(t, os.MkdirAll(folder, 0o755))
	for i := range 3 {
		name := fmt.Sprintf("VRChat_2024-01-15_10-0%d-00.000_1920x1080.png", i)
		require.NoError(t, os.WriteFile(filepath.Join(folder, name), pngBytes(t), 0o644))
	}

	idx := indexer.New(NewSettings(db, root, nil), db, photo.NewExtractor(photo.WithLocation(time.UTC)), stubGovernor{})

	result, err := idx.Scan(ctx, indexer.ModeIncremental)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Persisted)

	result, err = idx.Scan(ctx, indexer.ModeIncremental)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Persisted)

	count, err := db.CountPhotos(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	states, err := db.FolderScanStates(ctx)
	require.NoError(t, err)
	assert.Contains(t, states, folder)
}
