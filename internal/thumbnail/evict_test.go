package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvictBelowThreshold(t *testing.T) {
	store, dir := newTestStore(t, &fakeRenderer{}, 1000)
	for i := range 8 {
		writeEntry(t, dir, fmt.Sprintf("%d.bin", i), 100, time.Duration(i)*time.Hour)
	}

	result, err := store.Evict(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, result.Files)
	assert.Equal(t, int64(800), result.TotalBytes)
	assert.Equal(t, 0, result.RemovedFiles)
	assert.Equal(t, int64(800), result.FinalBytes)
}

func TestEvictRemovesOldestFirst(t *testing.T) {
	store, dir := newTestStore(t, &fakeRenderer{}, 1000)
	for i := range 10 {
		// higher i is older
		writeEntry(t, dir, fmt.Sprintf("%d.bin", i), 100, time.Duration(i+1)*time.Hour)
	}

	result, err := store.Evict(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1000), result.TotalBytes)
	assert.Equal(t, 5, result.RemovedFiles)
	assert.Equal(t, int64(500), result.RemovedBytes)
	assert.LessOrEqual(t, result.FinalBytes, int64(500))

	for i := range 10 {
		path := filepath.Join(dir, fmt.Sprintf("%d.bin", i))
		if i < 5 {
			assert.FileExists(t, path)
		} else {
			assert.NoFileExists(t, path)
		}
	}

	size, files, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(500), size)
	assert.Equal(t, 5, files)
}

func TestEvictUnevenSizes(t *testing.T) {
	store, dir := newTestStore(t, &fakeRenderer{}, 1000)
	writeEntry(t, dir, "big-old.bin", 700, 3*time.Hour)
	writeEntry(t, dir, "small.bin", 150, 2*time.Hour)
	writeEntry(t, dir, "new.bin", 100, time.Hour)

	result, err := store.Evict(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.RemovedFiles)
	assert.Equal(t, int64(250), result.FinalBytes)
	assert.FileExists(t, filepath.Join(dir, "small.bin"))
}

func TestEvictContinuesPastDeleteFailures(t *testing.T) {
	store, dir := newTestStore(t, &fakeRenderer{}, 1000)
	for i := range 10 {
		writeEntry(t, dir, fmt.Sprintf("%d.bin", i), 100, time.Duration(i+1)*time.Hour)
	}

	stuck := filepath.Join(dir, "9.bin")
	store.remove = func(name string) error {
		if name == stuck {
			return errors.New("device busy")
		}
		return os.Remove(name)
	}

	result, err := store.Evict(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, stuck)
	assert.Equal(t, 5, result.RemovedFiles)
	assert.LessOrEqual(t, result.FinalBytes, int64(500))
	assert.NoFileExists(t, filepath.Join(dir, "4.bin"), "the next oldest file makes up for the failure")
}

func TestEvictExhaustsList(t *testing.T) {
	store, dir := newTestStore(t, &fakeRenderer{}, 100)
	writeEntry(t, dir, "a.bin", 300, 2*time.Hour)
	writeEntry(t, dir, "b.bin", 300, time.Hour)
	store.remove = func(string) error { return errors.New("read-only file system") }

	result, err := store.Evict(context.Background())
	require.NoError(t, err, "eviction always completes")
	assert.Equal(t, 0, result.RemovedFiles)
	assert.Equal(t, int64(600), result.FinalBytes)
}

func TestEvictUnlimited(t *testing.T) {
	store, dir := newTestStore(t, &fakeRenderer{}, 0)
	writeEntry(t, dir, "a.bin", 5000, time.Hour)

	result, err := store.Evict(context.Background())
	require.NoError(t, err)
	assert.Equal(t, EvictResult{}, result)
	assert.FileExists(t, filepath.Join(dir, "a.bin"))
}

func TestEvictCancelled(t *testing.T) {
	store, dir := newTestStore(t, &fakeRenderer{}, 100)
	writeEntry(t, dir, "a.bin", 300, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Evict(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSizeEmptyCache(t *testing.T) {
	store, _ := newTestStore(t, &fakeRenderer{}, 0)
	size, files, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
	assert.Zero(t, files)
}
