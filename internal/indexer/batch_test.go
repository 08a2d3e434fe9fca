package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFolderTracker(t *testing.T) {
	tr := newFolderTracker()

	assert.True(t, tr.add("/empty", "d0", 0), "folder with no candidates is complete at once")
	assert.False(t, tr.add("/a", "d1", 2))
	assert.False(t, tr.add("/b", "d2", 1))
	assert.Equal(t, 2, tr.pending())

	assert.False(t, tr.done("/a"))
	assert.True(t, tr.done("/b"))
	assert.Equal(t, 1, tr.pending())
	assert.True(t, tr.done("/a"))
	assert.Equal(t, 0, tr.pending())

	assert.Equal(t, FolderDigest("d0"), tr.digest("/empty"))
	assert.Equal(t, FolderDigest("d1"), tr.digest("/a"))
}

func TestFolderTrackerUnknownFolder(t *testing.T) {
	tr := newFolderTracker()
	assert.False(t, tr.done("/unknown"))
	assert.Equal(t, FolderDigest(""), tr.digest("/unknown"))
}
