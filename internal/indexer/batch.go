package indexer

// candidate is one file selected for metadata extraction.
type candidate struct {
	folder string
	path   string
}

// folderTracker counts outstanding candidates per folder so a folder's
// state is recorded only after all of its files are persisted or skipped.
type folderTracker struct {
	remaining map[string]int
	digests   map[string]FolderDigest
}

func newFolderTracker() *folderTracker {
	return &folderTracker{
		remaining: make(map[string]int),
		digests:   make(map[string]FolderDigest),
	}
}

// add registers a folder with n pending candidates. It reports whether the
// folder is already complete.
func (t *folderTracker) add(folder string, digest FolderDigest, n int) bool {
	t.digests[folder] = digest
	if n == 0 {
		return true
	}
	t.remaining[folder] = n
	return false
}

// done marks one candidate finished and reports whether its folder has no
// candidates left.
func (t *folderTracker) done(folder string) bool {
	n, ok := t.remaining[folder]
	if !ok {
		return false
	}
	if n <= 1 {
		delete(t.remaining, folder)
		return true
	}
	t.remaining[folder] = n - 1
	return false
}

func (t *folderTracker) digest(folder string) FolderDigest {
	return t.digests[folder]
}

// pending returns the number of folders still waiting on candidates.
func (t *folderTracker) pending() int {
	return len(t.remaining)
}
