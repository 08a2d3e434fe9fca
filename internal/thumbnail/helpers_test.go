package thumbnail

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeRenderer returns "thumb:<path>:<width>" and counts calls.
type fakeRenderer struct {
	calls   atomic.Int64
	active  atomic.Int64
	peak    atomic.Int64
	release chan struct{}
	started chan struct{}
	once    sync.Once
	fail    map[string]error
}

func (r *fakeRenderer) Ext() string { return "bin" }

func (r *fakeRenderer) Render(ctx context.Context, path string, width int) ([]byte, error) {
	r.calls.Add(1)
	n := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if r.started != nil {
		r.once.Do(func() { close(r.started) })
	}
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err, ok := r.fail[path]; ok {
		return nil, err
	}
	return []byte(fmt.Sprintf("thumb:%s:%d", path, width)), nil
}

func missingSource(path string) error {
	return &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
}

func newTestStore(t *testing.T, renderer Renderer, maxSize int64) (*Store, string) {
	t.Helper()
	base := t.TempDir()
	store := NewStore(HostTempDir{Path: base}, renderer, Options{MaxSizeBytes: maxSize})
	return store, filepath.Join(base, Namespace)
}

// writeEntry creates a cache file of size bytes last modified age ago.
func writeEntry(t *testing.T, dir, name string, size int, age time.Duration) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}
