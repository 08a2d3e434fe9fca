package thumbnail

import (
	"os"

	"vrchat-albums/internal/logging"
)

// TempDirProvider resolves the base directory the cache lives under.
type TempDirProvider interface {
	TempDir() (string, error)
}

// HostTempDir is a directory configured by the host application.
type HostTempDir struct {
	Path string
}

// TempDir implements TempDirProvider.
func (h HostTempDir) TempDir() (string, error) {
	return h.Path, nil
}

// OSTempDir uses the operating system's temporary directory.
type OSTempDir struct{}

// TempDir implements TempDirProvider.
func (OSTempDir) TempDir() (string, error) {
	return os.TempDir(), nil
}

// NewTempDirProvider returns a HostTempDir for a configured directory and
// OSTempDir otherwise.
func NewTempDirProvider(configured string) TempDirProvider {
	if configured == "" {
		logging.Debug("No cache directory configured, using OS temp dir %s", os.TempDir())
		return OSTempDir{}
	}
	return HostTempDir{Path: configured}
}
