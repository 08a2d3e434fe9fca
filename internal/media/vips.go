package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"vrchat-albums/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// ErrVipsUnavailable is returned when libvips was never started or has
// been shut down.
var ErrVipsUnavailable = errors.New("libvips not available")

// vipsLogging maps the application log level onto libvips' level and a
// handler that forwards its messages.
func vipsLogging(level logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	forward := func(domain string, l vips.LogLevel, msg string) {
		switch l {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		case vips.LogLevelMessage, vips.LogLevelInfo, vips.LogLevelDebug:
			logging.Debug("[%s] %s", domain, msg)
		}
	}

	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo, forward
	case logging.LevelInfo:
		return vips.LogLevelWarning, forward
	case logging.LevelWarn:
		return vips.LogLevelError, forward
	case logging.LevelError:
		return vips.LogLevelCritical, forward
	default:
		return vips.LogLevelWarning, forward
	}
}

// InitVips initializes the libvips library
// This should be called once at startup
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// must be configured before Startup
	level, handler := vipsLogging(logging.GetLevel())
	vips.LoggingSettings(handler, level)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips cleans up libvips resources
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// ClearCache drops libvips' operation cache. It is a no-op when libvips is
// not running.
func ClearCache() {
	if !IsVipsAvailable() {
		return
	}
	vips.ClearCache()
	logging.Debug("libvips operation cache cleared")
}

// VipsRenderer renders WebP previews with libvips.
type VipsRenderer struct {
	Quality int
}

// NewVipsRenderer returns a renderer with default WebP quality.
func NewVipsRenderer() *VipsRenderer {
	return &VipsRenderer{Quality: 80}
}

// Ext returns the file extension of rendered previews.
func (r *VipsRenderer) Ext() string { return "webp" }

// Render loads path and returns a WebP preview width pixels wide, or the
// original size when width is 0. Sources are never upscaled.
func (r *VipsRenderer) Render(ctx context.Context, path string, width int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !IsVipsAvailable() {
		return nil, ErrVipsUnavailable
	}
	// surfaces fs.ErrNotExist for missing sources
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	origWidth, origHeight := ref.Width(), ref.Height()
	if width > 0 && width < origWidth {
		height := max(origHeight*width/origWidth, 1)
		logging.Debug("Vips shrinking %s from %dx%d to %dx%d",
			filepath.Base(path), origWidth, origHeight, width, height)
		if err := ref.Thumbnail(width, height, vips.InterestingNone); err != nil {
			return nil, fmt.Errorf("vips resize failed: %w", err)
		}
	}

	params := vips.NewWebpExportParams()
	params.Quality = r.Quality
	params.StripMetadata = true
	data, _, err := ref.ExportWebp(params)
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}
	return data, nil
}
