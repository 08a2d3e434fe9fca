package photo

import (
	"context"
	"errors"
	"image"
	"io"
	"io/fs"
	"path/filepath"
	"syscall"
	"time"

	"vrchat-albums/internal/filesystem"
	"vrchat-albums/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp" // WebP format support
)

// Extractor reads photo metadata from disk.
type Extractor struct {
	location     *time.Location
	retry        filesystem.RetryConfig
	flush        func()
	decodeConfig func(io.Reader) (image.Config, string, error)
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLocation sets the zone file-name timestamps are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(e *Extractor) {
		if loc != nil {
			e.location = loc
		}
	}
}

// WithFlushHook sets the function Flush calls, typically the native image
// library's cache clear.
func WithFlushHook(fn func()) Option {
	return func(e *Extractor) { e.flush = fn }
}

// WithRetryConfig overrides the filesystem retry policy.
func WithRetryConfig(cfg filesystem.RetryConfig) Option {
	return func(e *Extractor) { e.retry = cfg }
}

// NewExtractor creates an Extractor. Timestamps default to local time.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		location:     time.Local,
		retry:        filesystem.DefaultRetryConfig(),
		decodeConfig: image.DecodeConfig,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the index entry for the photo at path.
//
// Files the scan should pass over come back as *SkipError. Any other error is
// an *ExtractError and should abort the run.
func (e *Extractor) Extract(ctx context.Context, path string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	name := filepath.Base(path)
	takenAt, ok := ParseTakenAt(name, e.location)
	if !ok {
		logging.Debug("Skipping %s: no timestamp in file name", path)
		return Entry{}, &SkipError{Path: path, Reason: SkipUnrecognizedName}
	}

	width, height, err := e.dimensions(path)
	if err != nil {
		return Entry{}, err
	}

	if width == 0 || height == 0 {
		logging.Warn("Image %s reported %dx%d, using default %dx%d", path, width, height, DefaultWidth, DefaultHeight)
		width, height = DefaultWidth, DefaultHeight
	}

	return Entry{
		PhotoPath: path,
		TakenAt:   takenAt,
		Width:     width,
		Height:    height,
	}, nil
}

// Flush releases cached native image buffers. Call it between sub-batches.
func (e *Extractor) Flush() {
	if e.flush != nil {
		e.flush()
	}
}

// dimensions reads the image header without decoding pixel data.
func (e *Extractor) dimensions(path string) (int, int, error) {
	file, err := filesystem.OpenWithRetry(path, e.retry)
	if err != nil {
		return 0, 0, classifyOpenError(path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := e.decodeConfig(file)
	if err != nil {
		if isReadFailure(err) {
			return 0, 0, &ExtractError{Path: path, Err: err}
		}
		logging.Warn("Skipping %s: cannot decode image header: %v", path, err)
		return 0, 0, &SkipError{Path: path, Reason: SkipCorrupt, Err: err}
	}

	return config.Width, config.Height, nil
}

func classifyOpenError(path string, err error) error {
	switch {
	case filesystem.IsNotFound(err):
		logging.Debug("Skipping %s: file disappeared", path)
		return &SkipError{Path: path, Reason: SkipFileNotFound, Err: err}
	case filesystem.IsPermission(err):
		logging.Warn("Skipping %s: permission denied", path)
		return &SkipError{Path: path, Reason: SkipPermissionDenied, Err: err}
	default:
		return &ExtractError{Path: path, Err: err}
	}
}

// isReadFailure separates I/O errors from malformed image data. Reads from
// an *os.File fail with *fs.PathError; decoders report format problems with
// their own error types.
func isReadFailure(err error) bool {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return true
	}
	var errno syscall.Errno
	return errors.As(err, &errno)
}
