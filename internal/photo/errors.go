package photo

import (
	"errors"
	"fmt"
)

// SkipReason categorizes a file that was left out of the index without
// failing the run. The values double as skip-statistics categories.
type SkipReason string

const (
	SkipFileNotFound     SkipReason = "file_not_found"
	SkipPermissionDenied SkipReason = "file_permission_denied"
	SkipCorrupt          SkipReason = "file_corrupt"
	SkipUnrecognizedName SkipReason = "file_unrecognized_name"
)

// SkipError reports a file that should be skipped.
type SkipError struct {
	Path   string
	Reason SkipReason
	Err    error
}

func (e *SkipError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("skip %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("skip %s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *SkipError) Unwrap() error { return e.Err }

// AsSkip returns the SkipError in err's chain, if any.
func AsSkip(err error) (*SkipError, bool) {
	var skip *SkipError
	if errors.As(err, &skip) {
		return skip, true
	}
	return nil, false
}

// ExtractError is an unexpected failure reading a photo. It aborts the scan.
type ExtractError struct {
	Path string
	Err  error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract metadata from %s: %v", e.Path, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }
