package indexer

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"vrchat-albums/internal/filesystem"
	"vrchat-albums/internal/photo"

	"github.com/cespare/xxhash/v2"
)

// FolderDigest fingerprints the set of photo file names in a folder.
type FolderDigest string

// FolderErrorReason categorizes an expected folder-level failure.
type FolderErrorReason string

const (
	FolderNotFound         FolderErrorReason = "folder_not_found"
	FolderPermissionDenied FolderErrorReason = "folder_permission_denied"
)

// FolderError reports a folder that could not be listed for an expected
// reason. Scans count it and move on.
type FolderError struct {
	Path   string
	Reason FolderErrorReason
	Err    error
}

func (e *FolderError) Error() string {
	return fmt.Sprintf("folder %s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *FolderError) Unwrap() error { return e.Err }

// folderListing is one directory as seen by the scanner.
type folderListing struct {
	path    string
	photos  []string // sorted base names of matching photo files
	subdirs []string // full paths of non-hidden subdirectories
	digest  FolderDigest
}

// ComputeDigest hashes a set of file names. The result does not depend on
// the order of names.
func ComputeDigest(names []string) FolderDigest {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	sum := xxhash.Sum64String(strings.Join(sorted, "\x00"))
	return FolderDigest(fmt.Sprintf("%016x", sum))
}

// Digest lists path and returns the digest of its photo file names.
func Digest(path string) (FolderDigest, error) {
	listing, err := listFolder(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", err
	}
	return listing.digest, nil
}

func listFolder(path string, retry filesystem.RetryConfig) (*folderListing, error) {
	entries, err := filesystem.ReadDirWithRetry(path, retry)
	if err != nil {
		switch {
		case filesystem.IsNotFound(err):
			return nil, &FolderError{Path: path, Reason: FolderNotFound, Err: err}
		case filesystem.IsPermission(err):
			return nil, &FolderError{Path: path, Reason: FolderPermissionDenied, Err: err}
		default:
			return nil, fmt.Errorf("list folder %s: %w", path, err)
		}
	}

	listing := &folderListing{path: path}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasPrefix(name, "."):
			continue
		case entry.IsDir():
			listing.subdirs = append(listing.subdirs, filepath.Join(path, name))
		case entry.Type().IsRegular() && photo.IsPhotoFile(name):
			listing.photos = append(listing.photos, name)
		}
	}

	listing.digest = ComputeDigest(listing.photos)
	return listing, nil
}
