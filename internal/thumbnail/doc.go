// Package thumbnail keeps resized previews of photos in a disk cache.
//
// Entries live at <cacheDir>/<Namespace>/<key>.<ext>, where key is derived
// from the cleaned source path and the requested width. A file's
// modification time is its creation time and entries older than the TTL
// are treated as misses. Writes go to a ".tmp" sibling that is renamed into
// place, so readers never see partial files, and concurrent writes of the
// same key within the process are collapsed.
//
// The cache is an optimization: GetOrGenerate logs read and write failures
// and falls back to rendering from the source. Evict bounds the total size
// by deleting the oldest entries once usage passes 90% of the limit.
//
// BatchService serves many previews at once in chunks sized by the memory
// governor, isolating per-item failures.
package thumbnail
