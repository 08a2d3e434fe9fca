// Package media wraps libvips for the photo pipeline.
//
// InitVips starts libvips once per process with conservative memory
// settings and routes its log output through the application logger.
// VipsRenderer produces WebP previews for the thumbnail cache, and
// ClearCache drops libvips' operation cache between metadata sub-batches.
//
// libvips cannot be restarted after ShutdownVips in the same process.
package media
