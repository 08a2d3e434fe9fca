// Package indexer keeps the photo index in step with the photo folders on
// disk.
//
// A scan runs in three stages:
//   - Folders: every root (primary and extra photo directories) is walked
//     recursively. Each folder holding VRChat photos gets a digest of its
//     sorted photo file names; folders whose digest matches the stored
//     state are skipped without touching their files.
//   - Files: in changed folders, only files modified after the folder's
//     last scan are kept. Folders never scanned before keep every file.
//   - Metadata: candidates are processed in batches of BatchSize. Each batch
//     is extracted with concurrency bounded by the memory governor and
//     persisted with one store call.
//
// A folder's state is recorded only once all of its candidate files are
// persisted or skipped, and states are written back even when a scan
// fails. A crash therefore costs at most a rescan of the folders that were
// in flight.
//
// Expected problems (missing folders, permission errors, corrupt images,
// unrecognized names) are counted in SkipStats and logged as one summary
// warning. Anything else aborts the scan.
//
// ModeFull ignores stored state. Watcher and Run provide fsnotify-driven
// and periodic incremental scans for long-running processes.
package indexer
