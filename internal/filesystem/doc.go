/*
Package filesystem wraps os.Stat, os.Open and os.ReadDir with retry logic for
NFS stale file handle errors.

Photo folders are frequently network shares. When the server side changes a
directory while a scan holds a handle, reads fail with ESTALE (errno 116);
these are retried with exponential backoff. Every other error is returned
immediately so callers can classify it with IsNotFound and IsPermission.

	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	switch {
	case filesystem.IsNotFound(err):
		// folder vanished between listing and scanning
	case filesystem.IsPermission(err):
		// skip with a warning
	case err != nil:
		return err
	}

Defaults: 3 retries, 50ms initial backoff, 500ms cap.
*/
package filesystem
