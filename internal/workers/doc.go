/*
Package workers sizes worker pools in containerized environments.

runtime.NumCPU reports the host's CPUs, not the container's. GOMAXPROCS
follows the cgroup CPU limit (Go 1.19+), so worker counts are derived from
it instead:

	// Kubernetes pod limited to 2 cores on a 64-core node
	runtime.NumCPU()      // 64
	runtime.GOMAXPROCS(0) // 2

The two pools in this service:

	workers.ForScan(16)       // metadata extraction, 2 per CPU
	workers.ForThumbnails(8)  // thumbnail rendering, 1 per CPU

These are baselines. The memory governor shrinks them further when heap
usage approaches the limit.

# Environment Variable Override

	SCAN_WORKERS=4
	THUMBNAIL_WORKERS=2

Invalid or non-positive values are ignored. Overrides are still capped by
the limit argument.
*/
package workers
