// Package memory keeps batch work inside the process memory budget.
//
// # GOMEMLIMIT
//
// ConfigureFromEnv derives GOMEMLIMIT from a container limit:
//
//	MEMORY_LIMIT=2147483648   # container limit in bytes
//	MEMORY_RATIO=0.85         # share handed to the Go heap (default 0.85)
//
// An explicit GOMEMLIMIT always wins. The remainder of the container limit
// is left for libvips, which allocates outside the Go heap.
//
// # Governor
//
// A Governor samples heap usage against the configured limit and is shared
// by the scanner and the thumbnail batch service:
//
//   - RecommendedParallelism(baseline) returns baseline below the high-water
//     mark, shrinks linearly between high and critical, and returns 1 at or
//     above critical.
//   - CheckMemory(ctx) is called once per item. At critical usage it runs a
//     GC and pauses for BackoffDelay. The warning it logs is rate limited.
//
// Usage:
//
//	gov := memory.NewGovernor(memory.DefaultConfig())
//	g.SetLimit(gov.RecommendedParallelism(workers.ForIO()))
//	for _, item := range batch {
//		if err := gov.CheckMemory(ctx); err != nil {
//			return err
//		}
//		...
//	}
package memory
