// Package local implements hashvault.Fabric on a single machine.
//
// Partitions are plain record slices and every fabric operation fans out over
// a bounded errgroup of goroutines, one task per partition:
//
//   - ParallelMap: one generation task per nonce range
//   - SortByKey: deterministic sampling → P-1 splitters → range routing →
//     per-partition sort. Concatenating the output partitions yields a
//     total order over the whole collection.
//   - Broadcast: workers share the process address space, so the handle is
//     the immutable value itself
//   - FilterAndCount: per-partition counts summed at the end
//   - Save/Load: one shard file per partition through hashvault.CreateDataset
//     and hashvault.OpenDataset
package local
