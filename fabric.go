package hashvault

import (
	"context"
	"iter"
)

// Collection is a distributed, partitioned set of records owned by a Fabric.
// Its concrete type is fabric-specific; the core only passes it between
// fabric operations.
type Collection interface {
	// NumPartitions returns the number of partitions.
	NumPartitions() int

	// Len returns the total record count across all partitions.
	Len() uint64

	// Close releases any resources (memory maps, temp files) held by the collection.
	Close() error
}

// Broadcast is a read-only value shipped once to every worker and cached there.
type Broadcast[T any] interface {
	Value() T
}

// Predicate reports whether a record should be counted.
type Predicate func(Record) bool

// PartitionFunc produces the records of one partition.
type PartitionFunc func(NonceRange) (iter.Seq[Record], error)

// DatasetInfo is the run metadata persisted alongside the records.
type DatasetInfo struct {
	Hash     HashAlgorithm
	Exponent int
}

// Fabric is the execution backend the generation and search pipelines run on.
//
// A local goroutine pool and a multi-node cluster satisfy the same contract.
// Every operation either completes fully or returns an error; partial results
// are never exposed and Save must not leave a partially written dataset behind.
type Fabric interface {
	// ParallelMap runs fn once per range, in parallel, and collects the
	// output of range i as partition i.
	ParallelMap(ctx context.Context, ranges []NonceRange, fn PartitionFunc) (Collection, error)

	// SortByKey returns a collection whose partitions, scanned in order,
	// are non-decreasing under cmp applied to key. Input is not modified.
	SortByKey(ctx context.Context, c Collection, key KeyFunc, cmp CompareFunc) (Collection, error)

	// Broadcast distributes the target set to every worker once.
	Broadcast(ctx context.Context, ts *TargetSet) (Broadcast[*TargetSet], error)

	// FilterAndCount returns how many records satisfy pred.
	FilterAndCount(ctx context.Context, c Collection, pred Predicate) (uint64, error)

	// Save persists c, preserving record bytes and scan order.
	Save(ctx context.Context, c Collection, path string, info DatasetInfo) error

	// Load opens a dataset previously written by Save.
	Load(ctx context.Context, path string) (Collection, error)
}
