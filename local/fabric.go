package local

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tamirms/hashvault"
)

const (
	// contextCheckInterval is how often per-record loops check for cancellation.
	contextCheckInterval = 1 << 14

	// maxPrealloc caps the up-front allocation for a single partition.
	maxPrealloc = 1 << 24
)

// Fabric runs hashvault pipelines on a bounded pool of goroutines.
type Fabric struct {
	workers     int
	compression hashvault.Compression
	zstdLevel   int
	sampleSize  int
	seed        uint64
}

var _ hashvault.Fabric = (*Fabric)(nil)

// New creates a local fabric.
func New(opts ...Option) *Fabric {
	f := defaultFabric()
	for _, opt := range opts {
		opt(f)
	}
	if f.workers <= 0 {
		f.workers = runtime.NumCPU()
	}
	if f.sampleSize <= 0 {
		f.sampleSize = defaultSampleSize
	}
	return f
}

// Workers returns the size of the goroutine pool.
func (f *Fabric) Workers() int {
	return f.workers
}

// group returns an errgroup limited to the fabric's worker count.
func (f *Fabric) group(ctx context.Context) (*errgroup.Group, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	return g, ctx
}

// ParallelMap materializes fn(ranges[i]) as partition i.
func (f *Fabric) ParallelMap(ctx context.Context, ranges []hashvault.NonceRange, fn hashvault.PartitionFunc) (hashvault.Collection, error) {
	parts := make([][]hashvault.Record, len(ranges))

	g, gctx := f.group(ctx)
	for i, r := range ranges {
		g.Go(func() error {
			seq, err := fn(r)
			if err != nil {
				return fmt.Errorf("partition %d %s: %w", i, r, err)
			}
			out := make([]hashvault.Record, 0, min(r.Len(), maxPrealloc))
			for rec := range seq {
				if len(out)%contextCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				out = append(out, rec)
			}
			parts[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewCollection(parts...), nil
}

type broadcast[T any] struct {
	value T
}

func (b broadcast[T]) Value() T {
	return b.value
}

// Broadcast returns a handle to ts. Every worker reads the same immutable
// value; nothing is copied per record or per task.
func (f *Fabric) Broadcast(ctx context.Context, ts *hashvault.TargetSet) (hashvault.Broadcast[*hashvault.TargetSet], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return broadcast[*hashvault.TargetSet]{value: ts}, nil
}

// FilterAndCount counts the records satisfying pred, one task per partition.
func (f *Fabric) FilterAndCount(ctx context.Context, c hashvault.Collection, pred hashvault.Predicate) (uint64, error) {
	src, err := asCollection(c)
	if err != nil {
		return 0, err
	}

	var total atomic.Uint64
	g, gctx := f.group(ctx)
	for _, part := range src.parts {
		g.Go(func() error {
			var n uint64
			for j := range part {
				if j%contextCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				if pred(part[j]) {
					n++
				}
			}
			total.Add(n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return total.Load(), nil
}

// Save writes one shard per partition. The dataset appears at path only if
// every shard was written.
func (f *Fabric) Save(ctx context.Context, c hashvault.Collection, path string, info hashvault.DatasetInfo) error {
	src, err := asCollection(c)
	if err != nil {
		return err
	}
	parts := src.parts
	if len(parts) == 0 {
		parts = [][]hashvault.Record{nil}
	}

	w, err := hashvault.CreateDataset(path, info, len(parts),
		hashvault.WithCompression(f.compression),
		hashvault.WithZstdLevel(f.zstdLevel))
	if err != nil {
		return err
	}

	g, gctx := f.group(ctx)
	for i, part := range parts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return w.WriteShard(i, part)
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Join(err, w.Abort())
	}
	return w.Commit()
}

// Load opens the dataset at path as a collection with one partition per shard.
func (f *Fabric) Load(ctx context.Context, path string) (hashvault.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds, err := hashvault.OpenDataset(path)
	if err != nil {
		return nil, err
	}
	parts := make([][]hashvault.Record, ds.NumShards())
	for i := range parts {
		parts[i] = ds.Shard(i)
	}
	c := NewCollection(parts...)
	c.ds = ds
	return c, nil
}
