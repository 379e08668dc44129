package local

import (
	"bytes"
	"context"
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/tamirms/hashvault"
	"github.com/tamirms/hashvault/internal/bits"
)

// SortByKey range-partitions c by key and sorts each output partition.
//
// The output has as many partitions as the input. Output partition d holds
// the keys k with splitter[d-1] <= k < splitter[d], so scanning the
// partitions in order visits the whole collection in cmp order. Equal keys
// always land in the same partition.
func (f *Fabric) SortByKey(ctx context.Context, c hashvault.Collection, key hashvault.KeyFunc, cmp hashvault.CompareFunc) (hashvault.Collection, error) {
	src, err := asCollection(c)
	if err != nil {
		return nil, err
	}
	p := src.NumPartitions()
	if src.Len() == 0 {
		return NewCollection(make([][]hashvault.Record, p)...), nil
	}

	splitters := f.splitters(src, key, cmp, p)

	// Shuffle: each source partition routes its records into private
	// buckets, so no locking is needed.
	routed := make([][][]hashvault.Record, p)
	g, gctx := f.group(ctx)
	for s, part := range src.parts {
		g.Go(func() error {
			buckets := make([][]hashvault.Record, p)
			for j := range part {
				if j%contextCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				d := route(splitters, key(&part[j]), cmp)
				buckets[d] = append(buckets[d], part[j])
			}
			routed[s] = buckets
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge the buckets of each destination and sort them locally.
	out := make([][]hashvault.Record, p)
	g, gctx = f.group(ctx)
	for d := range out {
		g.Go(func() error {
			merged := mergeBuckets(routed, d)
			if err := gctx.Err(); err != nil {
				return err
			}
			sort.Sort(&recordSorter{recs: merged, key: key, cmp: cmp})
			out[d] = merged
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewCollection(out...), nil
}

// mergeBuckets concatenates the bucket for destination d of every source and
// drops each bucket once copied, so routed memory shrinks as the merge runs.
// Tasks for distinct d touch distinct elements of routed.
func mergeBuckets(routed [][][]hashvault.Record, d int) []hashvault.Record {
	size := 0
	for s := range routed {
		size += len(routed[s][d])
	}
	merged := make([]hashvault.Record, 0, size)
	for s := range routed {
		merged = append(merged, routed[s][d]...)
		routed[s][d] = nil
	}
	return merged
}

// splitters picks p-1 keys at evenly spaced quantiles of a deterministic
// sample drawn from every partition.
func (f *Fabric) splitters(src *Collection, key hashvault.KeyFunc, cmp hashvault.CompareFunc, p int) [][]byte {
	if p <= 1 {
		return nil
	}
	rng := rand.New(rand.NewPCG(f.seed, uint64(p)))

	var samples [][]byte
	for _, part := range src.parts {
		n := uint64(len(part))
		if n == 0 {
			continue
		}
		for range min(uint64(f.sampleSize), n) {
			j := bits.FastRange(rng.Uint64(), n)
			samples = append(samples, bytes.Clone(key(&part[j])))
		}
	}
	slices.SortFunc(samples, (func(a, b []byte) int)(cmp))

	out := make([][]byte, 0, p-1)
	for i := 1; i < p; i++ {
		out = append(out, samples[i*len(samples)/p])
	}
	return out
}

// route returns the number of splitters <= k: the index of the output
// partition that owns k.
func route(splitters [][]byte, k []byte, cmp hashvault.CompareFunc) int {
	lo, hi := 0, len(splitters)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if cmp(splitters[mid], k) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// recordSorter sorts records in place by key. Indexing into recs lets the
// key function alias the slice instead of copying each record.
type recordSorter struct {
	recs []hashvault.Record
	key  hashvault.KeyFunc
	cmp  hashvault.CompareFunc
}

func (s *recordSorter) Len() int { return len(s.recs) }

func (s *recordSorter) Less(i, j int) bool {
	return s.cmp(s.key(&s.recs[i]), s.key(&s.recs[j])) < 0
}

func (s *recordSorter) Swap(i, j int) { s.recs[i], s.recs[j] = s.recs[j], s.recs[i] }
