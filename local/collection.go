package local

import (
	"errors"
	"fmt"
	"iter"

	"github.com/tamirms/hashvault"
)

// ErrForeignCollection is returned when a collection produced by another
// fabric implementation is passed to this one.
var ErrForeignCollection = errors.New("local: collection was not created by the local fabric")

// Collection is an in-memory partitioned record collection.
// Loaded collections are backed by the memory-mapped dataset they came from.
type Collection struct {
	parts [][]hashvault.Record
	n     uint64
	ds    *hashvault.Dataset
}

// NewCollection wraps existing partitions. The slices are not copied.
func NewCollection(parts ...[]hashvault.Record) *Collection {
	c := &Collection{parts: parts}
	for _, p := range parts {
		c.n += uint64(len(p))
	}
	return c
}

// NumPartitions returns the number of partitions.
func (c *Collection) NumPartitions() int {
	return len(c.parts)
}

// Len returns the total record count.
func (c *Collection) Len() uint64 {
	return c.n
}

// Partition returns the records of partition i.
func (c *Collection) Partition(i int) []hashvault.Record {
	return c.parts[i]
}

// All yields every record, partition by partition.
func (c *Collection) All() iter.Seq[hashvault.Record] {
	return func(yield func(hashvault.Record) bool) {
		for _, p := range c.parts {
			for _, rec := range p {
				if !yield(rec) {
					return
				}
			}
		}
	}
}

// Close drops the partitions and unmaps the backing dataset, if any.
func (c *Collection) Close() error {
	c.parts = nil
	if c.ds != nil {
		ds := c.ds
		c.ds = nil
		return ds.Close()
	}
	return nil
}

func asCollection(c hashvault.Collection) (*Collection, error) {
	lc, ok := c.(*Collection)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrForeignCollection, c)
	}
	return lc, nil
}
