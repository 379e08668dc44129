package hashvault

import (
	"bytes"
	"context"
)

// KeyFunc extracts the sort key of a record. The returned slice may alias
// the record, which is why it takes a pointer.
type KeyFunc func(*Record) []byte

// CompareFunc orders two sort keys, returning -1, 0 or +1.
type CompareFunc func(a, b []byte) int

// SortKey returns the record's sort key: all 16 record bytes, hash prefix first.
// Carrying the nonce in the key lets CompareKeys break prefix ties without a
// second lookup.
func SortKey(r *Record) []byte {
	return r[:]
}

// CompareKeys orders keys produced by SortKey.
//
// Hash prefixes are compared as unsigned byte strings, most significant byte
// first. Equal prefixes (collisions between distinct nonces) fall back to the
// nonce bytes, so the order is total and identical on every run.
func CompareKeys(a, b []byte) int {
	if c := bytes.Compare(a[:HashPrefixSize], b[:HashPrefixSize]); c != 0 {
		return c
	}
	return bytes.Compare(a[HashPrefixSize:], b[HashPrefixSize:])
}

// CompareRecords orders two records the way the global sort does.
func CompareRecords(a, b Record) int {
	return CompareKeys(a[:], b[:])
}

// SortGlobal orders the whole collection by hash prefix. The shuffle that
// makes the order global rather than per-partition is delegated to f.
func SortGlobal(ctx context.Context, f Fabric, c Collection) (Collection, error) {
	return f.SortByKey(ctx, c, SortKey, CompareKeys)
}
