package hashvault

import (
	"bytes"
	"fmt"
	"iter"

	hverrors "github.com/tamirms/hashvault/errors"
)

// Generator turns nonces into records. It holds no mutable state, so one
// Generator may be shared by any number of goroutines.
type Generator struct {
	algo HashAlgorithm
	sum  func([]byte) [32]byte
}

// NewGenerator returns a Generator for the given digest algorithm.
func NewGenerator(algo HashAlgorithm) (*Generator, error) {
	sum, err := algo.sum256()
	if err != nil {
		return nil, err
	}
	return &Generator{algo: algo, sum: sum}, nil
}

// Algorithm returns the digest algorithm used by the generator.
func (g *Generator) Algorithm() HashAlgorithm {
	return g.algo
}

// Record computes the record for nonce n.
// Returns ErrNonceOverflow if n >= 2^48.
func (g *Generator) Record(n uint64) (Record, error) {
	var rec Record
	if err := PutNonce(rec[HashPrefixSize:], n); err != nil {
		return Record{}, fmt.Errorf("nonce %d: %w", n, err)
	}
	g.fill(&rec)
	return rec, nil
}

// fill derives the hash prefix from the nonce bytes already in rec.
func (g *Generator) fill(rec *Record) {
	digest := g.sum(rec[HashPrefixSize:])
	copy(rec[:HashPrefixSize], digest[:HashPrefixSize])
}

// Records returns a lazy sequence of the records for every nonce in r.
//
// The range is validated once up front; the returned sequence can be ranged
// over any number of times and always yields the same records in ascending
// nonce order.
func (g *Generator) Records(r NonceRange) (iter.Seq[Record], error) {
	if r.End > MaxNonce {
		return nil, fmt.Errorf("range %s: %w", r, hverrors.ErrNonceOverflow)
	}
	return func(yield func(Record) bool) {
		var rec Record
		for n := r.Start; n < r.End; n++ {
			putNonce(rec[HashPrefixSize:], n)
			g.fill(&rec)
			if !yield(rec) {
				return
			}
		}
	}, nil
}

// Check reports whether rec's hash prefix matches the digest of its nonce.
func (g *Generator) Check(rec Record) bool {
	digest := g.sum(rec[HashPrefixSize:])
	return bytes.Equal(rec[:HashPrefixSize], digest[:HashPrefixSize])
}
