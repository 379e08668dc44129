package hashvault

import (
	"errors"
	"testing"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	hverrors "github.com/tamirms/hashvault/errors"
)

func TestGeneratorMatchesDigest(t *testing.T) {
	tests := []struct {
		algo HashAlgorithm
		sum  func([]byte) [32]byte
	}{
		{HashBlake3, blake3.Sum256},
		{HashBlake2b, blake2b.Sum256},
		{HashSHA3, sha3.Sum256},
	}
	for _, tt := range tests {
		t.Run(tt.algo.String(), func(t *testing.T) {
			gen, err := NewGenerator(tt.algo)
			if err != nil {
				t.Fatal(err)
			}
			for _, n := range []uint64{0, 1, 255, 1 << 20, MaxNonce - 1} {
				rec, err := gen.Record(n)
				if err != nil {
					t.Fatal(err)
				}
				nb := rec.NonceBytes()
				digest := tt.sum(nb[:])
				if [HashPrefixSize]byte(digest[:HashPrefixSize]) != rec.HashPrefix() {
					t.Errorf("nonce %d: prefix %x, want %x", n, rec.HashPrefix(), digest[:HashPrefixSize])
				}
				if rec.Nonce() != n {
					t.Errorf("nonce %d: record carries nonce %d", n, rec.Nonce())
				}
				if !gen.Check(rec) {
					t.Errorf("nonce %d: Check rejected a generated record", n)
				}
			}
		})
	}
}

func TestGeneratorRecordOverflow(t *testing.T) {
	gen, err := NewGenerator(HashBlake3)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := gen.Record(MaxNonce); !errors.Is(err, hverrors.ErrNonceOverflow) {
		t.Errorf("Record(2^48) error = %v, want ErrNonceOverflow", err)
	}
	if _, err := gen.Records(NonceRange{Start: MaxNonce - 2, End: MaxNonce + 1}); !errors.Is(err, hverrors.ErrNonceOverflow) {
		t.Errorf("Records past 2^48 error = %v, want ErrNonceOverflow", err)
	}
	if _, err := gen.Records(NonceRange{Start: MaxNonce - 2, End: MaxNonce}); err != nil {
		t.Errorf("Records ending at 2^48: %v", err)
	}
}

func TestGeneratorRecordsSequence(t *testing.T) {
	gen, err := NewGenerator(HashBlake3)
	if err != nil {
		t.Fatal(err)
	}
	r := NonceRange{Start: 1000, End: 1100}
	seq, err := gen.Records(r)
	if err != nil {
		t.Fatal(err)
	}

	// The sequence is re-iterable and deterministic.
	var first, second []Record
	for rec := range seq {
		first = append(first, rec)
	}
	for rec := range seq {
		second = append(second, rec)
	}
	if len(first) != 100 {
		t.Fatalf("got %d records, want 100", len(first))
	}
	for i, rec := range first {
		if rec.Nonce() != r.Start+uint64(i) {
			t.Fatalf("record %d has nonce %d", i, rec.Nonce())
		}
		want, _ := gen.Record(r.Start + uint64(i))
		if rec != want || second[i] != rec {
			t.Fatalf("record %d differs between calls", i)
		}
	}

	// Early break stops the sequence.
	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("early break yielded %d records", n)
	}
}

func TestGeneratorCheckRejectsTampered(t *testing.T) {
	gen, err := NewGenerator(HashBlake3)
	if err != nil {
		t.Fatal(err)
	}
	rec, _ := gen.Record(42)
	rec[HashPrefixSize+NonceSize-1] ^= 1
	if gen.Check(rec) {
		t.Error("Check accepted a record whose nonce was altered")
	}
}

func TestParseHashAlgorithm(t *testing.T) {
	for _, algo := range []HashAlgorithm{HashBlake3, HashBlake2b, HashSHA3} {
		got, err := ParseHashAlgorithm(algo.String())
		if err != nil || got != algo {
			t.Errorf("ParseHashAlgorithm(%q) = %v, %v", algo.String(), got, err)
		}
	}
	if got, err := ParseHashAlgorithm(""); err != nil || got != HashBlake3 {
		t.Errorf("empty name should select blake3, got %v, %v", got, err)
	}
	_, err := ParseHashAlgorithm("md5")
	if !errors.Is(err, hverrors.ErrUnknownHash) || !errors.Is(err, hverrors.ErrConfiguration) {
		t.Errorf("ParseHashAlgorithm(md5) error = %v", err)
	}
	if _, err := NewGenerator(HashAlgorithm(9)); !errors.Is(err, hverrors.ErrUnknownHash) {
		t.Errorf("NewGenerator(9) error = %v", err)
	}
}
