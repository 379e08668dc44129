package hashvault

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

// newTestRNG returns a generator seeded from the test name, so every test
// draws a different but reproducible stream.
func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// generateRecords returns the records for nonces [start, end) in nonce order.
func generateRecords(t testing.TB, algo HashAlgorithm, start, end uint64) []Record {
	t.Helper()
	gen, err := NewGenerator(algo)
	if err != nil {
		t.Fatal(err)
	}
	seq, err := gen.Records(NonceRange{Start: start, End: end})
	if err != nil {
		t.Fatal(err)
	}
	out := make([]Record, 0, end-start)
	for rec := range seq {
		out = append(out, rec)
	}
	return out
}
