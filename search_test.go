package hashvault

import (
	"errors"
	"math/rand/v2"
	"testing"

	hverrors "github.com/tamirms/hashvault/errors"
)

func TestValidateDifficulty(t *testing.T) {
	for d := MinDifficulty; d <= MaxDifficulty; d++ {
		if err := ValidateDifficulty(d); err != nil {
			t.Errorf("ValidateDifficulty(%d) = %v", d, err)
		}
	}
	for _, d := range []int{-1, 0, 11, 16} {
		err := ValidateDifficulty(d)
		if !errors.Is(err, hverrors.ErrInvalidDifficulty) || !errors.Is(err, hverrors.ErrConfiguration) {
			t.Errorf("ValidateDifficulty(%d) = %v, want ErrInvalidDifficulty", d, err)
		}
	}
}

func TestNewTargetSet(t *testing.T) {
	a := []byte{0xaa, 0xbb}
	ts, err := NewTargetSet(2, a, []byte{0x01, 0x02}, []byte{0xaa, 0xbb})
	if err != nil {
		t.Fatal(err)
	}
	if ts.Difficulty() != 2 || ts.Len() != 3 || ts.Distinct() != 2 {
		t.Errorf("difficulty %d len %d distinct %d", ts.Difficulty(), ts.Len(), ts.Distinct())
	}

	// Targets are copied on the way in and on the way out.
	a[0] = 0
	if got := ts.Target(0); got[0] != 0xaa {
		t.Error("NewTargetSet kept a reference to the caller's slice")
	}
	ts.Target(0)[0] = 0
	if ts.Target(0)[0] != 0xaa {
		t.Error("Target returned an alias")
	}

	_, err = NewTargetSet(3, []byte{1, 2, 3}, []byte{1, 2})
	if !errors.Is(err, hverrors.ErrInvalidTarget) {
		t.Errorf("short target error = %v, want ErrInvalidTarget", err)
	}
	if _, err := NewTargetSet(0); !errors.Is(err, hverrors.ErrInvalidDifficulty) {
		t.Errorf("difficulty 0 error = %v", err)
	}
}

func TestTargetSetMatches(t *testing.T) {
	recs := generateRecords(t, HashBlake3, 0, 64)
	for d := MinDifficulty; d <= MaxDifficulty; d++ {
		target := recs[17][:d]
		ts, err := NewTargetSet(d, target)
		if err != nil {
			t.Fatal(err)
		}
		if !ts.Matches(recs[17]) {
			t.Errorf("difficulty %d: record does not match its own prefix", d)
		}

		// Only the first d bytes take part in the comparison.
		other := recs[17]
		other[d] ^= 0xff
		if !ts.Matches(other) {
			t.Errorf("difficulty %d: bytes beyond the target affected the match", d)
		}
		other[d-1] ^= 0xff
		if ts.Matches(other) {
			t.Errorf("difficulty %d: altered prefix still matches", d)
		}
	}
}

func TestTargetSetMatchesDeterministic(t *testing.T) {
	rng := newTestRNG(t)
	recs := generateRecords(t, HashBlake3, 0, 2048)
	ts, err := GenerateTargets(rng, 500, 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range recs {
		want := false
		for i := range ts.Len() {
			if ts.Target(i)[0] == rec[0] {
				want = true
				break
			}
		}
		if got := ts.Matches(rec); got != want {
			t.Fatalf("Matches(%s) = %v, linear scan says %v", rec, got, want)
		}
	}
}

func TestGenerateTargets(t *testing.T) {
	rng := newTestRNG(t)
	ts, err := GenerateTargets(rng, 1000, 4)
	if err != nil {
		t.Fatal(err)
	}
	if ts.Len() != 1000 {
		t.Fatalf("Len() = %d, want 1000", ts.Len())
	}
	for i := range ts.Len() {
		if len(ts.Target(i)) != 4 {
			t.Fatalf("target %d has %d bytes", i, len(ts.Target(i)))
		}
	}
	// 1000 draws from 2^32 values collide with negligible probability.
	if ts.Distinct() < 999 {
		t.Errorf("Distinct() = %d, want ~1000", ts.Distinct())
	}

	empty, err := GenerateTargets(rng, -5, 3)
	if err != nil || empty.Len() != 0 {
		t.Errorf("negative count = %v, %v", empty, err)
	}
	if _, err := GenerateTargets(rng, 10, 11); !errors.Is(err, hverrors.ErrInvalidDifficulty) {
		t.Errorf("difficulty 11 error = %v", err)
	}
}

func TestGenerateTargetsReproducible(t *testing.T) {
	a, _ := GenerateTargets(rand.New(rand.NewPCG(1, 2)), 50, 10)
	b, _ := GenerateTargets(rand.New(rand.NewPCG(1, 2)), 50, 10)
	for i := range a.Len() {
		if string(a.Target(i)) != string(b.Target(i)) {
			t.Fatalf("target %d differs for equal seeds", i)
		}
	}
}

func TestGenerateTargetsUniformFirstByte(t *testing.T) {
	rng := newTestRNG(t)
	const n = 256 * 200
	ts, err := GenerateTargets(rng, n, 1)
	if err != nil {
		t.Fatal(err)
	}
	var counts [256]int
	for i := range ts.Len() {
		counts[ts.Target(i)[0]]++
	}
	for b, c := range counts {
		if c < 100 || c > 300 {
			t.Errorf("byte %#x drawn %d times, expected about 200", b, c)
		}
	}
}
