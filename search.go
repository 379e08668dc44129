package hashvault

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	hverrors "github.com/tamirms/hashvault/errors"
)

const (
	// MinDifficulty is the shortest allowed target prefix in bytes.
	MinDifficulty = 1

	// MaxDifficulty is the longest allowed target prefix: the whole hash prefix.
	MaxDifficulty = HashPrefixSize
)

// targetKey holds a target zero-padded to the full hash prefix width so any
// difficulty can share one fixed-size map key.
type targetKey [HashPrefixSize]byte

// TargetSet is an immutable set of search targets of equal length.
// It is safe for concurrent use once constructed.
type TargetSet struct {
	difficulty int
	targets    [][]byte
	set        map[targetKey]struct{}
}

// ValidateDifficulty returns ErrInvalidDifficulty unless 1 <= d <= 10.
func ValidateDifficulty(d int) error {
	if d < MinDifficulty || d > MaxDifficulty {
		return fmt.Errorf("%w: got %d", hverrors.ErrInvalidDifficulty, d)
	}
	return nil
}

// NewTargetSet builds a target set from explicit targets. Each target must be
// exactly difficulty bytes long. The targets are copied.
func NewTargetSet(difficulty int, targets ...[]byte) (*TargetSet, error) {
	if err := ValidateDifficulty(difficulty); err != nil {
		return nil, err
	}
	ts := &TargetSet{
		difficulty: difficulty,
		targets:    make([][]byte, 0, len(targets)),
		set:        make(map[targetKey]struct{}, len(targets)),
	}
	for i, t := range targets {
		if len(t) != difficulty {
			return nil, fmt.Errorf("%w: target %d has %d bytes, want %d",
				hverrors.ErrInvalidTarget, i, len(t), difficulty)
		}
		ts.add(append([]byte(nil), t...))
	}
	return ts, nil
}

// GenerateTargets draws n independent uniformly random targets of length
// difficulty from rng. n <= 0 yields an empty set.
func GenerateTargets(rng *rand.Rand, n, difficulty int) (*TargetSet, error) {
	if err := ValidateDifficulty(difficulty); err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	ts := &TargetSet{
		difficulty: difficulty,
		targets:    make([][]byte, 0, n),
		set:        make(map[targetKey]struct{}, n),
	}
	for range n {
		t := make([]byte, difficulty)
		fillFromRNG(rng, t)
		ts.add(t)
	}
	return ts, nil
}

func (ts *TargetSet) add(t []byte) {
	ts.targets = append(ts.targets, t)
	var k targetKey
	copy(k[:], t)
	ts.set[k] = struct{}{}
}

// fillFromRNG fills buf with pseudo-random bytes from rng, eight at a time.
func fillFromRNG(rng *rand.Rand, buf []byte) {
	var word [8]byte
	for i := 0; i < len(buf); i += 8 {
		binary.LittleEndian.PutUint64(word[:], rng.Uint64())
		copy(buf[i:], word[:])
	}
}

// Difficulty returns the target length in bytes.
func (ts *TargetSet) Difficulty() int {
	return ts.difficulty
}

// Len returns the number of targets drawn, duplicates included.
func (ts *TargetSet) Len() int {
	return len(ts.targets)
}

// Distinct returns the number of distinct targets.
func (ts *TargetSet) Distinct() int {
	return len(ts.set)
}

// Target returns a copy of target i.
func (ts *TargetSet) Target(i int) []byte {
	return append([]byte(nil), ts.targets[i]...)
}

// Matches reports whether the first Difficulty bytes of rec's hash prefix
// equal at least one target. The cost is one map lookup regardless of the
// number of targets.
func (ts *TargetSet) Matches(rec Record) bool {
	var k targetKey
	copy(k[:ts.difficulty], rec[:ts.difficulty])
	_, ok := ts.set[k]
	return ok
}

// CountMatches broadcasts ts through f and counts the records of c that match
// at least one target. A record matching several targets is counted once.
func CountMatches(ctx context.Context, f Fabric, c Collection, ts *TargetSet) (uint64, error) {
	if ts.Len() == 0 {
		return 0, nil
	}
	bc, err := f.Broadcast(ctx, ts)
	if err != nil {
		return 0, fmt.Errorf("broadcast targets: %w", err)
	}
	targets := bc.Value()
	return f.FilterAndCount(ctx, c, targets.Matches)
}
