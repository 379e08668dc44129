package hashvault

import (
	"fmt"

	hverrors "github.com/tamirms/hashvault/errors"
)

// DefaultPartitions is the partition count used when none is configured.
const DefaultPartitions = 64

// NonceRange is the half-open nonce interval [Start, End) owned by one partition.
type NonceRange struct {
	Start uint64
	End   uint64
}

// Len returns the number of nonces in the range.
func (r NonceRange) Len() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Contains reports whether n falls inside the range.
func (r NonceRange) Contains(n uint64) bool {
	return n >= r.Start && n < r.End
}

func (r NonceRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// TotalRecords returns 2^exponent, the size of the nonce space for exponent.
func TotalRecords(exponent int) (uint64, error) {
	if exponent < 0 || exponent > MaxExponent {
		return 0, fmt.Errorf("%w: got %d", hverrors.ErrInvalidExponent, exponent)
	}
	return uint64(1) << exponent, nil
}

// Plan splits [0, 2^exponent) into contiguous ranges, one per partition.
//
// When 2^exponent is divisible by partitions, range i is exactly
// [i*n, (i+1)*n) with n = 2^exponent / partitions. Otherwise the remainder is
// spread over the leading partitions, one extra nonce each, so no nonce is
// ever left unassigned. If partitions exceeds the record count it is clamped
// so that every range is non-empty.
func Plan(exponent, partitions int) ([]NonceRange, error) {
	total, err := TotalRecords(exponent)
	if err != nil {
		return nil, err
	}
	return PlanRange(0, total, partitions)
}

// PlanRange splits the window [start, start+count) of the nonce space into
// contiguous ranges, following the same rules as Plan.
func PlanRange(start, count uint64, partitions int) ([]NonceRange, error) {
	if partitions <= 0 {
		return nil, fmt.Errorf("%w: got %d", hverrors.ErrInvalidPartitions, partitions)
	}
	if start > MaxNonce || count > MaxNonce-start {
		return nil, fmt.Errorf("window start %d count %d: %w", start, count, hverrors.ErrNonceOverflow)
	}
	if count == 0 {
		return nil, nil
	}

	p := uint64(partitions)
	if p > count {
		p = count
	}
	perPartition := count / p
	remainder := count % p

	ranges := make([]NonceRange, p)
	next := start
	for i := range p {
		size := perPartition
		if i < remainder {
			size++
		}
		ranges[i] = NonceRange{Start: next, End: next + size}
		next += size
	}
	return ranges, nil
}
