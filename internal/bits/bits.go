// Package bits provides low-level bit manipulation primitives.
package bits

import "math/bits"

// FastRange maps a 64-bit random value uniformly to [0, n).
// Uses the "fastrange" technique: multiply and take the high 64 bits.
// Cheaper than x % n, which needs a division.
func FastRange(x, n uint64) uint64 {
	hi, _ := bits.Mul64(x, n)
	return hi
}
