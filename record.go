package hashvault

import (
	"encoding/binary"
	"encoding/hex"

	hverrors "github.com/tamirms/hashvault/errors"
)

const (
	// HashPrefixSize is the number of digest bytes kept per record.
	HashPrefixSize = 10

	// NonceSize is the width of the big-endian nonce encoding.
	NonceSize = 6

	// RecordSize is the fixed on-disk and in-memory record width.
	RecordSize = HashPrefixSize + NonceSize

	// MaxNonce is the exclusive upper bound of the nonce space (2^48).
	MaxNonce = uint64(1) << (8 * NonceSize)

	// MaxExponent is the largest k for which 2^k nonces fit in the nonce space.
	MaxExponent = 8 * NonceSize
)

// Record is an immutable 16-byte value: HashPrefix ‖ Nonce.
//
// Layout:
//
//	Offset  Size  Field
//	0       10    HashPrefix  first 10 bytes of Hash(nonceBytes)
//	10      6     Nonce       uint48 big-endian
type Record [RecordSize]byte

// HashPrefix returns a copy of the record's 10-byte hash prefix.
func (r Record) HashPrefix() [HashPrefixSize]byte {
	var p [HashPrefixSize]byte
	copy(p[:], r[:HashPrefixSize])
	return p
}

// NonceBytes returns the 6-byte big-endian nonce encoding.
func (r Record) NonceBytes() [NonceSize]byte {
	var n [NonceSize]byte
	copy(n[:], r[HashPrefixSize:])
	return n
}

// Nonce decodes the record's nonce.
func (r Record) Nonce() uint64 {
	return decodeNonce(r[HashPrefixSize:])
}

// String renders the record as "prefixhex:nonce".
func (r Record) String() string {
	return hex.EncodeToString(r[:HashPrefixSize]) + ":" + hex.EncodeToString(r[HashPrefixSize:])
}

// PutNonce writes the lower 48 bits of n into dst as 6 big-endian bytes.
// Returns ErrNonceOverflow rather than truncating when n >= 2^48.
// Precondition: len(dst) >= NonceSize.
func PutNonce(dst []byte, n uint64) error {
	if n >= MaxNonce {
		return hverrors.ErrNonceOverflow
	}
	putNonce(dst, n)
	return nil
}

// putNonce is the unchecked encoder used on the hot path once a whole range
// has been validated.
func putNonce(dst []byte, n uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	copy(dst[:NonceSize], buf[8-NonceSize:])
}

func decodeNonce(src []byte) uint64 {
	_ = src[NonceSize-1]
	return uint64(src[0])<<40 | uint64(src[1])<<32 | uint64(src[2])<<24 |
		uint64(src[3])<<16 | uint64(src[4])<<8 | uint64(src[5])
}
