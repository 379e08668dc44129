package hashvault

import (
	"fmt"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	hverrors "github.com/tamirms/hashvault/errors"
)

// HashAlgorithm identifies the 256-bit digest used to derive record hash
// prefixes. It is stored in every shard header.
type HashAlgorithm uint8

const (
	// HashBlake3 is BLAKE3 with a 256-bit output. Default.
	HashBlake3 HashAlgorithm = 0

	// HashBlake2b is BLAKE2b-256.
	HashBlake2b HashAlgorithm = 1

	// HashSHA3 is SHA3-256.
	HashSHA3 HashAlgorithm = 2
)

// String returns the algorithm name.
func (a HashAlgorithm) String() string {
	switch a {
	case HashBlake3:
		return "blake3"
	case HashBlake2b:
		return "blake2b"
	case HashSHA3:
		return "sha3"
	default:
		return "unknown"
	}
}

// ParseHashAlgorithm maps a name produced by String back to its ID.
func ParseHashAlgorithm(name string) (HashAlgorithm, error) {
	switch name {
	case "blake3", "":
		return HashBlake3, nil
	case "blake2b":
		return HashBlake2b, nil
	case "sha3":
		return HashSHA3, nil
	default:
		return 0, fmt.Errorf("%w: %q", hverrors.ErrUnknownHash, name)
	}
}

// sum256 returns the one-shot digest function for the algorithm.
func (a HashAlgorithm) sum256() (func([]byte) [32]byte, error) {
	switch a {
	case HashBlake3:
		return blake3.Sum256, nil
	case HashBlake2b:
		return blake2b.Sum256, nil
	case HashSHA3:
		return sha3.Sum256, nil
	default:
		return nil, fmt.Errorf("%w: id %d", hverrors.ErrUnknownHash, a)
	}
}
