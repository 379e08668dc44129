// Package errors defines all exported error sentinels for the hashvault library.
//
// This is the single source of truth for error values. The root hashvault
// package, the local fabric and the CLI all import from here, so errors.Is
// checks work across package boundaries.
package errors

import (
	"errors"
	"fmt"
)

// Error categories. Every specific sentinel below wraps one of these, so
// callers can test either the precise cause or the broad kind.
var (
	ErrRange         = errors.New("hashvault: value out of range")
	ErrConfiguration = errors.New("hashvault: invalid configuration")
)

// Generation errors
var (
	ErrNonceOverflow     = fmt.Errorf("%w: nonce does not fit in 48 bits", ErrRange)
	ErrInvalidExponent   = fmt.Errorf("%w: exponent must be in [0, 48]", ErrConfiguration)
	ErrInvalidPartitions = fmt.Errorf("%w: partition count must be positive", ErrConfiguration)
	ErrUnknownHash       = fmt.Errorf("%w: unknown hash algorithm", ErrConfiguration)
)

// Search errors
var (
	ErrInvalidDifficulty = fmt.Errorf("%w: difficulty must be in [1, 10]", ErrConfiguration)
	ErrInvalidTarget     = fmt.Errorf("%w: target length does not match difficulty", ErrConfiguration)
)

// Dataset write errors
var (
	ErrUnknownCompression = fmt.Errorf("%w: unknown compression", ErrConfiguration)
	ErrDatasetExists      = errors.New("hashvault: dataset already exists")
	ErrWriterClosed       = errors.New("hashvault: dataset writer is closed")
	ErrShardWritten       = errors.New("hashvault: shard already written")
	ErrIncompleteDataset  = errors.New("hashvault: not every shard was written")
)

// Dataset read errors
var (
	ErrInvalidMagic     = errors.New("hashvault: invalid magic number")
	ErrInvalidVersion   = errors.New("hashvault: unsupported version")
	ErrTruncatedFile    = errors.New("hashvault: shard file is truncated")
	ErrCorruptedDataset = errors.New("hashvault: dataset is corrupted")
	ErrChecksumFailed   = errors.New("hashvault: shard checksum verification failed")
	ErrMissingShard     = errors.New("hashvault: dataset shard is missing")
	ErrUnsortedDataset  = errors.New("hashvault: dataset records are not globally sorted")
	ErrHashMismatch     = errors.New("hashvault: record hash prefix does not match its nonce")
	ErrDatasetClosed    = errors.New("hashvault: dataset is closed")
)
