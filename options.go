package hashvault

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// GenerateOption is a functional option for configuring Generate.
type GenerateOption func(*generateConfig)

// SearchOption is a functional option for configuring Search.
type SearchOption func(*searchConfig)

type generateConfig struct {
	partitions int
	hash       HashAlgorithm
}

func defaultGenerateConfig() *generateConfig {
	return &generateConfig{
		partitions: DefaultPartitions,
		hash:       HashBlake3,
	}
}

// WithPartitions sets the number of generation partitions.
func WithPartitions(n int) GenerateOption {
	return func(c *generateConfig) {
		c.partitions = n
	}
}

// WithHash selects the digest algorithm used for record hash prefixes.
func WithHash(algo HashAlgorithm) GenerateOption {
	return func(c *generateConfig) {
		c.hash = algo
	}
}

type searchConfig struct {
	rng *rand.Rand
}

// WithRand sets the random source targets are drawn from.
// The generator is used from a single goroutine only.
func WithRand(rng *rand.Rand) SearchOption {
	return func(c *searchConfig) {
		c.rng = rng
	}
}

// WithSeed draws targets from a PCG generator seeded with seed, making the
// target set reproducible.
func WithSeed(seed uint64) SearchOption {
	return func(c *searchConfig) {
		c.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// processRand returns a ChaCha8 generator keyed from the operating system's
// entropy source.
func processRand() *rand.Rand {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		// crypto/rand only fails on a broken OS entropy source
		binary.LittleEndian.PutUint64(seed[:], rand.Uint64())
	}
	return rand.New(rand.NewChaCha8(seed))
}
