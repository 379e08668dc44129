package local

import (
	"runtime"

	"github.com/tamirms/hashvault"
)

const (
	// defaultSampleSize is the number of keys sampled per partition when
	// choosing sort splitters.
	defaultSampleSize = 256

	// defaultSeed drives splitter sampling; fixed so a run is reproducible.
	defaultSeed = 0x1234567890abcdef
)

// Option is a functional option for configuring a Fabric.
type Option func(*Fabric)

// WithWorkers sets the maximum number of concurrent partition tasks.
// n <= 0 means runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(f *Fabric) {
		f.workers = n
	}
}

// WithCompression sets the shard encoding used by Save.
func WithCompression(c hashvault.Compression) Option {
	return func(f *Fabric) {
		f.compression = c
	}
}

// WithZstdLevel sets the zstd level used by Save with CompressionZstd.
func WithZstdLevel(level int) Option {
	return func(f *Fabric) {
		f.zstdLevel = level
	}
}

// WithSampleSize sets how many keys per partition are sampled to pick the
// splitters of the global sort. More samples give more even partitions.
func WithSampleSize(n int) Option {
	return func(f *Fabric) {
		f.sampleSize = n
	}
}

// WithSeed sets the seed of the splitter sampler.
func WithSeed(seed uint64) Option {
	return func(f *Fabric) {
		f.seed = seed
	}
}

func defaultFabric() *Fabric {
	return &Fabric{
		workers:     runtime.NumCPU(),
		compression: hashvault.CompressionNone,
		zstdLevel:   3,
		sampleSize:  defaultSampleSize,
		seed:        defaultSeed,
	}
}
