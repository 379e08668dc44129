package hashvault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
	"github.com/klauspost/compress/zstd"

	hverrors "github.com/tamirms/hashvault/errors"
)

// DatasetOption is a functional option for configuring dataset writes.
type DatasetOption func(*datasetConfig)

type datasetConfig struct {
	compression Compression
	zstdLevel   int
}

// WithCompression sets how shard record regions are encoded.
func WithCompression(c Compression) DatasetOption {
	return func(cfg *datasetConfig) {
		cfg.compression = c
	}
}

// WithZstdLevel sets the zstd level (1-22) used with CompressionZstd.
func WithZstdLevel(level int) DatasetOption {
	return func(cfg *datasetConfig) {
		cfg.zstdLevel = level
	}
}

// DatasetWriter writes the shards of one dataset.
//
// Shards are written into a hidden sibling directory and only become visible
// at the target path when Commit succeeds, so readers never observe a
// partially written dataset. WriteShard is safe for concurrent use with
// distinct shard indices.
type DatasetWriter struct {
	path      string
	tmpDir    string
	info      DatasetInfo
	cfg       *datasetConfig
	numShards int
	written   []atomic.Bool
	encoder   *zstd.Encoder
	closed    atomic.Bool
}

// CreateDataset prepares a dataset of numShards shards at path.
// Returns ErrDatasetExists if path already exists.
func CreateDataset(path string, info DatasetInfo, numShards int, opts ...DatasetOption) (*DatasetWriter, error) {
	if numShards <= 0 {
		return nil, fmt.Errorf("%w: got %d shards", hverrors.ErrInvalidPartitions, numShards)
	}
	if info.Exponent < 0 || info.Exponent > MaxExponent {
		return nil, fmt.Errorf("%w: got %d", hverrors.ErrInvalidExponent, info.Exponent)
	}
	if info.Hash.String() == "unknown" {
		return nil, fmt.Errorf("%w: id %d", hverrors.ErrUnknownHash, info.Hash)
	}

	cfg := &datasetConfig{zstdLevel: 3}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.compression.String() == "unknown" {
		return nil, fmt.Errorf("%w: id %d", hverrors.ErrUnknownCompression, cfg.compression)
	}

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", hverrors.ErrDatasetExists, path)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat dataset path: %w", err)
	}

	parent := filepath.Dir(path)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create parent directory: %w", err)
	}
	tmpDir, err := os.MkdirTemp(parent, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}

	w := &DatasetWriter{
		path:      path,
		tmpDir:    tmpDir,
		info:      info,
		cfg:       cfg,
		numShards: numShards,
		written:   make([]atomic.Bool, numShards),
	}

	if cfg.compression == CompressionZstd {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(cfg.zstdLevel)),
			zstd.WithEncoderConcurrency(1))
		if err != nil {
			primaryErr := fmt.Errorf("create zstd encoder: %w", err)
			return nil, errors.Join(primaryErr, os.RemoveAll(tmpDir))
		}
		w.encoder = enc
	}

	return w, nil
}

// NumShards returns the number of shards the dataset will hold.
func (w *DatasetWriter) NumShards() int {
	return w.numShards
}

// WriteShard writes records as shard i. Each shard may be written once.
// Records must already be in their final order.
func (w *DatasetWriter) WriteShard(i int, records []Record) error {
	if w.closed.Load() {
		return hverrors.ErrWriterClosed
	}
	if i < 0 || i >= w.numShards {
		return fmt.Errorf("%w: shard %d of %d", hverrors.ErrMissingShard, i, w.numShards)
	}
	if w.written[i].Swap(true) {
		return fmt.Errorf("%w: shard %d", hverrors.ErrShardWritten, i)
	}

	hdr := &shardHeader{
		Magic:       magic,
		Version:     version,
		Hash:        w.info.Hash,
		Compression: w.cfg.compression,
		Exponent:    uint8(w.info.Exponent),
		ShardIndex:  uint32(i),
		NumShards:   uint32(w.numShards),
		RecordCount: uint64(len(records)),
	}
	path := filepath.Join(w.tmpDir, fmt.Sprintf(shardNameFormat, i))

	var err error
	if w.cfg.compression == CompressionZstd {
		err = w.writeZstdShard(path, hdr, records)
	} else {
		err = writeRawShard(path, hdr, records)
	}
	if err != nil {
		return fmt.Errorf("write shard %d: %w", i, err)
	}
	return nil
}

// writeRawShard writes an uncompressed shard through a memory map.
// The file is pre-allocated to its exact final size.
func writeRawShard(path string, hdr *shardHeader, records []Record) error {
	src := recordBytes(records)
	regionSize := len(src)
	fileSize := headerSize + regionSize + footerSize
	hdr.RegionSize = uint64(regionSize)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create shard file: %w", err)
	}

	// Pre-allocate disk blocks to prevent SIGBUS on disk full
	if err := fallocateFile(file, int64(fileSize)); err != nil {
		primaryErr := fmt.Errorf("allocate disk space: %w", err)
		return errors.Join(primaryErr, file.Close())
	}

	mm, err := mmap.MapRegion(file, fileSize, mmap.RDWR, 0, 0)
	if err != nil {
		primaryErr := fmt.Errorf("mmap shard file: %w", err)
		return errors.Join(primaryErr, file.Close())
	}
	data := []byte(mm)

	region := data[headerSize : headerSize+regionSize]
	prefaultRegion(region)
	copy(region, src)

	hdr.encodeTo(data[:headerSize])
	ftr := shardFooter{RecordsHash: xxhash.Sum64(src)}
	ftr.encodeTo(data[headerSize+regionSize:])

	if err := mm.Flush(); err != nil {
		primaryErr := fmt.Errorf("mmap flush failed: %w", err)
		return errors.Join(primaryErr, mm.Unmap(), file.Close())
	}
	if err := mm.Unmap(); err != nil {
		primaryErr := fmt.Errorf("mmap unmap failed: %w", err)
		return errors.Join(primaryErr, file.Close())
	}
	return file.Close()
}

// writeZstdShard writes a shard whose record region is one zstd frame.
func (w *DatasetWriter) writeZstdShard(path string, hdr *shardHeader, records []Record) error {
	src := recordBytes(records)
	compressed := w.encoder.EncodeAll(src, make([]byte, 0, len(src)/2+64))
	hdr.RegionSize = uint64(len(compressed))

	buf := make([]byte, headerSize+len(compressed)+footerSize)
	hdr.encodeTo(buf[:headerSize])
	copy(buf[headerSize:], compressed)
	ftr := shardFooter{RecordsHash: xxhash.Sum64(src)}
	ftr.encodeTo(buf[headerSize+len(compressed):])

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create shard file: %w", err)
	}
	if _, err := file.Write(buf); err != nil {
		primaryErr := fmt.Errorf("write shard file: %w", err)
		return errors.Join(primaryErr, file.Close())
	}
	if err := file.Sync(); err != nil {
		primaryErr := fmt.Errorf("sync shard file: %w", err)
		return errors.Join(primaryErr, file.Close())
	}
	return file.Close()
}

// Commit publishes the dataset at its target path.
// Every shard must have been written; otherwise the staging directory is
// removed and ErrIncompleteDataset is returned.
func (w *DatasetWriter) Commit() error {
	if w.closed.Swap(true) {
		return hverrors.ErrWriterClosed
	}
	w.closeEncoder()

	for i := range w.written {
		if !w.written[i].Load() {
			primaryErr := fmt.Errorf("%w: shard %d", hverrors.ErrIncompleteDataset, i)
			return errors.Join(primaryErr, os.RemoveAll(w.tmpDir))
		}
	}

	// MkdirTemp creates the staging directory owner-only.
	if err := os.Chmod(w.tmpDir, 0o755); err != nil {
		primaryErr := fmt.Errorf("set dataset permissions: %w", err)
		return errors.Join(primaryErr, os.RemoveAll(w.tmpDir))
	}
	if err := os.Rename(w.tmpDir, w.path); err != nil {
		primaryErr := fmt.Errorf("publish dataset: %w", err)
		return errors.Join(primaryErr, os.RemoveAll(w.tmpDir))
	}
	return nil
}

// Abort discards everything written so far.
// Safe to call after Commit (no-op) and multiple times.
func (w *DatasetWriter) Abort() error {
	if w.closed.Swap(true) {
		return nil
	}
	w.closeEncoder()
	return os.RemoveAll(w.tmpDir)
}

func (w *DatasetWriter) closeEncoder() {
	if w.encoder != nil {
		_ = w.encoder.Close()
		w.encoder = nil
	}
}
