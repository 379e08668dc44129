package hashvault

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	hverrors "github.com/tamirms/hashvault/errors"
)

// hashCheckInterval is how often VerifyHashes checks for cancellation.
const hashCheckInterval = 1 << 14

// maxDecodePrealloc caps the buffer reserved up front for a compressed shard;
// DecodeAll grows it if the frame holds more.
const maxDecodePrealloc = 64 << 20

// Dataset is a read-only, globally sorted record dataset opened from disk.
//
// Thread Safety:
//   - Shard, All, Verify and VerifyHashes are safe for concurrent use
//   - Close must only be called after all readers have finished
//   - Record slices returned by Shard are backed by memory maps and become
//     invalid after Close
type Dataset struct {
	path        string
	info        DatasetInfo
	compression Compression
	shards      []*shard
	numRecords  uint64
	closed      atomic.Bool
}

// shard is one opened shard file.
type shard struct {
	header  *shardHeader
	footer  *shardFooter
	mmap    mmap.MMap // nil for decoded (compressed) shards
	records []Record
}

// OpenDataset opens the dataset directory at path.
//
// Every shard header is validated, shards must be numbered contiguously from
// zero and agree on their shared metadata. Uncompressed shards are
// memory-mapped and exposed without copying; zstd shards are decoded into
// memory. Checksums and ordering are checked separately by Verify.
func OpenDataset(path string) (*Dataset, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset directory: %w", err)
	}

	// Shards are located by index rather than by sorting names: the
	// zero padding of shardNameFormat widens past 99999 shards.
	present := make(map[string]struct{})
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "part-") && strings.HasSuffix(e.Name(), ".hvs") {
			present[e.Name()] = struct{}{}
		}
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("%w: no shards in %s", hverrors.ErrMissingShard, path)
	}

	d := &Dataset{path: path}
	var dec *zstd.Decoder
	defer func() {
		if dec != nil {
			dec.Close()
		}
	}()

	for i := range len(present) {
		name := fmt.Sprintf(shardNameFormat, i)
		if _, ok := present[name]; !ok {
			primaryErr := fmt.Errorf("%w: expected %s", hverrors.ErrMissingShard, name)
			return nil, errors.Join(primaryErr, d.Close())
		}
		s, err := openShard(filepath.Join(path, name), &dec)
		if err != nil {
			primaryErr := fmt.Errorf("open shard %d: %w", i, err)
			return nil, errors.Join(primaryErr, d.Close())
		}
		d.shards = append(d.shards, s)

		if err := d.checkShard(i, s.header); err != nil {
			return nil, errors.Join(err, d.Close())
		}
		d.numRecords += s.header.RecordCount
	}

	if want := int(d.shards[0].header.NumShards); want != len(d.shards) {
		primaryErr := fmt.Errorf("%w: header declares %d shards, found %d",
			hverrors.ErrMissingShard, want, len(d.shards))
		return nil, errors.Join(primaryErr, d.Close())
	}

	return d, nil
}

// checkShard verifies that shard i agrees with shard 0.
func (d *Dataset) checkShard(i int, h *shardHeader) error {
	if i == 0 {
		d.info = DatasetInfo{Hash: h.Hash, Exponent: int(h.Exponent)}
		d.compression = h.Compression
	}
	first := d.shards[0].header
	if h.ShardIndex != uint32(i) || h.NumShards != first.NumShards ||
		h.Hash != first.Hash || h.Exponent != first.Exponent || h.Compression != first.Compression {
		return fmt.Errorf("%w: shard %d metadata disagrees with shard 0", hverrors.ErrCorruptedDataset, i)
	}
	return nil
}

// openShard maps one shard file. dec is created lazily for compressed shards.
func openShard(path string, dec **zstd.Decoder) (*shard, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat shard file: %w", err)
	}
	fileSize := stat.Size()
	if fileSize < headerSize+footerSize {
		return nil, hverrors.ErrTruncatedFile
	}

	fadviseSequential(int(file.Fd()), 0, fileSize)

	mm, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap shard file: %w", err)
	}
	data := []byte(mm)

	hdr, err := decodeShardHeader(data[:headerSize])
	if err != nil {
		return nil, errors.Join(err, mm.Unmap())
	}
	if hdr.RegionSize > uint64(fileSize)-headerSize-footerSize {
		return nil, errors.Join(hverrors.ErrTruncatedFile, mm.Unmap())
	}
	regionEnd := headerSize + hdr.RegionSize
	if regionEnd+footerSize != uint64(fileSize) {
		return nil, errors.Join(hverrors.ErrCorruptedDataset, mm.Unmap())
	}
	ftr, err := decodeShardFooter(data[regionEnd:])
	if err != nil {
		return nil, errors.Join(err, mm.Unmap())
	}
	region := data[headerSize:regionEnd]

	s := &shard{header: hdr, footer: ftr}
	if hdr.RecordCount == 0 {
		return s, mm.Unmap()
	}
	if hdr.Compression == CompressionNone {
		s.mmap = mm
		s.records = bytesToRecords(region)
		return s, nil
	}

	if *dec == nil {
		*dec, err = zstd.NewReader(nil)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("create zstd decoder: %w", err), mm.Unmap())
		}
	}
	want := hdr.RecordCount * RecordSize
	var fh zstd.Header
	if err := fh.Decode(region); err != nil {
		return nil, errors.Join(fmt.Errorf("%w: %w", hverrors.ErrCorruptedDataset, err), mm.Unmap())
	}
	if fh.HasFCS && fh.FrameContentSize != want {
		return nil, errors.Join(hverrors.ErrCorruptedDataset, mm.Unmap())
	}
	raw, err := (*dec).DecodeAll(region, make([]byte, 0, min(want, maxDecodePrealloc)))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("%w: %w", hverrors.ErrCorruptedDataset, err), mm.Unmap())
	}
	if uint64(len(raw)) != want {
		return nil, errors.Join(hverrors.ErrCorruptedDataset, mm.Unmap())
	}
	s.records = bytesToRecords(raw)
	return s, mm.Unmap()
}

// Path returns the dataset directory.
func (d *Dataset) Path() string {
	return d.path
}

// Info returns the metadata recorded at generation time.
func (d *Dataset) Info() DatasetInfo {
	return d.info
}

// Compression returns the shard encoding.
func (d *Dataset) Compression() Compression {
	return d.compression
}

// NumShards returns the number of shards.
func (d *Dataset) NumShards() int {
	return len(d.shards)
}

// Len returns the total number of records.
func (d *Dataset) Len() uint64 {
	return d.numRecords
}

// Shard returns the records of shard i in stored order.
func (d *Dataset) Shard(i int) []Record {
	return d.shards[i].records
}

// All yields every record in global scan order.
func (d *Dataset) All() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, s := range d.shards {
			for _, rec := range s.records {
				if !yield(rec) {
					return
				}
			}
		}
	}
}

// Verify checks every shard checksum and that records are non-decreasing
// across the whole dataset, shard boundaries included.
func (d *Dataset) Verify() error {
	if d.closed.Load() {
		return hverrors.ErrDatasetClosed
	}

	for i, s := range d.shards {
		if xxhash.Sum64(recordBytes(s.records)) != s.footer.RecordsHash {
			return fmt.Errorf("shard %d: %w", i, hverrors.ErrChecksumFailed)
		}
	}

	var prev Record
	var pos uint64
	for rec := range d.All() {
		if pos > 0 && CompareRecords(prev, rec) > 0 {
			return fmt.Errorf("%w: record %d (%s) sorts before record %d (%s)",
				hverrors.ErrUnsortedDataset, pos, rec, pos-1, prev)
		}
		prev = rec
		pos++
	}
	return nil
}

// VerifyHashes recomputes the hash prefix of every record from its nonce,
// checking shards in parallel on up to workers goroutines.
func (d *Dataset) VerifyHashes(ctx context.Context, workers int) error {
	if d.closed.Load() {
		return hverrors.ErrDatasetClosed
	}
	gen, err := NewGenerator(d.info.Hash)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, s := range d.shards {
		g.Go(func() error {
			for j, rec := range s.records {
				if j%hashCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if !gen.Check(rec) {
					return fmt.Errorf("%w: shard %d record %d (%s)", hverrors.ErrHashMismatch, i, j, rec)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Close unmaps every shard. Safe to call multiple times.
func (d *Dataset) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	var errs []error
	for _, s := range d.shards {
		if s.mmap != nil {
			if err := s.mmap.Unmap(); err != nil {
				errs = append(errs, err)
			}
			s.mmap = nil
		}
		s.records = nil
	}
	return errors.Join(errs...)
}
