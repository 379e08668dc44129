package hashvault

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/zeebo/xxh3"

	hverrors "github.com/tamirms/hashvault/errors"
)

const (
	// magic number for hashvault shard files
	// "HVLT" in little-endian
	magic = uint32(0x544C5648)

	// version is the current format version
	version = uint16(0x0001)

	// headerSize is the exact size of the serialized shard header (64 bytes)
	headerSize = 64

	// headerHashOffset is where the header checksum starts; it covers bytes [0, headerHashOffset).
	headerHashOffset = 56

	// footerSize is the exact size of the serialized shard footer (32 bytes)
	footerSize = 32

	// shardNameFormat names shard i inside a dataset directory.
	shardNameFormat = "part-%05d.hvs"
)

// Compression identifies how a shard's record region is encoded.
type Compression uint8

const (
	// CompressionNone stores records back to back, 16 bytes each.
	CompressionNone Compression = 0

	// CompressionZstd stores the record region as a single zstd frame.
	CompressionZstd Compression = 1
)

// String returns the compression name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseCompression maps a name produced by String back to its ID.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", hverrors.ErrUnknownCompression, name)
	}
}

// shardHeader is the 64-byte shard file header.
//
// Layout:
//
//	Offset  Size  Field        Type
//	0       4     Magic        0x544C5648 ("HVLT")
//	4       2     Version      0x0001
//	6       1     Hash         uint8 (0=BLAKE3, 1=BLAKE2b, 2=SHA3)
//	7       1     Compression  uint8 (0=none, 1=zstd)
//	8       1     Exponent     uint8 (dataset holds 2^Exponent records)
//	9       3     Reserved     [3]byte (zero)
//	12      4     ShardIndex   uint32_le
//	16      4     NumShards    uint32_le
//	20      8     RecordCount  uint64_le
//	28      8     RegionSize   uint64_le (bytes on disk between header and footer)
//	36      20    Reserved     [20]byte (zero)
//	56      8     HeaderHash   uint64_le (xxh3-64 of bytes 0..55)
type shardHeader struct {
	Magic       uint32
	Version     uint16
	Hash        HashAlgorithm
	Compression Compression
	Exponent    uint8
	ShardIndex  uint32
	NumShards   uint32
	RecordCount uint64
	RegionSize  uint64
}

// encodeTo serializes the header, including its checksum, into buf.
func (h *shardHeader) encodeTo(buf []byte) {
	clear(buf[:headerSize])
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	buf[6] = byte(h.Hash)
	buf[7] = byte(h.Compression)
	buf[8] = h.Exponent
	binary.LittleEndian.PutUint32(buf[12:16], h.ShardIndex)
	binary.LittleEndian.PutUint32(buf[16:20], h.NumShards)
	binary.LittleEndian.PutUint64(buf[20:28], h.RecordCount)
	binary.LittleEndian.PutUint64(buf[28:36], h.RegionSize)
	binary.LittleEndian.PutUint64(buf[headerHashOffset:headerSize], xxh3.Hash(buf[:headerHashOffset]))
}

// decodeShardHeader parses and validates a 64-byte header.
func decodeShardHeader(buf []byte) (*shardHeader, error) {
	if len(buf) < headerSize {
		return nil, hverrors.ErrTruncatedFile
	}

	h := &shardHeader{
		Magic:       binary.LittleEndian.Uint32(buf[0:4]),
		Version:     binary.LittleEndian.Uint16(buf[4:6]),
		Hash:        HashAlgorithm(buf[6]),
		Compression: Compression(buf[7]),
		Exponent:    buf[8],
		ShardIndex:  binary.LittleEndian.Uint32(buf[12:16]),
		NumShards:   binary.LittleEndian.Uint32(buf[16:20]),
		RecordCount: binary.LittleEndian.Uint64(buf[20:28]),
		RegionSize:  binary.LittleEndian.Uint64(buf[28:36]),
	}

	if h.Magic != magic {
		return nil, hverrors.ErrInvalidMagic
	}
	if h.Version != version {
		return nil, hverrors.ErrInvalidVersion
	}
	if binary.LittleEndian.Uint64(buf[headerHashOffset:headerSize]) != xxh3.Hash(buf[:headerHashOffset]) {
		return nil, hverrors.ErrChecksumFailed
	}
	if h.Hash.String() == "unknown" || h.Compression.String() == "unknown" {
		return nil, hverrors.ErrCorruptedDataset
	}
	if int(h.Exponent) > MaxExponent || h.NumShards == 0 || h.ShardIndex >= h.NumShards {
		return nil, hverrors.ErrCorruptedDataset
	}
	if h.RecordCount > MaxNonce {
		return nil, hverrors.ErrCorruptedDataset
	}
	if h.Compression == CompressionNone &&
		(h.RegionSize%RecordSize != 0 || h.RegionSize/RecordSize != h.RecordCount) {
		return nil, hverrors.ErrCorruptedDataset
	}

	return h, nil
}

// shardFooter is the 32-byte shard file footer.
//
// Layout:
//
//	Offset  Size  Field        Type
//	0       8     RecordsHash  uint64_le (xxHash64 of the uncompressed record region)
//	8       24    Reserved     [24]byte (zero)
type shardFooter struct {
	RecordsHash uint64
}

func (f *shardFooter) encodeTo(buf []byte) {
	clear(buf[:footerSize])
	binary.LittleEndian.PutUint64(buf[0:8], f.RecordsHash)
}

func decodeShardFooter(buf []byte) (*shardFooter, error) {
	if len(buf) < footerSize {
		return nil, hverrors.ErrTruncatedFile
	}
	return &shardFooter{RecordsHash: binary.LittleEndian.Uint64(buf[0:8])}, nil
}

// recordBytes views records as their raw bytes without copying.
func recordBytes(records []Record) []byte {
	if len(records) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(records))), len(records)*RecordSize)
}

// bytesToRecords views b as records without copying.
// Precondition: len(b) is a multiple of RecordSize.
func bytesToRecords(b []byte) []Record {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*Record)(unsafe.Pointer(unsafe.SliceData(b))), len(b)/RecordSize)
}
