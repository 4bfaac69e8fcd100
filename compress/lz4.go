package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
)

const (
	// lz4MaxBlockSize bounds the buffer growth of Decompress on unsized input.
	lz4MaxBlockSize = 128 * 1024 * 1024
	// lz4MaxRatio is the largest expansion of an LZ4 block.
	lz4MaxRatio = 255
)

// ErrDecompressedSize reports a decompressed size that the compressed input
// cannot produce.
var ErrDecompressedSize = errors.New("decompressed size out of range")

var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// SizedDecompressor is implemented by codecs that decompress faster when the
// decompressed size is known up front, as it is for archive payloads.
type SizedDecompressor interface {
	DecompressSized(data []byte, size int) ([]byte, error)
}

// LZ4Compressor provides LZ4 block compression.
type LZ4Compressor struct{}

var (
	_ Codec             = (*LZ4Compressor)(nil)
	_ SizedDecompressor = (*LZ4Compressor)(nil)
)

// NewLZ4Compressor creates a new LZ4 compressor.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses data into a single LZ4 block with a pooled compressor.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

// Decompress decodes a single LZ4 block of unknown decompressed size.
//
// The buffer starts at 4x the input and doubles on a short-buffer error up to
// 128MB, past which the input is treated as corrupted.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	for size := len(data) * 4; size <= lz4MaxBlockSize; size *= 2 {
		buf := make([]byte, size)
		n, err := lz4.UncompressBlock(data, buf)
		if err == nil {
			return buf[:n], nil
		}
		if !errors.Is(err, lz4.ErrInvalidSourceShortBuffer) {
			return nil, err
		}
	}

	return nil, lz4.ErrInvalidSourceShortBuffer
}

// DecompressSized decodes a single LZ4 block into a buffer of exactly size bytes.
//
// Sizes beyond the maximum LZ4 expansion of data fail with ErrDecompressedSize
// before anything is allocated.
func (c LZ4Compressor) DecompressSized(data []byte, size int) ([]byte, error) {
	if size < 0 || int64(size) > int64(len(data))*lz4MaxRatio {
		return nil, fmt.Errorf("%w: %d bytes from a %d byte block", ErrDecompressedSize, size, len(data))
	}
	if len(data) == 0 || size == 0 {
		return nil, nil
	}

	buf := make([]byte, size)
	n, err := lz4.UncompressBlock(data, buf)
	if err != nil {
		return nil, err
	}

	return buf[:n], nil
}
