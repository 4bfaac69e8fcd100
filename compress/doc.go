// Package compress provides the payload codecs of capture archives.
//
// FAST already removes most redundancy inside a single message through field
// operators, but a recorded feed still repeats template identifiers, symbols
// and presence-map patterns from message to message. Archives therefore
// compress the block-framed payload as a whole with one of:
//   - None: No compression
//   - Zstd: Best ratio, moderate speed
//   - S2: Balanced ratio and speed
//   - LZ4: Fastest decompression
//
// The package defines three interfaces:
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// Use GetCodec for the shared built-in codecs:
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//	compressed, err := codec.Compress(payload)
//
// # Zstandard Implementations
//
// The default Zstd codec is the pure-Go klauspost/compress/zstd with pooled
// encoders and decoders. Building with the "gozstd" tag and cgo enabled
// switches to the libzstd binding github.com/valyala/gozstd. Both produce
// standard zstd frames, so archives written by one are readable by the other.
//
// # Thread Safety
//
// All codecs in this package are stateless values and safe for concurrent use.
package compress
