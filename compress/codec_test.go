package compress

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/fastcodec/format"
)

func getAllCodecs() map[string]Codec {
	return map[string]Codec{
		"NoOp": NewNoOpCompressor(),
		"LZ4":  NewLZ4Compressor(),
		"S2":   NewS2Compressor(),
		"Zstd": NewZstdCompressor(),
	}
}

// feedPayload imitates a block-framed capture: short frames with a repeating
// template id and presence map and a slowly changing sequence number.
func feedPayload(frames int) []byte {
	var buf []byte
	for i := 0; i < frames; i++ {
		buf = append(buf, 0x0C, 0xE0, 0x8B, byte(i>>7)&0x7F, byte(i)|0x80)
		buf = append(buf, []byte("EURUSD")...)
		buf = append(buf, 0x81, 0x7F, 0x9E)
	}

	return buf
}

func TestCreateCodec(t *testing.T) {
	tests := []struct {
		cType format.CompressionType
		want  Codec
	}{
		{format.CompressionNone, NoOpCompressor{}},
		{format.CompressionZstd, ZstdCompressor{}},
		{format.CompressionS2, S2Compressor{}},
		{format.CompressionLZ4, LZ4Compressor{}},
	}

	for _, tt := range tests {
		t.Run(tt.cType.String(), func(t *testing.T) {
			codec, err := CreateCodec(tt.cType, "archive")
			require.NoError(t, err)
			require.Equal(t, tt.want, codec)

			shared, err := GetCodec(tt.cType)
			require.NoError(t, err)
			require.Equal(t, tt.want, shared)
		})
	}

	_, err := CreateCodec(format.CompressionType(0x0F), "archive")
	require.ErrorContains(t, err, "invalid archive compression: Unknown")

	_, err = GetCodec(format.CompressionType(0x0F))
	require.Error(t, err)
}

func TestCompressionStats(t *testing.T) {
	tests := []struct {
		name    string
		stats   CompressionStats
		ratio   float64
		savings float64
	}{
		{"Half", CompressionStats{Algorithm: format.CompressionZstd, OriginalSize: 1000, CompressedSize: 500}, 0.5, 50},
		{"NoGain", CompressionStats{Algorithm: format.CompressionNone, OriginalSize: 1000, CompressedSize: 1000}, 1, 0},
		{"Expanded", CompressionStats{Algorithm: format.CompressionS2, OriginalSize: 100, CompressedSize: 125}, 1.25, -25},
		{"Empty", CompressionStats{Algorithm: format.CompressionLZ4}, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.ratio, tt.stats.CompressionRatio(), 1e-9)
			require.InDelta(t, tt.savings, tt.stats.SpaceSavings(), 1e-9)
		})
	}
}

func TestAllCodecs_EmptyData(t *testing.T) {
	for name, codec := range getAllCodecs() {
		t.Run(name, func(t *testing.T) {
			compressed, err := codec.Compress(nil)
			require.NoError(t, err)
			require.Empty(t, compressed)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Empty(t, decompressed)
		})
	}
}

func TestAllCodecs_RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"SingleByte", []byte{0x42}},
		{"Binary", []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE, 0xFD, 0xFC}},
		{"RepeatedPattern", bytes.Repeat([]byte("ABCD"), 100)},
		{"Feed", feedPayload(2000)},
		{"Zeros", make([]byte, 1<<20)},
	}

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			for _, tc := range cases {
				t.Run(tc.name, func(t *testing.T) {
					compressed, err := codec.Compress(tc.data)
					require.NoError(t, err)

					decompressed, err := codec.Decompress(compressed)
					require.NoError(t, err)
					require.Equal(t, tc.data, decompressed)
				})
			}
		})
	}
}

func TestAllCodecs_CompressFeed(t *testing.T) {
	data := feedPayload(4000)

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			if codecName == "NoOp" {
				require.Len(t, compressed, len(data))
				return
			}
			require.Less(t, len(compressed), len(data)/2)
		})
	}
}

func TestAllCodecs_InvalidData(t *testing.T) {
	invalid := [][]byte{
		{0xFF, 0xFF, 0xFF, 0xFF},
		[]byte("this is not compressed data"),
		{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07},
	}

	for codecName, codec := range getAllCodecs() {
		if codecName == "NoOp" {
			continue
		}
		t.Run(codecName, func(t *testing.T) {
			for i, data := range invalid {
				_, err := codec.Decompress(data)
				require.Error(t, err, "input %d", i)
			}
		})
	}
}

func TestLZ4Compressor_DecompressSized(t *testing.T) {
	require := require.New(t)

	data := feedPayload(500)
	c := NewLZ4Compressor()

	compressed, err := c.Compress(data)
	require.NoError(err)

	decompressed, err := c.DecompressSized(compressed, len(data))
	require.NoError(err)
	require.Equal(data, decompressed)

	_, err = c.DecompressSized(compressed, len(data)/2)
	require.Error(err, "a short buffer is an error when the size is known")

	_, err = c.DecompressSized(compressed, len(compressed)*lz4MaxRatio+1)
	require.ErrorIs(err, ErrDecompressedSize)
	_, err = c.DecompressSized([]byte{0x10}, 1<<20)
	require.ErrorIs(err, ErrDecompressedSize)
	_, err = c.DecompressSized(compressed, -1)
	require.ErrorIs(err, ErrDecompressedSize)

	empty, err := c.DecompressSized(nil, 0)
	require.NoError(err)
	require.Nil(empty)
}

func TestAllCodecs_ConcurrentUsage(t *testing.T) {
	data := feedPayload(300)

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			var g errgroup.Group
			for i := 0; i < 20; i++ {
				g.Go(func() error {
					if _, err := codec.Compress(data); err != nil {
						return err
					}
					decompressed, err := codec.Decompress(compressed)
					if err != nil {
						return err
					}
					if !bytes.Equal(data, decompressed) {
						return fmt.Errorf("goroutine %d: decompressed data mismatch", i)
					}

					return nil
				})
			}
			require.NoError(t, g.Wait())
		})
	}
}

func BenchmarkCodecs_Feed(b *testing.B) {
	data := feedPayload(4000)

	for codecName, codec := range getAllCodecs() {
		compressed, err := codec.Compress(data)
		require.NoError(b, err)

		b.Run(codecName+"/Compress", func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			for b.Loop() {
				_, _ = codec.Compress(data)
			}
		})
		b.Run(codecName+"/Decompress", func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			for b.Loop() {
				_, _ = codec.Decompress(compressed)
			}
		})
	}
}
