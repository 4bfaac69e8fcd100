package section

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/fastcodec/endian"
	"github.com/arloliu/fastcodec/errs"
	"github.com/arloliu/fastcodec/format"
)

func TestNewArchiveHeader(t *testing.T) {
	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	header := NewArchiveHeader(createdAt)

	require.NotNil(t, header)
	require.Equal(t, createdAt.UnixMicro(), header.CreatedAt)
	require.Equal(t, createdAt, header.CreatedAtAsTime().UTC())
	require.Equal(t, uint32(0), header.MessageCount)
	require.Equal(t, uint16(MagicArchiveV1Opt), header.Flag.GetMagicNumber())
	require.True(t, header.Flag.IsLittleEndian())
	require.Equal(t, format.CompressionNone, header.Flag.Compression())
	require.NoError(t, header.Flag.Validate())
}

func TestArchiveHeader_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		bigEndian bool
	}{
		{"LittleEndian", false},
		{"BigEndian", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := NewArchiveHeader(time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC))
			if tt.bigEndian {
				original.Flag.WithBigEndian()
			}
			original.Flag.PreambleSize = 4
			original.Flag.SetCompression(format.CompressionS2)
			original.MessageCount = 10
			original.PayloadSize = 4096
			original.CompressedSize = 1024
			original.Checksum = 0x0123456789ABCDEF

			data := original.Bytes()
			require.Len(t, data, HeaderSize)

			parsed, err := ParseArchiveHeader(append(data, 0xFF, 0xFF))
			require.NoError(t, err)
			require.Equal(t, *original, parsed)
			require.Equal(t, tt.bigEndian, parsed.Flag.IsBigEndian())
		})
	}
}

func TestArchiveHeader_Bytes(t *testing.T) {
	header := NewArchiveHeader(time.UnixMicro(0))
	header.MessageCount = 2
	header.Checksum = 1

	data := header.Bytes()

	// options are always little-endian
	require.Equal(t, []byte{0x10, 0xFA, 0x00, byte(format.CompressionNone)}, data[0:4])
	require.Equal(t, uint32(2), endian.GetLittleEndianEngine().Uint32(data[12:16]))
	require.Equal(t, uint64(1), endian.GetLittleEndianEngine().Uint64(data[24:32]))

	header.Flag.WithBigEndian()
	data = header.Bytes()
	require.Equal(t, []byte{0x11, 0xFA}, data[0:2])
	require.Equal(t, uint32(2), endian.GetBigEndianEngine().Uint32(data[12:16]))
}

func TestArchiveHeader_ParseErrors(t *testing.T) {
	valid := NewArchiveHeader(time.Now()).Bytes()

	corrupt := func(fn func(b []byte)) []byte {
		b := append([]byte(nil), valid...)
		fn(b)

		return b
	}

	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"TooShort", valid[:HeaderSize-1], errs.ErrInvalidHeaderSize},
		{"BadMagic", corrupt(func(b []byte) { b[1] = 0xEA }), errs.ErrInvalidMagicNumber},
		{"ReservedBits", corrupt(func(b []byte) { b[0] |= 0x04 }), errs.ErrInvalidHeaderFlags},
		{"PreambleTooLarge", corrupt(func(b []byte) { b[2] = MaxPreambleSize + 1 }), errs.ErrInvalidHeaderFlags},
		{"UnknownCompression", corrupt(func(b []byte) { b[3] = 0x0F }), errs.ErrInvalidHeaderFlags},
		{"ZeroCompression", corrupt(func(b []byte) { b[3] = 0x00 }), errs.ErrInvalidHeaderFlags},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArchiveHeader(tt.data)
			require.ErrorIs(t, err, tt.err)
		})
	}

	h := &ArchiveHeader{}
	require.ErrorIs(t, h.Parse(append(valid, 0)), errs.ErrInvalidHeaderSize, "Parse wants exactly one header")
}

func TestArchiveFlag_Endianness(t *testing.T) {
	f := NewArchiveFlag()
	require.Equal(t, endian.GetLittleEndianEngine(), f.GetEndianEngine())

	f.WithBigEndian()
	require.True(t, f.IsBigEndian())
	require.Equal(t, endian.GetBigEndianEngine(), f.GetEndianEngine())

	f.WithLittleEndian()
	require.True(t, f.IsLittleEndian())
	require.Equal(t, uint16(MagicArchiveV1Opt), f.GetMagicNumber())
}
