package section

import (
	"github.com/arloliu/fastcodec/endian"
	"github.com/arloliu/fastcodec/errs"
	"github.com/arloliu/fastcodec/format"
)

// ArchiveFlag represents the packed flag field at the start of an archive header.
type ArchiveFlag struct {
	// Options is a packed field for various options.
	// Bit 0 is endianness flag, 0 means little-endian, 1 means big-endian.
	// Bit 1-3 are reserved for future use, must be set to 0.
	// Bit 4-15 are the magic number, 0xFA10 for archive format v1.
	Options uint16

	// PreambleSize is the number of preamble bytes before every frame, 0 to 8.
	PreambleSize uint8

	// CompressionType is the compression applied to the payload, bits 0-3.
	CompressionType uint8
}

var validCompressions = map[uint8]struct{}{
	uint8(format.CompressionNone): {},
	uint8(format.CompressionZstd): {},
	uint8(format.CompressionS2):   {},
	uint8(format.CompressionLZ4):  {},
}

// NewArchiveFlag creates a little-endian flag without preamble or compression.
func NewArchiveFlag() ArchiveFlag {
	return ArchiveFlag{
		Options:         MagicArchiveV1Opt,
		CompressionType: uint8(format.CompressionNone),
	}
}

// IsLittleEndian returns whether the header and preambles are little-endian.
func (f ArchiveFlag) IsLittleEndian() bool {
	return (f.Options & EndiannessMask) == 0
}

// IsBigEndian returns whether the header and preambles are big-endian.
func (f ArchiveFlag) IsBigEndian() bool {
	return (f.Options & EndiannessMask) != 0
}

// WithLittleEndian sets little-endian byte order.
func (f *ArchiveFlag) WithLittleEndian() {
	f.Options &^= EndiannessMask
}

// WithBigEndian sets big-endian byte order.
func (f *ArchiveFlag) WithBigEndian() {
	f.Options |= EndiannessMask
}

// GetMagicNumber returns the magic number from the Options field.
func (f ArchiveFlag) GetMagicNumber() uint16 {
	return f.Options & MagicNumberMask
}

// Compression returns the payload compression type.
func (f ArchiveFlag) Compression() format.CompressionType {
	return format.CompressionType(f.CompressionType & 0x0F)
}

// SetCompression sets the payload compression type.
func (f *ArchiveFlag) SetCompression(compression format.CompressionType) {
	f.CompressionType = uint8(compression) & 0x0F
}

// Validate checks the magic number, the reserved bits, the preamble size and
// the compression type.
func (f ArchiveFlag) Validate() error {
	if f.GetMagicNumber() != MagicArchiveV1Opt {
		return errs.ErrInvalidMagicNumber
	}

	if f.Options&ReservedBitsMask != 0 || f.PreambleSize > MaxPreambleSize {
		return errs.ErrInvalidHeaderFlags
	}

	if _, ok := validCompressions[f.CompressionType]; !ok {
		return errs.ErrInvalidHeaderFlags
	}

	return nil
}

// GetEndianEngine returns the endian engine selected by the flag.
func (f ArchiveFlag) GetEndianEngine() endian.EndianEngine {
	if f.IsLittleEndian() {
		return endian.GetLittleEndianEngine()
	}

	return endian.GetBigEndianEngine()
}
