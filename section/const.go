package section

import "math"

const (
	// Bit masks of ArchiveFlag.Options
	EndiannessMask   = 0x0001 // Mask for endianness bit (bit 0)
	ReservedBitsMask = 0x000E // Mask for reserved bits (bits 1-3)
	MagicNumberMask  = 0xFFF0 // Mask for magic number (bits 4-15)

	// MagicArchiveV1Opt is the version 1 magic number of the capture archive format.
	MagicArchiveV1Opt = 0xFA10

	// MaxPreambleSize is the largest supported frame preamble, in bytes.
	MaxPreambleSize = 8
)

const (
	HeaderSize     = 32             // fixed header size in bytes
	MaxPayloadSize = math.MaxUint32 // maximum payload size, compressed or not
)
