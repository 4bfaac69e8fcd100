package section

import (
	"time"

	"github.com/arloliu/fastcodec/errs"
)

// ArchiveHeader represents the fixed-size header at the start of a capture archive.
type ArchiveHeader struct {
	// CreatedAt is the unix timestamp in microseconds when the archive was finished.
	CreatedAt int64 // byte offset 4-11
	// MessageCount is the number of framed messages in the payload.
	MessageCount uint32 // byte offset 12-15
	// PayloadSize is the size of the payload before compression.
	PayloadSize uint32 // byte offset 16-19
	// CompressedSize is the size of the payload as stored after the header.
	CompressedSize uint32 // byte offset 20-23
	// Checksum is the xxHash64 of the uncompressed payload.
	Checksum uint64 // byte offset 24-31

	// Flag is a packed field for the magic number and the payload options.
	Flag ArchiveFlag // byte offset 0-3
}

// NewArchiveHeader creates a header stamped with createdAt. Counts, sizes and
// the checksum are filled in when the archive is finished.
func NewArchiveHeader(createdAt time.Time) *ArchiveHeader {
	return &ArchiveHeader{
		CreatedAt: createdAt.UnixMicro(),
		Flag:      NewArchiveFlag(),
	}
}

// Parse parses the header from a byte slice.
//
// Returns:
//   - error: ErrInvalidHeaderSize if data is not 32 bytes, or flag validation errors
func (h *ArchiveHeader) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	// Options is always little-endian, it carries the endianness of the rest
	h.Flag.Options = uint16(data[0]) | (uint16(data[1]) << 8)
	h.Flag.PreambleSize = data[2]
	h.Flag.CompressionType = data[3]

	if err := h.Flag.Validate(); err != nil {
		return err
	}

	engine := h.Flag.GetEndianEngine()
	h.CreatedAt = int64(engine.Uint64(data[4:12])) //nolint:gosec
	h.MessageCount = engine.Uint32(data[12:16])
	h.PayloadSize = engine.Uint32(data[16:20])
	h.CompressedSize = engine.Uint32(data[20:24])
	h.Checksum = engine.Uint64(data[24:32])

	return nil
}

// Bytes serializes the header into a new 32-byte slice.
func (h *ArchiveHeader) Bytes() []byte {
	b := make([]byte, HeaderSize)

	engine := h.Flag.GetEndianEngine()

	b[0] = byte(h.Flag.Options)
	b[1] = byte(h.Flag.Options >> 8)
	b[2] = h.Flag.PreambleSize
	b[3] = h.Flag.CompressionType
	engine.PutUint64(b[4:12], uint64(h.CreatedAt)) //nolint:gosec
	engine.PutUint32(b[12:16], h.MessageCount)
	engine.PutUint32(b[16:20], h.PayloadSize)
	engine.PutUint32(b[20:24], h.CompressedSize)
	engine.PutUint64(b[24:32], h.Checksum)

	return b
}

// CreatedAtAsTime returns the creation time as a time.Time.
func (h ArchiveHeader) CreatedAtAsTime() time.Time {
	return time.UnixMicro(h.CreatedAt)
}

// ParseArchiveHeader parses an ArchiveHeader from the start of data.
//
// Returns:
//   - ArchiveHeader: Parsed header struct
//   - error: ErrInvalidHeaderSize or flag validation errors
func ParseArchiveHeader(data []byte) (ArchiveHeader, error) {
	if len(data) < HeaderSize {
		return ArchiveHeader{}, errs.ErrInvalidHeaderSize
	}

	h := ArchiveHeader{}
	if err := h.Parse(data[:HeaderSize]); err != nil {
		return ArchiveHeader{}, err
	}

	return h, nil
}
