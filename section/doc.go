// Package section defines the fixed-size binary structures of a capture archive.
//
// A capture archive stores a stream of encoded FAST messages together with
// enough metadata to validate and replay it:
//
//	┌─────────────────────────────────────────────────────────┐
//	│ Header (32 bytes, fixed)                                │
//	│  - Flag (4 bytes): magic, endianness, preamble size,    │
//	│    compression                                          │
//	│  - CreatedAt, MessageCount, payload sizes, checksum     │
//	├─────────────────────────────────────────────────────────┤
//	│ Payload (variable)                                      │
//	│  - Block-framed messages, compressed as a whole         │
//	└─────────────────────────────────────────────────────────┘
//
// # Header Format
//
//	Bytes  | Field          | Type   | Description
//	-------|----------------|--------|----------------------------------------
//	0-1    | Options        | uint16 | Magic number and endianness bit
//	2      | PreambleSize   | uint8  | Bytes of preamble before every frame
//	3      | Compression    | uint8  | Payload compression (format.CompressionType)
//	4-11   | CreatedAt      | int64  | Unix timestamp in microseconds
//	12-15  | MessageCount   | uint32 | Number of framed messages
//	16-19  | PayloadSize    | uint32 | Uncompressed payload size
//	20-23  | CompressedSize | uint32 | Stored payload size
//	24-31  | Checksum       | uint64 | xxHash64 of the uncompressed payload
//
// The Options field is always little-endian; every other multi-byte field,
// and the frame preambles in the payload, use the byte order selected by the
// endianness bit.
package section
