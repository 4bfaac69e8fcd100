// Package encoding implements the FAST 1.1 wire primitives.
//
// Every entity on the wire is stop-bit terminated: each byte carries seven
// data bits and the high bit is set only on the last byte of the entity.
//
//   - Integers are big-endian groups of seven bits. Signed integers are
//     sign-extended, with a 0x00/0x7F padding group when the most significant
//     group's sign bit disagrees with the value's sign.
//   - Nullable integers shift non-negative values up by one so that 0x80
//     encodes null. The maximum int64/uint64 have reserved encodings.
//   - ASCII strings mark their last character with the stop bit.
//   - Unicode strings and byte vectors are a stop-bit length followed by raw bytes.
//   - Presence maps are bit fields read most significant bit first, seven
//     bits per byte, with trailing zero bytes omitted.
//
// The Append*/Decode* functions work on plain byte slices. Reader and Writer
// wrap them as cursors for the codec engines.
package encoding
