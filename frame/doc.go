// Package frame implements block framing of FAST messages.
//
// Encoded FAST messages carry no length, so transports and capture files
// delimit them with framing. A frame is an optional fixed-size preamble
// (typically a packet sequence number) followed by an optional stop-bit
// encoded block length and the message bytes:
//
//	┌──────────────────┬──────────────────────┬─────────────────┐
//	│ preamble (0-8 B) │ block length (1-5 B) │ message payload │
//	└──────────────────┴──────────────────────┴─────────────────┘
//
// The preamble byte order is chosen with an endian.EndianEngine. Without a
// block length, the reader cannot find the end of a message by itself; the
// caller decodes the payload and reports the consumed size with Advance.
package frame
