package frame

import (
	"fmt"
	"io"

	"github.com/arloliu/fastcodec/encoding"
	"github.com/arloliu/fastcodec/errs"
)

// Frame is one framed message.
type Frame struct {
	// Seq is the preamble sequence number, zero without preamble.
	Seq uint64
	// Payload aliases the reader's buffer. Without block length it holds
	// every remaining byte after the preamble.
	Payload []byte
}

// Reader splits a buffer into frames. A Reader is not safe for concurrent use.
type Reader struct {
	cfg     *Config
	data    []byte
	pos     int
	pending bool
}

// NewReader creates a frame reader over data.
func NewReader(data []byte, opts ...Option) (*Reader, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Reader{cfg: cfg, data: data}, nil
}

// Reset points the reader at data.
func (r *Reader) Reset(data []byte) {
	r.data = data
	r.pos = 0
	r.pending = false
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// Next returns the next frame, or io.EOF when the buffer is exhausted.
//
// Without block length, the caller must report the decoded size of the
// payload with Advance before calling Next again.
//
// Returns:
//   - Frame: the next frame
//   - error: io.EOF at the end of data, ErrInvalidFrame on a truncated or
//     oversized frame or a missing Advance
func (r *Reader) Next() (Frame, error) {
	if r.pending {
		return Frame{}, fmt.Errorf("%w: Advance was not called after the previous frame", errs.ErrInvalidFrame)
	}
	if r.pos == len(r.data) {
		return Frame{}, io.EOF
	}

	start := r.pos
	buf := r.data[r.pos:]
	if len(buf) < r.cfg.preambleSize {
		return Frame{}, r.truncated(start, "preamble")
	}

	var f Frame
	f.Seq = r.readPreamble(buf)
	buf = buf[r.cfg.preambleSize:]

	if !r.cfg.blockLength {
		r.pos += r.cfg.preambleSize
		r.pending = true
		f.Payload = buf

		return f, nil
	}

	length, n, err := encoding.DecodeUint(buf)
	if err != nil {
		return Frame{}, r.truncated(start, "block length")
	}
	if length > uint64(r.cfg.maxBlockLength) {
		return Frame{}, fmt.Errorf("%w: block length %d at offset %d exceeds %d",
			errs.ErrInvalidFrame, length, start, r.cfg.maxBlockLength)
	}
	buf = buf[n:]
	if uint64(len(buf)) < length {
		return Frame{}, r.truncated(start, "payload")
	}

	f.Payload = buf[:length:length]
	r.pos += r.cfg.preambleSize + n + int(length) //nolint:gosec

	return f, nil
}

// Advance consumes n payload bytes of the current frame. It is only needed
// without block length.
func (r *Reader) Advance(n int) error {
	if !r.pending {
		return fmt.Errorf("%w: no frame to advance", errs.ErrInvalidFrame)
	}
	if n < 0 || n > len(r.data)-r.pos {
		return fmt.Errorf("%w: cannot advance %d of %d bytes", errs.ErrInvalidFrame, n, len(r.data)-r.pos)
	}
	r.pos += n
	r.pending = false

	return nil
}

func (r *Reader) readPreamble(buf []byte) uint64 {
	engine := r.cfg.engine
	switch r.cfg.preambleSize {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(engine.Uint16(buf))
	case 4:
		return uint64(engine.Uint32(buf))
	case 8:
		return engine.Uint64(buf)
	default:
		return 0
	}
}

func (r *Reader) truncated(offset int, part string) error {
	return fmt.Errorf("%w: truncated %s at offset %d", errs.ErrInvalidFrame, part, offset)
}
