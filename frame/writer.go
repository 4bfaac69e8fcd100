package frame

import (
	"fmt"
	"math"

	"github.com/arloliu/fastcodec/encoding"
	"github.com/arloliu/fastcodec/errs"
)

// Writer appends framed messages to caller-owned buffers. It holds no state
// besides its configuration and is safe for concurrent use.
type Writer struct {
	cfg *Config
}

// NewWriter creates a frame writer.
func NewWriter(opts ...Option) (*Writer, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Writer{cfg: cfg}, nil
}

// Config returns the writer configuration.
func (w *Writer) Config() *Config { return w.cfg }

// Append appends one frame holding payload to dst. seq is written to the
// preamble and ignored when the preamble is disabled.
//
// Returns:
//   - []byte: dst with the frame appended, or dst unchanged on error
//   - error: ErrInvalidFrame when seq does not fit the preamble or payload
//     exceeds the 32-bit block length
func (w *Writer) Append(dst []byte, seq uint64, payload []byte) ([]byte, error) {
	if size := w.cfg.preambleSize; size > 0 && size < 8 && seq>>(8*size) != 0 {
		return dst, fmt.Errorf("%w: sequence %d exceeds %d-byte preamble", errs.ErrInvalidFrame, seq, size)
	}
	if w.cfg.blockLength && uint64(len(payload)) > math.MaxUint32 {
		return dst, fmt.Errorf("%w: payload of %d bytes exceeds the block length", errs.ErrInvalidFrame, len(payload))
	}

	dst = w.appendPreamble(dst, seq)
	if w.cfg.blockLength {
		dst = encoding.AppendUint(dst, uint64(len(payload)))
	}

	return append(dst, payload...), nil
}

// Overhead returns the framing bytes Append adds around a payload of n bytes.
func (w *Writer) Overhead(n int) int {
	size := w.cfg.preambleSize
	if w.cfg.blockLength {
		size += len(encoding.AppendUint(nil, uint64(n))) //nolint:gosec
	}

	return size
}

func (w *Writer) appendPreamble(dst []byte, seq uint64) []byte {
	engine := w.cfg.engine
	switch w.cfg.preambleSize {
	case 1:
		return append(dst, byte(seq))
	case 2:
		return engine.AppendUint16(dst, uint16(seq)) //nolint:gosec
	case 4:
		return engine.AppendUint32(dst, uint32(seq)) //nolint:gosec
	case 8:
		return engine.AppendUint64(dst, seq)
	default:
		return dst
	}
}
