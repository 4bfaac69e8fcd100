package encoding

import (
	"github.com/arloliu/fastcodec/internal/pool"
)

// Writer appends encoded FAST entities to a pooled byte buffer.
//
// Presence maps are written in two steps: ReservePresenceMap skips the
// maximum byte length of the map before the fields of its segment are
// written, and CommitPresenceMap back-fills the map once its bits are known
// and collapses the unused reserved bytes.
//
// Note: Writer is NOT thread-safe.
type Writer struct {
	bb *pool.ByteBuffer
}

// PresenceMapMark records the reserved region of a presence map.
type PresenceMapMark struct {
	offset int
	size   int
}

// NewWriter creates a writer appending to bb.
func NewWriter(bb *pool.ByteBuffer) *Writer {
	return &Writer{bb: bb}
}

// Reset points the writer at bb.
func (w *Writer) Reset(bb *pool.ByteBuffer) {
	w.bb = bb
}

// Len returns the number of bytes in the underlying buffer.
func (w *Writer) Len() int { return w.bb.Len() }

// Bytes returns the underlying buffer content.
func (w *Writer) Bytes() []byte { return w.bb.Bytes() }

// WriteUint appends an unsigned integer.
func (w *Writer) WriteUint(v uint64, nullable bool) {
	if nullable {
		w.bb.B = AppendNullableUint(w.bb.B, v)
		return
	}
	w.bb.B = AppendUint(w.bb.B, v)
}

// WriteInt appends a signed integer.
func (w *Writer) WriteInt(v int64, nullable bool) {
	if nullable {
		w.bb.B = AppendNullableInt(w.bb.B, v)
		return
	}
	w.bb.B = AppendInt(w.bb.B, v)
}

// WriteNull appends the null encoding.
func (w *Writer) WriteNull() {
	w.bb.B = AppendNull(w.bb.B)
}

// WriteASCII appends an ASCII string.
func (w *Writer) WriteASCII(s []byte, nullable bool) error {
	b, err := AppendASCII(w.bb.B, s, nullable)
	if err != nil {
		return err
	}
	w.bb.B = b

	return nil
}

// WriteByteVector appends a length-prefixed byte sequence.
func (w *Writer) WriteByteVector(b []byte, nullable bool) {
	w.bb.B = AppendByteVector(w.bb.B, b, nullable)
}

// ReservePresenceMap reserves room for a presence map of up to nbits bits.
func (w *Writer) ReservePresenceMap(nbits int) PresenceMapMark {
	size := MaxPresenceMapBytes(nbits)
	return PresenceMapMark{offset: w.bb.Reserve(size), size: size}
}

// CommitPresenceMap back-fills the map reserved by mark. If the map turned out
// longer than reserved, the bytes written after the reservation are shifted
// right to make room.
func (w *Writer) CommitPresenceMap(mark PresenceMapMark, pm *PresenceMapWriter) {
	need := pm.EncodedLen()

	if need > mark.size {
		extra := need - mark.size
		tail := mark.offset + mark.size
		end := w.bb.Len()
		w.bb.ExtendOrGrow(extra)
		copy(w.bb.B[tail+extra:], w.bb.B[tail:end])
		mark.size = need
	}

	pm.Commit(w.bb.B[mark.offset : mark.offset+need])
	w.bb.Collapse(mark.offset+need, mark.size-need)
}
