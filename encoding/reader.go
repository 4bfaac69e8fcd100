package encoding

import (
	"errors"

	"github.com/arloliu/fastcodec/errs"
)

// Reader is a forward cursor over an encoded FAST stream.
//
// Values returned as byte slices alias the input buffer; callers copy them
// when the content must outlive the buffer.
//
// Note: Reader is NOT thread-safe.
type Reader struct {
	buf []byte
	pos int
}

// NewReader creates a reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Reset repositions the reader at the start of buf.
func (r *Reader) Reset(buf []byte) {
	r.buf = buf
	r.pos = 0
}

// Offset returns the number of bytes consumed.
func (r *Reader) Offset() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// ReadUint reads an unsigned integer. For a nullable integer the second result
// reports null.
func (r *Reader) ReadUint(nullable bool) (uint64, bool, error) {
	var (
		v    uint64
		null bool
		n    int
		err  error
	)
	if nullable {
		v, null, n, err = DecodeNullableUint(r.buf[r.pos:])
	} else {
		v, n, err = DecodeUint(r.buf[r.pos:])
	}
	if err != nil {
		return 0, false, r.fail(err)
	}
	r.pos += n

	return v, null, nil
}

// ReadInt reads a signed integer. For a nullable integer the second result
// reports null.
func (r *Reader) ReadInt(nullable bool) (int64, bool, error) {
	var (
		v    int64
		null bool
		n    int
		err  error
	)
	if nullable {
		v, null, n, err = DecodeNullableInt(r.buf[r.pos:])
	} else {
		v, n, err = DecodeInt(r.buf[r.pos:])
	}
	if err != nil {
		return 0, false, r.fail(err)
	}
	r.pos += n

	return v, null, nil
}

// ReadASCII reads an ASCII string. The content view must be materialized with
// CopyASCII.
func (r *Reader) ReadASCII(nullable bool) ([]byte, bool, error) {
	s, null, n, err := DecodeASCII(r.buf[r.pos:], nullable)
	if err != nil {
		return nil, false, r.fail(err)
	}
	r.pos += n

	return s, null, nil
}

// ReadByteVector reads a length-prefixed byte sequence.
func (r *Reader) ReadByteVector(nullable bool) ([]byte, bool, error) {
	b, null, n, err := DecodeByteVector(r.buf[r.pos:], nullable)
	if err != nil {
		return nil, false, r.fail(err)
	}
	r.pos += n

	return b, null, nil
}

// ReadPresenceMap reads a presence map.
func (r *Reader) ReadPresenceMap() (PresenceMap, error) {
	n, err := SkipEntity(r.buf[r.pos:])
	if err != nil {
		return PresenceMap{}, r.fail(err)
	}
	pm := NewPresenceMap(r.buf[r.pos : r.pos+n])
	r.pos += n

	return pm, nil
}

// fail records the stream offset in buffer errors.
func (r *Reader) fail(err error) error {
	var e *errs.Error
	if errors.As(err, &e) && e.Code == errs.CodeBufferUnderflow {
		e.Length = r.pos
	}

	return err
}
