package encoding

import (
	"github.com/arloliu/fastcodec/errs"
)

// AppendASCII appends the stop-bit encoding of an ASCII string to dst.
//
// The high bit of the last character doubles as the stop bit, so the empty
// string and a string consisting of a single NUL need the escaped forms:
//
//	mandatory: ""  -> 0x80        "\x00" -> 0x00 0x80
//	nullable:  ""  -> 0x00 0x80   "\x00" -> 0x00 0x00 0x80   (null -> 0x80)
//
// Characters with the high bit set cannot be represented and yield
// errs.ErrUnencodable.
func AppendASCII(dst []byte, s []byte, nullable bool) ([]byte, error) {
	for _, c := range s {
		if c&stopBit != 0 {
			return dst, errs.Newf(errs.CodeUnencodable, "non-ASCII character 0x%02x", c)
		}
	}

	if nullable && (len(s) == 0 || (len(s) == 1 && s[0] == 0)) {
		dst = append(dst, 0x00)
	}
	switch {
	case len(s) == 0:
		return append(dst, stopBit), nil
	case len(s) == 1 && s[0] == 0:
		return append(dst, 0x00, stopBit), nil
	}

	dst = append(dst, s...)
	dst[len(dst)-1] |= stopBit

	return dst, nil
}

// DecodeASCII locates the ASCII string at the front of buf.
//
// The returned content aliases buf and still carries the stop bit on its last
// byte; use CopyASCII to materialize it. A nullable null is reported by the
// second result.
//
// Returns:
//   - []byte: content view (len == decoded string length)
//   - bool: null (nullable only)
//   - int: number of bytes consumed
//   - error: errs.ErrBufferUnderflow when buf ends before the stop bit
func DecodeASCII(buf []byte, nullable bool) ([]byte, bool, int, error) {
	n, err := SkipEntity(buf)
	if err != nil {
		return nil, false, 0, err
	}

	raw := buf[:n]
	if nullable {
		switch {
		case n == 1 && raw[0] == stopBit:
			return nil, true, n, nil
		case n == 2 && raw[0] == 0 && raw[1] == stopBit:
			return raw[:0], false, n, nil
		case n == 3 && raw[0] == 0 && raw[1] == 0 && raw[2] == stopBit:
			return raw[2:], false, n, nil
		}

		return raw, false, n, nil
	}

	switch {
	case n == 1 && raw[0] == stopBit:
		return raw[:0], false, n, nil
	case n == 2 && raw[0] == 0 && raw[1] == stopBit:
		return raw[1:], false, n, nil
	}

	return raw, false, n, nil
}

// CopyASCII copies an ASCII content view returned by DecodeASCII into dst,
// clearing the stop bit of the last character. dst must have len(src) bytes.
func CopyASCII(dst, src []byte) {
	copy(dst, src)
	if len(dst) > 0 {
		dst[len(dst)-1] &= dataMask
	}
}

// AppendByteVector appends a length-prefixed byte sequence (Unicode strings
// and byte vectors). The length is a nullable uint32 when nullable is set.
func AppendByteVector(dst []byte, b []byte, nullable bool) []byte {
	if nullable {
		dst = AppendNullableUint(dst, uint64(len(b)))
	} else {
		dst = AppendUint(dst, uint64(len(b)))
	}

	return append(dst, b...)
}

// DecodeByteVector decodes a length-prefixed byte sequence from the front of
// buf. The returned content aliases buf.
func DecodeByteVector(buf []byte, nullable bool) ([]byte, bool, int, error) {
	var (
		length uint64
		null   bool
		n      int
		err    error
	)
	if nullable {
		length, null, n, err = DecodeNullableUint(buf)
	} else {
		length, n, err = DecodeUint(buf)
	}
	if err != nil {
		return nil, false, 0, err
	}
	if null {
		return nil, true, n, nil
	}
	if length > uint64(len(buf)-n) {
		return nil, false, 0, &errs.Error{
			Code:   errs.CodeBufferUnderflow,
			Length: int(min(length, uint64(len(buf)))), //nolint:gosec
			Detail: "byte vector longer than remaining input",
		}
	}
	end := n + int(length) //nolint:gosec

	return buf[n:end:end], false, end, nil
}
