package encoding

import (
	"bytes"
	"math"

	"github.com/arloliu/fastcodec/errs"
)

const (
	stopBit  = 0x80
	dataMask = 0x7F
	signBit  = 0x40

	// MaxIntBytes is the longest stop-bit encoding of a 64-bit integer.
	MaxIntBytes = 10

	// NullByte is the encoding of null for every nullable type.
	NullByte = stopBit
)

var (
	// nullable MaxInt64 is encoded as 2^63, which does not fit an int64.
	nullableMaxInt64 = []byte{0x01, 0, 0, 0, 0, 0, 0, 0, 0, stopBit}
	// nullable MaxUint64 is encoded as 2^64, which does not fit an uint64.
	nullableMaxUint64 = []byte{0x02, 0, 0, 0, 0, 0, 0, 0, 0, stopBit}
)

// AppendUint appends the stop-bit encoding of v to dst.
func AppendUint(dst []byte, v uint64) []byte {
	var tmp [MaxIntBytes]byte
	i := len(tmp) - 1
	tmp[i] = byte(v&dataMask) | stopBit
	v >>= 7

	for v != 0 {
		i--
		tmp[i] = byte(v & dataMask)
		v >>= 7
	}

	return append(dst, tmp[i:]...)
}

// AppendNullableUint appends the nullable encoding of v (v+1) to dst.
func AppendNullableUint(dst []byte, v uint64) []byte {
	if v == math.MaxUint64 {
		return append(dst, nullableMaxUint64...)
	}

	return AppendUint(dst, v+1)
}

// AppendInt appends the sign-extended stop-bit encoding of v to dst.
//
// A 0x00 or 0x7F padding group is emitted when the sign bit of the most
// significant group would otherwise disagree with the sign of v.
func AppendInt(dst []byte, v int64) []byte {
	var tmp [MaxIntBytes]byte
	i := len(tmp)

	for {
		i--
		b := byte(v & dataMask)
		tmp[i] = b
		v >>= 7

		if (v == 0 && b&signBit == 0) || (v == -1 && b&signBit != 0) {
			break
		}
	}
	tmp[len(tmp)-1] |= stopBit

	return append(dst, tmp[i:]...)
}

// AppendNullableInt appends the nullable encoding of v to dst: non-negative
// values are shifted up by one, negative values are unchanged.
func AppendNullableInt(dst []byte, v int64) []byte {
	switch {
	case v == math.MaxInt64:
		return append(dst, nullableMaxInt64...)
	case v >= 0:
		return AppendInt(dst, v+1)
	default:
		return AppendInt(dst, v)
	}
}

// AppendNull appends the null encoding.
func AppendNull(dst []byte) []byte {
	return append(dst, NullByte)
}

// DecodeUint decodes a stop-bit unsigned integer from the front of buf.
//
// Returns:
//   - uint64: the decoded value
//   - int: number of bytes consumed
//   - error: errs.ErrBufferUnderflow when buf ends before the stop bit,
//     errs.ErrD2 when the value does not fit 64 bits
func DecodeUint(buf []byte) (uint64, int, error) {
	var v uint64
	for i, b := range buf {
		if v>>57 != 0 {
			return 0, 0, errs.Newf(errs.CodeD2, "stop-bit integer exceeds 64 bits")
		}
		v = v<<7 | uint64(b&dataMask)
		if b&stopBit != 0 {
			return v, i + 1, nil
		}
	}

	return 0, 0, &errs.Error{Code: errs.CodeBufferUnderflow, Length: len(buf), Detail: "missing stop bit"}
}

// DecodeNullableUint decodes a nullable stop-bit unsigned integer.
// The second result reports null.
func DecodeNullableUint(buf []byte) (uint64, bool, int, error) {
	if bytes.HasPrefix(buf, nullableMaxUint64) {
		return math.MaxUint64, false, len(nullableMaxUint64), nil
	}

	v, n, err := DecodeUint(buf)
	if err != nil {
		return 0, false, 0, err
	}
	if v == 0 {
		return 0, true, n, nil
	}

	return v - 1, false, n, nil
}

// DecodeInt decodes a sign-extended stop-bit integer from the front of buf.
func DecodeInt(buf []byte) (int64, int, error) {
	if len(buf) == 0 {
		return 0, 0, &errs.Error{Code: errs.CodeBufferUnderflow, Detail: "missing stop bit"}
	}

	var v int64
	if buf[0]&signBit != 0 {
		v = -1
	}

	for i, b := range buf {
		// bits 56..63 must all equal the sign, or the shift loses significant bits
		if hi := v >> 56; hi != 0 && hi != -1 {
			return 0, 0, errs.Newf(errs.CodeD2, "stop-bit integer exceeds 64 bits")
		}
		v = v<<7 | int64(b&dataMask)
		if b&stopBit != 0 {
			return v, i + 1, nil
		}
	}

	return 0, 0, &errs.Error{Code: errs.CodeBufferUnderflow, Length: len(buf), Detail: "missing stop bit"}
}

// DecodeNullableInt decodes a nullable sign-extended stop-bit integer.
// The second result reports null.
func DecodeNullableInt(buf []byte) (int64, bool, int, error) {
	if bytes.HasPrefix(buf, nullableMaxInt64) {
		return math.MaxInt64, false, len(nullableMaxInt64), nil
	}

	v, n, err := DecodeInt(buf)
	if err != nil {
		return 0, false, 0, err
	}

	switch {
	case v == 0:
		return 0, true, n, nil
	case v > 0:
		return v - 1, false, n, nil
	default:
		return v, false, n, nil
	}
}

// SkipEntity returns the length of the stop-bit terminated entity at the
// front of buf.
func SkipEntity(buf []byte) (int, error) {
	for i, b := range buf {
		if b&stopBit != 0 {
			return i + 1, nil
		}
	}

	return 0, &errs.Error{Code: errs.CodeBufferUnderflow, Length: len(buf), Detail: "missing stop bit"}
}
