package codec

import (
	"errors"
	"math"

	"github.com/arloliu/fastcodec/errs"
	"github.com/arloliu/fastcodec/format"
	"github.com/arloliu/fastcodec/schema"
	"github.com/arloliu/fastcodec/value"
)

const maxExponent = 63

// The three base value derivations below differ on purpose in how they treat
// an empty previous value. Keep them separate.

// deltaBase returns the base value of a delta field: the previous value when
// assigned, otherwise the initial value. A nil base stands for the type's
// default (zero, or the empty array). An empty previous value is D6.
func deltaBase(in *schema.Instruction, prev *value.Value) (*value.Value, error) {
	switch prev.State() {
	case value.Assigned:
		return prev, nil
	case value.Empty:
		return nil, errs.New(errs.CodeD6, "delta base value is empty")
	default:
		if in.HasInitial() {
			return &in.Initial, nil
		}

		return nil, nil
	}
}

// tailBase returns the base value of a tail field: the previous value when
// assigned, otherwise the initial value, otherwise nil for the empty array.
// It never fails; an empty previous value falls back like an undefined one.
func tailBase(in *schema.Instruction, prev *value.Value) *value.Value {
	if prev.State() == value.Assigned {
		return prev
	}
	if in.HasInitial() {
		return &in.Initial
	}

	return nil
}

// copyBase resolves the value of a copy or increment field whose presence
// bit is clear. It returns nil for an absent value and reports whether the
// value is the previous value (which increment adds one to) or the initial
// value.
//
// Errors:
//   - D5: mandatory field, previous value undefined, no initial value
//   - D6: mandatory field, previous value empty
func copyBase(in *schema.Instruction, prev *value.Value) (*value.Value, bool, error) {
	switch prev.State() {
	case value.Assigned:
		return prev, true, nil
	case value.Empty:
		if in.IsOptional() {
			return nil, false, nil
		}

		return nil, false, errs.New(errs.CodeD6, "previous value is empty")
	default:
		switch {
		case in.HasInitial():
			return &in.Initial, false, nil
		case in.IsOptional():
			return nil, false, nil
		default:
			return nil, false, errs.New(errs.CodeD5, "no previous value and no initial value")
		}
	}
}

// increment adds one to an integer, wrapping within the width of t.
func increment(t format.FieldType, u uint64) uint64 {
	switch t { //nolint:exhaustive
	case format.TypeInt32:
		return uint64(int64(int32(u) + 1)) //nolint:gosec
	case format.TypeUInt32:
		return uint64(uint32(u) + 1) //nolint:gosec
	default:
		return u + 1
	}
}

// checkWidth verifies that an integer fits the width of t. Signed content is
// interpreted sign-extended.
func checkWidth(t format.FieldType, u uint64) error {
	switch t { //nolint:exhaustive
	case format.TypeInt32:
		if v := int64(u); v < math.MinInt32 || v > math.MaxInt32 { //nolint:gosec
			return errs.Newf(errs.CodeD2, "%d overflows %s", v, t)
		}
	case format.TypeUInt32:
		if u > math.MaxUint32 {
			return errs.Newf(errs.CodeD2, "%d overflows %s", u, t)
		}
	}

	return nil
}

func checkExponent(e int64) error {
	if e < -maxExponent || e > maxExponent {
		return errs.Newf(errs.CodeR1, "exponent %d", e)
	}

	return nil
}

// addMantissa adds a decimal mantissa delta to its base. Unlike int64 fields,
// mantissas do not wrap: overflow is D2.
func addMantissa(base, delta int64) (int64, error) {
	sum := base + delta
	if (base > 0 && delta > 0 && sum < 0) || (base < 0 && delta < 0 && sum >= 0) {
		return 0, errs.Newf(errs.CodeD2, "mantissa %d%+d overflows int64", base, delta)
	}

	return sum, nil
}

// subMantissa returns the mantissa delta of v against base.
func subMantissa(v, base int64) (int64, error) {
	diff := v - base
	if (v >= 0 && base < 0 && diff < 0) || (v < 0 && base > 0 && diff >= 0) {
		return 0, errs.Newf(errs.CodeD2, "mantissa delta %d-%d overflows int64", v, base)
	}

	return diff, nil
}

// applyStringDelta splices delta onto base. A non-negative sub removes sub
// bytes from the back of base and appends delta; a negative sub removes ^sub
// bytes from the front and prepends delta.
func applyStringDelta(dst, base, delta []byte, sub int64) ([]byte, error) {
	front := sub < 0
	n := sub
	if front {
		n = ^sub
	}
	if n > int64(len(base)) {
		return nil, &errs.Error{Code: errs.CodeD7, Length: int(n), Detail: "subtraction length exceeds base"}
	}

	dst = dst[:0]
	if front {
		dst = append(dst, delta...)
		return append(dst, base[n:]...), nil
	}
	dst = append(dst, base[:int64(len(base))-n]...)

	return append(dst, delta...), nil
}

// stringDelta computes the shorter of the back and front deltas turning base
// into v. Ties remove from the back.
func stringDelta(base, v []byte) (int64, []byte) {
	limit := min(len(base), len(v))

	prefix := 0
	for prefix < limit && base[prefix] == v[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < limit && base[len(base)-1-suffix] == v[len(v)-1-suffix] {
		suffix++
	}

	if suffix > prefix {
		return ^int64(len(base) - suffix), v[:len(v)-suffix]
	}

	return int64(len(base) - prefix), v[prefix:]
}

// tailOf returns the tail that turns base into v, or false when v is shorter
// than base and cannot be expressed with the tail operator.
func tailOf(base, v []byte) ([]byte, bool) {
	switch {
	case len(v) < len(base):
		return nil, false
	case len(v) > len(base):
		return v, true
	}

	prefix := 0
	for prefix < len(v) && base[prefix] == v[prefix] {
		prefix++
	}

	return v[prefix:], true
}

// applyTail replaces the end of base with tail.
func applyTail(dst, base, tail []byte) []byte {
	dst = dst[:0]
	if len(tail) >= len(base) {
		return append(dst, tail...)
	}
	dst = append(dst, base[:len(base)-len(tail)]...)

	return append(dst, tail...)
}

func bytesOf(v *value.Value) []byte {
	if v == nil {
		return nil
	}

	return v.Bytes()
}

func intOf(v *value.Value) uint64 {
	if v == nil {
		return 0
	}

	return v.Uint64()
}

func decimalOf(v *value.Value) value.Decimal {
	if v == nil {
		return value.Decimal{}
	}

	return v.Decimal()
}

// fieldError records the field name in a coded error that has none.
func fieldError(in *schema.Instruction, err error) error {
	var e *errs.Error
	if errors.As(err, &e) && e.Field == "" {
		e.Field = in.Name
	}

	return err
}
