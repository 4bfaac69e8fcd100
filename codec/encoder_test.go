package codec

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/fastcodec/errs"
	"github.com/arloliu/fastcodec/message"
	"github.com/arloliu/fastcodec/schema"
	"github.com/arloliu/fastcodec/value"
)

// encodeCase is one message of an encoded stream and its expected bytes.
type encodeCase struct {
	name string
	set  func(t *testing.T, g message.Group)
	want []byte
}

func runEncodeCases(t *testing.T, repo *schema.Repository, id uint32, cases []encodeCase) {
	t.Helper()

	enc, err := NewEncoder(repo)
	require.NoError(t, err)
	dec, err := NewDecoder(repo)
	require.NoError(t, err)

	for _, c := range cases {
		msg := newMessage(t, repo, id)
		c.set(t, msg.Group)

		got, err := enc.Append(nil, msg, false)
		require.NoError(t, err, c.name)
		require.Empty(t, cmp.Diff(c.want, got), c.name)

		decoded, n, err := dec.Decode(got, false)
		require.NoError(t, err, c.name)
		require.Equal(t, len(got), n, c.name)
		require.True(t, message.Equal(msg, decoded), c.name)
	}
}

func setUint(name string, v uint32) func(*testing.T, message.Group) {
	return func(t *testing.T, g message.Group) {
		t.Helper()
		require.NoError(t, field(t, g, name).SetUInt32(v))
	}
}

func setText(name, v string) func(*testing.T, message.Group) {
	return func(t *testing.T, g message.Group) {
		t.Helper()
		require.NoError(t, field(t, g, name).SetText(v))
	}
}

func TestEncoder_CopyOperator(t *testing.T) {
	abc := func(a uint32, c *uint32) func(*testing.T, message.Group) {
		return func(t *testing.T, g message.Group) {
			setUint("a", a)(t, g)
			setUint("b", 5)(t, g)
			if c != nil {
				setUint("c", *c)(t, g)
			}
		}
	}
	three := uint32(3)

	runEncodeCases(t, newTestRepo(t), tidCopies, []encodeCase{
		{"First", abc(1, &three), []byte{0xE8, 0x81, 0x81, 0x84}},
		{"Unchanged", abc(1, &three), []byte{0x80}},
		{"ChangedAndNull", abc(2, nil), []byte{0xA8, 0x82, 0x80}},
		{"StillNull", abc(2, nil), []byte{0x80}},
	})
}

func TestEncoder_Increment(t *testing.T) {
	runEncodeCases(t, newTestRepo(t), tidIncrement, []encodeCase{
		{"First", setUint("seq", 10), []byte{0xE0, 0x83, 0x8A}},
		{"Next", setUint("seq", 11), []byte{0x80}},
		{"NextAgain", setUint("seq", 12), []byte{0x80}},
		{"Jump", setUint("seq", 20), []byte{0xA0, 0x94}},
	})
}

func TestEncoder_IncrementWrapsInt32(t *testing.T) {
	setN := func(v int32) func(*testing.T, message.Group) {
		return func(t *testing.T, g message.Group) {
			require.NoError(t, field(t, g, "n").SetInt32(v))
		}
	}

	runEncodeCases(t, newTestRepo(t), tidWrap, []encodeCase{
		{"Max", setN(math.MaxInt32), []byte{0xE0, 0x8C, 0x07, 0x7F, 0x7F, 0x7F, 0xFF}},
		{"WrapsToMin", setN(math.MinInt32), []byte{0x80}},
	})
}

func TestEncoder_DeltaString(t *testing.T) {
	repo := newTestRepo(t)
	first := []byte{0xC0, 0x84, 0x80, 0x61, 0x62, 0x63, 0x64, 0x65, 0xE6}

	runEncodeCases(t, repo, tidDeltaStr, []encodeCase{
		{"First", setText("s", "abcdef"), first},
		{"RemoveFromBack", setText("s", "abcdXY"), []byte{0x80, 0x82, 0x58, 0xD9}},
	})
	runEncodeCases(t, repo, tidDeltaStr, []encodeCase{
		{"First", setText("s", "abcdef"), first},
		{"RemoveFromFront", setText("s", "ZZcdef"), []byte{0x80, 0xFD, 0x5A, 0xDA}},
	})
}

func TestEncoder_DeltaInteger(t *testing.T) {
	setPx := func(v int64) func(*testing.T, message.Group) {
		return func(t *testing.T, g message.Group) {
			require.NoError(t, field(t, g, "px").SetInt64(v))
		}
	}

	runEncodeCases(t, newTestRepo(t), tidDeltaInt, []encodeCase{
		{"First", setPx(100), []byte{0xC0, 0x85, 0x00, 0xE4}},
		{"Down", setPx(95), []byte{0x80, 0xFB}},
		{"Negative", setPx(-3), []byte{0x80, 0x7F, 0x9E}},
		{"Extremes", setPx(math.MaxInt64), []byte{0x80, 0x7F, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x82}},
		{"WrapAround", setPx(math.MinInt64), []byte{0x80, 0x81}},
	})
}

func TestEncoder_DeltaDecimalOverflow(t *testing.T) {
	require := require.New(t)

	repo := newTestRepo(t)
	enc, err := NewEncoder(repo)
	require.NoError(err)

	msg := newMessage(t, repo, tidDeltaDec)
	px := field(t, msg.Group, "dpx")

	require.NoError(px.SetDecimal(value.Decimal{Mantissa: math.MaxInt64, Exponent: -2}))
	_, err = enc.Append(nil, msg, false)
	require.NoError(err)

	require.NoError(px.SetDecimal(value.Decimal{Mantissa: -2, Exponent: -2}))
	dst := []byte{0x01}
	out, err := enc.Append(dst, msg, false)
	require.ErrorIs(err, errs.ErrD2)
	require.Equal([]byte{0x01}, out)
}

func TestEncoder_Tail(t *testing.T) {
	repo := newTestRepo(t)

	runEncodeCases(t, repo, tidTail, []encodeCase{
		{"First", setText("t", "abc"), []byte{0xE0, 0x86, 0x61, 0x62, 0xE3}},
		{"LastByte", setText("t", "abd"), []byte{0xA0, 0xE4}},
		{"Unchanged", setText("t", "abd"), []byte{0x80}},
		{"Longer", setText("t", "abdxyz"), []byte{0xA0, 0x61, 0x62, 0x64, 0x78, 0x79, 0xFA}},
	})

	enc, err := NewEncoder(repo)
	require.NoError(t, err)

	long := newMessage(t, repo, tidTail)
	setText("t", "abcd")(t, long.Group)
	_, err = enc.Append(nil, long, false)
	require.NoError(t, err)

	short := newMessage(t, repo, tidTail)
	setText("t", "ab")(t, short.Group)
	dst := []byte{0x01}
	out, err := enc.Append(dst, short, false)
	require.ErrorIs(t, err, errs.ErrUnencodable)
	require.Equal(t, []byte{0x01}, out, "dst is returned unchanged")
}

func TestEncoder_Default(t *testing.T) {
	setD := func(v *int32) func(*testing.T, message.Group) {
		return func(t *testing.T, g message.Group) {
			if v != nil {
				require.NoError(t, field(t, g, "d").SetInt32(*v))
			}
		}
	}
	seven, eight := int32(7), int32(8)

	runEncodeCases(t, newTestRepo(t), tidDefault, []encodeCase{
		{"Initial", setD(&seven), []byte{0xC0, 0x87}},
		{"Absent", setD(nil), []byte{0xA0, 0x80}},
		{"Other", setD(&eight), []byte{0xA0, 0x89}},
		{"InitialAgain", setD(&seven), []byte{0x80}},
	})
}

func TestEncoder_Constant(t *testing.T) {
	repo := newTestRepo(t)

	runEncodeCases(t, repo, tidConstant, []encodeCase{
		{"Both", func(t *testing.T, g message.Group) {
			setText("k", "X")(t, g)
			setText("ok", "Y")(t, g)
		}, []byte{0xE0, 0x88}},
		{"OptionalAbsent", setText("k", "X"), []byte{0x80}},
	})

	enc, err := NewEncoder(repo)
	require.NoError(t, err)

	msg := newMessage(t, repo, tidConstant)
	setText("k", "Z")(t, msg.Group)
	_, err = enc.Append(nil, msg, false)
	require.ErrorIs(t, err, errs.ErrUnencodable)
}

func TestEncoder_TemplateReset(t *testing.T) {
	runEncodeCases(t, newTestRepo(t), tidResetting, []encodeCase{
		{"First", setUint("r", 5), []byte{0xE0, 0x8A, 0x85}},
		{"Repeated", setUint("r", 5), []byte{0xA0, 0x85}},
	})
}

func TestEncoder_MissingMandatoryField(t *testing.T) {
	repo := newTestRepo(t)
	enc, err := NewEncoder(repo)
	require.NoError(t, err)

	msg := newMessage(t, repo, tidCopies)
	setUint("b", 5)(t, msg.Group)

	_, err = enc.Append(nil, msg, false)
	require.ErrorIs(t, err, errs.ErrMissingValue)

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, "a", e.Field)
}

func TestEncoder_EncodeInto(t *testing.T) {
	require := require.New(t)

	repo := newTestRepo(t)
	msg := newMessage(t, repo, tidCopies)
	setUint("a", 1)(t, msg.Group)
	setUint("b", 5)(t, msg.Group)
	setUint("c", 3)(t, msg.Group)

	enc, err := NewEncoder(repo)
	require.NoError(err)

	buf := make([]byte, 2)
	_, err = enc.EncodeInto(buf, msg, true)
	require.ErrorIs(err, errs.ErrBufferOverflow)

	buf = make([]byte, 16)
	n, err := enc.EncodeInto(buf, msg, true)
	require.NoError(err)
	require.Equal([]byte{0xE8, 0x81, 0x81, 0x84}, buf[:n])

	n, err = enc.EncodeInto(buf, msg, false)
	require.NoError(err)
	require.Equal([]byte{0x80}, buf[:n])
}

func TestEncoder_ForceReset(t *testing.T) {
	require := require.New(t)

	repo := newTestRepo(t)
	msg := newMessage(t, repo, tidIncrement)
	setUint("seq", 10)(t, msg.Group)

	enc, err := NewEncoder(repo)
	require.NoError(err)

	first, err := enc.Append(nil, msg, false)
	require.NoError(err)
	again, err := enc.Append(nil, msg, true)
	require.NoError(err)
	require.Equal(first, again, "a forced reset encodes as a first message")

	enc.Reset()
	again, err = enc.Append(nil, msg, false)
	require.NoError(err)
	require.Equal(first, again)
}

func TestEncoder_IntegerOverflow(t *testing.T) {
	repo := newTestRepo(t)
	enc, err := NewEncoder(repo)
	require.NoError(t, err)

	msg := newMessage(t, repo, tidWide)
	f := field(t, msg.Group, "i")
	require.ErrorIs(t, f.SetInteger(math.MaxInt32+1), errs.ErrD2)

	// bypass the typed setter
	f.Value().SetInt64(math.MaxInt32 + 1)
	_, err = enc.Append(nil, msg, false)
	require.ErrorIs(t, err, errs.ErrD2)
}

func TestEncoder_UnboundDynamicReference(t *testing.T) {
	repo := newTestRepo(t)
	enc, err := NewEncoder(repo)
	require.NoError(t, err)

	msg := newSnapshot(t, repo, 0)
	field(t, msg.Group, "Body").Value().Reset()

	_, err = enc.Append(nil, msg, false)
	require.ErrorIs(t, err, errs.ErrMissingValue)
}

func TestEncoder_NilMessage(t *testing.T) {
	require := require.New(t)

	enc, err := NewEncoder(newTestRepo(t))
	require.NoError(err)

	dst := []byte{0x01}
	out, err := enc.Append(dst, nil, false)
	require.ErrorIs(err, errs.ErrMissingValue)
	require.Equal([]byte{0x01}, out)

	n, err := enc.EncodeInto(make([]byte, 8), nil, false)
	require.ErrorIs(err, errs.ErrMissingValue)
	require.Zero(n)
}
