package message

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/fastcodec/errs"
	"github.com/arloliu/fastcodec/schema"
	"github.com/arloliu/fastcodec/value"
)

func newRepo(t *testing.T) *schema.Repository {
	t.Helper()

	repo, err := schema.Build([]*schema.TemplatesDescription{schema.NewDescription(
		schema.NewTemplate(1, "Header", []schema.FieldDesc{
			schema.UInt32("SeqNum", 34, schema.Increment()),
		}),
		schema.NewTemplate(2, "Order", []schema.FieldDesc{
			schema.StaticRef("Header"),
			schema.Int32("I32", 1),
			schema.UInt32("U32", 2),
			schema.Int64("I64", 3),
			schema.UInt64("U64", 4),
			schema.Decimal("Px", 5),
			schema.ASCII("Sym", 6),
			schema.Unicode("Text", 7, schema.Optional()),
			schema.ByteVector("Raw", 8, schema.Optional()),
			schema.Group("Party", 9, []schema.FieldDesc{schema.ASCII("ID", 10)}, schema.Optional()),
			schema.Sequence("Legs", 11, nil, []schema.FieldDesc{schema.Int64("Ratio", 12)}),
			schema.DynamicRef("Nested"),
		}),
	)})
	require.NoError(t, err)

	return repo
}

func TestNew(t *testing.T) {
	require := require.New(t)

	repo := newRepo(t)
	msg, err := New(repo, 2)
	require.NoError(err)
	require.Equal(uint32(2), msg.TemplateID())
	require.Equal("Order", msg.Template().Name)
	require.Equal(12, msg.Len())
	for i := 0; i < msg.Len(); i++ {
		require.False(msg.FieldAt(i).IsPresent(), "field %s", msg.FieldAt(i).Name())
	}

	_, err = New(repo, 99)
	require.ErrorIs(err, errs.ErrD9)
}

func TestField_Lookup(t *testing.T) {
	require := require.New(t)

	msg, err := New(newRepo(t), 2)
	require.NoError(err)

	f, err := msg.Field("Sym")
	require.NoError(err)
	require.Equal("Sym", f.Name())

	byID, err := msg.FieldByID(6)
	require.NoError(err)
	require.Equal(f.Value(), byID.Value())

	_, err = msg.Field("Nope")
	require.ErrorIs(err, errs.ErrFieldNotFound)
	_, err = msg.FieldByID(99)
	require.ErrorIs(err, errs.ErrFieldNotFound)
}

func TestField_Scalars(t *testing.T) {
	require := require.New(t)

	msg, err := New(newRepo(t), 2)
	require.NoError(err)

	get := func(name string) FieldRef {
		f, err := msg.Field(name)
		require.NoError(err)

		return f
	}

	require.NoError(get("I32").SetInt32(math.MinInt32))
	require.NoError(get("U32").SetUInt32(math.MaxUint32))
	require.NoError(get("I64").SetInt64(-7))
	require.NoError(get("U64").SetUInt64(math.MaxUint64))
	require.NoError(get("Px").SetDecimal(value.Decimal{Mantissa: 15025, Exponent: -2}))
	require.NoError(get("Sym").SetText("ABC"))
	require.NoError(get("Raw").SetBytes([]byte{1, 2, 3}))

	i32, err := get("I32").Int32()
	require.NoError(err)
	require.Equal(int32(math.MinInt32), i32)

	u32, err := get("U32").UInt32()
	require.NoError(err)
	require.Equal(uint32(math.MaxUint32), u32)

	i64, err := get("I64").Int64()
	require.NoError(err)
	require.Equal(int64(-7), i64)

	u64, err := get("U64").UInt64()
	require.NoError(err)
	require.Equal(uint64(math.MaxUint64), u64)

	px, err := get("Px").Decimal()
	require.NoError(err)
	require.Equal(value.Decimal{Mantissa: 15025, Exponent: -2}, px)

	sym, err := get("Sym").Text()
	require.NoError(err)
	require.Equal("ABC", sym)

	raw, err := get("Raw").Bytes()
	require.NoError(err)
	require.Equal([]byte{1, 2, 3}, raw)

	get("Raw").SetAbsent()
	require.False(get("Raw").IsPresent())
}

func TestField_TypeMismatch(t *testing.T) {
	require := require.New(t)

	msg, err := New(newRepo(t), 2)
	require.NoError(err)

	sym, err := msg.Field("Sym")
	require.NoError(err)

	_, err = sym.Int32()
	require.ErrorIs(err, errs.ErrTypeMismatch)
	require.ErrorIs(sym.SetUInt64(1), errs.ErrTypeMismatch)
	require.ErrorIs(sym.SetDecimal(value.Decimal{}), errs.ErrTypeMismatch)
	_, err = sym.Group()
	require.ErrorIs(err, errs.ErrTypeMismatch)
	_, err = sym.Sequence()
	require.ErrorIs(err, errs.ErrTypeMismatch)
	_, err = sym.Template()
	require.ErrorIs(err, errs.ErrTypeMismatch)

	i64, err := msg.Field("I64")
	require.NoError(err)
	_, err = i64.Text()
	require.ErrorIs(err, errs.ErrTypeMismatch)
	require.ErrorIs(i64.SetBytes(nil), errs.ErrTypeMismatch)
}

func TestField_SetInteger(t *testing.T) {
	msg, err := New(newRepo(t), 2)
	require.NoError(t, err)

	tests := []struct {
		field string
		v     int64
		ok    bool
	}{
		{"I32", math.MaxInt32, true},
		{"I32", math.MaxInt32 + 1, false},
		{"I32", math.MinInt32 - 1, false},
		{"U32", math.MaxUint32, true},
		{"U32", -1, false},
		{"I64", math.MinInt64, true},
		{"U64", -1, false},
	}

	for _, tt := range tests {
		f, err := msg.Field(tt.field)
		require.NoError(t, err)

		err = f.SetInteger(tt.v)
		if tt.ok {
			require.NoError(t, err, "%s=%d", tt.field, tt.v)
		} else {
			require.ErrorIs(t, err, errs.ErrD2, "%s=%d", tt.field, tt.v)
		}
	}
}

func TestField_GroupAndSequence(t *testing.T) {
	require := require.New(t)

	msg, err := New(newRepo(t), 2)
	require.NoError(err)

	party, err := msg.Field("Party")
	require.NoError(err)
	g, err := party.Group()
	require.NoError(err)
	require.False(party.IsPresent(), "Group does not change presence")
	require.Equal(1, g.Len())

	g, err = party.MakeGroup()
	require.NoError(err)
	require.True(party.IsPresent())
	id, err := g.Field("ID")
	require.NoError(err)
	require.NoError(id.SetText("P1"))

	legs, err := msg.Field("Legs")
	require.NoError(err)
	seq, err := legs.MakeSequence(2)
	require.NoError(err)
	require.True(legs.IsPresent())
	require.Equal(2, seq.Len())

	ratio, err := seq.At(1).Field("Ratio")
	require.NoError(err)
	require.NoError(ratio.SetInt64(3))

	seq.Resize(3)
	require.Equal(3, seq.Len())
	ratio, err = seq.At(1).Field("Ratio")
	require.NoError(err)
	v, err := ratio.Int64()
	require.NoError(err)
	require.Equal(int64(3), v, "resize keeps existing elements")
}

func TestField_DynamicReference(t *testing.T) {
	require := require.New(t)

	msg, err := New(newRepo(t), 2)
	require.NoError(err)

	nested, err := msg.Field("Nested")
	require.NoError(err)

	_, err = nested.Template()
	require.ErrorIs(err, errs.ErrMissingValue)

	_, err = nested.BindTemplate(99)
	require.ErrorIs(err, errs.ErrD9)

	hdr, err := nested.BindTemplate(1)
	require.NoError(err)
	seq, err := hdr.Field("SeqNum")
	require.NoError(err)
	require.NoError(seq.SetUInt32(9))

	bound, err := nested.Template()
	require.NoError(err)
	require.Equal(uint32(1), bound.TemplateID())
	seq, err = bound.Field("SeqNum")
	require.NoError(err)
	got, err := seq.UInt32()
	require.NoError(err)
	require.Equal(uint32(9), got)
}

func TestEqual(t *testing.T) {
	require := require.New(t)

	repo := newRepo(t)
	build := func(sym string, withParty bool) *Message {
		msg, err := New(repo, 2)
		require.NoError(err)

		f, err := msg.Field("Sym")
		require.NoError(err)
		require.NoError(f.SetText(sym))

		if withParty {
			p, err := msg.Field("Party")
			require.NoError(err)
			_, err = p.MakeGroup()
			require.NoError(err)
		}

		return msg
	}

	require.True(Equal(build("A", false), build("A", false)))
	require.False(Equal(build("A", false), build("B", false)))
	require.False(Equal(build("A", true), build("A", false)))

	// absent fields compare equal regardless of stale content
	a, b := build("A", false), build("A", false)
	f, err := a.Field("I64")
	require.NoError(err)
	require.NoError(f.SetInt64(5))
	f.SetAbsent()
	require.True(Equal(a, b))

	// an untouched static reference equals an allocated one with absent fields
	hdr, err := a.Field("Header")
	require.NoError(err)
	_, err = hdr.Group()
	require.NoError(err)
	require.True(Equal(a, b))

	other, err := New(repo, 1)
	require.NoError(err)
	require.False(Equal(a, other))
}
