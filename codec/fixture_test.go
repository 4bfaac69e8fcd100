package codec

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/fastcodec/message"
	"github.com/arloliu/fastcodec/schema"
	"github.com/arloliu/fastcodec/value"
)

// Template ids of the test repository.
const (
	tidCopies    = 1
	tidOptCopy   = 2
	tidIncrement = 3
	tidDeltaStr  = 4
	tidDeltaInt  = 5
	tidTail      = 6
	tidDefault   = 7
	tidConstant  = 8
	tidWide      = 9
	tidResetting = 10
	tidItems     = 11
	tidWrap      = 12
	tidDeltaDec  = 13
	tidHeader    = 100
	tidSnapshot  = 101
	tidNote      = 102
)

func testTemplates() []*schema.TemplateDesc {
	return []*schema.TemplateDesc{
		schema.NewTemplate(tidCopies, "Copies", []schema.FieldDesc{
			schema.UInt32("a", 1, schema.Copy()),
			schema.UInt32("b", 2, schema.Copy(), schema.InitialUint(5)),
			schema.UInt32("c", 3, schema.Copy(), schema.Optional()),
		}),
		schema.NewTemplate(tidOptCopy, "OptCopy", []schema.FieldDesc{
			schema.UInt32("o", 1, schema.Copy(), schema.Optional()),
		}),
		schema.NewTemplate(tidIncrement, "Increment", []schema.FieldDesc{
			schema.UInt32("seq", 1, schema.Increment()),
		}),
		schema.NewTemplate(tidDeltaStr, "DeltaString", []schema.FieldDesc{
			schema.ASCII("s", 1, schema.Delta()),
		}),
		schema.NewTemplate(tidDeltaInt, "DeltaInt", []schema.FieldDesc{
			schema.Int64("px", 1, schema.Delta()),
		}),
		schema.NewTemplate(tidTail, "Tail", []schema.FieldDesc{
			schema.ASCII("t", 1, schema.Tail()),
		}),
		schema.NewTemplate(tidDefault, "Default", []schema.FieldDesc{
			schema.Int32("d", 1, schema.Default(), schema.Optional(), schema.InitialInt(7)),
		}),
		schema.NewTemplate(tidConstant, "Constant", []schema.FieldDesc{
			schema.ASCII("k", 1, schema.Constant(), schema.InitialString("X")),
			schema.ASCII("ok", 2, schema.Constant(), schema.Optional(), schema.InitialString("Y")),
		}),
		schema.NewTemplate(tidWide, "Wide", []schema.FieldDesc{
			schema.Int32("i", 1),
		}),
		schema.NewTemplate(tidResetting, "Resetting", []schema.FieldDesc{
			schema.UInt32("r", 1, schema.Copy()),
		}, schema.WithReset()),
		schema.NewTemplate(tidItems, "Items", []schema.FieldDesc{
			schema.Sequence("Items", 1, schema.Length("NoItems", 2), []schema.FieldDesc{
				schema.UInt32("v", 3),
			}),
		}),
		schema.NewTemplate(tidWrap, "Wrap", []schema.FieldDesc{
			schema.Int32("n", 1, schema.Increment()),
		}),
		schema.NewTemplate(tidDeltaDec, "DeltaDecimal", []schema.FieldDesc{
			schema.Decimal("dpx", 1, schema.Delta()),
		}),
		schema.NewTemplate(tidHeader, "Header", []schema.FieldDesc{
			schema.UInt32("SeqNum", 34, schema.Increment()),
			schema.UInt64("SendingTime", 52, schema.Delta()),
		}),
		schema.NewTemplate(tidSnapshot, "Snapshot", []schema.FieldDesc{
			schema.StaticRef("Header"),
			schema.Unicode("Text", 58, schema.Optional(), schema.Default()),
			schema.Group("Trailer", 0, []schema.FieldDesc{
				schema.UInt32("Check", 10, schema.Copy()),
			}, schema.Optional()),
			schema.Sequence("Entries", 0, schema.Length("NoEntries", 268), []schema.FieldDesc{
				schema.ASCII("Sym", 55, schema.Copy()),
				schema.Decimal("Px", 270, schema.Delta()),
				schema.Int64("Qty", 271, schema.Copy(), schema.Optional()),
				schema.ByteVector("Raw", 96, schema.Optional()),
			}),
			schema.DecimalParts("Avg", 6, schema.Exponent(schema.Copy()), schema.Mantissa(schema.Delta())),
			schema.DynamicRef("Body"),
		}),
		schema.NewTemplate(tidNote, "Note", []schema.FieldDesc{
			schema.ASCII("Memo", 1, schema.Tail(), schema.Optional()),
		}),
	}
}

func newTestRepo(t testing.TB) *schema.Repository {
	t.Helper()

	repo, err := schema.Build([]*schema.TemplatesDescription{schema.NewDescription(testTemplates()...)})
	require.NoError(t, err)

	return repo
}

func field(t testing.TB, g message.Group, name string) message.FieldRef {
	t.Helper()

	f, err := g.Field(name)
	require.NoError(t, err)

	return f
}

func newMessage(t testing.TB, repo *schema.Repository, id uint32) *message.Message {
	t.Helper()

	msg, err := message.New(repo, id)
	require.NoError(t, err)

	return msg
}

// newSnapshot builds the i-th message of a Snapshot stream. Field presence
// and values vary with i so that every operator takes each of its branches.
func newSnapshot(t testing.TB, repo *schema.Repository, i int) *message.Message {
	t.Helper()
	require := require.New(t)

	msg := newMessage(t, repo, tidSnapshot)

	hdr, err := field(t, msg.Group, "Header").Group()
	require.NoError(err)
	require.NoError(field(t, hdr, "SeqNum").SetUInt32(uint32(1000 + i)))
	require.NoError(field(t, hdr, "SendingTime").SetUInt64(uint64(1_700_000_000_000 + i*250)))

	if i%2 == 0 {
		require.NoError(field(t, msg.Group, "Text").SetText("héllo wörld"))
	}

	if i%3 != 1 {
		tr, err := field(t, msg.Group, "Trailer").MakeGroup()
		require.NoError(err)
		require.NoError(field(t, tr, "Check").SetUInt32(uint32(i % 2))) //nolint:gosec
	}

	seq, err := field(t, msg.Group, "Entries").MakeSequence(i % 4)
	require.NoError(err)
	for j := 0; j < seq.Len(); j++ {
		e := seq.At(j)
		require.NoError(field(t, e, "Sym").SetText(fmt.Sprintf("SYM%d", j)))
		require.NoError(field(t, e, "Px").SetDecimal(value.Decimal{Mantissa: int64(10000 + i*3 - j), Exponent: -2}))
		if (i+j)%2 == 0 {
			require.NoError(field(t, e, "Qty").SetInt64(int64(j - 50)))
		}
		if j == 1 {
			require.NoError(field(t, e, "Raw").SetBytes([]byte{0x00, 0xFF, byte(i)}))
		}
	}

	require.NoError(field(t, msg.Group, "Avg").SetDecimal(value.Decimal{Mantissa: int64(i*7 - 3), Exponent: -1 - int32(i%2)})) //nolint:gosec

	body, err := field(t, msg.Group, "Body").BindTemplate(tidNote)
	require.NoError(err)
	if i != 3 {
		require.NoError(field(t, body.Group, "Memo").SetText(fmt.Sprintf("note-%d", i*11)))
	}

	return msg
}

// encodeStream encodes msgs with one encoder and returns the stream and the
// size of every encoded message.
func encodeStream(t testing.TB, repo *schema.Repository, msgs []*message.Message) ([]byte, []int) {
	t.Helper()

	enc, err := NewEncoder(repo)
	require.NoError(t, err)

	var (
		stream []byte
		sizes  []int
	)
	for _, m := range msgs {
		before := len(stream)
		stream, err = enc.Append(stream, m, false)
		require.NoError(t, err)
		sizes = append(sizes, len(stream)-before)
	}

	return stream, sizes
}
