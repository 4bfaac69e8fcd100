package codec

import (
	"go.uber.org/zap"

	"github.com/arloliu/fastcodec/encoding"
	"github.com/arloliu/fastcodec/errs"
	"github.com/arloliu/fastcodec/format"
	"github.com/arloliu/fastcodec/internal/pool"
	"github.com/arloliu/fastcodec/message"
	"github.com/arloliu/fastcodec/schema"
	"github.com/arloliu/fastcodec/value"
)

// absent stands in for the cells of groups and elements without storage.
// The encoder never writes message cells.
var absent value.Value

// Encoder encodes messages into a FAST stream.
//
// Like the Decoder, the encoder owns a dictionary of previous values: the
// messages of one stream must be encoded in order by the same encoder, and
// decoded by a decoder that saw the same sequence of messages.
//
// Note: Encoder is NOT thread-safe.
type Encoder struct {
	repo     *schema.Repository
	dict     *schema.Dictionary
	w        encoding.Writer
	pmaps    []*encoding.PresenceMapWriter
	depth    int
	logger   *zap.Logger
	messages uint64
}

// NewEncoder creates an encoder for the templates of repo.
func NewEncoder(repo *schema.Repository, opts ...Option) (*Encoder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Encoder{
		repo:   repo,
		dict:   repo.NewDictionary(),
		logger: cfg.logger,
	}, nil
}

// Dictionary returns the previous values of the encoder.
func (e *Encoder) Dictionary() *schema.Dictionary { return e.dict }

// Reset makes every previous value undefined, as at the start of a stream.
func (e *Encoder) Reset() {
	e.resetDictionary("explicit")
}

// Append encodes msg and appends it to dst, growing dst as needed.
//
// When forceReset is set the dictionary is reset before encoding. On failure
// dst is returned unchanged and the dictionary holds the previous values
// updated up to the failing field.
func (e *Encoder) Append(dst []byte, msg *message.Message, forceReset bool) (out []byte, err error) {
	if msg == nil {
		return dst, errs.New(errs.CodeMissingValue, "nil message")
	}
	defer errs.Wrap(&err, "Append(template %d)", msg.TemplateID())

	start := len(dst)
	bb := pool.ByteBuffer{B: dst}
	if err := e.encode(&bb, msg, forceReset); err != nil {
		return bb.B[:start], err
	}

	return bb.B, nil
}

// EncodeInto encodes msg into buf and returns the number of bytes written.
//
// It fails with errs.ErrBufferOverflow when the encoded message does not fit
// buf. The dictionary then already reflects msg; reset the encoder before
// continuing the stream.
func (e *Encoder) EncodeInto(buf []byte, msg *message.Message, forceReset bool) (n int, err error) {
	if msg == nil {
		return 0, errs.New(errs.CodeMissingValue, "nil message")
	}
	defer errs.Wrap(&err, "EncodeInto(template %d)", msg.TemplateID())

	bb := pool.GetMessageBuffer()
	defer pool.PutMessageBuffer(bb)

	if err := e.encode(bb, msg, forceReset); err != nil {
		return 0, err
	}
	if bb.Len() > len(buf) {
		return 0, &errs.Error{Code: errs.CodeBufferOverflow, Length: len(buf), Detail: "encoded message does not fit"}
	}

	return copy(buf, bb.Bytes()), nil
}

func (e *Encoder) resetDictionary(reason string) {
	e.dict.Reset()
	if ce := e.logger.Check(zap.DebugLevel, "dictionary reset"); ce != nil {
		ce.Write(zap.String("reason", reason), zap.Uint64("messages", e.messages))
	}
}

func (e *Encoder) encode(bb *pool.ByteBuffer, msg *message.Message, forceReset bool) error {
	e.w.Reset(bb)
	e.depth = 0

	if forceReset {
		e.resetDictionary("forced")
	}

	t := msg.Template()
	mark := e.w.ReservePresenceMap(t.PmapBits)
	pm := e.acquirePmap()

	e.writeTemplateID(t, pm, true)
	if err := e.encodeFields(t.Fields, msg.Values(), pm); err != nil {
		return err
	}

	e.w.CommitPresenceMap(mark, pm)
	e.releasePmap()
	e.messages++

	return nil
}

func (e *Encoder) acquirePmap() *encoding.PresenceMapWriter {
	if e.depth == len(e.pmaps) {
		e.pmaps = append(e.pmaps, &encoding.PresenceMapWriter{})
	}
	pm := e.pmaps[e.depth]
	pm.Reset()
	e.depth++

	return pm
}

func (e *Encoder) releasePmap() {
	e.depth--
}

// writeTemplateID mirrors Decoder.readTemplateID: the id is omitted when it
// equals the active template id.
func (e *Encoder) writeTemplateID(t *schema.Template, pm *encoding.PresenceMapWriter, top bool) {
	cell := e.dict.Cell(schema.TemplateIDCell)

	if cell.IsPresent() && cell.Uint64() == uint64(t.ID) {
		pm.SetNextBit(false)
	} else {
		pm.SetNextBit(true)
		e.w.WriteUint(uint64(t.ID), false)
	}

	cell.SetUint64(uint64(t.ID))
	if top && t.Reset {
		e.resetDictionary("template " + t.Name)
		cell.SetUint64(uint64(t.ID))
	}
}

func cellAt(fields []value.Value, i int) *value.Value {
	if i >= len(fields) {
		return &absent
	}

	return &fields[i]
}

func (e *Encoder) encodeFields(children []int, fields []value.Value, pm *encoding.PresenceMapWriter) error {
	for i, c := range children {
		in := e.repo.Instruction(c)
		if err := e.encodeField(in, cellAt(fields, i), pm); err != nil {
			return fieldError(in, err)
		}
	}

	return nil
}

func (e *Encoder) encodeField(in *schema.Instruction, cell *value.Value, pm *encoding.PresenceMapWriter) error {
	switch in.Type { //nolint:exhaustive
	case format.TypeGroup:
		return e.encodeGroup(in, cell, pm)
	case format.TypeSequence:
		return e.encodeSequence(in, cell, pm)
	case format.TypeStaticRef:
		return e.encodeFields(in.Children, cell.Fields(), pm)
	case format.TypeDynamicRef:
		return e.encodeDynamicRef(in, cell)
	case format.TypeDecimalPartial:
		return e.encodeDecimalParts(in, cell, pm)
	default:
		return e.encodeScalar(in, cell, pm)
	}
}

func (e *Encoder) encodeSegment(children []int, fields []value.Value, bits int) error {
	mark := e.w.ReservePresenceMap(bits)
	pm := e.acquirePmap()
	if err := e.encodeFields(children, fields, pm); err != nil {
		return err
	}
	e.w.CommitPresenceMap(mark, pm)
	e.releasePmap()

	return nil
}

func (e *Encoder) encodeGroup(in *schema.Instruction, cell *value.Value, pm *encoding.PresenceMapWriter) error {
	if in.IsOptional() {
		pm.SetNextBit(cell.IsPresent())
		if !cell.IsPresent() {
			return nil
		}
	}

	if in.PmapBits == 0 {
		return e.encodeFields(in.Children, cell.Fields(), pm)
	}

	return e.encodeSegment(in.Children, cell.Fields(), in.PmapBits)
}

func (e *Encoder) encodeSequence(in *schema.Instruction, cell *value.Value, pm *encoding.PresenceMapWriter) error {
	var length value.Value
	if cell.IsPresent() {
		length.SetUint64(uint64(cell.Len()))
	} else {
		length.SetEmpty()
	}

	lin := e.repo.Instruction(in.Length)
	if err := e.encodeScalar(lin, &length, pm); err != nil {
		return fieldError(lin, err)
	}
	if !cell.IsPresent() {
		return nil
	}

	for _, elem := range cell.Elements() {
		var err error
		if in.PmapBits > 0 {
			err = e.encodeSegment(in.Children, elem.Fields(), in.PmapBits)
		} else {
			err = e.encodeFields(in.Children, elem.Fields(), pm)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (e *Encoder) encodeDynamicRef(in *schema.Instruction, cell *value.Value) error {
	id, bound := cell.TemplateID()
	if !bound || !cell.IsPresent() {
		return errs.New(errs.CodeMissingValue, "unbound template reference")
	}
	t, ok := e.repo.TemplateByID(id)
	if !ok {
		return &errs.Error{Code: errs.CodeD9, Field: in.Name, TemplateID: id}
	}

	mark := e.w.ReservePresenceMap(t.PmapBits)
	pm := e.acquirePmap()
	e.writeTemplateID(t, pm, false)
	if err := e.encodeFields(t.Fields, cell.Fields(), pm); err != nil {
		return err
	}
	e.w.CommitPresenceMap(mark, pm)
	e.releasePmap()

	return nil
}

func (e *Encoder) encodeDecimalParts(in *schema.Instruction, cell *value.Value, pm *encoding.PresenceMapWriter) error {
	var exp, mant value.Value
	if cell.IsPresent() {
		d := cell.Decimal()
		if err := checkExponent(int64(d.Exponent)); err != nil {
			return err
		}
		exp.SetInt64(int64(d.Exponent))
		mant.SetInt64(d.Mantissa)
	} else {
		exp.SetEmpty()
	}

	if err := e.encodeScalar(e.repo.Instruction(in.Exponent), &exp, pm); err != nil {
		return err
	}
	if !cell.IsPresent() {
		return nil
	}

	return e.encodeScalar(e.repo.Instruction(in.Mantissa), &mant, pm)
}

func (e *Encoder) encodeScalar(in *schema.Instruction, cell *value.Value, pm *encoding.PresenceMapWriter) error {
	present := cell.IsPresent()
	if !present && !in.IsOptional() && in.Operator != format.OperatorConstant {
		return errs.New(errs.CodeMissingValue, "")
	}

	switch in.Operator {
	case format.OperatorNone:
		return e.writeValue(in, cell, in.IsNullable())

	case format.OperatorConstant:
		if present && !cell.EqualAs(in.Type, &in.Initial) {
			return errs.New(errs.CodeUnencodable, "value differs from the constant")
		}
		if in.IsOptional() {
			pm.SetNextBit(present)
		}

		return nil

	case format.OperatorDefault:
		omit := present && in.HasInitial() && cell.EqualAs(in.Type, &in.Initial) ||
			!present && !in.HasInitial()
		pm.SetNextBit(!omit)
		if !omit {
			if err := e.writeValue(in, cell, in.IsNullable()); err != nil {
				return err
			}
		}
		if in.Shared && present {
			e.dict.Cell(in.Cell).CopyFrom(cell)
		}

		return nil

	case format.OperatorCopy, format.OperatorIncrement:
		prev := e.dict.Cell(in.Cell)

		omit := false
		if base, fromPrev, err := copyBase(in, prev); err == nil {
			switch {
			case base == nil:
				omit = !present
			case !present:
				omit = false
			case in.Operator == format.OperatorIncrement && fromPrev:
				omit = cell.Uint64() == increment(in.Type, base.Uint64())
			default:
				omit = cell.EqualAs(in.Type, base)
			}
		}

		pm.SetNextBit(!omit)
		if !omit {
			if err := e.writeValue(in, cell, in.IsNullable()); err != nil {
				return err
			}
		}
		updatePrevious(prev, cell)

		return nil

	case format.OperatorDelta:
		return e.encodeDelta(in, cell)

	case format.OperatorTail:
		return e.encodeTail(in, cell, pm)

	default:
		return errs.Newf(errs.CodeS2, "unknown operator %d", in.Operator)
	}
}

// writeValue writes the wire value of a scalar field, or null for an absent
// nullable field.
func (e *Encoder) writeValue(in *schema.Instruction, cell *value.Value, nullable bool) error {
	if !cell.IsPresent() {
		if !nullable {
			return errs.New(errs.CodeMissingValue, "")
		}
		e.w.WriteNull()

		return nil
	}

	switch {
	case in.Type.IsInteger():
		if err := checkWidth(in.Type, cell.Uint64()); err != nil {
			return err
		}
		if in.Type.IsSigned() {
			e.w.WriteInt(cell.Int64(), nullable)
		} else {
			e.w.WriteUint(cell.Uint64(), nullable)
		}

	case in.Type == format.TypeDecimal:
		d := cell.Decimal()
		if err := checkExponent(int64(d.Exponent)); err != nil {
			return err
		}
		e.w.WriteInt(int64(d.Exponent), nullable)
		e.w.WriteInt(d.Mantissa, false)

	default:
		return e.writeArray(in.Type, cell.Bytes(), nullable)
	}

	return nil
}

func (e *Encoder) writeArray(t format.FieldType, b []byte, nullable bool) error {
	if t == format.TypeASCII {
		return e.w.WriteASCII(b, nullable)
	}
	e.w.WriteByteVector(b, nullable)

	return nil
}

func (e *Encoder) encodeDelta(in *schema.Instruction, cell *value.Value) error {
	if !cell.IsPresent() {
		e.w.WriteNull()
		return nil
	}

	prev := e.dict.Cell(in.Cell)
	base, err := deltaBase(in, prev)
	if err != nil {
		return err
	}

	switch {
	case in.Type.IsInteger():
		if err := checkWidth(in.Type, cell.Uint64()); err != nil {
			return err
		}
		e.w.WriteInt(int64(cell.Uint64()-intOf(base)), in.IsNullable()) //nolint:gosec

	case in.Type == format.TypeDecimal:
		v, b := cell.Decimal(), decimalOf(base)
		if err := checkExponent(int64(v.Exponent)); err != nil {
			return err
		}
		dmant, err := subMantissa(v.Mantissa, b.Mantissa)
		if err != nil {
			return err
		}
		e.w.WriteInt(int64(v.Exponent)-int64(b.Exponent), in.IsNullable())
		e.w.WriteInt(dmant, false)

	default:
		sub, delta := stringDelta(bytesOf(base), cell.Bytes())
		e.w.WriteInt(sub, in.IsNullable())
		if err := e.writeArray(in.Type, delta, false); err != nil {
			return err
		}
	}
	prev.CopyFrom(cell)

	return nil
}

func (e *Encoder) encodeTail(in *schema.Instruction, cell *value.Value, pm *encoding.PresenceMapWriter) error {
	prev := e.dict.Cell(in.Cell)
	state := prev.State()

	if !cell.IsPresent() {
		// absent is implied by an empty previous value, or by an undefined
		// one without initial value
		if state == value.Empty || state == value.Undefined && !in.HasInitial() {
			pm.SetNextBit(false)
		} else {
			pm.SetNextBit(true)
			e.w.WriteNull()
		}
		prev.SetEmpty()

		return nil
	}

	switch {
	case state == value.Assigned && cell.EqualAs(in.Type, prev):
		pm.SetNextBit(false)
		return nil
	case state == value.Undefined && in.HasInitial() && cell.EqualAs(in.Type, &in.Initial):
		pm.SetNextBit(false)
		prev.CopyFrom(&in.Initial)

		return nil
	}

	tail, ok := tailOf(bytesOf(tailBase(in, prev)), cell.Bytes())
	if !ok {
		return errs.New(errs.CodeUnencodable, "value shorter than its tail base")
	}
	pm.SetNextBit(true)
	if err := e.writeArray(in.Type, tail, in.IsNullable()); err != nil {
		return err
	}
	prev.CopyFrom(cell)

	return nil
}
