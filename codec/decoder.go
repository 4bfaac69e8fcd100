package codec

import (
	"math"

	"go.uber.org/zap"

	"github.com/arloliu/fastcodec/encoding"
	"github.com/arloliu/fastcodec/errs"
	"github.com/arloliu/fastcodec/format"
	"github.com/arloliu/fastcodec/message"
	"github.com/arloliu/fastcodec/schema"
	"github.com/arloliu/fastcodec/value"
)

// Decoder decodes a stream of FAST messages.
//
// The decoder owns a dictionary of previous values that carries state from
// one message to the next, so messages of one stream must be decoded in
// order by the same decoder. Decoders sharing a Repository are independent.
//
// The returned messages live in storage provided by the decoder's allocator.
// With the default arena allocator a message is valid until the next call to
// Decode.
//
// Note: Decoder is NOT thread-safe.
type Decoder struct {
	repo        *schema.Repository
	dict        *schema.Dictionary
	alloc       value.Allocator
	r           encoding.Reader
	logger      *zap.Logger
	maxSeqLen   int
	messages    uint64
	lastTemplID uint32
}

// NewDecoder creates a decoder for the templates of repo.
func NewDecoder(repo *schema.Repository, opts ...Option) (*Decoder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return newDecoder(repo, cfg), nil
}

func newDecoder(repo *schema.Repository, cfg *Config) *Decoder {
	return &Decoder{
		repo:      repo,
		dict:      repo.NewDictionary(),
		alloc:     cfg.newAllocator(),
		logger:    cfg.logger,
		maxSeqLen: cfg.maxSequenceLen,
	}
}

// Repository returns the templates of the decoder.
func (d *Decoder) Repository() *schema.Repository { return d.repo }

// Dictionary returns the previous values of the decoder.
func (d *Decoder) Dictionary() *schema.Dictionary { return d.dict }

// Reset makes every previous value undefined, as at the start of a stream.
func (d *Decoder) Reset() {
	d.resetDictionary("explicit")
}

// Decode decodes the message at the front of data.
//
// When forceReset is set the dictionary is reset before decoding. The second
// result is the number of bytes consumed; the next message starts there.
//
// On failure the dictionary holds the previous values updated up to the
// failing field, and the stream should be resynchronized with a reset.
func (d *Decoder) Decode(data []byte, forceReset bool) (msg *message.Message, n int, err error) {
	defer errs.Wrap(&err, "Decode")

	d.alloc.Reset()
	d.r.Reset(data)

	if forceReset {
		d.resetDictionary("forced")
	}

	pm, err := d.r.ReadPresenceMap()
	if err != nil {
		return nil, 0, err
	}

	t, err := d.readTemplateID(&pm, true)
	if err != nil {
		return nil, 0, err
	}

	fields := d.alloc.Values(len(t.Fields))
	if err := d.decodeFields(t.Fields, fields, &pm); err != nil {
		return nil, 0, err
	}
	d.messages++

	return message.Wrap(d.repo, t, fields), d.r.Offset(), nil
}

func (d *Decoder) resetDictionary(reason string) {
	d.dict.Reset()
	if ce := d.logger.Check(zap.DebugLevel, "dictionary reset"); ce != nil {
		ce.Write(zap.String("reason", reason), zap.Uint64("messages", d.messages))
	}
}

// readTemplateID reads the template id of a segment, or reuses the active
// one when the template id bit is clear, and makes it active. A template
// declaring reset resets the dictionary when it starts a message.
func (d *Decoder) readTemplateID(pm *encoding.PresenceMap, top bool) (*schema.Template, error) {
	cell := d.dict.Cell(schema.TemplateIDCell)

	var id uint32
	if pm.IsNextBitSet() {
		v, _, err := d.r.ReadUint(false)
		if err != nil {
			return nil, err
		}
		if v > math.MaxUint32 {
			return nil, errs.Newf(errs.CodeD2, "template id %d", v)
		}
		id = uint32(v)
	} else {
		if !cell.IsPresent() {
			return nil, errs.New(errs.CodeD5, "no active template")
		}
		id = uint32(cell.Uint64()) //nolint:gosec
	}

	t, ok := d.repo.TemplateByID(id)
	if !ok {
		return nil, &errs.Error{Code: errs.CodeD9, TemplateID: id}
	}

	if top && id != d.lastTemplID {
		if ce := d.logger.Check(zap.DebugLevel, "template switch"); ce != nil {
			ce.Write(zap.Uint32("from", d.lastTemplID), zap.Uint32("to", id), zap.String("name", t.Name))
		}
		d.lastTemplID = id
	}

	cell.SetUint64(uint64(id))
	if top && t.Reset {
		d.resetDictionary("template " + t.Name)
		cell.SetUint64(uint64(id))
	}

	return t, nil
}

func (d *Decoder) decodeFields(children []int, fields []value.Value, pm *encoding.PresenceMap) error {
	for i, c := range children {
		in := d.repo.Instruction(c)
		if err := d.decodeField(in, &fields[i], pm); err != nil {
			return fieldError(in, err)
		}
	}

	return nil
}

func (d *Decoder) decodeField(in *schema.Instruction, cell *value.Value, pm *encoding.PresenceMap) error {
	switch in.Type { //nolint:exhaustive
	case format.TypeGroup:
		return d.decodeGroup(in, cell, pm)
	case format.TypeSequence:
		return d.decodeSequence(in, cell, pm)
	case format.TypeStaticRef:
		fields := d.alloc.Values(len(in.Children))
		cell.SetFields(fields)
		cell.SetPresent(true)

		return d.decodeFields(in.Children, fields, pm)
	case format.TypeDynamicRef:
		return d.decodeDynamicRef(cell)
	case format.TypeDecimalPartial:
		return d.decodeDecimalParts(in, cell, pm)
	default:
		return d.decodeScalar(in, cell, pm)
	}
}

func (d *Decoder) decodeGroup(in *schema.Instruction, cell *value.Value, pm *encoding.PresenceMap) error {
	if in.IsOptional() && !pm.IsNextBitSet() {
		cell.SetEmpty()
		return nil
	}

	fields := d.alloc.Values(len(in.Children))
	cell.SetFields(fields)
	cell.SetPresent(true)

	if in.PmapBits == 0 {
		return d.decodeFields(in.Children, fields, pm)
	}

	gpm, err := d.r.ReadPresenceMap()
	if err != nil {
		return err
	}

	return d.decodeFields(in.Children, fields, &gpm)
}

func (d *Decoder) decodeSequence(in *schema.Instruction, cell *value.Value, pm *encoding.PresenceMap) error {
	var length value.Value
	lin := d.repo.Instruction(in.Length)
	if err := d.decodeScalar(lin, &length, pm); err != nil {
		return fieldError(lin, err)
	}
	if !length.IsPresent() {
		cell.SetEmpty()
		return nil
	}

	n := length.Uint64()
	if n > uint64(d.maxSeqLen) { //nolint:gosec
		return errs.Newf(errs.CodeD2, "sequence length %d exceeds limit %d", n, d.maxSeqLen)
	}
	if in.PmapBits > 0 && n > uint64(d.r.Remaining()) { //nolint:gosec
		return &errs.Error{Code: errs.CodeBufferUnderflow, Length: d.r.Offset(), Detail: "sequence longer than remaining input"}
	}

	elems := d.alloc.Values(int(n))
	for i := range elems {
		fields := d.alloc.Values(len(in.Children))
		elems[i].SetFields(fields)
		elems[i].SetPresent(true)

		epm := pm
		if in.PmapBits > 0 {
			p, err := d.r.ReadPresenceMap()
			if err != nil {
				return err
			}
			epm = &p
		}
		if err := d.decodeFields(in.Children, fields, epm); err != nil {
			return err
		}
	}
	cell.SetElements(elems)

	return nil
}

func (d *Decoder) decodeDynamicRef(cell *value.Value) error {
	pm, err := d.r.ReadPresenceMap()
	if err != nil {
		return err
	}

	t, err := d.readTemplateID(&pm, false)
	if err != nil {
		return err
	}

	fields := d.alloc.Values(len(t.Fields))
	cell.BindTemplate(t.ID, fields)

	return d.decodeFields(t.Fields, fields, &pm)
}

func (d *Decoder) decodeDecimalParts(in *schema.Instruction, cell *value.Value, pm *encoding.PresenceMap) error {
	var exp, mant value.Value

	ein := d.repo.Instruction(in.Exponent)
	if err := d.decodeScalar(ein, &exp, pm); err != nil {
		return err
	}
	if !exp.IsPresent() {
		cell.SetEmpty()
		return nil
	}
	if err := checkExponent(exp.Int64()); err != nil {
		return err
	}

	if err := d.decodeScalar(d.repo.Instruction(in.Mantissa), &mant, pm); err != nil {
		return err
	}
	cell.SetDecimal(value.Decimal{Mantissa: mant.Int64(), Exponent: int32(exp.Int64())}) //nolint:gosec

	return nil
}

func (d *Decoder) decodeScalar(in *schema.Instruction, cell *value.Value, pm *encoding.PresenceMap) error {
	switch in.Operator {
	case format.OperatorNone:
		return d.readValue(in, cell, in.IsNullable())

	case format.OperatorConstant:
		if in.IsOptional() && !pm.IsNextBitSet() {
			cell.SetEmpty()
			return nil
		}
		d.assign(in, cell, &in.Initial)

		return nil

	case format.OperatorDefault:
		if pm.IsNextBitSet() {
			if err := d.readValue(in, cell, in.IsNullable()); err != nil {
				return err
			}
		} else if in.HasInitial() {
			d.assign(in, cell, &in.Initial)
		} else {
			cell.SetEmpty()
		}
		if in.Shared && cell.IsPresent() {
			d.dict.Cell(in.Cell).CopyFrom(cell)
		}

		return nil

	case format.OperatorCopy, format.OperatorIncrement:
		prev := d.dict.Cell(in.Cell)
		if pm.IsNextBitSet() {
			if err := d.readValue(in, cell, in.IsNullable()); err != nil {
				return err
			}
			updatePrevious(prev, cell)

			return nil
		}

		base, fromPrev, err := copyBase(in, prev)
		if err != nil {
			return err
		}
		switch {
		case base == nil:
			cell.SetEmpty()
			prev.SetEmpty()
		case in.Operator == format.OperatorIncrement && fromPrev:
			cell.SetUint64(increment(in.Type, base.Uint64()))
			prev.SetUint64(cell.Uint64())
		default:
			d.assign(in, cell, base)
			if !fromPrev {
				prev.CopyFrom(base)
			}
		}

		return nil

	case format.OperatorDelta:
		return d.decodeDelta(in, cell)

	case format.OperatorTail:
		return d.decodeTail(in, cell, pm)

	default:
		return errs.Newf(errs.CodeS2, "unknown operator %d", in.Operator)
	}
}

func updatePrevious(prev, cell *value.Value) {
	if cell.IsPresent() {
		prev.CopyFrom(cell)
		return
	}
	prev.SetEmpty()
}

// assign copies src into the message cell, placing byte content in
// allocator storage.
func (d *Decoder) assign(in *schema.Instruction, cell, src *value.Value) {
	if !in.Type.IsArray() {
		cell.CopyFrom(src)
		return
	}

	out := d.alloc.Bytes(len(src.Bytes()))
	copy(out, src.Bytes())
	cell.AdoptBytes(out)
}

// readValue reads the wire value of a scalar field into cell.
func (d *Decoder) readValue(in *schema.Instruction, cell *value.Value, nullable bool) error {
	switch {
	case in.Type.IsInteger():
		v, null, err := d.readInteger(in.Type, nullable)
		if err != nil {
			return err
		}
		if null {
			cell.SetEmpty()
			return nil
		}
		cell.SetUint64(v)

	case in.Type == format.TypeDecimal:
		exp, null, err := d.r.ReadInt(nullable)
		if err != nil {
			return err
		}
		if null {
			cell.SetEmpty()
			return nil
		}
		if err := checkExponent(exp); err != nil {
			return err
		}
		m, _, err := d.r.ReadInt(false)
		if err != nil {
			return err
		}
		cell.SetDecimal(value.Decimal{Mantissa: m, Exponent: int32(exp)})

	default:
		b, null, err := d.readArray(in.Type, nullable)
		if err != nil {
			return err
		}
		if null {
			cell.SetEmpty()
			return nil
		}
		cell.AdoptBytes(b)
	}

	return nil
}

func (d *Decoder) readInteger(t format.FieldType, nullable bool) (uint64, bool, error) {
	var (
		u    uint64
		null bool
	)
	if t.IsSigned() {
		v, isNull, err := d.r.ReadInt(nullable)
		if err != nil {
			return 0, false, err
		}
		u, null = uint64(v), isNull //nolint:gosec
	} else {
		v, isNull, err := d.r.ReadUint(nullable)
		if err != nil {
			return 0, false, err
		}
		u, null = v, isNull
	}
	if null {
		return 0, true, nil
	}

	return u, false, checkWidth(t, u)
}

// readArray reads a string or byte vector into allocator storage.
func (d *Decoder) readArray(t format.FieldType, nullable bool) ([]byte, bool, error) {
	if t == format.TypeASCII {
		view, null, err := d.r.ReadASCII(nullable)
		if err != nil || null {
			return nil, null, err
		}
		out := d.alloc.Bytes(len(view))
		encoding.CopyASCII(out, view)

		return out, false, nil
	}

	b, null, err := d.r.ReadByteVector(nullable)
	if err != nil || null {
		return nil, null, err
	}
	out := d.alloc.Bytes(len(b))
	copy(out, b)

	return out, false, nil
}

func (d *Decoder) decodeDelta(in *schema.Instruction, cell *value.Value) error {
	prev := d.dict.Cell(in.Cell)

	switch {
	case in.Type.IsInteger():
		delta, null, err := d.r.ReadInt(in.IsNullable())
		if err != nil {
			return err
		}
		if null {
			cell.SetEmpty()
			return nil
		}
		base, err := deltaBase(in, prev)
		if err != nil {
			return err
		}
		result := intOf(base) + uint64(delta) //nolint:gosec
		if err := checkWidth(in.Type, result); err != nil {
			return err
		}
		cell.SetUint64(result)
		prev.SetUint64(result)

	case in.Type == format.TypeDecimal:
		dexp, null, err := d.r.ReadInt(in.IsNullable())
		if err != nil {
			return err
		}
		if null {
			cell.SetEmpty()
			return nil
		}
		dmant, _, err := d.r.ReadInt(false)
		if err != nil {
			return err
		}
		base, err := deltaBase(in, prev)
		if err != nil {
			return err
		}
		b := decimalOf(base)
		exp := int64(b.Exponent) + dexp
		if err := checkExponent(exp); err != nil {
			return err
		}
		mant, err := addMantissa(b.Mantissa, dmant)
		if err != nil {
			return err
		}
		result := value.Decimal{Mantissa: mant, Exponent: int32(exp)}
		cell.SetDecimal(result)
		prev.SetDecimal(result)

	default:
		sub, null, err := d.r.ReadInt(in.IsNullable())
		if err != nil {
			return err
		}
		if null {
			cell.SetEmpty()
			return nil
		}
		if sub < math.MinInt32 || sub > math.MaxInt32 {
			return errs.Newf(errs.CodeD2, "subtraction length %d overflows int32", sub)
		}
		delta, _, err := d.readArray(in.Type, false)
		if err != nil {
			return err
		}
		base, err := deltaBase(in, prev)
		if err != nil {
			return err
		}

		baseBytes := bytesOf(base)
		removed := sub
		if sub < 0 {
			removed = ^sub
		}
		size := len(delta)
		if removed <= int64(len(baseBytes)) {
			size += len(baseBytes) - int(removed)
		}
		out, err := applyStringDelta(d.alloc.Bytes(size), baseBytes, delta, sub)
		if err != nil {
			return err
		}
		cell.AdoptBytes(out)
		prev.SetBytes(out)
	}

	return nil
}

func (d *Decoder) decodeTail(in *schema.Instruction, cell *value.Value, pm *encoding.PresenceMap) error {
	prev := d.dict.Cell(in.Cell)

	if pm.IsNextBitSet() {
		tail, null, err := d.readArray(in.Type, in.IsNullable())
		if err != nil {
			return err
		}
		if null {
			cell.SetEmpty()
			prev.SetEmpty()

			return nil
		}

		base := bytesOf(tailBase(in, prev))
		out := applyTail(d.alloc.Bytes(max(len(base), len(tail))), base, tail)
		cell.AdoptBytes(out)
		prev.SetBytes(out)

		return nil
	}

	switch prev.State() {
	case value.Assigned:
		d.assign(in, cell, prev)
	case value.Empty:
		if !in.IsOptional() {
			return errs.New(errs.CodeD7, "mandatory tail field with empty previous value")
		}
		cell.SetEmpty()
	default:
		switch {
		case in.HasInitial():
			d.assign(in, cell, &in.Initial)
			prev.CopyFrom(&in.Initial)
		case in.IsOptional():
			cell.SetEmpty()
			prev.SetEmpty()
		default:
			return errs.New(errs.CodeD6, "mandatory tail field without previous or initial value")
		}
	}

	return nil
}
