package schema

import (
	"github.com/arloliu/fastcodec/format"
	"github.com/arloliu/fastcodec/internal/options"
	"github.com/arloliu/fastcodec/value"
)

// TemplatesDescription is one loaded set of templates, as produced by a
// template description parser. Its attributes are inherited by the templates
// that do not override them.
type TemplatesDescription struct {
	Namespace         string // field namespace
	TemplateNamespace string // namespace of template names
	Dictionary        string
	Templates         []*TemplateDesc
}

// NewDescription returns a description holding templates.
func NewDescription(templates ...*TemplateDesc) *TemplatesDescription {
	return &TemplatesDescription{Templates: templates}
}

// TemplateDesc describes one template.
type TemplateDesc struct {
	ID                uint32
	Name              string
	TemplateNamespace string
	Namespace         string
	Dictionary        string
	TypeRef           string
	TypeRefNamespace  string
	Reset             bool
	Fields            []FieldDesc
	err               error
}

// TemplateOption configures a TemplateDesc.
type TemplateOption = options.Option[*TemplateDesc]

// NewTemplate describes template id named name with the ordered fields.
func NewTemplate(id uint32, name string, fields []FieldDesc, opts ...TemplateOption) *TemplateDesc {
	t := &TemplateDesc{ID: id, Name: name, Fields: fields}
	t.err = options.Apply(t, opts...)

	return t
}

// WithReset makes every message of the template reset the dictionaries.
func WithReset() TemplateOption {
	return options.NoError(func(t *TemplateDesc) {
		t.Reset = true
	})
}

// WithTemplateDictionary sets the default dictionary of the template's fields.
func WithTemplateDictionary(name string) TemplateOption {
	return options.NoError(func(t *TemplateDesc) {
		t.Dictionary = name
	})
}

// WithTypeRef sets the application type of the template, which qualifies
// keys in the "type" dictionary.
func WithTypeRef(name, ns string) TemplateOption {
	return options.NoError(func(t *TemplateDesc) {
		t.TypeRef = name
		t.TypeRefNamespace = ns
	})
}

// WithTemplateNamespace sets the namespace of the template name.
func WithTemplateNamespace(ns string) TemplateOption {
	return options.NoError(func(t *TemplateDesc) {
		t.TemplateNamespace = ns
	})
}

// WithNamespace sets the default namespace of the template's fields.
func WithNamespace(ns string) TemplateOption {
	return options.NoError(func(t *TemplateDesc) {
		t.Namespace = ns
	})
}

// FieldDesc describes one field instruction.
//
// Group and sequence descriptions carry their fields; a sequence also has its
// length field. A decimal with individual operators carries its exponent and
// mantissa descriptions. A static template reference names its target.
type FieldDesc struct {
	Name             string
	ID               uint32
	Type             format.FieldType
	Presence         format.Presence
	Operator         format.Operator
	Initial          value.Value // defined when an initial value is declared
	Key              string      // dictionary key, defaults to Name
	KeyNamespace     string      // namespace of Key, defaults to Namespace
	Namespace        string
	Dictionary       string
	TypeRef          string
	TypeRefNamespace string
	Fields           []FieldDesc
	Length           *FieldDesc
	Exponent         *FieldDesc
	Mantissa         *FieldDesc
	Template         string // static reference target
	err              error
}

// FieldOption configures a FieldDesc.
type FieldOption = options.Option[*FieldDesc]

func newField(name string, id uint32, t format.FieldType, opts []FieldOption) FieldDesc {
	f := FieldDesc{Name: name, ID: id, Type: t}
	f.err = options.Apply(&f, opts...)

	return f
}

// Int32 describes a signed 32-bit integer field.
func Int32(name string, id uint32, opts ...FieldOption) FieldDesc {
	return newField(name, id, format.TypeInt32, opts)
}

// UInt32 describes an unsigned 32-bit integer field.
func UInt32(name string, id uint32, opts ...FieldOption) FieldDesc {
	return newField(name, id, format.TypeUInt32, opts)
}

// Int64 describes a signed 64-bit integer field.
func Int64(name string, id uint32, opts ...FieldOption) FieldDesc {
	return newField(name, id, format.TypeInt64, opts)
}

// UInt64 describes an unsigned 64-bit integer field.
func UInt64(name string, id uint32, opts ...FieldOption) FieldDesc {
	return newField(name, id, format.TypeUInt64, opts)
}

// Decimal describes a decimal field with a single operator.
func Decimal(name string, id uint32, opts ...FieldOption) FieldDesc {
	return newField(name, id, format.TypeDecimal, opts)
}

// DecimalParts describes a decimal field whose exponent and mantissa have
// individual operators. Presence options apply to the exponent.
func DecimalParts(name string, id uint32, exponent, mantissa FieldDesc, opts ...FieldOption) FieldDesc {
	f := newField(name, id, format.TypeDecimalPartial, opts)
	exponent.Type = format.TypeInt32
	mantissa.Type = format.TypeInt64
	f.Exponent = &exponent
	f.Mantissa = &mantissa

	return f
}

// Exponent describes the exponent of a DecimalParts field.
func Exponent(opts ...FieldOption) FieldDesc {
	return newField("exponent", 0, format.TypeInt32, opts)
}

// Mantissa describes the mantissa of a DecimalParts field.
func Mantissa(opts ...FieldOption) FieldDesc {
	return newField("mantissa", 0, format.TypeInt64, opts)
}

// ASCII describes an ASCII string field.
func ASCII(name string, id uint32, opts ...FieldOption) FieldDesc {
	return newField(name, id, format.TypeASCII, opts)
}

// Unicode describes a UTF-8 string field.
func Unicode(name string, id uint32, opts ...FieldOption) FieldDesc {
	return newField(name, id, format.TypeUnicode, opts)
}

// ByteVector describes a byte vector field.
func ByteVector(name string, id uint32, opts ...FieldOption) FieldDesc {
	return newField(name, id, format.TypeByteVector, opts)
}

// Group describes a group of fields.
func Group(name string, id uint32, fields []FieldDesc, opts ...FieldOption) FieldDesc {
	f := newField(name, id, format.TypeGroup, opts)
	f.Fields = fields

	return f
}

// Sequence describes a sequence whose elements hold fields. A nil length
// selects an implicit uint32 length field without operator.
func Sequence(name string, id uint32, length *FieldDesc, fields []FieldDesc, opts ...FieldOption) FieldDesc {
	f := newField(name, id, format.TypeSequence, opts)
	f.Fields = fields
	if length != nil {
		l := *length
		l.Type = format.TypeUInt32
		f.Length = &l
	}

	return f
}

// Length describes the length field of a sequence.
func Length(name string, id uint32, opts ...FieldOption) *FieldDesc {
	f := newField(name, id, format.TypeUInt32, opts)
	return &f
}

// StaticRef describes a static reference inlining the fields of the named
// template.
func StaticRef(template string, opts ...FieldOption) FieldDesc {
	f := newField(template, 0, format.TypeStaticRef, opts)
	f.Template = template

	return f
}

// DynamicRef describes a dynamic reference: the template is selected by the
// template id in the stream.
func DynamicRef(name string) FieldDesc {
	return FieldDesc{Name: name, Type: format.TypeDynamicRef}
}

// Optional marks the field optional.
func Optional() FieldOption {
	return options.NoError(func(f *FieldDesc) {
		f.Presence = format.Optional
	})
}

// Mandatory marks the field mandatory. It is the default.
func Mandatory() FieldOption {
	return options.NoError(func(f *FieldDesc) {
		f.Presence = format.Mandatory
	})
}

func withOperator(op format.Operator) FieldOption {
	return options.NoError(func(f *FieldDesc) {
		f.Operator = op
	})
}

// Constant selects the constant operator.
func Constant() FieldOption { return withOperator(format.OperatorConstant) }

// Copy selects the copy operator.
func Copy() FieldOption { return withOperator(format.OperatorCopy) }

// Increment selects the increment operator.
func Increment() FieldOption { return withOperator(format.OperatorIncrement) }

// Delta selects the delta operator.
func Delta() FieldOption { return withOperator(format.OperatorDelta) }

// Tail selects the tail operator.
func Tail() FieldOption { return withOperator(format.OperatorTail) }

// Default selects the default operator.
func Default() FieldOption { return withOperator(format.OperatorDefault) }

// InitialInt sets a signed initial value.
func InitialInt(v int64) FieldOption {
	return options.NoError(func(f *FieldDesc) {
		f.Initial.SetInt64(v)
	})
}

// InitialUint sets an unsigned initial value.
func InitialUint(v uint64) FieldOption {
	return options.NoError(func(f *FieldDesc) {
		f.Initial.SetUint64(v)
	})
}

// InitialDecimal sets a decimal initial value.
func InitialDecimal(mantissa int64, exponent int32) FieldOption {
	return options.NoError(func(f *FieldDesc) {
		f.Initial.SetDecimal(value.Decimal{Mantissa: mantissa, Exponent: exponent})
	})
}

// InitialString sets a string initial value.
func InitialString(s string) FieldOption {
	return options.NoError(func(f *FieldDesc) {
		f.Initial.SetBytes([]byte(s))
	})
}

// InitialBytes sets a byte vector initial value.
func InitialBytes(b []byte) FieldOption {
	return options.NoError(func(f *FieldDesc) {
		f.Initial.SetBytes(b)
	})
}

// Key sets the dictionary key of the field.
func Key(name string) FieldOption {
	return options.NoError(func(f *FieldDesc) {
		f.Key = name
	})
}

// KeyNamespace sets the namespace of the dictionary key.
func KeyNamespace(ns string) FieldOption {
	return options.NoError(func(f *FieldDesc) {
		f.KeyNamespace = ns
	})
}

// Namespace sets the field namespace. On a static reference it is the
// namespace of the target template name.
func Namespace(ns string) FieldOption {
	return options.NoError(func(f *FieldDesc) {
		f.Namespace = ns
	})
}

// InDictionary sets the dictionary of the field, or the default dictionary of
// a group's or sequence's fields.
func InDictionary(name string) FieldOption {
	return options.NoError(func(f *FieldDesc) {
		f.Dictionary = name
	})
}

// TypeRef sets the application type of a group or sequence.
func TypeRef(name, ns string) FieldOption {
	return options.NoError(func(f *FieldDesc) {
		f.TypeRef = name
		f.TypeRefNamespace = ns
	})
}
