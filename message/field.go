package message

import (
	"fmt"
	"math"

	"github.com/arloliu/fastcodec/errs"
	"github.com/arloliu/fastcodec/format"
	"github.com/arloliu/fastcodec/schema"
	"github.com/arloliu/fastcodec/value"
)

// FieldRef is a typed handle on one field of a message.
//
// Accessors return errs.ErrTypeMismatch when used with a type other than the
// field's declared type. The value of an absent field is the zero value; use
// IsPresent to tell them apart.
type FieldRef struct {
	repo *schema.Repository
	inst *schema.Instruction
	cell *value.Value
}

// Name returns the field name.
func (f FieldRef) Name() string { return f.inst.Name }

// Type returns the declared field type.
func (f FieldRef) Type() format.FieldType { return f.inst.Type }

// Instruction returns the field instruction.
func (f FieldRef) Instruction() *schema.Instruction { return f.inst }

// Value returns the underlying cell.
func (f FieldRef) Value() *value.Value { return f.cell }

// IsPresent reports whether the field has a value.
func (f FieldRef) IsPresent() bool { return f.cell.IsPresent() }

// SetAbsent removes the value of the field.
func (f FieldRef) SetAbsent() { f.cell.SetEmpty() }

func (f FieldRef) mismatch(want string) error {
	return fmt.Errorf("%w: field %q is %s, accessed as %s", errs.ErrTypeMismatch, f.inst.Name, f.inst.Type, want)
}

func (f FieldRef) expect(t format.FieldType) error {
	if f.inst.Type != t {
		return f.mismatch(t.String())
	}

	return nil
}

// Int32 returns the value of an int32 field.
func (f FieldRef) Int32() (int32, error) {
	if err := f.expect(format.TypeInt32); err != nil {
		return 0, err
	}

	return int32(f.cell.Int64()), nil //nolint:gosec
}

// UInt32 returns the value of an uInt32 field.
func (f FieldRef) UInt32() (uint32, error) {
	if err := f.expect(format.TypeUInt32); err != nil {
		return 0, err
	}

	return uint32(f.cell.Uint64()), nil //nolint:gosec
}

// Int64 returns the value of an int64 field.
func (f FieldRef) Int64() (int64, error) {
	if err := f.expect(format.TypeInt64); err != nil {
		return 0, err
	}

	return f.cell.Int64(), nil
}

// UInt64 returns the value of an uInt64 field.
func (f FieldRef) UInt64() (uint64, error) {
	if err := f.expect(format.TypeUInt64); err != nil {
		return 0, err
	}

	return f.cell.Uint64(), nil
}

// Decimal returns the value of a decimal field.
func (f FieldRef) Decimal() (value.Decimal, error) {
	if !f.inst.Type.IsDecimal() {
		return value.Decimal{}, f.mismatch("decimal")
	}

	return f.cell.Decimal(), nil
}

// Text returns the value of an ASCII or Unicode string field.
func (f FieldRef) Text() (string, error) {
	if f.inst.Type != format.TypeASCII && f.inst.Type != format.TypeUnicode {
		return "", f.mismatch("string")
	}

	return string(f.cell.Bytes()), nil
}

// Bytes returns the content of a string or byte vector field. The slice
// aliases the message storage.
func (f FieldRef) Bytes() ([]byte, error) {
	if !f.inst.Type.IsArray() {
		return nil, f.mismatch("byteVector")
	}

	return f.cell.Bytes(), nil
}

// SetInt32 sets an int32 field.
func (f FieldRef) SetInt32(v int32) error {
	if err := f.expect(format.TypeInt32); err != nil {
		return err
	}
	f.cell.SetInt64(int64(v))

	return nil
}

// SetUInt32 sets an uInt32 field.
func (f FieldRef) SetUInt32(v uint32) error {
	if err := f.expect(format.TypeUInt32); err != nil {
		return err
	}
	f.cell.SetUint64(uint64(v))

	return nil
}

// SetInt64 sets an int64 field.
func (f FieldRef) SetInt64(v int64) error {
	if err := f.expect(format.TypeInt64); err != nil {
		return err
	}
	f.cell.SetInt64(v)

	return nil
}

// SetUInt64 sets an uInt64 field.
func (f FieldRef) SetUInt64(v uint64) error {
	if err := f.expect(format.TypeUInt64); err != nil {
		return err
	}
	f.cell.SetUint64(v)

	return nil
}

// SetInteger sets any integer field from an int64, checking that v fits the
// declared width.
func (f FieldRef) SetInteger(v int64) error {
	var ok bool
	switch f.inst.Type { //nolint:exhaustive
	case format.TypeInt32:
		ok = v >= math.MinInt32 && v <= math.MaxInt32
	case format.TypeUInt32:
		ok = v >= 0 && v <= math.MaxUint32
	case format.TypeInt64:
		ok = true
	case format.TypeUInt64:
		ok = v >= 0
	default:
		return f.mismatch("integer")
	}
	if !ok {
		return errs.Newf(errs.CodeD2, "%d overflows %s", v, f.inst.Type).WithField(f.inst.Name)
	}
	f.cell.SetInt64(v)

	return nil
}

// SetDecimal sets a decimal field.
func (f FieldRef) SetDecimal(d value.Decimal) error {
	if !f.inst.Type.IsDecimal() {
		return f.mismatch("decimal")
	}
	f.cell.SetDecimal(d)

	return nil
}

// SetText sets an ASCII or Unicode string field.
func (f FieldRef) SetText(s string) error {
	if f.inst.Type != format.TypeASCII && f.inst.Type != format.TypeUnicode {
		return f.mismatch("string")
	}
	f.cell.SetBytes([]byte(s))

	return nil
}

// SetBytes sets a string or byte vector field. b is copied.
func (f FieldRef) SetBytes(b []byte) error {
	if !f.inst.Type.IsArray() {
		return f.mismatch("byteVector")
	}
	f.cell.SetBytes(b)

	return nil
}

// Group returns the fields of a group or static reference. Storage is
// allocated on first access; the presence of the group is not changed.
func (f FieldRef) Group() (Group, error) {
	if f.inst.Type != format.TypeGroup && f.inst.Type != format.TypeStaticRef {
		return Group{}, f.mismatch("group")
	}
	if f.cell.Fields() == nil && len(f.inst.Children) > 0 {
		f.cell.SetFields(make([]value.Value, len(f.inst.Children)))
	}

	return Group{repo: f.repo, children: f.inst.Children, fields: f.cell.Fields()}, nil
}

// MakeGroup marks a group present and returns its fields.
func (f FieldRef) MakeGroup() (Group, error) {
	g, err := f.Group()
	if err != nil {
		return Group{}, err
	}
	f.cell.SetPresent(true)

	return g, nil
}

// Sequence returns the elements of a sequence field.
func (f FieldRef) Sequence() (Sequence, error) {
	if f.inst.Type != format.TypeSequence {
		return Sequence{}, f.mismatch("sequence")
	}

	return Sequence{repo: f.repo, inst: f.inst, cell: f.cell}, nil
}

// MakeSequence marks a sequence present with n elements.
func (f FieldRef) MakeSequence(n int) (Sequence, error) {
	s, err := f.Sequence()
	if err != nil {
		return Sequence{}, err
	}
	s.Resize(n)

	return s, nil
}

// Template returns the message bound to a dynamic template reference.
func (f FieldRef) Template() (*Message, error) {
	if f.inst.Type != format.TypeDynamicRef {
		return nil, f.mismatch("templateRef")
	}
	id, bound := f.cell.TemplateID()
	if !bound || !f.cell.IsPresent() {
		return nil, errs.New(errs.CodeMissingValue, "unbound template reference").WithField(f.inst.Name)
	}
	t, ok := f.repo.TemplateByID(id)
	if !ok {
		return nil, &errs.Error{Code: errs.CodeD9, Field: f.inst.Name, TemplateID: id}
	}

	return Wrap(f.repo, t, f.cell.Fields()), nil
}

// BindTemplate binds a dynamic template reference to template id and returns
// the empty nested message.
func (f FieldRef) BindTemplate(id uint32) (*Message, error) {
	if f.inst.Type != format.TypeDynamicRef {
		return nil, f.mismatch("templateRef")
	}
	t, ok := f.repo.TemplateByID(id)
	if !ok {
		return nil, &errs.Error{Code: errs.CodeD9, Field: f.inst.Name, TemplateID: id}
	}

	fields := make([]value.Value, len(t.Fields))
	f.cell.BindTemplate(id, fields)

	return Wrap(f.repo, t, fields), nil
}

// Sequence is a view over the elements of a sequence field.
type Sequence struct {
	repo *schema.Repository
	inst *schema.Instruction
	cell *value.Value
}

// Len returns the number of elements.
func (s Sequence) Len() int { return s.cell.Len() }

// At returns the i-th element.
func (s Sequence) At(i int) Group {
	elem := &s.cell.Elements()[i]
	if elem.Fields() == nil && len(s.inst.Children) > 0 {
		elem.SetFields(make([]value.Value, len(s.inst.Children)))
	}

	return Group{repo: s.repo, children: s.inst.Children, fields: elem.Fields()}
}

// Resize sets the number of elements, keeping the existing ones, and marks
// the sequence present.
func (s Sequence) Resize(n int) {
	old := s.cell.Elements()
	elems := make([]value.Value, n)
	copy(elems, old)
	for i := range elems {
		if elems[i].Fields() == nil && len(s.inst.Children) > 0 {
			elems[i].SetFields(make([]value.Value, len(s.inst.Children)))
		}
		elems[i].SetPresent(true)
	}
	s.cell.SetElements(elems)
}
