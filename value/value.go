// Package value implements the storage cell shared by decoded messages and
// dictionary entries.
//
// A Value holds exactly one interpretation at a time: integer, decimal, byte
// array (ASCII, Unicode, byte vector), group/template field storage, sequence
// elements or a template reference. The interpretation is not stored in the
// cell; it is selected by the static type of the field instruction that owns
// the cell, so callers must only access a cell through the accessors that
// match the field's declared format.FieldType.
//
// Besides its content a cell carries two bits:
//
//   - defined: the cell has been set at least once (dictionary "undefined"
//     state when false)
//   - present: the value is non-null for the current message (dictionary
//     "empty" state when defined but not present)
package value

import (
	"bytes"

	"github.com/arloliu/fastcodec/format"
)

// State is the previous-value state of a dictionary cell.
type State uint8

const (
	Undefined State = iota // never set since the last reset
	Empty                  // set to null
	Assigned               // holds a value
)

func (s State) String() string {
	switch s {
	case Undefined:
		return "undefined"
	case Empty:
		return "empty"
	case Assigned:
		return "assigned"
	default:
		return "unknown"
	}
}

// Decimal is a scaled number: Mantissa * 10^Exponent.
type Decimal struct {
	Mantissa int64
	Exponent int32
}

// Value is one storage cell. The zero Value is undefined and absent.
type Value struct {
	u       uint64  // integer content, decimal mantissa, or bound template id
	exp     int32   // decimal exponent
	arr     []byte  // string and byte vector content
	sub     []Value // group/template fields or sequence elements
	defined bool
	present bool
	owned   bool // arr was allocated by this cell and may be reused
	link    bool // sub aliases another cell's storage
}

// State returns the previous-value state of the cell.
func (v *Value) State() State {
	switch {
	case !v.defined:
		return Undefined
	case !v.present:
		return Empty
	default:
		return Assigned
	}
}

// IsDefined reports whether the cell has been set since the last reset.
func (v *Value) IsDefined() bool { return v.defined }

// IsPresent reports whether the cell holds a non-null value.
func (v *Value) IsPresent() bool { return v.present }

// Undefine clears the defined bit. Content and owned memory are kept.
func (v *Value) Undefine() {
	v.defined = false
	v.present = false
}

// SetEmpty marks the cell as defined and null.
func (v *Value) SetEmpty() {
	v.defined = true
	v.present = false
}

// SetPresent marks the cell as defined and present without touching its
// content. It is used for groups, whose content is their sub-fields.
func (v *Value) SetPresent(present bool) {
	v.defined = true
	v.present = present
}

// Uint64 returns the integer content as an unsigned value.
func (v *Value) Uint64() uint64 { return v.u }

// Int64 returns the integer content as a signed value.
func (v *Value) Int64() int64 { return int64(v.u) } //nolint:gosec

// SetUint64 stores an unsigned integer and marks the cell present.
func (v *Value) SetUint64(u uint64) {
	v.u = u
	v.defined = true
	v.present = true
}

// SetInt64 stores a signed integer and marks the cell present.
func (v *Value) SetInt64(i int64) {
	v.u = uint64(i) //nolint:gosec
	v.defined = true
	v.present = true
}

// Decimal returns the decimal content.
func (v *Value) Decimal() Decimal {
	return Decimal{Mantissa: int64(v.u), Exponent: v.exp} //nolint:gosec
}

// SetDecimal stores a decimal and marks the cell present.
func (v *Value) SetDecimal(d Decimal) {
	v.u = uint64(d.Mantissa) //nolint:gosec
	v.exp = d.Exponent
	v.defined = true
	v.present = true
}

// Bytes returns the byte-array content. The slice aliases the cell storage.
func (v *Value) Bytes() []byte { return v.arr }

// SetBytes copies b into the cell, reusing memory the cell owns, and marks
// the cell present. A nil or empty b stores an empty (not absent) array.
func (v *Value) SetBytes(b []byte) {
	if v.owned && cap(v.arr) >= len(b) {
		v.arr = v.arr[:len(b)]
	} else {
		v.arr = make([]byte, len(b))
		v.owned = true
	}
	copy(v.arr, b)
	v.defined = true
	v.present = true
}

// AdoptBytes stores b without copying. The cell does not own b, so a later
// SetBytes allocates instead of overwriting it.
func (v *Value) AdoptBytes(b []byte) {
	v.arr = b
	v.owned = false
	v.defined = true
	v.present = true
}

// Owned reports whether the byte-array content was allocated by the cell.
func (v *Value) Owned() bool { return v.owned }

// Fields returns the group, template or template-reference field storage.
func (v *Value) Fields() []Value { return v.sub }

// SetFields installs sub as the owned sub-field storage.
func (v *Value) SetFields(sub []Value) {
	v.sub = sub
	v.link = false
}

// Link makes the cell alias the sub-field storage of other. Both cells then
// observe the same fields.
func (v *Value) Link(other *Value) {
	v.sub = other.sub
	v.link = true
}

// IsLink reports whether the sub-field storage is aliased.
func (v *Value) IsLink() bool { return v.link }

// Elements returns the sequence elements. Each element is a group-like cell
// whose Fields hold the element's field storage.
func (v *Value) Elements() []Value { return v.sub }

// Len returns the number of sequence elements.
func (v *Value) Len() int { return len(v.sub) }

// SetElements installs the sequence element storage and marks the cell present.
func (v *Value) SetElements(elems []Value) {
	v.sub = elems
	v.link = false
	v.defined = true
	v.present = true
}

// TemplateID returns the bound template id of a dynamic template reference.
func (v *Value) TemplateID() (uint32, bool) {
	return uint32(v.u), v.defined //nolint:gosec
}

// BindTemplate binds a dynamic template reference to template id and its
// field storage.
func (v *Value) BindTemplate(id uint32, fields []Value) {
	v.u = uint64(id)
	v.sub = fields
	v.link = false
	v.defined = true
	v.present = true
}

// Reset returns the cell to the zero state, dropping all content.
func (v *Value) Reset() {
	*v = Value{}
}

// CopyFrom copies the scalar content and state of src into v. Byte arrays
// are copied into storage owned by v; sub-field storage is not copied.
func (v *Value) CopyFrom(src *Value) {
	v.u = src.u
	v.exp = src.exp
	if src.arr != nil {
		v.SetBytes(src.arr)
	} else if v.arr != nil {
		v.arr = v.arr[:0]
	}
	v.defined = src.defined
	v.present = src.present
}

// EqualAs compares the content of two present cells interpreted as type t.
// Absent cells are equal only to absent cells.
func (v *Value) EqualAs(t format.FieldType, o *Value) bool {
	if v.present != o.present {
		return false
	}
	if !v.present {
		return true
	}

	switch {
	case t.IsInteger():
		return v.u == o.u
	case t.IsDecimal():
		return v.u == o.u && v.exp == o.exp
	case t.IsArray():
		return bytes.Equal(v.arr, o.arr)
	default:
		return false
	}
}
