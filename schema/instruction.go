package schema

import (
	"github.com/arloliu/fastcodec/format"
	"github.com/arloliu/fastcodec/value"
)

// NoCell marks an instruction without a dictionary cell.
const NoCell = -1

// Instruction is one node of the instruction arena. Child nodes are referenced
// by their index in the owning Repository.
//
// Instructions are read-only after Build.
type Instruction struct {
	Name      string
	Namespace string
	ID        uint32
	Type      format.FieldType
	Presence  format.Presence
	Operator  format.Operator
	Initial   value.Value

	// Key is the qualified dictionary key and Cell the index of the previous
	// value cell. Fields declaring the same key share the same Cell.
	Key    string
	Cell   int
	Shared bool // another instruction uses the same cell

	Children []int // group, sequence element and static reference fields
	Length   int   // sequence length instruction
	Exponent int   // decimal exponent instruction
	Mantissa int   // decimal mantissa instruction
	Target   int   // static reference: template index

	// PmapBits is the number of presence map bits of the segment owned by a
	// group or a sequence element. Zero means the segment has no map.
	PmapBits int
}

// IsOptional reports whether the field may be absent.
func (in *Instruction) IsOptional() bool {
	return in.Presence == format.Optional
}

// HasInitial reports whether an initial value is declared.
func (in *Instruction) HasInitial() bool {
	return in.Initial.IsDefined()
}

// HasPresenceBit reports whether the field occupies a bit in the presence map
// of its enclosing segment.
func (in *Instruction) HasPresenceBit() bool {
	switch in.Type {
	case format.TypeGroup:
		return in.IsOptional()
	case format.TypeSequence, format.TypeStaticRef, format.TypeDynamicRef, format.TypeDecimalPartial:
		return false
	default:
		return in.Operator.NeedsPresenceBit(in.Presence)
	}
}

// IsNullable reports whether the field's wire value uses the nullable
// encoding. Optional fields are nullable unless their operator transfers the
// presence through the presence map alone (constant).
func (in *Instruction) IsNullable() bool {
	return in.IsOptional() && in.Operator != format.OperatorConstant
}

// Template is a built template.
type Template struct {
	ID        uint32
	Name      string
	Namespace string
	Reset     bool
	Fields    []int

	// PmapBits counts the bits of the template's presence map, the template
	// id bit included.
	PmapBits int

	index int
}

// Index returns the position of the template in its repository.
func (t *Template) Index() int { return t.index }
