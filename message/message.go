// Package message provides typed views over the value tree of a FAST message.
//
// A message is a slice of value.Value cells laid out after the fields of its
// template: one cell per field, with groups, sequence elements, static
// references and bound dynamic references holding nested cell slices. The
// views in this package interpret the cells through the field instructions of
// the schema, so every access is checked against the declared field type.
//
// Messages returned by a decoder are views into decoder-owned storage and are
// valid until the next decode on the same decoder. Messages created with New
// are heap allocated and owned by the caller.
package message

import (
	"fmt"

	"github.com/arloliu/fastcodec/errs"
	"github.com/arloliu/fastcodec/format"
	"github.com/arloliu/fastcodec/schema"
	"github.com/arloliu/fastcodec/value"
)

// Message is the value tree of one message.
type Message struct {
	Group
	tmpl *schema.Template
}

// New creates an empty message of template id. Every field starts absent.
func New(repo *schema.Repository, id uint32) (*Message, error) {
	t, ok := repo.TemplateByID(id)
	if !ok {
		return nil, &errs.Error{Code: errs.CodeD9, TemplateID: id}
	}

	return Wrap(repo, t, make([]value.Value, len(t.Fields))), nil
}

// Wrap returns a message view over fields, which must be laid out after t.
func Wrap(repo *schema.Repository, t *schema.Template, fields []value.Value) *Message {
	return &Message{
		Group: Group{repo: repo, children: t.Fields, fields: fields},
		tmpl:  t,
	}
}

// Template returns the template of the message.
func (m *Message) Template() *schema.Template { return m.tmpl }

// TemplateID returns the template id of the message.
func (m *Message) TemplateID() uint32 { return m.tmpl.ID }

// Group is a view over an ordered list of fields: the top level of a message,
// a group, a sequence element or an inlined static reference.
type Group struct {
	repo     *schema.Repository
	children []int
	fields   []value.Value
}

// Len returns the number of fields.
func (g Group) Len() int { return len(g.children) }

// Values returns the cells of the fields, in field order.
func (g Group) Values() []value.Value { return g.fields }

// FieldAt returns the i-th field.
func (g Group) FieldAt(i int) FieldRef {
	return FieldRef{repo: g.repo, inst: g.repo.Instruction(g.children[i]), cell: &g.fields[i]}
}

// Field returns the field with the given name.
func (g Group) Field(name string) (FieldRef, error) {
	for i, c := range g.children {
		if g.repo.Instruction(c).Name == name {
			return g.FieldAt(i), nil
		}
	}

	return FieldRef{}, fmt.Errorf("%w: %q", errs.ErrFieldNotFound, name)
}

// FieldByID returns the field with the given field id.
func (g Group) FieldByID(id uint32) (FieldRef, error) {
	for i, c := range g.children {
		if g.repo.Instruction(c).ID == id {
			return g.FieldAt(i), nil
		}
	}

	return FieldRef{}, fmt.Errorf("%w: id %d", errs.ErrFieldNotFound, id)
}

// Equal reports whether two messages have the same template and the same
// field values. Absent fields compare equal regardless of stale cell content.
func Equal(a, b *Message) bool {
	if a.tmpl.ID != b.tmpl.ID {
		return false
	}

	return equalFields(a.repo, a.children, a.fields, b.fields)
}

var absent value.Value

func equalFields(repo *schema.Repository, children []int, a, b []value.Value) bool {
	for i, c := range children {
		if !equalField(repo, repo.Instruction(c), cellAt(a, i), cellAt(b, i)) {
			return false
		}
	}

	return true
}

// cellAt returns the i-th cell of fields, or an absent cell for storage that
// was never allocated.
func cellAt(fields []value.Value, i int) *value.Value {
	if i >= len(fields) {
		return &absent
	}

	return &fields[i]
}

func equalField(repo *schema.Repository, in *schema.Instruction, a, b *value.Value) bool {
	// static references are inlined and always present
	if in.Type == format.TypeStaticRef {
		return equalFields(repo, in.Children, a.Fields(), b.Fields())
	}
	if a.IsPresent() != b.IsPresent() {
		return false
	}
	if !a.IsPresent() {
		return true
	}

	switch in.Type { //nolint:exhaustive
	case format.TypeGroup:
		return equalFields(repo, in.Children, a.Fields(), b.Fields())
	case format.TypeSequence:
		ea, eb := a.Elements(), b.Elements()
		if len(ea) != len(eb) {
			return false
		}
		for i := range ea {
			if !equalFields(repo, in.Children, ea[i].Fields(), eb[i].Fields()) {
				return false
			}
		}

		return true
	case format.TypeDynamicRef:
		ida, _ := a.TemplateID()
		idb, _ := b.TemplateID()
		if ida != idb {
			return false
		}
		t, ok := repo.TemplateByID(ida)

		return ok && equalFields(repo, t.Fields, a.Fields(), b.Fields())
	default:
		return a.EqualAs(in.Type, b)
	}
}
