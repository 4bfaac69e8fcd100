package schema

import (
	"github.com/arloliu/fastcodec/format"
	"github.com/arloliu/fastcodec/value"
)

// TemplateIDCell is the dictionary cell holding the active template id. It is
// shared by top-level messages and dynamic template references.
const TemplateIDCell = 0

// Repository is an immutable set of built templates: the instruction arena,
// the template index and the layout of the dictionary cells.
//
// A Repository is safe for concurrent use. Each decoder and encoder owns a
// Dictionary created from it.
type Repository struct {
	insts     []Instruction
	templates []Template
	byID      map[uint32]int
	byName    map[string]int
	cellTypes []format.FieldType
	cellKeys  []string
	collision bool
}

// Instruction returns the instruction at index i.
func (r *Repository) Instruction(i int) *Instruction {
	return &r.insts[i]
}

// NumInstructions returns the size of the instruction arena.
func (r *Repository) NumInstructions() int { return len(r.insts) }

// Template returns the template at index i.
func (r *Repository) Template(i int) *Template {
	return &r.templates[i]
}

// NumTemplates returns the number of templates.
func (r *Repository) NumTemplates() int { return len(r.templates) }

// TemplateByID returns the template with the given id.
func (r *Repository) TemplateByID(id uint32) (*Template, bool) {
	i, ok := r.byID[id]
	if !ok {
		return nil, false
	}

	return &r.templates[i], true
}

// TemplateByName returns the template with the given name. The name may be
// qualified with the template namespace ("ns||name").
func (r *Repository) TemplateByName(name string) (*Template, bool) {
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}

	return &r.templates[i], true
}

// NumCells returns the number of dictionary cells, the template id cell
// included.
func (r *Repository) NumCells() int { return len(r.cellTypes) }

// CellType returns the field type stored in dictionary cell i.
func (r *Repository) CellType(i int) format.FieldType { return r.cellTypes[i] }

// CellKey returns the qualified key of dictionary cell i.
func (r *Repository) CellKey(i int) string { return r.cellKeys[i] }

// HasKeyCollision reports whether two dictionary keys shared an xxHash value
// during Build. Lookups stay exact; the flag is informational.
func (r *Repository) HasKeyCollision() bool { return r.collision }

// NewDictionary creates a dictionary with every cell undefined.
func (r *Repository) NewDictionary() *Dictionary {
	return &Dictionary{cells: make([]value.Value, len(r.cellTypes))}
}

// Dictionary holds the previous values of one encoder or decoder.
//
// Note: Dictionary is NOT thread-safe.
type Dictionary struct {
	cells []value.Value
}

// Cell returns dictionary cell i.
func (d *Dictionary) Cell(i int) *value.Value {
	return &d.cells[i]
}

// Len returns the number of cells.
func (d *Dictionary) Len() int { return len(d.cells) }

// Reset makes every cell undefined. Cell memory is kept for reuse.
func (d *Dictionary) Reset() {
	for i := range d.cells {
		d.cells[i].Undefine()
	}
}

// Release drops the memory held by the cells and makes them undefined.
func (d *Dictionary) Release() {
	clear(d.cells)
}
