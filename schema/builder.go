package schema

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/arloliu/fastcodec/errs"
	"github.com/arloliu/fastcodec/format"
	"github.com/arloliu/fastcodec/internal/collision"
	"github.com/arloliu/fastcodec/internal/options"
)

const (
	keyScopeSep    = "::"
	keyNsSep       = "||"
	exponentSuffix = "....exponent"
	mantissaSuffix = "....mantissa"
	lengthSuffix   = "....length"
	maxExponent    = 63
)

// BuildConfig holds the Build settings.
type BuildConfig struct {
	logger *zap.Logger
}

// BuildOption configures Build.
type BuildOption = options.Option[*BuildConfig]

// WithLogger sets the logger used to report dictionary key aliasing and key
// hash collisions. The default logger discards everything.
func WithLogger(logger *zap.Logger) BuildOption {
	return options.NoError(func(c *BuildConfig) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// scope is the context inherited by nested field instructions.
type scope struct {
	ns         string // field namespace
	templateNs string
	dictionary string
	template   string // qualified template name
	typeName   string // qualified application type name
}

func (s scope) enter(d *FieldDesc) scope {
	if d.Namespace != "" {
		s.ns = d.Namespace
	}
	if d.Dictionary != "" {
		s.dictionary = d.Dictionary
	}
	if d.TypeRef != "" {
		s.typeName = qualify(d.TypeRefNamespace, d.TypeRef)
	}

	return s
}

type templateEntry struct {
	desc  *TemplateDesc
	scope scope
	index int
}

type builder struct {
	repo     *Repository
	entries  []templateEntry
	tracker  *collision.Tracker
	refs     []int // number of instructions using each cell
	visiting map[*TemplateDesc]bool
	logger   *zap.Logger
}

// Build resolves template descriptions into a Repository.
//
// Each field description is copied into the instruction arena, so the
// descriptions are never modified and may be shared by several builds. Build
// resolves static template references, assigns the dictionary cell of every
// field whose operator keeps a previous value and validates the templates.
//
// Errors:
//   - errs.ErrDuplicateTemplateID: two templates declare the same id
//   - errs.ErrD4: a dictionary key is shared by fields of different types
//   - errs.ErrD8: a static reference names an unknown template
//   - errs.ErrS2, errs.ErrS3, errs.ErrS4, errs.ErrS5: invalid field declaration
//   - errs.ErrInvalidTemplate: cyclic static references
func Build(descs []*TemplatesDescription, opts ...BuildOption) (repo *Repository, err error) {
	defer errs.Wrap(&err, "schema.Build")

	cfg := &BuildConfig{logger: zap.NewNop()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	b := &builder{
		repo: &Repository{
			byID:   make(map[uint32]int),
			byName: make(map[string]int),
		},
		tracker:  collision.NewTracker(),
		visiting: make(map[*TemplateDesc]bool),
		logger:   cfg.logger,
	}
	b.newCell(format.TypeUInt32, "template-id")

	if err := b.registerTemplates(descs); err != nil {
		return nil, err
	}

	for _, e := range b.entries {
		b.visiting[e.desc] = true
		fields, err := b.buildFields(e.desc.Fields, e.scope)
		delete(b.visiting, e.desc)
		if err != nil {
			return nil, fmt.Errorf("template %d (%s): %w", e.desc.ID, e.desc.Name, err)
		}

		t := &b.repo.templates[e.index]
		t.Fields = fields
		t.PmapBits = 1 + b.segmentBits(fields)
	}

	for i := range b.repo.insts {
		in := &b.repo.insts[i]
		if in.Cell != NoCell && b.refs[in.Cell] > 1 {
			in.Shared = true
		}
	}
	b.repo.collision = b.tracker.HasCollision()

	b.logger.Debug("templates built",
		zap.Int("templates", len(b.repo.templates)),
		zap.Int("instructions", len(b.repo.insts)),
		zap.Int("cells", len(b.repo.cellTypes)))

	return b.repo, nil
}

func (b *builder) registerTemplates(descs []*TemplatesDescription) error {
	for _, d := range descs {
		if d == nil {
			continue
		}

		for _, t := range d.Templates {
			if t == nil {
				continue
			}
			if t.err != nil {
				return fmt.Errorf("template %d (%s): %w", t.ID, t.Name, t.err)
			}
			if _, dup := b.repo.byID[t.ID]; dup {
				return fmt.Errorf("%w: %d (%s)", errs.ErrDuplicateTemplateID, t.ID, t.Name)
			}

			sc := scope{ns: d.Namespace, templateNs: d.TemplateNamespace, dictionary: d.Dictionary}
			if t.Namespace != "" {
				sc.ns = t.Namespace
			}
			if t.TemplateNamespace != "" {
				sc.templateNs = t.TemplateNamespace
			}
			if t.Dictionary != "" {
				sc.dictionary = t.Dictionary
			}
			if sc.dictionary == "" {
				sc.dictionary = format.ScopeGlobal.String()
			}
			sc.template = qualify(sc.templateNs, t.Name)
			if t.TypeRef != "" {
				sc.typeName = qualify(t.TypeRefNamespace, t.TypeRef)
			}

			index := len(b.repo.templates)
			b.repo.templates = append(b.repo.templates, Template{
				ID:        t.ID,
				Name:      t.Name,
				Namespace: sc.templateNs,
				Reset:     t.Reset,
				index:     index,
			})
			b.entries = append(b.entries, templateEntry{desc: t, scope: sc, index: index})

			b.repo.byID[t.ID] = index
			b.repo.byName[sc.template] = index
			if _, taken := b.repo.byName[t.Name]; !taken {
				b.repo.byName[t.Name] = index
			}
		}
	}

	return nil
}

func (b *builder) buildFields(descs []FieldDesc, sc scope) ([]int, error) {
	if len(descs) == 0 {
		return nil, nil
	}

	out := make([]int, 0, len(descs))
	for i := range descs {
		idx, err := b.buildField(&descs[i], sc)
		if err != nil {
			return nil, err
		}
		out = append(out, idx)
	}

	return out, nil
}

func (b *builder) add(in Instruction) int {
	b.repo.insts = append(b.repo.insts, in)
	return len(b.repo.insts) - 1
}

func (b *builder) newInstruction(d *FieldDesc, sc scope) (Instruction, error) {
	if d.err != nil {
		return Instruction{}, fmt.Errorf("field %q: %w", d.Name, d.err)
	}

	in := Instruction{
		Name:      d.Name,
		Namespace: sc.ns,
		ID:        d.ID,
		Type:      d.Type,
		Presence:  d.Presence,
		Operator:  d.Operator,
		Cell:      NoCell,
		Length:    -1,
		Exponent:  -1,
		Mantissa:  -1,
		Target:    -1,
	}
	if d.Namespace != "" && d.Type != format.TypeStaticRef {
		in.Namespace = d.Namespace
	}
	if d.Initial.IsDefined() {
		in.Initial.CopyFrom(&d.Initial)
	}

	if err := checkInstruction(&in); err != nil {
		return Instruction{}, err
	}

	return in, nil
}

func (b *builder) buildField(d *FieldDesc, sc scope) (int, error) {
	in, err := b.newInstruction(d, sc)
	if err != nil {
		return 0, err
	}

	switch d.Type {
	case format.TypeGroup:
		return b.buildGroup(in, d, sc)
	case format.TypeSequence:
		return b.buildSequence(in, d, sc)
	case format.TypeDecimalPartial:
		return b.buildDecimalParts(in, d, sc)
	case format.TypeStaticRef:
		return b.buildStaticRef(in, d, sc)
	case format.TypeDynamicRef:
		return b.add(in), nil
	default:
		if in.Operator.UsesDictionary() {
			in.Key = b.qualifiedKey(d, in.Namespace, sc)
			if in.Cell, err = b.register(in.Key, in.Type, in.Name); err != nil {
				return 0, err
			}
		}

		return b.add(in), nil
	}
}

func (b *builder) buildGroup(in Instruction, d *FieldDesc, sc scope) (int, error) {
	idx := b.add(in)
	children, err := b.buildFields(d.Fields, sc.enter(d))
	if err != nil {
		return 0, fmt.Errorf("group %q: %w", d.Name, err)
	}

	g := &b.repo.insts[idx]
	g.Children = children
	g.PmapBits = b.segmentBits(children)

	return idx, nil
}

func (b *builder) buildSequence(in Instruction, d *FieldDesc, sc scope) (int, error) {
	idx := b.add(in)
	inner := sc.enter(d)

	length := FieldDesc{Name: d.Name + lengthSuffix, Type: format.TypeUInt32}
	if d.Length != nil {
		length = *d.Length
		length.Type = format.TypeUInt32
		if length.Name == "" {
			length.Name = d.Name + lengthSuffix
		}
	}
	length.Presence = d.Presence

	li, err := b.buildField(&length, inner)
	if err != nil {
		return 0, fmt.Errorf("sequence %q length: %w", d.Name, err)
	}

	children, err := b.buildFields(d.Fields, inner)
	if err != nil {
		return 0, fmt.Errorf("sequence %q: %w", d.Name, err)
	}

	s := &b.repo.insts[idx]
	s.Length = li
	s.Children = children
	s.PmapBits = b.segmentBits(children)

	return idx, nil
}

func (b *builder) buildDecimalParts(in Instruction, d *FieldDesc, sc scope) (int, error) {
	idx := b.add(in)
	key := b.qualifiedKey(d, in.Namespace, sc)

	exp := Exponent()
	if d.Exponent != nil {
		exp = *d.Exponent
	}
	mant := Mantissa()
	if d.Mantissa != nil {
		mant = *d.Mantissa
	}

	if d.Initial.IsDefined() {
		init := d.Initial.Decimal()
		if !exp.Initial.IsDefined() {
			exp.Initial.SetInt64(int64(init.Exponent))
		}
		if !mant.Initial.IsDefined() {
			mant.Initial.SetInt64(init.Mantissa)
		}
	}

	ei, err := b.buildPart(&exp, d, format.TypeInt32, d.Presence, key+exponentSuffix, sc)
	if err != nil {
		return 0, err
	}
	mi, err := b.buildPart(&mant, d, format.TypeInt64, format.Mandatory, key+mantissaSuffix, sc)
	if err != nil {
		return 0, err
	}

	dec := &b.repo.insts[idx]
	dec.Exponent = ei
	dec.Mantissa = mi

	return idx, nil
}

func (b *builder) buildPart(part *FieldDesc, parent *FieldDesc, t format.FieldType, p format.Presence, key string, sc scope) (int, error) {
	pd := *part
	pd.Name = parent.Name + "." + part.Name
	pd.Type = t
	pd.Presence = p

	in, err := b.newInstruction(&pd, sc.enter(parent))
	if err != nil {
		return 0, err
	}
	if t == format.TypeInt32 && in.HasInitial() {
		if e := in.Initial.Int64(); e < -maxExponent || e > maxExponent {
			return 0, errs.Newf(errs.CodeR1, "initial exponent %d", e).WithField(pd.Name)
		}
	}

	if in.Operator.UsesDictionary() {
		in.Key = key
		if in.Cell, err = b.register(key, t, pd.Name); err != nil {
			return 0, err
		}
	}

	return b.add(in), nil
}

func (b *builder) buildStaticRef(in Instruction, d *FieldDesc, sc scope) (int, error) {
	ns := sc.templateNs
	if d.Namespace != "" {
		ns = d.Namespace
	}

	ti, ok := b.repo.byName[qualify(ns, d.Template)]
	if !ok {
		ti, ok = b.repo.byName[d.Template]
	}
	if !ok {
		return 0, errs.Newf(errs.CodeD8, "template %q", qualify(ns, d.Template)).WithField(d.Name)
	}

	target := b.entries[ti]
	if b.visiting[target.desc] {
		return 0, fmt.Errorf("%w: cyclic static reference to %q", errs.ErrInvalidTemplate, d.Template)
	}

	idx := b.add(in)

	b.visiting[target.desc] = true
	children, err := b.buildFields(target.desc.Fields, target.scope)
	delete(b.visiting, target.desc)
	if err != nil {
		return 0, fmt.Errorf("static reference %q: %w", d.Template, err)
	}

	ref := &b.repo.insts[idx]
	ref.Children = children
	ref.Target = ti

	return idx, nil
}

// qualifiedKey returns "{dictionary}::{qualifier}::{namespace}||{key}". The
// qualifier is the template name for the template dictionary, the application
// type for the type dictionary and empty otherwise.
func (b *builder) qualifiedKey(d *FieldDesc, ns string, sc scope) string {
	dict := sc.dictionary
	if d.Dictionary != "" {
		dict = d.Dictionary
	}

	key := d.Key
	if key == "" {
		key = d.Name
	}
	keyNs := ns
	if d.KeyNamespace != "" {
		keyNs = d.KeyNamespace
	}

	var qualifier string
	switch format.ParseDictionaryScope(dict) { //nolint:exhaustive
	case format.ScopeTemplate:
		qualifier = sc.template
	case format.ScopeType:
		qualifier = sc.typeName
	}

	return dict + keyScopeSep + qualifier + keyScopeSep + keyNs + keyNsSep + key
}

// register returns the cell of key, creating it on first use. Fields sharing
// a key must have the same type.
func (b *builder) register(key string, t format.FieldType, field string) (int, error) {
	if e, ok := b.tracker.Lookup(key); ok {
		if e.Type != t {
			return 0, &errs.Error{
				Code:   errs.CodeD4,
				Field:  field,
				Key:    key,
				Detail: fmt.Sprintf("registered as %s, used as %s", e.Type, t),
			}
		}

		b.refs[e.Cell]++
		b.logger.Debug("dictionary key shared",
			zap.String("key", key),
			zap.String("field", field),
			zap.Int("cell", e.Cell))

		return e.Cell, nil
	}

	cell := b.newCell(t, key)
	if b.tracker.Register(key, collision.Entry{Cell: cell, Type: t}) {
		b.logger.Warn("dictionary key hash collision", zap.String("key", key))
	}

	return cell, nil
}

func (b *builder) newCell(t format.FieldType, key string) int {
	b.repo.cellTypes = append(b.repo.cellTypes, t)
	b.repo.cellKeys = append(b.repo.cellKeys, key)
	b.refs = append(b.refs, 1)

	return len(b.repo.cellTypes) - 1
}

// segmentBits counts the presence map bits used by fields in their segment.
// Static references are inlined; groups, sequence elements and dynamic
// references own their segments.
func (b *builder) segmentBits(fields []int) int {
	n := 0
	for _, i := range fields {
		in := &b.repo.insts[i]
		switch in.Type { //nolint:exhaustive
		case format.TypeSequence:
			n += b.segmentBits([]int{in.Length})
		case format.TypeStaticRef:
			n += b.segmentBits(in.Children)
		case format.TypeDecimalPartial:
			n += b.segmentBits([]int{in.Exponent, in.Mantissa})
		default:
			if in.HasPresenceBit() {
				n++
			}
		}
	}

	return n
}

func checkInstruction(in *Instruction) error {
	switch in.Type { //nolint:exhaustive
	case format.TypeGroup, format.TypeSequence, format.TypeStaticRef, format.TypeDynamicRef, format.TypeDecimalPartial:
		if in.Operator != format.OperatorNone {
			return errs.Newf(errs.CodeS2, "%s on %s", in.Operator, in.Type).WithField(in.Name)
		}

		return nil
	}

	switch in.Operator { //nolint:exhaustive
	case format.OperatorIncrement:
		if !in.Type.IsInteger() {
			return errs.Newf(errs.CodeS2, "%s on %s", in.Operator, in.Type).WithField(in.Name)
		}
	case format.OperatorTail:
		if !in.Type.IsArray() {
			return errs.Newf(errs.CodeS2, "%s on %s", in.Operator, in.Type).WithField(in.Name)
		}
	case format.OperatorConstant:
		if !in.HasInitial() {
			return errs.New(errs.CodeS4, "").WithField(in.Name)
		}
	case format.OperatorDefault:
		if !in.IsOptional() && !in.HasInitial() {
			return errs.New(errs.CodeS5, "").WithField(in.Name)
		}
	}

	return checkInitial(in)
}

func checkInitial(in *Instruction) error {
	if !in.HasInitial() {
		return nil
	}

	switch in.Type { //nolint:exhaustive
	case format.TypeInt32:
		if v := in.Initial.Int64(); v < math.MinInt32 || v > math.MaxInt32 {
			return errs.Newf(errs.CodeS3, "%d overflows %s", v, in.Type).WithField(in.Name)
		}
	case format.TypeUInt32:
		if v := in.Initial.Uint64(); v > math.MaxUint32 {
			return errs.Newf(errs.CodeS3, "%d overflows %s", v, in.Type).WithField(in.Name)
		}
	case format.TypeDecimal:
		if e := in.Initial.Decimal().Exponent; e < -maxExponent || e > maxExponent {
			return errs.Newf(errs.CodeR1, "initial exponent %d", e).WithField(in.Name)
		}
	case format.TypeASCII:
		for _, c := range in.Initial.Bytes() {
			if c >= 0x80 {
				return errs.Newf(errs.CodeS3, "non-ASCII initial value").WithField(in.Name)
			}
		}
	}

	return nil
}

func qualify(ns, name string) string {
	if ns == "" {
		return name
	}

	return ns + keyNsSep + name
}
