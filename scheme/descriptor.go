package scheme

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/AlexeyBerezhnoy/mixer/scheme/edge"
	"github.com/AlexeyBerezhnoy/mixer/scheme/field"
)

// IDField is the name of the implicit identity field.
const IDField = "id"

// Descriptor is the read-only view of a scheme: its name and its fields in
// declaration order. Descriptors are built once per registry key and shared.
type Descriptor struct {
	Name   string
	Fields []*FieldDescriptor
	index  map[string]int
	typ    reflect.Type
}

// Same reports if d and o describe one scheme: they share a name, or were
// built from the same Go type under different keys.
func (d *Descriptor) Same(o *Descriptor) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.Name == o.Name || d.typ != nil && d.typ == o.typ
}

// Field returns the field with the given name.
func (d *Descriptor) Field(name string) (*FieldDescriptor, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.Fields[i], true
}

// ID returns the identity field of the scheme.
func (d *Descriptor) ID() *FieldDescriptor {
	if f, ok := d.Field(IDField); ok {
		return f
	}
	for _, f := range d.Fields {
		if f.Type == field.TypeID {
			return f
		}
	}
	return nil
}

// Relations returns the relation fields of the scheme.
func (d *Descriptor) Relations() []*FieldDescriptor {
	var rels []*FieldDescriptor
	for _, f := range d.Fields {
		if f.IsRelation() {
			rels = append(rels, f)
		}
	}
	return rels
}

// String returns the scheme name.
func (d *Descriptor) String() string { return d.Name }

// FieldDescriptor describes a single field of a scheme. Relation fields carry
// a Relation and have no field type.
type FieldDescriptor struct {
	field.Descriptor
	Relation *Relation
	owner    *Descriptor
}

// Owner returns the scheme the field belongs to.
func (f *FieldDescriptor) Owner() *Descriptor { return f.owner }

// IsRelation reports if the field is a relation.
func (f *FieldDescriptor) IsRelation() bool { return f.Relation != nil }

// IsMany reports if the field is a relation holding many members.
func (f *FieldDescriptor) IsMany() bool {
	return f.Relation != nil && f.Relation.Cardinality != edge.One
}

// IsID reports if the field is the identity of its scheme.
func (f *FieldDescriptor) IsID() bool {
	return f.Type == field.TypeID || f.owner != nil && f.owner.ID() == f
}

// AutoID reports if the field is an identity the store assigns on commit.
// Only ID and integer identities are; UUID and string identities are
// generated like any other field.
func (f *FieldDescriptor) AutoID() bool {
	return f.IsID() && (f.Type == field.TypeID || f.Type.Integer())
}

// DefaultValue returns the default value of the field, calling the default
// function if one was given.
func (f *FieldDescriptor) DefaultValue() (any, bool) {
	if f.Default == nil {
		return nil, false
	}
	rv := reflect.ValueOf(f.Default)
	if rv.Kind() != reflect.Func {
		return f.Default, true
	}
	v := rv.Call(nil)[0].Interface()
	if cv, err := field.Coerce(f.Type, v); err == nil {
		return cv, true
	}
	return v, true
}

// Relation describes the target of a relation field.
type Relation struct {
	Target      string
	Cardinality edge.Cardinality
	Through     string
	ThroughName string
	Optional    bool
	resolver    Resolver
}

// Scheme resolves the target scheme of the relation.
func (r *Relation) Scheme() (*Descriptor, error) {
	return r.lookup(r.Target)
}

// ThroughScheme resolves the intermediate scheme of a ManyThrough relation.
func (r *Relation) ThroughScheme() (*Descriptor, error) {
	if r.Cardinality != edge.ManyThrough {
		return nil, fmt.Errorf("scheme: relation to %s has no intermediate scheme", r.Target)
	}
	return r.lookup(r.Through)
}

func (r *Relation) lookup(name string) (*Descriptor, error) {
	if r.resolver == nil {
		return nil, &NotFoundError{Name: name}
	}
	return r.resolver.Lookup(name)
}

// A Resolver looks up schemes by name. Relations resolve their targets
// through it lazily, so schemes may reference each other.
type Resolver interface {
	Lookup(name string) (*Descriptor, error)
}

// Build builds the descriptor of a scheme definition. Fields of mixins come
// first, followed by the scheme's own fields and then its edges. An identity
// field named "id" is added when the definition has none.
func Build(name string, s Interface, r Resolver) (*Descriptor, error) {
	d := &Descriptor{Name: name, index: make(map[string]int), typ: reflect.TypeOf(s)}
	mixins, err := safeMixin(s)
	if err != nil {
		return nil, fmt.Errorf("scheme %q: %w", name, err)
	}
	var edges []Edge
	for _, mx := range mixins {
		fields, err := safeFields(mx)
		if err != nil {
			return nil, fmt.Errorf("scheme %q: mixin %T: %w", name, mx, err)
		}
		if err := d.addFields(fields); err != nil {
			return nil, fmt.Errorf("scheme %q: mixin %T: %w", name, mx, err)
		}
		es, err := safeEdges(mx)
		if err != nil {
			return nil, fmt.Errorf("scheme %q: mixin %T: %w", name, mx, err)
		}
		edges = append(edges, es...)
	}
	fields, err := safeFields(s)
	if err != nil {
		return nil, fmt.Errorf("scheme %q: %w", name, err)
	}
	if err := d.addFields(fields); err != nil {
		return nil, fmt.Errorf("scheme %q: %w", name, err)
	}
	es, err := safeEdges(s)
	if err != nil {
		return nil, fmt.Errorf("scheme %q: %w", name, err)
	}
	for _, e := range append(edges, es...) {
		if err := d.addEdge(e.Descriptor(), r); err != nil {
			return nil, fmt.Errorf("scheme %q: %w", name, err)
		}
	}
	if d.ID() == nil {
		id := &FieldDescriptor{Descriptor: *field.ID(IDField).Descriptor()}
		d.Fields = append([]*FieldDescriptor{id}, d.Fields...)
	}
	d.reindex()
	return d, nil
}

func (d *Descriptor) addFields(fields []Field) error {
	for _, f := range fields {
		fd := f.Descriptor()
		if fd.Err != nil {
			return fmt.Errorf("field %q: %w", fd.Name, fd.Err)
		}
		if !fd.Type.Valid() {
			return fmt.Errorf("field %q: invalid type", fd.Name)
		}
		if err := d.add(&FieldDescriptor{Descriptor: *fd}); err != nil {
			return err
		}
	}
	return nil
}

func (d *Descriptor) addEdge(ed *edge.Descriptor, r Resolver) error {
	if ed.Err != nil {
		return ed.Err
	}
	fd := &FieldDescriptor{
		Descriptor: field.Descriptor{
			Name:     ed.Name,
			Optional: !ed.Required,
			Nullable: !ed.Required && ed.Cardinality == edge.One,
			Comment:  ed.Comment,
		},
		Relation: &Relation{
			Target:      ed.Target,
			Cardinality: ed.Cardinality,
			Through:     ed.Through,
			ThroughName: ed.ThroughName,
			Optional:    !ed.Required,
			resolver:    r,
		},
	}
	return d.add(fd)
}

func (d *Descriptor) add(fd *FieldDescriptor) error {
	if fd.Name == "" {
		return errors.New("missing field name")
	}
	if _, ok := d.index[fd.Name]; ok {
		return fmt.Errorf("duplicate field %q", fd.Name)
	}
	fd.owner = d
	d.index[fd.Name] = len(d.Fields)
	d.Fields = append(d.Fields, fd)
	return nil
}

func (d *Descriptor) reindex() {
	clear(d.index)
	for i, f := range d.Fields {
		f.owner = d
		d.index[f.Name] = i
	}
}

// safeFields wraps the Fields method with recover to ensure no panics in building.
func safeFields(fd interface{ Fields() []Field }) (fields []Field, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%T.Fields panics: %v", fd, v)
			fields = nil
		}
	}()
	return fd.Fields(), nil
}

// safeEdges wraps the Edges method with recover to ensure no panics in building.
func safeEdges(s interface{ Edges() []Edge }) (edges []Edge, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%T.Edges panics: %v", s, v)
			edges = nil
		}
	}()
	return s.Edges(), nil
}

// safeMixin wraps the Mixin method with recover to ensure no panics in building.
func safeMixin(s Interface) (mixin []Mixin, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%T.Mixin panics: %v", s, v)
			mixin = nil
		}
	}()
	return s.Mixin(), nil
}
