// Package load reads scheme definitions from JSON, YAML and msgpack documents.
//
//	schemes:
//	  - name: app.User
//	    fields:
//	      - {name: username, type: string, size: 16, unique: true}
//	      - {name: score, type: int, default: 50}
//	    edges:
//	      - {name: hats, target: app.Hat}
package load

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/AlexeyBerezhnoy/mixer/scheme"
	"github.com/AlexeyBerezhnoy/mixer/scheme/edge"
	"github.com/AlexeyBerezhnoy/mixer/scheme/field"
)

// Document is a set of scheme definitions.
type Document struct {
	Schemes []*Schema `json:"schemes" yaml:"schemes" msgpack:"schemes"`
}

// Schema represents a scheme loaded from a document.
type Schema struct {
	Name   string   `json:"name" yaml:"name" msgpack:"name"`
	Fields []*Field `json:"fields,omitempty" yaml:"fields,omitempty" msgpack:"fields,omitempty"`
	Edges  []*Edge  `json:"edges,omitempty" yaml:"edges,omitempty" msgpack:"edges,omitempty"`
}

// Field represents a scheme field loaded from a document.
type Field struct {
	Name     string   `json:"name" yaml:"name" msgpack:"name"`
	Type     string   `json:"type" yaml:"type" msgpack:"type"`
	Size     int      `json:"size,omitempty" yaml:"size,omitempty" msgpack:"size,omitempty"`
	Exact    bool     `json:"exact,omitempty" yaml:"exact,omitempty" msgpack:"exact,omitempty"`
	MinLen   int      `json:"min_len,omitempty" yaml:"min_len,omitempty" msgpack:"min_len,omitempty"`
	Min      *float64 `json:"min,omitempty" yaml:"min,omitempty" msgpack:"min,omitempty"`
	Max      *float64 `json:"max,omitempty" yaml:"max,omitempty" msgpack:"max,omitempty"`
	Scale    int      `json:"scale,omitempty" yaml:"scale,omitempty" msgpack:"scale,omitempty"`
	Enums    []string `json:"enums,omitempty" yaml:"enums,omitempty" msgpack:"enums,omitempty"`
	Nullable bool     `json:"nullable,omitempty" yaml:"nullable,omitempty" msgpack:"nullable,omitempty"`
	Optional bool     `json:"optional,omitempty" yaml:"optional,omitempty" msgpack:"optional,omitempty"`
	Unique   bool     `json:"unique,omitempty" yaml:"unique,omitempty" msgpack:"unique,omitempty"`
	Default  any      `json:"default,omitempty" yaml:"default,omitempty" msgpack:"default,omitempty"`
	Fake     string   `json:"fake,omitempty" yaml:"fake,omitempty" msgpack:"fake,omitempty"`
	Comment  string   `json:"comment,omitempty" yaml:"comment,omitempty" msgpack:"comment,omitempty"`
}

// Edge represents a relation loaded from a document.
type Edge struct {
	Name        string `json:"name" yaml:"name" msgpack:"name"`
	Target      string `json:"target" yaml:"target" msgpack:"target"`
	Cardinality string `json:"cardinality,omitempty" yaml:"cardinality,omitempty" msgpack:"cardinality,omitempty"`
	Through     string `json:"through,omitempty" yaml:"through,omitempty" msgpack:"through,omitempty"`
	ThroughName string `json:"through_name,omitempty" yaml:"through_name,omitempty" msgpack:"through_name,omitempty"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty" msgpack:"required,omitempty"`
	Comment     string `json:"comment,omitempty" yaml:"comment,omitempty" msgpack:"comment,omitempty"`
}

// Definition returns the scheme definition described by the loaded schema.
func (s *Schema) Definition() scheme.Interface {
	return definition{s}
}

// definition adapts a loaded schema to scheme.Interface.
type definition struct {
	s *Schema
}

// Fields implements scheme.Interface.
func (d definition) Fields() []scheme.Field {
	fields := make([]scheme.Field, 0, len(d.s.Fields))
	for _, f := range d.s.Fields {
		fields = append(fields, field.FromDescriptor(f.descriptor()))
	}
	return fields
}

// Edges implements scheme.Interface.
func (d definition) Edges() []scheme.Edge {
	edges := make([]scheme.Edge, 0, len(d.s.Edges))
	for _, e := range d.s.Edges {
		edges = append(edges, e.builder())
	}
	return edges
}

// Mixin implements scheme.Interface.
func (definition) Mixin() []scheme.Mixin { return nil }

func (f *Field) descriptor() *field.Descriptor {
	d := &field.Descriptor{
		Name:     f.Name,
		Size:     f.Size,
		Exact:    f.Exact,
		MinLen:   f.MinLen,
		Min:      f.Min,
		Max:      f.Max,
		Scale:    f.Scale,
		Enums:    f.Enums,
		Nullable: f.Nullable,
		Optional: f.Optional,
		Unique:   f.Unique,
		Category: f.Fake,
		Comment:  f.Comment,
	}
	t, err := field.ParseType(f.Type)
	if err != nil {
		d.Err = fmt.Errorf("field %q: %w", f.Name, err)
		return d
	}
	d.Type = t
	if t == field.TypeEnum && len(f.Enums) == 0 {
		d.Err = fmt.Errorf("field %q: missing enum values", f.Name)
	}
	if f.Default != nil {
		if d.Default, err = field.Coerce(t, f.Default); err != nil {
			d.Err = fmt.Errorf("field %q: default value: %w", f.Name, err)
		}
	}
	return d
}

func (e *Edge) builder() *edge.Builder {
	b := edge.To(e.Name, e.Target).Comment(e.Comment)
	c, err := edge.ParseCardinality(e.Cardinality)
	switch {
	case err != nil:
		b.Descriptor().Err = err
	case c == edge.One:
		b.Unique()
	case c == edge.ManyThrough || e.Through != "":
		name := e.ThroughName
		if name == "" {
			name = e.Name + "_" + scheme.Snake(e.Through)
		}
		b.Through(name, e.Through)
	}
	if e.Required {
		b.Required()
	}
	return b
}

// NewField creates a loaded field from a field descriptor. Default values
// that cannot be encoded, like functions, are dropped.
func NewField(fd *field.Descriptor) (*Field, error) {
	if fd.Err != nil {
		return nil, fmt.Errorf("field %q: %w", fd.Name, fd.Err)
	}
	f := &Field{
		Name:     fd.Name,
		Type:     fd.Type.String(),
		Size:     fd.Size,
		Exact:    fd.Exact,
		MinLen:   fd.MinLen,
		Min:      fd.Min,
		Max:      fd.Max,
		Scale:    fd.Scale,
		Enums:    fd.Enums,
		Nullable: fd.Nullable,
		Optional: fd.Optional,
		Unique:   fd.Unique,
		Fake:     fd.Category,
		Comment:  fd.Comment,
	}
	if fd.Default != nil && reflect.TypeOf(fd.Default).Kind() != reflect.Func {
		if _, err := json.Marshal(fd.Default); err == nil {
			f.Default = fd.Default
		}
	}
	return f, nil
}

// NewEdge creates a loaded edge from a relation of a scheme descriptor.
func NewEdge(fd *scheme.FieldDescriptor) *Edge {
	r := fd.Relation
	return &Edge{
		Name:        fd.Name,
		Target:      r.Target,
		Cardinality: r.Cardinality.String(),
		Through:     r.Through,
		ThroughName: r.ThroughName,
		Required:    !r.Optional,
		Comment:     fd.Comment,
	}
}

// NewSchema creates a loaded schema from a scheme descriptor. The implicit
// identity field is left out.
func NewSchema(d *scheme.Descriptor) (*Schema, error) {
	s := &Schema{Name: d.Name}
	for _, fd := range d.Fields {
		switch {
		case fd.IsRelation():
			s.Edges = append(s.Edges, NewEdge(fd))
		case fd.Type == field.TypeID && fd.Name == scheme.IDField:
		default:
			f, err := NewField(&fd.Descriptor)
			if err != nil {
				return nil, fmt.Errorf("schema %q: %w", d.Name, err)
			}
			s.Fields = append(s.Fields, f)
		}
	}
	return s, nil
}

// Register registers all schemes of the document and returns their names.
func (d *Document) Register(r *scheme.Registry) []string {
	names := make([]string, 0, len(d.Schemes))
	for _, s := range d.Schemes {
		r.Register(s.Name, s.Definition())
		names = append(names, s.Name)
	}
	return names
}
