package edge

import (
	"errors"
	"fmt"
	"reflect"
)

// Cardinality of a relation.
type Cardinality uint8

// Relation cardinalities.
const (
	One Cardinality = iota + 1
	Many
	ManyThrough
)

// String returns the cardinality name.
func (c Cardinality) String() string {
	switch c {
	case One:
		return "one"
	case Many:
		return "many"
	case ManyThrough:
		return "many_through"
	}
	return "invalid"
}

// ParseCardinality returns the cardinality with the given name.
func ParseCardinality(s string) (Cardinality, error) {
	switch s {
	case "one", "o2o", "m2o":
		return One, nil
	case "", "many", "o2m", "m2m":
		return Many, nil
	case "many_through", "through":
		return ManyThrough, nil
	}
	return 0, fmt.Errorf("edge: unknown cardinality %q", s)
}

// A Descriptor for edge configuration.
type Descriptor struct {
	Name        string      // edge name.
	Target      string      // target scheme name.
	Cardinality Cardinality // relation cardinality.
	Through     string      // intermediate scheme name for ManyThrough.
	ThroughName string      // name of the intermediate edge.
	Required    bool        // relation must be set on create.
	Comment     string      // edge comment.
	Err         error
}

// To defines a relation from the scheme to the target. Without modifiers the
// relation holds many members.
func To(name string, target any) *Builder {
	d := &Descriptor{Name: name, Cardinality: Many}
	t, err := TargetName(target)
	if err != nil {
		d.Err = fmt.Errorf("edge %q: %w", name, err)
	}
	d.Target = t
	return &Builder{desc: d}
}

// Builder for relations.
type Builder struct {
	desc *Descriptor
}

// Unique makes the relation hold a single member.
func (b *Builder) Unique() *Builder {
	if b.desc.Cardinality == ManyThrough {
		b.desc.Err = errors.Join(b.desc.Err, fmt.Errorf("edge %q: Unique cannot be combined with Through", b.desc.Name))
	}
	b.desc.Cardinality = One
	return b
}

// Through links members using an intermediate scheme that holds one-relations
// to both sides.
func (b *Builder) Through(name string, scheme any) *Builder {
	if b.desc.Cardinality == One {
		b.desc.Err = errors.Join(b.desc.Err, fmt.Errorf("edge %q: Through cannot be combined with Unique", b.desc.Name))
	}
	t, err := TargetName(scheme)
	if err != nil {
		b.desc.Err = errors.Join(b.desc.Err, fmt.Errorf("edge %q: through: %w", b.desc.Name, err))
	}
	b.desc.Cardinality = ManyThrough
	b.desc.Through = t
	b.desc.ThroughName = name
	return b
}

// Required indicates the relation must be set on create.
func (b *Builder) Required() *Builder {
	b.desc.Required = true
	return b
}

// Comment sets the comment of the edge.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the scheme.Edge interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}

// TargetName returns the scheme name a relation target refers to. Strings are
// returned as is. Other values are named by their Go type, and functions by
// the type of their first argument, so method expressions like User.Type work.
func TargetName(target any) (string, error) {
	switch t := target.(type) {
	case nil:
		return "", errors.New("missing target")
	case string:
		if t == "" {
			return "", errors.New("empty target name")
		}
		return t, nil
	case reflect.Type:
		return typeName(t)
	}
	typ := reflect.TypeOf(target)
	if typ.Kind() == reflect.Func {
		if typ.NumIn() == 0 {
			return "", fmt.Errorf("cannot name target from %s", typ)
		}
		typ = typ.In(0)
	}
	return typeName(typ)
}

func typeName(t reflect.Type) (string, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "", fmt.Errorf("cannot name target from unnamed type %s", t)
	}
	return t.Name(), nil
}
