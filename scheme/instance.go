package scheme

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Instance is a blended value of a scheme. It holds one value per field in
// descriptor order. One-relations hold an *Instance, many relations hold an
// []*Instance.
type Instance struct {
	scheme *Descriptor
	values []any
	set    []bool
}

// NewInstance returns an empty instance of the scheme.
func NewInstance(d *Descriptor) *Instance {
	return &Instance{
		scheme: d,
		values: make([]any, len(d.Fields)),
		set:    make([]bool, len(d.Fields)),
	}
}

// Reference returns an instance that only carries an identity. Stores use it
// for relations they do not load.
func Reference(d *Descriptor, id any) *Instance {
	i := NewInstance(d)
	i.SetID(id)
	return i
}

// Scheme returns the scheme of the instance.
func (i *Instance) Scheme() *Descriptor { return i.scheme }

// ID returns the identity of the instance, nil when it was not stored.
func (i *Instance) ID() any {
	if f := i.scheme.ID(); f != nil {
		return i.Get(f.Name)
	}
	return nil
}

// SetID sets the identity of the instance.
func (i *Instance) SetID(id any) {
	if f := i.scheme.ID(); f != nil {
		idx := i.scheme.index[f.Name]
		i.values[idx], i.set[idx] = id, true
	}
}

// Get returns the value of the named field, or nil.
func (i *Instance) Get(name string) any {
	v, _ := i.Lookup(name)
	return v
}

// Lookup returns the value of the named field and whether it was set.
func (i *Instance) Lookup(name string) (any, bool) {
	idx, ok := i.scheme.index[name]
	if !ok {
		return nil, false
	}
	return i.values[idx], i.set[idx]
}

// Set sets the value of the named field.
func (i *Instance) Set(name string, v any) error {
	f, ok := i.scheme.Field(name)
	if !ok {
		return &PathError{Scheme: i.scheme.Name, Path: []string{name}, Reason: "unknown field"}
	}
	if f.IsRelation() && v != nil {
		switch v.(type) {
		case *Instance:
			if f.IsMany() {
				return fmt.Errorf("scheme %s: field %q holds many members, got a single instance", i.scheme.Name, name)
			}
		case []*Instance:
			if !f.IsMany() {
				return fmt.Errorf("scheme %s: field %q holds one member, got %d", i.scheme.Name, name, len(v.([]*Instance)))
			}
		default:
			return fmt.Errorf("scheme %s: relation %q cannot hold %T", i.scheme.Name, name, v)
		}
	}
	idx := i.scheme.index[name]
	i.values[idx], i.set[idx] = v, true
	return nil
}

// Related returns the member of a one-relation, or nil.
func (i *Instance) Related(name string) *Instance {
	v, _ := i.Get(name).(*Instance)
	return v
}

// Members returns the members of a many relation.
func (i *Instance) Members(name string) []*Instance {
	v, _ := i.Get(name).([]*Instance)
	return v
}

// Path follows a dotted path of one-relations and returns the value of the
// last segment. A nil relation on the way yields nil.
func (i *Instance) Path(path ...string) (any, error) {
	if len(path) == 0 {
		return nil, &PathError{Scheme: i.scheme.Name, Reason: "empty path"}
	}
	cur := i
	for n, seg := range path {
		f, ok := cur.scheme.Field(seg)
		if !ok {
			return nil, &PathError{Scheme: i.scheme.Name, Path: path, Reason: fmt.Sprintf("%s has no field %q", cur.scheme.Name, seg)}
		}
		v := cur.Get(seg)
		if n == len(path)-1 {
			return v, nil
		}
		if !f.IsRelation() || f.IsMany() {
			return nil, &PathError{Scheme: i.scheme.Name, Path: path, Reason: fmt.Sprintf("%q is not a one-relation", seg)}
		}
		if cur = cur.Related(seg); cur == nil {
			return nil, nil
		}
	}
	return nil, nil
}

// Values returns the field values keyed by field name.
func (i *Instance) Values() map[string]any {
	m := make(map[string]any, len(i.values))
	for idx, f := range i.scheme.Fields {
		m[f.Name] = i.values[idx]
	}
	return m
}

// String implements the fmt.Stringer interface.
func (i *Instance) String() string {
	var b strings.Builder
	b.WriteString(i.scheme.Name)
	b.WriteByte('(')
	for idx, f := range i.scheme.Fields {
		if idx > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteByte('=')
		switch v := i.values[idx].(type) {
		case *Instance:
			fmt.Fprintf(&b, "%s#%v", v.scheme.Name, v.ID())
		case []*Instance:
			fmt.Fprintf(&b, "[%d]", len(v))
		default:
			fmt.Fprintf(&b, "%v", v)
		}
	}
	b.WriteByte(')')
	return b.String()
}

// Decode copies the instance onto the struct pointed to by dst. Struct fields
// are matched by their scheme field name (see FieldName). Instances reached
// twice through relations are decoded once and shared by pointer fields.
func (i *Instance) Decode(dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("scheme: decode into %T, want a non-nil struct pointer", dst)
	}
	d := decoder{rv.Type(): {i: rv}}
	return d.decode(i, rv.Elem())
}

// decoder tracks decoded instances per pointer type.
type decoder map[reflect.Type]map[*Instance]reflect.Value

func (d decoder) decode(i *Instance, rv reflect.Value) error {
	for _, sf := range reflect.VisibleFields(rv.Type()) {
		if !sf.IsExported() || sf.Anonymous || sf.Tag.Get(TagName) == "-" {
			continue
		}
		v, ok := i.Lookup(FieldName(sf))
		if !ok {
			continue
		}
		if err := d.assign(rv.FieldByIndex(sf.Index), v); err != nil {
			return fmt.Errorf("scheme %s: decode %s: %w", i.scheme.Name, sf.Name, err)
		}
	}
	return nil
}

func (d decoder) assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.SetZero()
		return nil
	}
	switch v := v.(type) {
	case *Instance:
		t := dst.Type()
		if t.Kind() == reflect.Pointer {
			if ptr, ok := d[t][v]; ok {
				dst.Set(ptr)
				return nil
			}
			ptr := reflect.New(t.Elem())
			if d[t] == nil {
				d[t] = make(map[*Instance]reflect.Value)
			}
			d[t][v] = ptr
			if err := d.assign(ptr.Elem(), v); err != nil {
				return err
			}
			dst.Set(ptr)
			return nil
		}
		if t.Kind() != reflect.Struct {
			return fmt.Errorf("cannot decode %s into %s", v.scheme.Name, t)
		}
		return d.decode(v, dst)
	case []*Instance:
		if dst.Kind() != reflect.Slice {
			return fmt.Errorf("cannot decode members into %s", dst.Type())
		}
		s := reflect.MakeSlice(dst.Type(), len(v), len(v))
		for n, m := range v {
			if err := d.assign(s.Index(n), m); err != nil {
				return err
			}
		}
		dst.Set(s)
		return nil
	}
	src := reflect.ValueOf(v)
	switch t := dst.Type(); {
	case src.Type().AssignableTo(t):
		dst.Set(src)
	case t.Kind() == reflect.Pointer:
		ptr := reflect.New(t.Elem())
		if err := d.assign(ptr.Elem(), v); err != nil {
			return err
		}
		dst.Set(ptr)
	case src.Type().ConvertibleTo(t) && convertible(src.Kind(), t.Kind()):
		dst.Set(src.Convert(t))
	default:
		return errors.New("cannot assign " + src.Type().String() + " to " + t.String())
	}
	return nil
}

// convertible limits conversions to kinds that keep their meaning, so an int
// is never turned into a string.
func convertible(from, to reflect.Kind) bool {
	numeric := func(k reflect.Kind) bool {
		return k >= reflect.Int && k <= reflect.Float64
	}
	return numeric(from) && numeric(to) || from == to
}
