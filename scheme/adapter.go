package scheme

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/AlexeyBerezhnoy/mixer/scheme/edge"
	"github.com/AlexeyBerezhnoy/mixer/scheme/field"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TagName is the struct tag read by the struct adapter.
//
//	type User struct {
//	    ID       int64
//	    Username string  `mixer:"username,size=16,unique"`
//	    Email    *string `mixer:",fake=email"`
//	    Role     string  `mixer:",enum=client|admin,default=client"`
//	    Notes    string  `mixer:"-"`
//	}
const TagName = "mixer"

var (
	timeType    = reflect.TypeOf(time.Time{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
	bytesType   = reflect.TypeOf([]byte(nil))
)

// FieldName returns the scheme field name of a struct field.
func FieldName(sf reflect.StructField) string {
	if name, _, _ := strings.Cut(sf.Tag.Get(TagName), ","); name != "" {
		return name
	}
	return Snake(sf.Name)
}

// registerStruct registers the struct type under its name, together with the
// struct types it references.
func (r *Registry) registerStruct(t reflect.Type) (string, error) {
	t = indirect(t)
	if t.Kind() != reflect.Struct {
		return "", fmt.Errorf("scheme: cannot adapt %s, want a struct", t)
	}
	if s, ok := reflect.New(t).Elem().Interface().(Interface); ok {
		return r.registerType(t, func(name string) {
			r.Register(name, s)
		})
	}
	return r.registerType(t, func(name string) {
		r.RegisterFunc(name, func(res Resolver) (*Descriptor, error) {
			return r.adapt(name, t, res)
		})
	})
}

// adapt builds the descriptor of a plain struct.
func (r *Registry) adapt(name string, t reflect.Type, res Resolver) (*Descriptor, error) {
	d := &Descriptor{Name: name, index: make(map[string]int), typ: t}
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || sf.Anonymous || sf.Tag.Get(TagName) == "-" {
			continue
		}
		fd, err := r.adaptField(sf, res)
		if err != nil {
			return nil, fmt.Errorf("scheme %q: field %s: %w", name, sf.Name, err)
		}
		if err := d.add(fd); err != nil {
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

func (r *Registry) adaptField(sf reflect.StructField, res Resolver) (*FieldDescriptor, error) {
	name := FieldName(sf)
	opts := parseTag(sf.Tag.Get(TagName))
	typ, nullable := sf.Type, false
	if typ.Kind() == reflect.Pointer {
		typ, nullable = typ.Elem(), true
	}
	if target, card, ok := relationType(sf.Type); ok {
		tname, err := r.registerStruct(target)
		if err != nil {
			return nil, err
		}
		ed := edge.To(name, tname)
		if card == edge.One {
			ed.Unique()
		}
		if through, ok := opts["through"]; ok {
			ed.Through(name+"_"+Snake(through), through)
		}
		if _, ok := opts["required"]; ok {
			ed.Required()
		}
		d := &Descriptor{index: make(map[string]int)}
		if err := d.addEdge(ed.Descriptor(), res); err != nil {
			return nil, err
		}
		return d.Fields[0], nil
	}
	fd := &field.Descriptor{Name: name, Type: goFieldType(typ, name), Nullable: nullable, Optional: nullable}
	if fd.Type == field.TypeInvalid {
		return nil, fmt.Errorf("unsupported type %s", sf.Type)
	}
	if fd.Type == field.TypeJSON || fd.Type == field.TypeOther {
		fd.GoType = sf.Type
	}
	if fd.Type == field.TypeDecimal {
		fd.Scale = 2
	}
	for k, v := range opts {
		if err := applyOption(fd, k, v); err != nil {
			return nil, err
		}
	}
	if fd.Type == field.TypeEnum && len(fd.Enums) == 0 {
		return nil, fmt.Errorf("enum %q has no values", name)
	}
	if def, ok := opts["default"]; ok {
		v, err := field.Coerce(fd.Type, def)
		if err != nil {
			return nil, err
		}
		fd.Default = v
	}
	return &FieldDescriptor{Descriptor: *fd}, nil
}

func applyOption(fd *field.Descriptor, k, v string) error {
	var err error
	switch k {
	case "size":
		fd.Size, err = strconv.Atoi(v)
	case "exact":
		fd.Exact = true
	case "nullable":
		fd.Nullable = true
	case "optional":
		fd.Optional = true
	case "unique":
		fd.Unique = true
	case "fake":
		fd.Category = v
	case "scale":
		fd.Scale, err = strconv.Atoi(v)
	case "enum":
		fd.Type = field.TypeEnum
		fd.Enums = strings.Split(v, "|")
	case "type":
		fd.Type, err = field.ParseType(v)
	case "min", "max":
		var f float64
		if f, err = strconv.ParseFloat(v, 64); err == nil {
			if k == "min" {
				fd.Min = &f
			} else {
				fd.Max = &f
			}
		}
	case "default", "through", "required":
	default:
		return fmt.Errorf("unknown tag option %q", k)
	}
	return err
}

// parseTag parses the options of a mixer tag, skipping the name.
func parseTag(tag string) map[string]string {
	opts := make(map[string]string)
	parts := strings.Split(tag, ",")
	for _, p := range parts[1:] {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		k, v, _ := strings.Cut(p, "=")
		opts[k] = v
	}
	return opts
}

// relationType reports if a struct field type refers to another scheme.
func relationType(t reflect.Type) (reflect.Type, edge.Cardinality, bool) {
	card := edge.One
	if t.Kind() == reflect.Slice && t != bytesType {
		t, card = t.Elem(), edge.Many
	}
	t = indirect(t)
	if t.Kind() != reflect.Struct || t == timeType || t == uuidType || t == decimalType {
		return nil, 0, false
	}
	return t, card, true
}

// goFieldType maps a Go type to a field type.
func goFieldType(t reflect.Type, name string) field.Type {
	switch t {
	case timeType:
		return field.TypeTime
	case uuidType:
		return field.TypeUUID
	case decimalType:
		return field.TypeDecimal
	case bytesType:
		return field.TypeBytes
	}
	switch t.Kind() {
	case reflect.Bool:
		return field.TypeBool
	case reflect.String:
		return field.TypeString
	case reflect.Int8:
		return field.TypeInt8
	case reflect.Int16:
		return field.TypeInt16
	case reflect.Int32:
		return field.TypeInt32
	case reflect.Int, reflect.Int64:
		if name == IDField {
			return field.TypeID
		}
		if t.Kind() == reflect.Int {
			return field.TypeInt
		}
		return field.TypeInt64
	case reflect.Uint8:
		return field.TypeUint8
	case reflect.Uint16:
		return field.TypeUint16
	case reflect.Uint32:
		return field.TypeUint32
	case reflect.Uint:
		return field.TypeUint
	case reflect.Uint64:
		return field.TypeUint64
	case reflect.Float32:
		return field.TypeFloat32
	case reflect.Float64:
		return field.TypeFloat64
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Interface:
		return field.TypeJSON
	}
	return field.TypeInvalid
}
