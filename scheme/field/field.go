package field

import (
	"errors"
	"fmt"
	"reflect"
)

// A Descriptor for field configuration.
type Descriptor struct {
	Name     string       // field name.
	Type     Type         // field type.
	Size     int          // max length of textual fields, 0 means unbounded.
	Exact    bool         // Size is an exact length.
	MinLen   int          // min length of textual fields.
	Min      *float64     // lower bound of numeric fields.
	Max      *float64     // upper bound of numeric fields.
	Scale    int          // digits after the decimal point of decimal fields.
	Enums    []string     // enum values.
	Nullable bool         // nullable field in the store.
	Optional bool         // may be left unset on create.
	Unique   bool         // unique constraint.
	Default  any          // default value, literal or func() T.
	Category string       // corpus category used in fake mode.
	GoType   reflect.Type // Go type of JSON and custom fields.
	Comment  string       // field comment.
	Err      error
}

func (d *Descriptor) addErr(err error) {
	d.Err = errors.Join(d.Err, err)
}

// setDefault validates and stores a default value. Function defaults must take
// no arguments and return exactly one value.
func (d *Descriptor) setDefault(v any) {
	if v == nil {
		d.Default = nil
		return
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Func {
		if rv.Type().NumIn() != 0 || rv.Type().NumOut() != 1 {
			d.addErr(fmt.Errorf("field %q: default func must have the signature func() T", d.Name))
			return
		}
		d.Default = v
		return
	}
	cv, err := Coerce(d.Type, v)
	if err != nil {
		d.addErr(fmt.Errorf("field %q: default value: %w", d.Name, err))
		return
	}
	d.Default = cv
}

// =============================================================================
// String fields
// =============================================================================

// String returns a new Field with type string. Generated values are exactly
// MaxLen long, like the column they are written to.
func String(name string) *stringBuilder {
	return &stringBuilder{&Descriptor{Name: name, Type: TypeString}}
}

// Text returns a new string field without implicit size limit.
func Text(name string) *stringBuilder {
	return &stringBuilder{&Descriptor{Name: name, Type: TypeText}}
}

// Email returns a new string field holding e-mail addresses.
func Email(name string) *stringBuilder {
	return &stringBuilder{&Descriptor{Name: name, Type: TypeEmail, Size: 254}}
}

// URL returns a new string field holding URLs.
func URL(name string) *stringBuilder {
	return &stringBuilder{&Descriptor{Name: name, Type: TypeURL}}
}

// IP returns a new string field holding IPv4 addresses.
func IP(name string) *stringBuilder {
	return &stringBuilder{&Descriptor{Name: name, Type: TypeIP, Size: 15}}
}

// stringBuilder is the builder for string fields.
type stringBuilder struct {
	desc *Descriptor
}

// MaxLen sets the maximum length of the field.
func (b *stringBuilder) MaxLen(n int) *stringBuilder {
	if n < 0 {
		b.desc.addErr(fmt.Errorf("field %q: negative MaxLen %d", b.desc.Name, n))
	}
	b.desc.Size = n
	b.desc.Exact = false
	return b
}

// Len sets an exact length for the field.
func (b *stringBuilder) Len(n int) *stringBuilder {
	if n <= 0 {
		b.desc.addErr(fmt.Errorf("field %q: Len must be positive, got %d", b.desc.Name, n))
	}
	b.desc.Size = n
	b.desc.Exact = true
	return b
}

// MinLen sets the minimum length of the field.
func (b *stringBuilder) MinLen(n int) *stringBuilder {
	b.desc.MinLen = n
	return b
}

// NotEmpty is an alias for MinLen(1).
func (b *stringBuilder) NotEmpty() *stringBuilder {
	return b.MinLen(1)
}

// Default sets the default value of the field. The value is either a string
// or a func() string.
func (b *stringBuilder) Default(v any) *stringBuilder {
	b.desc.setDefault(v)
	return b
}

// Optional indicates that this field may be left unset on create.
func (b *stringBuilder) Optional() *stringBuilder {
	b.desc.Optional = true
	return b
}

// Nillable indicates that this field is nullable in the store.
func (b *stringBuilder) Nillable() *stringBuilder {
	b.desc.Nullable = true
	return b
}

// Unique makes the field unique within all entities of the scheme.
func (b *stringBuilder) Unique() *stringBuilder {
	b.desc.Unique = true
	return b
}

// Fake sets the corpus category used to generate realistic values.
func (b *stringBuilder) Fake(category string) *stringBuilder {
	b.desc.Category = category
	return b
}

// Comment sets the comment of the field.
func (b *stringBuilder) Comment(c string) *stringBuilder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the scheme.Field interface by returning its descriptor.
func (b *stringBuilder) Descriptor() *Descriptor {
	if b.desc.MinLen > 0 && b.desc.Size > 0 && b.desc.MinLen > b.desc.Size {
		b.desc.addErr(fmt.Errorf("field %q: MinLen %d exceeds MaxLen %d", b.desc.Name, b.desc.MinLen, b.desc.Size))
	}
	return b.desc
}

// =============================================================================
// Numeric fields
// =============================================================================

// Int returns a new numeric field of type int.
func Int(name string) *numericBuilder { return newNumeric(name, TypeInt) }

// Int8 returns a new numeric field of type int8.
func Int8(name string) *numericBuilder { return newNumeric(name, TypeInt8) }

// Int16 returns a new numeric field of type int16.
func Int16(name string) *numericBuilder { return newNumeric(name, TypeInt16) }

// Int32 returns a new numeric field of type int32.
func Int32(name string) *numericBuilder { return newNumeric(name, TypeInt32) }

// Int64 returns a new numeric field of type int64.
func Int64(name string) *numericBuilder { return newNumeric(name, TypeInt64) }

// Uint returns a new numeric field of type uint.
func Uint(name string) *numericBuilder { return newNumeric(name, TypeUint) }

// Uint8 returns a new numeric field of type uint8.
func Uint8(name string) *numericBuilder { return newNumeric(name, TypeUint8) }

// Uint16 returns a new numeric field of type uint16.
func Uint16(name string) *numericBuilder { return newNumeric(name, TypeUint16) }

// Uint32 returns a new numeric field of type uint32.
func Uint32(name string) *numericBuilder { return newNumeric(name, TypeUint32) }

// Uint64 returns a new numeric field of type uint64.
func Uint64(name string) *numericBuilder { return newNumeric(name, TypeUint64) }

// Float returns a new numeric field of type float64.
func Float(name string) *numericBuilder { return newNumeric(name, TypeFloat64) }

// Float32 returns a new numeric field of type float32.
func Float32(name string) *numericBuilder { return newNumeric(name, TypeFloat32) }

func newNumeric(name string, t Type) *numericBuilder {
	return &numericBuilder{&Descriptor{Name: name, Type: t}}
}

// numericBuilder is the builder for integer and float fields.
type numericBuilder struct {
	desc *Descriptor
}

// Min sets the lower bound of generated values.
func (b *numericBuilder) Min(v float64) *numericBuilder {
	b.desc.Min = &v
	return b
}

// Max sets the upper bound of generated values.
func (b *numericBuilder) Max(v float64) *numericBuilder {
	b.desc.Max = &v
	return b
}

// Range sets both bounds of generated values.
func (b *numericBuilder) Range(lo, hi float64) *numericBuilder {
	return b.Min(lo).Max(hi)
}

// Positive restricts generated values to be greater than zero.
func (b *numericBuilder) Positive() *numericBuilder {
	return b.Min(1)
}

// NonNegative restricts generated values to be zero or greater.
func (b *numericBuilder) NonNegative() *numericBuilder {
	return b.Min(0)
}

// Default sets the default value of the field.
func (b *numericBuilder) Default(v any) *numericBuilder {
	b.desc.setDefault(v)
	return b
}

// Optional indicates that this field may be left unset on create.
func (b *numericBuilder) Optional() *numericBuilder {
	b.desc.Optional = true
	return b
}

// Nillable indicates that this field is nullable in the store.
func (b *numericBuilder) Nillable() *numericBuilder {
	b.desc.Nullable = true
	return b
}

// Unique makes the field unique within all entities of the scheme.
func (b *numericBuilder) Unique() *numericBuilder {
	b.desc.Unique = true
	return b
}

// Fake sets the corpus category used to generate realistic values.
func (b *numericBuilder) Fake(category string) *numericBuilder {
	b.desc.Category = category
	return b
}

// Comment sets the comment of the field.
func (b *numericBuilder) Comment(c string) *numericBuilder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the scheme.Field interface by returning its descriptor.
func (b *numericBuilder) Descriptor() *Descriptor {
	lo, hi := b.desc.Type.Bounds()
	if m := b.desc.Min; m != nil && (*m < lo || *m > hi) {
		b.desc.addErr(fmt.Errorf("field %q: Min %v out of %s range", b.desc.Name, *m, b.desc.Type))
	}
	if m := b.desc.Max; m != nil && (*m < lo || *m > hi) {
		b.desc.addErr(fmt.Errorf("field %q: Max %v out of %s range", b.desc.Name, *m, b.desc.Type))
	}
	if b.desc.Min != nil && b.desc.Max != nil && *b.desc.Min > *b.desc.Max {
		b.desc.addErr(fmt.Errorf("field %q: Min %v exceeds Max %v", b.desc.Name, *b.desc.Min, *b.desc.Max))
	}
	return b.desc
}

// =============================================================================
// Enum fields
// =============================================================================

// Enum returns a new Field with type enum.
//
//	field.Enum("color").Values("RD", "GRN", "BL")
func Enum(name string) *enumBuilder {
	return &enumBuilder{&Descriptor{Name: name, Type: TypeEnum}}
}

// enumBuilder is the builder for enum fields.
type enumBuilder struct {
	desc *Descriptor
}

// Values adds given values to the enum values.
func (b *enumBuilder) Values(values ...string) *enumBuilder {
	b.desc.Enums = append(b.desc.Enums, values...)
	return b
}

// Default sets the default value of the field.
func (b *enumBuilder) Default(v string) *enumBuilder {
	b.desc.setDefault(v)
	return b
}

// Optional indicates that this field may be left unset on create.
func (b *enumBuilder) Optional() *enumBuilder {
	b.desc.Optional = true
	return b
}

// Nillable indicates that this field is nullable in the store.
func (b *enumBuilder) Nillable() *enumBuilder {
	b.desc.Nullable = true
	return b
}

// Comment sets the comment of the field.
func (b *enumBuilder) Comment(c string) *enumBuilder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the scheme.Field interface by returning its descriptor.
func (b *enumBuilder) Descriptor() *Descriptor {
	if len(b.desc.Enums) == 0 {
		b.desc.addErr(fmt.Errorf("field %q: missing enum values", b.desc.Name))
	}
	seen := make(map[string]struct{}, len(b.desc.Enums))
	for _, v := range b.desc.Enums {
		if _, ok := seen[v]; ok {
			b.desc.addErr(fmt.Errorf("field %q: duplicate enum value %q", b.desc.Name, v))
		}
		seen[v] = struct{}{}
	}
	if d, ok := b.desc.Default.(string); ok {
		if _, ok := seen[d]; !ok {
			b.desc.addErr(fmt.Errorf("field %q: default %q is not an enum value", b.desc.Name, d))
		}
	}
	return b.desc
}

// =============================================================================
// Other fields
// =============================================================================

// Bool returns a new Field with type bool.
func Bool(name string) *valueBuilder { return newValue(name, TypeBool) }

// Time returns a new Field with type timestamp.
func Time(name string) *valueBuilder { return newValue(name, TypeTime) }

// Date returns a new Field holding a calendar date (time.Time at midnight UTC).
func Date(name string) *valueBuilder { return newValue(name, TypeDate) }

// Clock returns a new Field holding a time of day (time.Time on 0000-01-01 UTC).
func Clock(name string) *valueBuilder { return newValue(name, TypeClock) }

// UUID returns a new Field with type uuid.UUID.
func UUID(name string) *valueBuilder { return newValue(name, TypeUUID) }

// Bytes returns a new Field with type bytes.
func Bytes(name string) *valueBuilder { return newValue(name, TypeBytes) }

// Decimal returns a new Field with type decimal.Decimal and two digits scale.
func Decimal(name string) *valueBuilder {
	b := newValue(name, TypeDecimal)
	b.desc.Scale = 2
	return b
}

// ID returns the identity field of a scheme. Its value is assigned by the store.
func ID(name string) *valueBuilder { return newValue(name, TypeID) }

// JSON returns a new Field holding JSON values of the type of typ.
//
//	field.JSON("meta", Meta{})
func JSON(name string, typ any) *valueBuilder {
	b := newValue(name, TypeJSON)
	if typ != nil {
		b.desc.GoType = reflect.TypeOf(typ)
	}
	return b
}

// Other returns a new Field with a custom Go type. No generator exists for it
// unless one is registered on the generator factory.
func Other(name string, typ any) *valueBuilder {
	b := newValue(name, TypeOther)
	if typ == nil {
		b.desc.addErr(fmt.Errorf("field %q: missing Go type", name))
		return b
	}
	b.desc.GoType = reflect.TypeOf(typ)
	return b
}

func newValue(name string, t Type) *valueBuilder {
	return &valueBuilder{&Descriptor{Name: name, Type: t}}
}

// valueBuilder is the builder for the remaining field types.
type valueBuilder struct {
	desc *Descriptor
}

// Scale sets the digits after the decimal point. Decimal fields only.
func (b *valueBuilder) Scale(n int) *valueBuilder {
	if b.desc.Type != TypeDecimal {
		b.desc.addErr(fmt.Errorf("field %q: Scale is only valid on decimal fields", b.desc.Name))
	}
	b.desc.Scale = n
	return b
}

// Range sets the bounds of decimal fields.
func (b *valueBuilder) Range(lo, hi float64) *valueBuilder {
	b.desc.Min, b.desc.Max = &lo, &hi
	return b
}

// Default sets the default value of the field. The value is either a literal
// or a func() T, like time.Now or uuid.New.
func (b *valueBuilder) Default(v any) *valueBuilder {
	b.desc.setDefault(v)
	return b
}

// Optional indicates that this field may be left unset on create.
func (b *valueBuilder) Optional() *valueBuilder {
	b.desc.Optional = true
	return b
}

// Nillable indicates that this field is nullable in the store.
func (b *valueBuilder) Nillable() *valueBuilder {
	b.desc.Nullable = true
	return b
}

// Unique makes the field unique within all entities of the scheme.
func (b *valueBuilder) Unique() *valueBuilder {
	b.desc.Unique = true
	return b
}

// Fake sets the corpus category used to generate realistic values.
func (b *valueBuilder) Fake(category string) *valueBuilder {
	b.desc.Category = category
	return b
}

// Comment sets the comment of the field.
func (b *valueBuilder) Comment(c string) *valueBuilder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the scheme.Field interface by returning its descriptor.
func (b *valueBuilder) Descriptor() *Descriptor {
	return b.desc
}

// FromDescriptor wraps a descriptor built elsewhere (e.g. decoded from a
// document) so it can be used as a scheme field.
func FromDescriptor(d *Descriptor) *valueBuilder {
	return &valueBuilder{desc: d}
}
