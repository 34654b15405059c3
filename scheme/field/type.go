package field

import (
	"fmt"
	"math"
	"strings"
)

// A Type represents a field type.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeTime
	TypeDate
	TypeClock
	TypeJSON
	TypeUUID
	TypeBytes
	TypeEnum
	TypeString
	TypeText
	TypeEmail
	TypeURL
	TypeIP
	TypeDecimal
	TypeOther
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeID
	endTypes
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeTime:    "time",
	TypeDate:    "date",
	TypeClock:   "clock",
	TypeJSON:    "json",
	TypeUUID:    "uuid",
	TypeBytes:   "bytes",
	TypeEnum:    "enum",
	TypeString:  "string",
	TypeText:    "text",
	TypeEmail:   "email",
	TypeURL:     "url",
	TypeIP:      "ip",
	TypeDecimal: "decimal",
	TypeOther:   "other",
	TypeInt8:    "int8",
	TypeInt16:   "int16",
	TypeInt32:   "int32",
	TypeInt:     "int",
	TypeInt64:   "int64",
	TypeUint8:   "uint8",
	TypeUint16:  "uint16",
	TypeUint32:  "uint32",
	TypeUint:    "uint",
	TypeUint64:  "uint64",
	TypeFloat32: "float32",
	TypeFloat64: "float64",
	TypeID:      "id",
}

// String returns the string representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the given type if known type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t >= TypeInt8 && t <= TypeFloat64
}

// Integer reports if the given type is an integer type.
func (t Type) Integer() bool {
	return t >= TypeInt8 && t <= TypeUint64
}

// Float reports if the given type is a float type.
func (t Type) Float() bool {
	return t == TypeFloat32 || t == TypeFloat64
}

// Unsigned reports if the given type is an unsigned integer type.
func (t Type) Unsigned() bool {
	return t >= TypeUint8 && t <= TypeUint64
}

// Textual reports if values of the type are strings.
func (t Type) Textual() bool {
	switch t {
	case TypeString, TypeText, TypeEmail, TypeURL, TypeIP, TypeEnum:
		return true
	}
	return false
}

// Temporal reports if values of the type are time.Time.
func (t Type) Temporal() bool {
	return t == TypeTime || t == TypeDate || t == TypeClock
}

// Bounds returns the representable range of an integer type. The ranges of
// TypeInt and TypeUint are kept to 32 bits so generated values fit every
// supported database.
func (t Type) Bounds() (lo, hi float64) {
	switch t {
	case TypeInt8:
		return math.MinInt8, math.MaxInt8
	case TypeInt16:
		return math.MinInt16, math.MaxInt16
	case TypeInt32, TypeInt:
		return math.MinInt32, math.MaxInt32
	case TypeInt64, TypeID:
		return math.MinInt64, math.MaxInt64
	case TypeUint8:
		return 0, math.MaxUint8
	case TypeUint16:
		return 0, math.MaxUint16
	case TypeUint32, TypeUint:
		return 0, math.MaxUint32
	case TypeUint64:
		return 0, math.MaxUint64
	case TypeFloat32:
		return -math.MaxFloat32, math.MaxFloat32
	case TypeFloat64:
		return -math.MaxFloat64, math.MaxFloat64
	}
	return 0, 0
}

// ParseType returns the type with the given name.
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t := TypeBool; t < endTypes; t++ {
		if typeNames[t] == name {
			return t, nil
		}
	}
	switch name {
	case "boolean":
		return TypeBool, nil
	case "datetime", "timestamp":
		return TypeTime, nil
	case "varchar", "char":
		return TypeString, nil
	case "float", "double":
		return TypeFloat64, nil
	case "smallint":
		return TypeInt16, nil
	case "bigint":
		return TypeInt64, nil
	}
	return TypeInvalid, fmt.Errorf("field: unknown type %q", name)
}
