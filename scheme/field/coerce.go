package field

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClockLayout is the layout used for time-of-day values in text form.
const ClockLayout = "15:04:05"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.DateOnly,
	ClockLayout,
}

// Coerce converts v to the Go type used for values of type t. It accepts the
// loose representations produced by documents and database drivers, e.g.
// float64 for integers, int64 for booleans or strings for timestamps.
// JSON and Other values are returned unchanged.
func Coerce(t Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch {
	case t.Integer() || t == TypeID:
		return coerceInt(t, v)
	case t.Float():
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		if t == TypeFloat32 {
			return float32(f), nil
		}
		return f, nil
	case t.Textual():
		switch v := v.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		}
	case t.Temporal():
		return coerceTime(t, v)
	}
	switch t {
	case TypeBool:
		switch v := v.(type) {
		case bool:
			return v, nil
		case int64:
			return v != 0, nil
		case int:
			return v != 0, nil
		case string:
			return strconv.ParseBool(v)
		case []byte:
			return strconv.ParseBool(string(v))
		}
	case TypeUUID:
		switch v := v.(type) {
		case uuid.UUID:
			return v, nil
		case string:
			return uuid.Parse(v)
		case []byte:
			if len(v) == 16 {
				return uuid.FromBytes(v)
			}
			return uuid.ParseBytes(v)
		}
	case TypeDecimal:
		switch v := v.(type) {
		case decimal.Decimal:
			return v, nil
		case string:
			return decimal.NewFromString(v)
		case []byte:
			return decimal.NewFromString(string(v))
		case float64:
			return decimal.NewFromFloat(v), nil
		case int:
			return decimal.NewFromInt(int64(v)), nil
		case int64:
			return decimal.NewFromInt(v), nil
		}
	case TypeBytes:
		switch v := v.(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		}
	case TypeJSON, TypeOther:
		return v, nil
	}
	return nil, fmt.Errorf("field: cannot convert %T to %s", v, t)
}

func coerceInt(t Type, v any) (any, error) {
	var (
		i        int64
		u        uint64
		unsigned bool
	)
	switch v := v.(type) {
	case int:
		i = int64(v)
	case int8:
		i = int64(v)
	case int16:
		i = int64(v)
	case int32:
		i = int64(v)
	case int64:
		i = v
	case uint:
		u, unsigned = uint64(v), true
	case uint8:
		u, unsigned = uint64(v), true
	case uint16:
		u, unsigned = uint64(v), true
	case uint32:
		u, unsigned = uint64(v), true
	case uint64:
		u, unsigned = v, true
	case float32, float64, json.Number, string, []byte:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("field: %v is not an integer", f)
		}
		if f < 0 {
			i = int64(f)
		} else {
			u, unsigned = uint64(f), true
		}
	default:
		return nil, fmt.Errorf("field: cannot convert %T to %s", v, t)
	}
	neg := !unsigned && i < 0
	switch {
	case unsigned:
		i = int64(u)
	case !neg:
		u = uint64(i)
	}
	lo, hi := t.Bounds()
	if neg && float64(i) < lo || !neg && float64(u) > hi {
		return nil, fmt.Errorf("field: %v overflows %s", v, t)
	}
	switch t {
	case TypeInt8:
		return int8(i), nil
	case TypeInt16:
		return int16(i), nil
	case TypeInt32:
		return int32(i), nil
	case TypeInt:
		return int(i), nil
	case TypeInt64, TypeID:
		return i, nil
	case TypeUint8:
		return uint8(u), nil
	case TypeUint16:
		return uint16(u), nil
	case TypeUint32:
		return uint32(u), nil
	case TypeUint:
		return uint(u), nil
	default:
		return u, nil
	}
}

func toFloat(v any) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return float64(rv.Int()), nil
	case rv.CanUint():
		return float64(rv.Uint()), nil
	}
	return 0, fmt.Errorf("field: cannot convert %T to a number", v)
}

func coerceTime(t Type, v any) (any, error) {
	var tm time.Time
	switch v := v.(type) {
	case time.Time:
		tm = v
	case string, []byte:
		s := strings.TrimSpace(fmt.Sprint(toString(v)))
		var err error
		for _, layout := range timeLayouts {
			if tm, err = time.Parse(layout, s); err == nil {
				break
			}
		}
		if err != nil {
			return nil, fmt.Errorf("field: parse %s %q: %w", t, s, err)
		}
	default:
		return nil, fmt.Errorf("field: cannot convert %T to %s", v, t)
	}
	switch t {
	case TypeDate:
		y, m, d := tm.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	case TypeClock:
		h, m, s := tm.Clock()
		return time.Date(0, time.January, 1, h, m, s, 0, time.UTC), nil
	}
	return tm, nil
}

func toString(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v.(string)
}
