package gen

import (
	"fmt"
	"math"
	"math/rand/v2"
	"reflect"
	"strings"
	"time"

	"github.com/AlexeyBerezhnoy/mixer/faker"
	"github.com/AlexeyBerezhnoy/mixer/scheme/field"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultStringLen is the length of generated strings without a size.
const DefaultStringLen = 12

// A Maker builds a producer for a field.
type Maker func(fd *field.Descriptor) Producer

// Option configures a Factory.
type Option func(*Factory)

// WithGenerator registers a maker for a field type. It takes precedence over
// the built-in generators in both modes.
func WithGenerator(t field.Type, m Maker) Option {
	return func(f *Factory) {
		f.makers[t] = m
	}
}

// WithProvider sets the corpus provider used in fake mode.
func WithProvider(p faker.Provider) Option {
	return func(f *Factory) {
		f.provider = p
	}
}

// Factory maps field descriptors to producers. A Factory is immutable after
// construction and safe for concurrent use.
type Factory struct {
	makers   map[field.Type]Maker
	provider faker.Provider
}

// NewFactory returns a factory with the built-in generators.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{makers: make(map[field.Type]Maker)}
	for _, opt := range opts {
		opt(f)
	}
	if f.provider == nil {
		f.provider = faker.New(0)
	}
	return f
}

// Provider returns the corpus provider of the factory.
func (f *Factory) Provider() faker.Provider { return f.provider }

// Producer returns the producer for a field. In fake mode fields use the
// corpus provider, by the field's category first, then by its name and then
// by its type. It reports false when no generator exists for the field type.
func (f *Factory) Producer(fd *field.Descriptor, fake bool) (Producer, bool) {
	if m, ok := f.makers[fd.Type]; ok {
		return m(fd), true
	}
	structural, ok := f.structural(fd)
	if !fake {
		return structural, ok
	}
	category := fd.Category
	if category == "" {
		category = hint(fd)
	}
	if category == "" {
		category = typeCategory(fd)
	}
	if category == "" {
		return structural, ok
	}
	p, err := f.CategoryProducer(category, faker.Params{}, fd)
	if err != nil {
		return structural, ok
	}
	return p, true
}

// TypeProducer returns the producer for a bare field type.
func (f *Factory) TypeProducer(t field.Type, fake bool) (Producer, bool) {
	fd := &field.Descriptor{Type: t}
	if fake {
		if c, ok := typeCategories[t]; ok {
			fd.Category = c
		}
	}
	return f.Producer(fd, fake)
}

// CategoryProducer returns a producer drawing from the corpus provider. When
// fd is not nil, values are converted to the field type and clipped to its
// size; values that cannot be converted fall back to the structural
// generator of the field.
func (f *Factory) CategoryProducer(category string, params faker.Params, fd *field.Descriptor) (Producer, error) {
	if fd != nil && fd.Size > 0 && params.Length == 0 {
		if c, _ := faker.Canonical(category); c == faker.Lorem || c == faker.Text {
			params.Length = fd.Size
		}
	}
	next, err := f.provider.Generator(category, params)
	if err != nil {
		return nil, err
	}
	if fd == nil {
		return Func(next), nil
	}
	fallback, _ := f.structural(fd)
	return Func(func() any {
		v := next()
		if fd.Type.Textual() {
			s, ok := v.(string)
			if !ok {
				s = fmt.Sprint(v)
			}
			return fit(s, fd)
		}
		if fd.Type == field.TypeJSON || fd.Type == field.TypeOther {
			return v
		}
		cv, err := field.Coerce(fd.Type, v)
		if err != nil && fallback != nil {
			return fallback().Next()
		}
		return cv
	}), nil
}

// Zero returns the placeholder used for fields without a generator: nil for
// nullable fields, the zero value of the field type otherwise.
func Zero(fd *field.Descriptor) any {
	if fd.Nullable {
		return nil
	}
	if fd.GoType != nil {
		return reflect.Zero(fd.GoType).Interface()
	}
	switch {
	case fd.Type.Textual():
		return ""
	case fd.Type.Numeric() || fd.Type == field.TypeID:
		v, _ := field.Coerce(fd.Type, 0)
		return v
	case fd.Type.Temporal():
		return time.Time{}
	case fd.Type == field.TypeBool:
		return false
	case fd.Type == field.TypeDecimal:
		return decimal.Zero
	case fd.Type == field.TypeUUID:
		return uuid.Nil
	}
	return nil
}

// structural returns the generator of values that are valid for the field
// type and constraints, without aiming at realism.
func (f *Factory) structural(fd *field.Descriptor) (Producer, bool) {
	switch t := fd.Type; {
	case t == field.TypeEnum:
		values := make([]any, len(fd.Enums))
		for i, v := range fd.Enums {
			values[i] = v
		}
		return Choice(values...), len(values) > 0
	case t == field.TypeEmail:
		return Func(func() any { return fit(alnum(8)+"@"+alnum(6)+".com", fd) }), true
	case t == field.TypeURL:
		return Func(func() any { return fit("https://"+alnum(8)+".com/"+alnum(6), fd) }), true
	case t == field.TypeIP:
		return Func(func() any {
			return fmt.Sprintf("%d.%d.%d.%d", 1+rand.IntN(223), rand.IntN(256), rand.IntN(256), 1+rand.IntN(254))
		}), true
	case t.Textual():
		return Func(func() any { return alnum(length(fd)) }), true
	case t.Integer():
		return integer(fd), true
	case t.Float():
		return float(fd), true
	}
	switch fd.Type {
	case field.TypeBool:
		return Func(func() any { return rand.IntN(2) == 1 }), true
	case field.TypeTime, field.TypeDate, field.TypeClock:
		return Func(func() any { return randTime(fd.Type) }), true
	case field.TypeUUID:
		return Func(func() any { return uuid.New() }), true
	case field.TypeBytes:
		n := fd.Size
		if n == 0 {
			n = 16
		}
		return Func(func() any {
			b := make([]byte, n)
			for i := range b {
				b[i] = byte(rand.IntN(256))
			}
			return b
		}), true
	case field.TypeDecimal:
		return decimalProducer(fd), true
	case field.TypeJSON:
		if fd.GoType != nil {
			typ := fd.GoType
			return Func(func() any {
				v, err := faker.Value(typ)
				if err != nil {
					return reflect.Zero(typ).Interface()
				}
				return v
			}), true
		}
		return Func(func() any { return map[string]any{alnum(6): alnum(8)} }), true
	}
	return nil, false
}

// length returns the length of generated strings: the size of the field, or
// a default for unbounded fields.
func length(fd *field.Descriptor) int {
	switch {
	case fd.Size > 0:
		return fd.Size
	case fd.MinLen > DefaultStringLen:
		return fd.MinLen
	}
	return DefaultStringLen
}

// fit clips s to the field size and pads exact-length fields.
func fit(s string, fd *field.Descriptor) string {
	if fd.Size > 0 && len(s) > fd.Size {
		s = s[:fd.Size]
	}
	if fd.Exact && len(s) < fd.Size {
		s += alnum(fd.Size - len(s))
	}
	if len(s) < fd.MinLen {
		s += alnum(fd.MinLen - len(s))
	}
	return s
}

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func alnum(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}

func integer(fd *field.Descriptor) Producer {
	if fd.Type.Unsigned() {
		lo, hi := uintBounds(fd.Type)
		if fd.Min != nil && *fd.Min > float64(lo) {
			lo = uint64(math.Ceil(*fd.Min))
		}
		if fd.Max != nil && *fd.Max < float64(hi) {
			hi = uint64(math.Floor(*fd.Max))
		}
		return Func(func() any {
			v := lo
			if span := hi - lo; span == math.MaxUint64 {
				v = rand.Uint64()
			} else {
				v += rand.Uint64N(span + 1)
			}
			cv, _ := field.Coerce(fd.Type, v)
			return cv
		})
	}
	lo, hi := intBounds(fd.Type)
	if fd.Min != nil && *fd.Min > float64(lo) {
		lo = int64(math.Ceil(*fd.Min))
	}
	if fd.Max != nil && *fd.Max < float64(hi) {
		hi = int64(math.Floor(*fd.Max))
	}
	return Func(func() any {
		var v int64
		// The span is computed in two's complement so full ranges do not overflow.
		if span := uint64(hi) - uint64(lo); span == math.MaxUint64 {
			v = int64(rand.Uint64())
		} else {
			v = lo + int64(rand.Uint64N(span+1))
		}
		cv, _ := field.Coerce(fd.Type, v)
		return cv
	})
}

func intBounds(t field.Type) (int64, int64) {
	switch t {
	case field.TypeInt8:
		return math.MinInt8, math.MaxInt8
	case field.TypeInt16:
		return math.MinInt16, math.MaxInt16
	case field.TypeInt32, field.TypeInt:
		return math.MinInt32, math.MaxInt32
	}
	return math.MinInt64, math.MaxInt64
}

func uintBounds(t field.Type) (uint64, uint64) {
	switch t {
	case field.TypeUint8:
		return 0, math.MaxUint8
	case field.TypeUint16:
		return 0, math.MaxUint16
	case field.TypeUint32, field.TypeUint:
		return 0, math.MaxUint32
	}
	return 0, math.MaxUint64
}

func float(fd *field.Descriptor) Producer {
	lo, hi := floatRange(fd, 1000)
	return Func(func() any {
		v := lo + rand.Float64()*(hi-lo)
		if fd.Type == field.TypeFloat32 {
			return float32(v)
		}
		return v
	})
}

// floatRange returns the bounds of generated numbers, spanning width when
// the field leaves one or both sides open.
func floatRange(fd *field.Descriptor, width float64) (float64, float64) {
	switch {
	case fd.Min != nil && fd.Max != nil:
		return *fd.Min, *fd.Max
	case fd.Min != nil:
		return *fd.Min, *fd.Min + width
	case fd.Max != nil:
		return *fd.Max - width, *fd.Max
	}
	return 0, width
}

func decimalProducer(fd *field.Descriptor) Producer {
	lo, hi := floatRange(fd, 10000)
	scale := math.Pow10(fd.Scale)
	first, last := int64(math.Ceil(lo*scale)), int64(math.Floor(hi*scale))
	return Func(func() any {
		n := first
		if last > first {
			n += rand.Int64N(last - first + 1)
		}
		return decimal.New(n, -int32(fd.Scale))
	})
}

var (
	timeMin = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	timeMax = time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
)

// randTime returns a UTC time between 2000 and 2030 with microsecond
// precision, which every supported store keeps.
func randTime(t field.Type) time.Time {
	sec := timeMin + rand.Int64N(timeMax-timeMin)
	tm := time.Unix(sec, rand.Int64N(int64(time.Second))).UTC().Truncate(time.Microsecond)
	switch t {
	case field.TypeDate:
		y, m, d := tm.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	case field.TypeClock:
		h, m, s := tm.Clock()
		return time.Date(0, time.January, 1, h, m, s, 0, time.UTC)
	}
	return tm
}

var typeCategories = map[field.Type]string{
	field.TypeBool:    faker.Bool,
	field.TypeString:  faker.Word,
	field.TypeText:    faker.Text,
	field.TypeEmail:   faker.Email,
	field.TypeURL:     faker.URL,
	field.TypeIP:      faker.IPv4,
	field.TypeTime:    faker.Date,
	field.TypeInt:     faker.Number,
	field.TypeInt64:   faker.Number,
	field.TypeFloat64: faker.Latitude,
}

// typeCategory returns the corpus category of the field type. Unique and
// bounded fields keep their structural values, which corpus values could
// repeat or overrun.
func typeCategory(fd *field.Descriptor) string {
	if fd.Unique || fd.Min != nil || fd.Max != nil || fd.Type == field.TypeEnum {
		return ""
	}
	return typeCategories[fd.Type]
}

// nameHints maps common field names to corpus categories.
var nameHints = map[string]string{
	"name":        faker.Name,
	"full_name":   faker.Name,
	"first_name":  faker.FirstName,
	"last_name":   faker.LastName,
	"username":    faker.Username,
	"login":       faker.Username,
	"email":       faker.Email,
	"city":        faker.City,
	"country":     faker.Country,
	"street":      faker.Street,
	"address":     faker.Street,
	"company":     faker.Company,
	"phone":       faker.Phone,
	"url":         faker.URL,
	"website":     faker.URL,
	"hostname":    faker.Hostname,
	"ip":          faker.IPv4,
	"title":       faker.Title,
	"description": faker.Text,
	"body":        faker.Text,
	"content":     faker.Text,
	"text":        faker.Text,
	"latitude":    faker.Latitude,
	"lat":         faker.Latitude,
	"longitude":   faker.Longitude,
	"lng":         faker.Longitude,
}

// hint returns the corpus category suggested by the field name and type.
func hint(fd *field.Descriptor) string {
	name := strings.ToLower(fd.Name)
	c, ok := nameHints[name]
	if !ok {
		// Suffixes like owner_email or home_city.
		if i := strings.LastIndexByte(name, '_'); i >= 0 {
			c, ok = nameHints[name[i+1:]]
		}
	}
	switch {
	case ok && fd.Type.Textual() && fd.Type != field.TypeEnum:
		if c == faker.Latitude || c == faker.Longitude {
			return ""
		}
		return c
	case ok && fd.Type.Float() && (c == faker.Latitude || c == faker.Longitude):
		return c
	case fd.Type == field.TypeEmail || fd.Type == field.TypeURL || fd.Type == field.TypeIP:
		return typeCategories[fd.Type]
	}
	return ""
}
