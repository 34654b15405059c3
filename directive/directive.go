// Package directive defines the markers a caller passes instead of a literal
// override value.
//
//	m.Blend(ctx, "app.Hat", mixer.Values{
//	    "color":        directive.Random{Choices: []any{"red", "blue"}},
//	    "owner__email": directive.Fake{},
//	    "owner__title": directive.MixPath("color"),
//	    "brand":        directive.Skip{},
//	})
//
// The set of directives is closed. Resolvers switch over Kind.
package directive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AlexeyBerezhnoy/mixer/faker"
	"github.com/AlexeyBerezhnoy/mixer/scheme/field"
)

// Kind of a directive.
type Kind uint8

// Directive kinds.
const (
	KindRandom Kind = iota + 1
	KindFake
	KindSkip
	KindSelect
	KindMix
	KindSequence
	KindGuard
)

var kindNames = [...]string{
	KindRandom:   "RANDOM",
	KindFake:     "FAKE",
	KindSkip:     "SKIP",
	KindSelect:   "SELECT",
	KindMix:      "MIX",
	KindSequence: "SEQUENCE",
	KindGuard:    "GUARD",
}

// String returns the directive name.
func (k Kind) String() string {
	if k >= KindRandom && k <= KindGuard {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Directive is implemented by the directive types of this package only.
type Directive interface {
	Kind() Kind
	directive()
}

// Is reports whether v is a directive.
func Is(v any) (Directive, bool) {
	d, ok := v.(Directive)
	return d, ok
}

// Random draws a structurally valid value. Without parameters it uses the
// field's own generator. Choices draws among the given values, Type draws
// from the generator of another field type.
type Random struct {
	Choices []any
	Type    field.Type
}

// Fake draws a realistic value from the corpus provider, even when the Mixer
// runs in structural mode. On relations the target scheme is blended in fake
// mode.
type Fake struct {
	Type     field.Type
	Category string
	Params   faker.Params
}

// Skip leaves the field to its default, or null.
type Skip struct{}

// Select fetches an existing instance of the relation target from the store,
// filtered by field equality. Resolves to nil when nothing matches.
type Select struct {
	Filters map[string]any
}

// Mix refers to another field of the instance under construction, following
// one-relations for dotted paths. Transform, if set, maps the value.
type Mix struct {
	Path      []string
	Transform func(any) any
}

// MixPath returns a Mix for a dotted path like "owner.title".
func MixPath(path string) Mix {
	return Mix{Path: splitPath(path)}
}

// Then returns a copy of the directive applying fn to the referenced value.
func (m Mix) Then(fn func(any) any) Mix {
	m.Path = append([]string(nil), m.Path...)
	m.Transform = fn
	return m
}

// String returns the dotted path.
func (m Mix) String() string {
	return "MIX." + strings.Join(m.Path, ".")
}

// Guard returns an existing instance matching the filters instead of
// creating a new one. It applies to a whole blend; on a field it is an error.
type Guard struct {
	Filters map[string]any
}

// Sequence is a counter that survives across blends on the same Mixer. Each
// *Sequence is its own counter, keyed by identity.
type Sequence struct {
	format string
	fn     func(int) any
}

// NewSequence returns a sequence producing strings from a format. "{0}" is
// replaced by the counter; formats with a % verb go through fmt.Sprintf;
// other formats get the counter appended. An empty format produces the bare
// counter as an int.
func NewSequence(format string) *Sequence {
	return &Sequence{format: format}
}

// SequenceFunc returns a sequence mapping the counter through fn.
func SequenceFunc(fn func(int) any) *Sequence {
	return &Sequence{fn: fn}
}

// Value returns the sequence value for the counter n. Counters start at 0.
func (s *Sequence) Value(n int) any {
	switch {
	case s.fn != nil:
		return s.fn(n)
	case s.format == "":
		return n
	case strings.Contains(s.format, "{0}"):
		return strings.ReplaceAll(s.format, "{0}", strconv.Itoa(n))
	case strings.Contains(s.format, "%"):
		return fmt.Sprintf(s.format, n)
	}
	return s.format + strconv.Itoa(n)
}

// Kind implements Directive.
func (Random) Kind() Kind { return KindRandom }

// Kind implements Directive.
func (Fake) Kind() Kind { return KindFake }

// Kind implements Directive.
func (Skip) Kind() Kind { return KindSkip }

// Kind implements Directive.
func (Select) Kind() Kind { return KindSelect }

// Kind implements Directive.
func (Mix) Kind() Kind { return KindMix }

// Kind implements Directive.
func (*Sequence) Kind() Kind { return KindSequence }

// Kind implements Directive.
func (Guard) Kind() Kind { return KindGuard }

func (Random) directive()    {}
func (Fake) directive()      {}
func (Skip) directive()      {}
func (Select) directive()    {}
func (Mix) directive()       {}
func (*Sequence) directive() {}
func (Guard) directive()     {}

func splitPath(path string) []string {
	path = strings.ReplaceAll(path, "__", ".")
	return strings.Split(path, ".")
}
