package mixer

import (
	"github.com/AlexeyBerezhnoy/mixer/directive"
	"github.com/AlexeyBerezhnoy/mixer/faker"
	"github.com/AlexeyBerezhnoy/mixer/scheme/field"
)

// Random returns a directive drawing from the field's own generator of
// structurally valid values.
func (*Mixer) Random() directive.Random { return directive.Random{} }

// RandomOf returns a directive drawing among the given values.
func (*Mixer) RandomOf(choices ...any) directive.Random {
	return directive.Random{Choices: choices}
}

// RandomType returns a directive drawing from the generator of another type.
func (*Mixer) RandomType(t field.Type) directive.Random {
	return directive.Random{Type: t}
}

// Fake returns a directive drawing a realistic value for the field.
func (*Mixer) Fake() directive.Fake { return directive.Fake{} }

// FakeType returns a directive drawing a realistic value of another type.
func (*Mixer) FakeType(t field.Type) directive.Fake {
	return directive.Fake{Type: t}
}

// FakeCategory returns a directive drawing from a corpus category, e.g.
// faker.City.
func (*Mixer) FakeCategory(category string, params faker.Params) directive.Fake {
	return directive.Fake{Category: category, Params: params}
}

// Skip returns a directive leaving the field to its default.
func (*Mixer) Skip() directive.Skip { return directive.Skip{} }

// Select returns a directive fetching a stored relation member.
func (*Mixer) Select(filters map[string]any) directive.Select {
	return directive.Select{Filters: filters}
}

// Mix returns a directive copying the value at a dotted path of the instance
// under construction.
func (*Mixer) Mix(path string) directive.Mix { return directive.MixPath(path) }

// Sequence returns a new counter formatted by format. Each call returns a
// distinct counter.
func (*Mixer) Sequence(format string) *directive.Sequence {
	return directive.NewSequence(format)
}

// SequenceFunc returns a new counter mapped through fn.
func (*Mixer) SequenceFunc(fn func(int) any) *directive.Sequence {
	return directive.SequenceFunc(fn)
}
