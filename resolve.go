package mixer

import (
	"errors"
	"fmt"
	"slices"

	"github.com/AlexeyBerezhnoy/mixer/directive"
	"github.com/AlexeyBerezhnoy/mixer/gen"
	"github.com/AlexeyBerezhnoy/mixer/override"
	"github.com/AlexeyBerezhnoy/mixer/scheme"
)

// directive resolves a directive override of a field holding one value.
func (s *blendState) directive(fd *scheme.FieldDescriptor, d directive.Directive, children override.Set) (any, bool, error) {
	switch d := d.(type) {
	case directive.Random:
		if fd.IsRelation() {
			if len(d.Choices) > 0 || d.Type.Valid() {
				inst, err := s.choose(fd, d)
				return inst, true, err
			}
			inst, err := s.relation(fd, children, false)
			return inst, true, err
		}
		switch {
		case len(d.Choices) > 0:
			return gen.Choice(d.Choices...)().Next(), true, nil
		case d.Type.Valid():
			p, ok := s.m.cfg.Factory.TypeProducer(d.Type, false)
			return s.draw(fd, p, ok), true, nil
		}
		p, ok := s.m.cfg.Factory.Producer(&fd.Descriptor, false)
		return s.draw(fd, p, ok), true, nil
	case directive.Fake:
		if fd.IsRelation() {
			inst, err := s.relation(fd, children, true)
			return inst, true, err
		}
		switch {
		case d.Category != "":
			p, err := s.m.cfg.Factory.CategoryProducer(d.Category, d.Params, &fd.Descriptor)
			if err != nil {
				return nil, false, &DirectiveMisuseError{Scheme: s.desc.Name, Field: fd.Name, Kind: d.Kind(), Reason: err.Error()}
			}
			return p().Next(), true, nil
		case d.Type.Valid():
			p, ok := s.m.cfg.Factory.TypeProducer(d.Type, true)
			return s.draw(fd, p, ok), true, nil
		}
		p, ok := s.m.cfg.Factory.Producer(&fd.Descriptor, true)
		return s.draw(fd, p, ok), true, nil
	case directive.Skip:
		if v, ok := fd.DefaultValue(); ok {
			return v, true, nil
		}
		return nil, false, nil
	case directive.Select:
		if !fd.IsRelation() {
			return nil, false, &DirectiveMisuseError{Scheme: s.desc.Name, Field: fd.Name, Kind: d.Kind(), Reason: "applies to relations only"}
		}
		inst, err := s.selectOne(fd, d.Filters)
		if err != nil || inst == nil {
			return nil, true, err
		}
		return inst, true, nil
	case directive.Mix:
		v, err := s.mix(d.Path)
		if err != nil {
			return nil, false, err
		}
		if d.Transform != nil {
			v = d.Transform(v)
		}
		return v, true, nil
	case *directive.Sequence:
		return s.m.next(d), true, nil
	case directive.Guard:
		return nil, false, &DirectiveMisuseError{Scheme: s.desc.Name, Field: fd.Name, Kind: d.Kind(), Reason: "applies to whole blends, use Mixer.GuardBy"}
	}
	return nil, false, fmt.Errorf("mixer: unknown directive %T", d)
}

// choose draws a member of a relation among the choices of a RANDOM
// directive. Choices must be instances of the relation target.
func (s *blendState) choose(fd *scheme.FieldDescriptor, d directive.Random) (*scheme.Instance, error) {
	misuse := func(reason string) error {
		return &DirectiveMisuseError{Scheme: s.desc.Name, Field: fd.Name, Kind: d.Kind(), Reason: reason}
	}
	if len(d.Choices) == 0 {
		return nil, misuse("relations draw among instances, not a type")
	}
	target, err := fd.Relation.Scheme()
	if err != nil {
		return nil, &SchemeResolutionError{Scheme: fd.Relation.Target, Err: err}
	}
	v := gen.Choice(d.Choices...)().Next()
	inst, ok := v.(*scheme.Instance)
	switch {
	case !ok || inst == nil:
		return nil, misuse(fmt.Sprintf("choice %T is not an instance of %s", v, target.Name))
	case !inst.Scheme().Same(target):
		return nil, misuse(fmt.Sprintf("choice is an instance of %s, not %s", inst.Scheme().Name, target.Name))
	}
	return inst, nil
}

// draw pulls one value from a directive producer, or a placeholder.
func (s *blendState) draw(fd *scheme.FieldDescriptor, p gen.Producer, ok bool) any {
	if !ok || p == nil {
		s.m.gap(s.ctx, fd)
		return gen.Zero(&fd.Descriptor)
	}
	return p().Next()
}

// selectOne returns a stored instance of the relation target. It returns
// nil while persistence is disabled.
func (s *blendState) selectOne(fd *scheme.FieldDescriptor, filters map[string]any) (*scheme.Instance, error) {
	if !s.m.cfg.Commit {
		return nil, nil
	}
	target, err := fd.Relation.Scheme()
	if err != nil {
		return nil, &SchemeResolutionError{Scheme: fd.Relation.Target, Err: err}
	}
	for name := range filters {
		if _, ok := target.Field(name); !ok {
			return nil, &SchemeResolutionError{Scheme: target.Name, Field: name}
		}
	}
	return s.m.cfg.Backend.Select(s.ctx, target, filters)
}

// mix returns the value at a path of the instance under construction,
// resolving the first field of the path first when needed.
func (s *blendState) mix(path []string) (any, error) {
	if len(path) == 0 {
		return nil, &PathResolutionError{Scheme: s.desc.Name, Reason: "empty MIX path"}
	}
	i := slices.IndexFunc(s.desc.Fields, func(f *scheme.FieldDescriptor) bool {
		return f.Name == path[0]
	})
	if i < 0 {
		return nil, &PathResolutionError{Scheme: s.desc.Name, Path: path, Reason: fmt.Sprintf("%s has no field %q", s.desc.Name, path[0])}
	}
	if s.desc.Fields[i].IsMany() {
		return nil, &PathResolutionError{Scheme: s.desc.Name, Path: path, Reason: "many relations are resolved after the instance"}
	}
	if err := s.resolve(i); err != nil {
		return nil, err
	}
	v, err := s.inst.Path(path...)
	if pe := (*scheme.PathError)(nil); errors.As(err, &pe) {
		return nil, &PathResolutionError{Scheme: s.desc.Name, Path: path, Reason: pe.Reason, Err: err}
	}
	return v, err
}
