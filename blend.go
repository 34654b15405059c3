package mixer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/AlexeyBerezhnoy/mixer/directive"
	"github.com/AlexeyBerezhnoy/mixer/gen"
	"github.com/AlexeyBerezhnoy/mixer/override"
	"github.com/AlexeyBerezhnoy/mixer/scheme"
	"github.com/AlexeyBerezhnoy/mixer/scheme/edge"

	"github.com/davecgh/go-spew/spew"
)

var dump = spew.ConfigState{Indent: "  ", MaxDepth: 2, DisablePointerAddresses: true, SortKeys: true}

type fieldState uint8

const (
	unresolved fieldState = iota
	resolving
	resolved
)

// blendState is the construction of one instance.
type blendState struct {
	m     *Mixer
	ctx   context.Context
	b     *blender
	desc  *scheme.Descriptor
	inst  *scheme.Instance
	set   override.Set
	reg   *registration
	state []fieldState
}

// blend builds an instance of d. Fields holding one value are resolved in
// declaration order, or earlier when a MIX references them. The instance is
// then post-processed and committed; many relations are resolved last since
// they need the identity of the committed instance.
func (m *Mixer) blend(ctx context.Context, d *scheme.Descriptor, set override.Set, fake bool) (*scheme.Instance, error) {
	s := &blendState{
		m:     m,
		ctx:   ctx,
		b:     blenderFor(d, fake, m.cfg.Factory),
		desc:  d,
		inst:  scheme.NewInstance(d),
		set:   set,
		reg:   m.registration(d),
		state: make([]fieldState, len(d.Fields)),
	}
	for i, fd := range d.Fields {
		if fd.IsMany() {
			continue
		}
		if err := s.resolve(i); err != nil {
			return nil, err
		}
	}
	inst := s.inst
	for _, fn := range s.reg.hooks() {
		out, err := fn(ctx, inst)
		if err != nil {
			return nil, err
		}
		if out != nil {
			inst = out
		}
	}
	if m.cfg.Commit {
		stored, err := m.cfg.Backend.Commit(ctx, inst)
		if err != nil {
			return nil, err
		}
		if stored != nil {
			inst = stored
		}
	}
	for i, fd := range d.Fields {
		if !fd.IsMany() {
			continue
		}
		if err := s.members(inst, fd); err != nil {
			return nil, err
		}
		s.state[i] = resolved
	}
	if m.log.Enabled(ctx, levelTrace) {
		m.log.Log(ctx, levelTrace, "blended instance", "scheme", d.Name, "values", dump.Sdump(inst.Values()))
	} else {
		m.log.DebugContext(ctx, "blended instance", "scheme", d.Name, "id", inst.ID(), "fake", fake)
	}
	return inst, nil
}

// levelTrace enables dumps of every blended value.
const levelTrace = slog.LevelDebug - 4

func (s *blendState) resolve(i int) error {
	fd := s.desc.Fields[i]
	switch s.state[i] {
	case resolved:
		return nil
	case resolving:
		return &PathResolutionError{
			Scheme: s.desc.Name,
			Path:   []string{fd.Name},
			Reason: "fields reference each other",
			Err:    ErrDependencyCycle,
		}
	}
	s.state[i] = resolving
	v, ok, err := s.value(fd)
	if err != nil {
		return err
	}
	if ok {
		if err := s.inst.Set(fd.Name, v); err != nil {
			return fmt.Errorf("mixer: %w", err)
		}
	}
	s.state[i] = resolved
	return nil
}

// value returns the value of a field holding one value, by precedence:
// caller override, nested overrides, registered generator, default, and
// generation. It reports false for fields left unset.
func (s *blendState) value(fd *scheme.FieldDescriptor) (any, bool, error) {
	if n, ok := s.set[fd.Name]; ok {
		if n.HasValue {
			return s.override(fd, n.Value, n.Children)
		}
		inst, err := s.relation(fd, n.Children, s.b.fake)
		return inst, true, err
	}
	if v, ok := s.reg.value(fd.Name); ok {
		return s.override(fd, v, nil)
	}
	if v, ok := fd.DefaultValue(); ok {
		return v, true, nil
	}
	switch {
	case fd.AutoID():
		return nil, false, nil
	case fd.IsRelation():
		if fd.Relation.Optional {
			return nil, true, nil
		}
		inst, err := s.relation(fd, nil, s.b.fake)
		return inst, true, err
	case fd.Nullable:
		return nil, true, nil
	}
	return s.generate(fd), true, nil
}

func (s *blendState) override(fd *scheme.FieldDescriptor, v any, children override.Set) (any, bool, error) {
	switch v := v.(type) {
	case directive.Directive:
		return s.directive(fd, v, children)
	case gen.Sequence:
		return v.Next(), true, nil
	}
	return v, true, nil
}

func (s *blendState) generate(fd *scheme.FieldDescriptor) any {
	if v, ok := s.b.next(slices.Index(s.desc.Fields, fd)); ok {
		return v
	}
	s.m.gap(s.ctx, fd)
	return gen.Zero(&fd.Descriptor)
}

// relation blends a new member of the relation target.
func (s *blendState) relation(fd *scheme.FieldDescriptor, children override.Set, fake bool) (*scheme.Instance, error) {
	target, err := fd.Relation.Scheme()
	if err != nil {
		return nil, &SchemeResolutionError{Scheme: fd.Relation.Target, Err: err}
	}
	return s.m.blend(s.ctx, target, children, fake)
}

// members resolves a many relation of the committed instance. Supplied
// instances replace the generated set, RANDOM choices pick one stored
// member, an int sets the number of new members, and nested overrides shape
// the new members.
func (s *blendState) members(inst *scheme.Instance, fd *scheme.FieldDescriptor) error {
	var (
		children override.Set
		v        any
		has      bool
	)
	if n, ok := s.set[fd.Name]; ok {
		children, v, has = n.Children, n.Value, n.HasValue
	}
	if !has {
		v, has = s.reg.value(fd.Name)
	}
	if seq, ok := v.(gen.Sequence); ok {
		v = seq.Next()
	}
	var (
		count   = -1
		fake    = s.b.fake
		members []*scheme.Instance
	)
	if has {
		switch v := v.(type) {
		case nil, directive.Skip:
			count = 0
		case []*scheme.Instance:
			members, count = slices.Clone(v), 0
		case *scheme.Instance:
			members, count = []*scheme.Instance{v}, 0
		case int:
			if v < 0 {
				return &PathResolutionError{Scheme: s.desc.Name, Path: []string{fd.Name}, Reason: fmt.Sprintf("negative member count %d", v)}
			}
			count = v
		case directive.Random:
			if len(v.Choices) > 0 || v.Type.Valid() {
				member, err := s.choose(fd, v)
				if err != nil {
					return err
				}
				members, count = []*scheme.Instance{member}, 0
				break
			}
			fake = false
		case directive.Fake:
			fake = true
		case directive.Select:
			count = 0
			found, err := s.selectOne(fd, v.Filters)
			if err != nil {
				return err
			}
			if found != nil {
				members = []*scheme.Instance{found}
			}
		case directive.Directive:
			return &DirectiveMisuseError{Scheme: s.desc.Name, Field: fd.Name, Kind: v.Kind(), Reason: "not applicable to many relations"}
		default:
			return fmt.Errorf("mixer: %s.%s holds many members, got %T", s.desc.Name, fd.Name, v)
		}
	}
	if count < 0 {
		count = 1
		if fd.Relation.Optional && children == nil {
			count = 0
		}
	}
	for range count {
		member, err := s.relation(fd, children, fake)
		if err != nil {
			return err
		}
		members = append(members, member)
	}
	if err := inst.Set(fd.Name, members); err != nil {
		return fmt.Errorf("mixer: %w", err)
	}
	if !s.m.cfg.Commit || len(members) == 0 {
		return nil
	}
	if fd.Relation.Cardinality == edge.ManyThrough {
		return s.through(inst, fd, members)
	}
	return s.m.cfg.Backend.Link(s.ctx, inst, fd, members)
}

// through blends an intermediate instance per member, holding the owner and
// the member in its one-relations.
func (s *blendState) through(owner *scheme.Instance, fd *scheme.FieldDescriptor, members []*scheme.Instance) error {
	through, err := fd.Relation.ThroughScheme()
	if err != nil {
		return &SchemeResolutionError{Scheme: fd.Relation.Through, Err: err}
	}
	target, err := fd.Relation.Scheme()
	if err != nil {
		return &SchemeResolutionError{Scheme: fd.Relation.Target, Err: err}
	}
	ownerField, memberField := throughFields(through, owner.Scheme(), target)
	if ownerField == "" || memberField == "" {
		return &PathResolutionError{
			Scheme: s.desc.Name,
			Path:   []string{fd.Name},
			Reason: fmt.Sprintf("%s has no relations to %s and %s", through.Name, owner.Scheme().Name, target.Name),
		}
	}
	for _, member := range members {
		set := override.Set{
			ownerField:  {Name: ownerField, Value: owner, HasValue: true},
			memberField: {Name: memberField, Value: member, HasValue: true},
		}
		if _, err := s.m.blend(s.ctx, through, set, s.b.fake); err != nil {
			return err
		}
	}
	return nil
}

func throughFields(through, owner, target *scheme.Descriptor) (ownerField, memberField string) {
	for _, f := range through.Fields {
		if !f.IsRelation() || f.IsMany() {
			continue
		}
		d, err := f.Relation.Scheme()
		if err != nil {
			continue
		}
		switch {
		case ownerField == "" && d == owner:
			ownerField = f.Name
		case memberField == "" && d == target:
			memberField = f.Name
		}
	}
	return ownerField, memberField
}

// validate checks the overrides against the scheme before anything is
// blended. Unknown top-level fields are scheme errors; everything reached
// through a path is a path error.
func validate(root string, d *scheme.Descriptor, set override.Set, path []string) error {
	for _, name := range set.Names() {
		n := set[name]
		p := append(slices.Clone(path), name)
		fd, ok := d.Field(name)
		switch {
		case !ok && len(path) == 0 && n.Children == nil:
			return &SchemeResolutionError{Scheme: d.Name, Field: name}
		case !ok:
			return &PathResolutionError{Scheme: root, Path: p, Reason: fmt.Sprintf("%s has no field %q", d.Name, name)}
		case n.Children == nil:
			continue
		case !fd.IsRelation():
			return &PathResolutionError{Scheme: root, Path: p, Reason: fmt.Sprintf("%s.%s is not a relation", d.Name, name)}
		case n.HasValue && !fd.IsMany() && !shapes(n.Value):
			return &PathResolutionError{Scheme: root, Path: p, Reason: "nested overrides cannot apply to an explicit value"}
		}
		target, err := fd.Relation.Scheme()
		if err != nil {
			return &SchemeResolutionError{Scheme: fd.Relation.Target, Err: err}
		}
		if err := validate(root, target, n.Children, p); err != nil {
			return err
		}
	}
	return nil
}

// shapes reports whether v blends a new member that nested overrides can
// shape.
func shapes(v any) bool {
	switch v := v.(type) {
	case directive.Random:
		return len(v.Choices) == 0 && !v.Type.Valid()
	case directive.Fake:
		return true
	}
	return false
}
