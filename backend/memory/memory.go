// Package memory provides an in-process store for blended instances.
//
// Nothing is persisted. The store is meant for tests that exercise GUARD,
// SELECT and commit without a database.
package memory

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"slices"
	"sync"

	"github.com/AlexeyBerezhnoy/mixer"
	"github.com/AlexeyBerezhnoy/mixer/scheme"
	"github.com/AlexeyBerezhnoy/mixer/scheme/field"
)

// ErrNotFound is returned by Get for unknown identities.
var ErrNotFound = errors.New("memory: instance not found")

// Store keeps committed instances per scheme and assigns incrementing
// int64 identities.
type Store struct {
	mu    sync.RWMutex
	rows  map[string][]*scheme.Instance
	seq   map[string]int64
	links map[link][]*scheme.Instance
}

type link struct {
	owner    *scheme.Instance
	relation string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		rows:  make(map[string][]*scheme.Instance),
		seq:   make(map[string]int64),
		links: make(map[link][]*scheme.Instance),
	}
}

// Commit stores the instance. Instances of schemes with an ID or integer
// identity get the next identity of their scheme when they have none; other
// identities are kept as blended. Committing a stored identity replaces the
// row.
func (s *Store) Commit(_ context.Context, inst *scheme.Instance) (*scheme.Instance, error) {
	if inst == nil {
		return nil, errors.New("memory: commit nil instance")
	}
	d := inst.Scheme()
	s.mu.Lock()
	defer s.mu.Unlock()
	if inst.ID() == nil {
		if f := d.ID(); f != nil && f.AutoID() {
			s.seq[d.Name]++
			inst.SetID(s.seq[d.Name])
		}
	} else if i := s.index(d, inst.ID()); i >= 0 {
		s.rows[d.Name][i] = inst
		return inst, nil
	}
	s.rows[d.Name] = append(s.rows[d.Name], inst)
	return inst, nil
}

// Select returns a random stored instance whose fields equal the filters.
func (s *Store) Select(_ context.Context, d *scheme.Descriptor, filters map[string]any) (*scheme.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found []*scheme.Instance
	for _, inst := range s.rows[d.Name] {
		if matches(inst, filters) {
			found = append(found, inst)
		}
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[rand.IntN(len(found))], nil
}

// Get returns the stored instance with the given identity.
func (s *Store) Get(_ context.Context, d *scheme.Descriptor, id any) (*scheme.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(d, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s#%v", ErrNotFound, d.Name, id)
	}
	return s.rows[d.Name][i], nil
}

// Link records the members of a many relation.
func (s *Store) Link(_ context.Context, owner *scheme.Instance, rel *scheme.FieldDescriptor, members []*scheme.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := link{owner: owner, relation: rel.Name}
	s.links[k] = append(s.links[k], members...)
	return nil
}

// Linked returns the members linked to the owner through the relation.
func (s *Store) Linked(owner *scheme.Instance, relation string) []*scheme.Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.links[link{owner: owner, relation: relation}])
}

// All returns the stored instances of the scheme in commit order.
func (s *Store) All(name string) []*scheme.Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rows[name])
}

// Count returns the number of stored instances of the scheme.
func (s *Store) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows[name])
}

// Clear drops everything.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.rows)
	clear(s.seq)
	clear(s.links)
}

// index must be called with the lock held.
func (s *Store) index(d *scheme.Descriptor, id any) int {
	f := d.ID()
	if f == nil {
		return -1
	}
	return slices.IndexFunc(s.rows[d.Name], func(inst *scheme.Instance) bool {
		return inst.ID() != nil && equal(inst.ID(), id, f)
	})
}

func matches(inst *scheme.Instance, filters map[string]any) bool {
	for name, want := range filters {
		f, ok := inst.Scheme().Field(name)
		if !ok || !equal(inst.Get(name), want, f) {
			return false
		}
	}
	return true
}

// equal compares a stored value with a filter value. Relation members are
// compared by identity; other values after conversion to the field type.
func equal(got, want any, f *scheme.FieldDescriptor) bool {
	got, want = identity(got), identity(want)
	t := keyType(f)
	if cv, err := field.Coerce(t, want); err == nil {
		want = cv
	}
	if cv, err := field.Coerce(t, got); err == nil {
		got = cv
	}
	return reflect.DeepEqual(got, want)
}

// keyType returns the type identities of the field are compared as.
func keyType(f *scheme.FieldDescriptor) field.Type {
	if f.IsRelation() {
		target, err := f.Relation.Scheme()
		if err != nil || target.ID() == nil {
			return field.TypeID
		}
		f = target.ID()
	}
	if f.AutoID() {
		return field.TypeID
	}
	return f.Type
}

func identity(v any) any {
	inst, ok := v.(*scheme.Instance)
	switch {
	case !ok:
		return v
	case inst == nil:
		return nil
	}
	return inst.ID()
}

var _ mixer.Backend = (*Store)(nil)
