package scheme

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// Registry maps scheme keys to scheme builders and caches the built
// descriptors. Keys are case-insensitive. A key with a dotted prefix, like
// "app.User", can also be looked up by its last segment while unambiguous.
type Registry struct {
	mu        sync.RWMutex
	builders  map[string]*entry
	short     map[string][]string
	types     map[reflect.Type]string
	listeners []func(*Descriptor)
}

type entry struct {
	name  string
	build func(Resolver) (*Descriptor, error)
	desc  *Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]*entry),
		short:    make(map[string][]string),
		types:    make(map[reflect.Type]string),
	}
}

// Register registers a scheme definition under the given key. Registering an
// existing key replaces it and invalidates its descriptor.
func (r *Registry) Register(name string, s Interface) {
	r.RegisterFunc(name, func(res Resolver) (*Descriptor, error) {
		return Build(name, s, res)
	})
}

// RegisterFunc registers a descriptor builder under the given key.
func (r *Registry) RegisterFunc(name string, build func(Resolver) (*Descriptor, error)) {
	r.mu.Lock()
	key := r.key(name)
	old := r.builders[key]
	r.builders[key] = &entry{name: name, build: build}
	if old == nil {
		short := r.shortKey(key)
		r.short[short] = append(r.short[short], key)
	}
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()
	if old != nil && old.desc != nil {
		notify(listeners, old.desc)
	}
}

// Invalidate drops the cached descriptor of the given key. The next lookup
// rebuilds it. It reports whether a descriptor was dropped.
func (r *Registry) Invalidate(name string) bool {
	r.mu.Lock()
	key, err := r.resolveKey(name)
	if err != nil {
		r.mu.Unlock()
		return false
	}
	e := r.builders[key]
	old := e.desc
	e.desc = nil
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()
	if old == nil {
		return false
	}
	notify(listeners, old)
	return true
}

// OnInvalidate registers a callback that runs with every descriptor dropped
// from the registry.
func (r *Registry) OnInvalidate(fn func(*Descriptor)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Lookup returns the descriptor registered under the given key, building it
// on first use.
func (r *Registry) Lookup(name string) (*Descriptor, error) {
	r.mu.RLock()
	key, err := r.resolveKey(name)
	if err != nil {
		r.mu.RUnlock()
		return nil, err
	}
	e := r.builders[key]
	desc, build := e.desc, e.build
	r.mu.RUnlock()
	if desc != nil {
		return desc, nil
	}
	desc, err = build(r)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	// Keep the first descriptor stored by a concurrent lookup, unless the
	// entry was replaced in the meantime.
	if cur := r.builders[key]; cur == e {
		if e.desc == nil {
			e.desc = desc
		}
		return e.desc, nil
	}
	return desc, nil
}

// Names returns the registered keys in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.builders))
	for _, e := range r.builders {
		names = append(names, e.name)
	}
	slices.Sort(names)
	return names
}

// Resolve returns the descriptor for a scheme reference. A reference is a
// registry key, a *Descriptor, a value implementing Interface, or a struct
// value, pointer or reflect.Type adapted by its fields. Definitions and
// structs are registered under their type name on first use.
func (r *Registry) Resolve(v any) (*Descriptor, error) {
	switch v := v.(type) {
	case nil:
		return nil, &NotFoundError{Name: "<nil>"}
	case *Descriptor:
		return v, nil
	case string:
		return r.Lookup(v)
	case reflect.Type:
		name, err := r.registerStruct(v)
		if err != nil {
			return nil, err
		}
		return r.Lookup(name)
	case Interface:
		name, err := r.registerType(reflect.TypeOf(v), func(name string) {
			r.Register(name, v)
		})
		if err != nil {
			return nil, err
		}
		return r.Lookup(name)
	}
	name, err := r.registerStruct(reflect.TypeOf(v))
	if err != nil {
		return nil, err
	}
	return r.Lookup(name)
}

// registerType registers a Go type once under its type name. A type whose
// name is held by a type of another package is registered under its package
// path and name.
func (r *Registry) registerType(t reflect.Type, register func(string)) (string, error) {
	t = indirect(t)
	r.mu.RLock()
	name, ok := r.types[t]
	r.mu.RUnlock()
	if ok {
		return name, nil
	}
	if t.Name() == "" {
		return "", fmt.Errorf("scheme: cannot name unnamed type %s", t)
	}
	r.mu.Lock()
	if prev, ok := r.types[t]; ok {
		r.mu.Unlock()
		return prev, nil
	}
	name = t.Name()
	if other := r.typeOf(name); other != nil {
		name = t.PkgPath() + "." + name
		if other := r.typeOf(name); other != nil {
			r.mu.Unlock()
			return "", fmt.Errorf("scheme: types %s and %s are both named %q, register one explicitly", other, t, name)
		}
	}
	r.types[t] = name
	r.mu.Unlock()
	register(name)
	return name, nil
}

// typeOf returns the Go type registered under the name, or nil. It must be
// called with the lock held.
func (r *Registry) typeOf(name string) reflect.Type {
	key := r.key(name)
	for t, n := range r.types {
		if r.key(n) == key {
			return t
		}
	}
	return nil
}

func (r *Registry) key(name string) string {
	// Casers keep state and cannot be shared between goroutines.
	return cases.Fold().String(strings.TrimSpace(name))
}

func (r *Registry) shortKey(key string) string {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		return key[i+1:]
	}
	return key
}

// resolveKey must be called with the lock held.
func (r *Registry) resolveKey(name string) (string, error) {
	key := r.key(name)
	if _, ok := r.builders[key]; ok {
		return key, nil
	}
	if strings.Contains(key, ".") {
		return "", &NotFoundError{Name: name}
	}
	switch keys := r.short[key]; {
	case len(keys) == 1:
		return keys[0], nil
	case len(keys) > 1:
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = r.builders[k].name
		}
		slices.Sort(names)
		return "", &NotFoundError{Name: name, Candidates: names}
	}
	return "", &NotFoundError{Name: name}
}

func notify(listeners []func(*Descriptor), d *Descriptor) {
	for _, fn := range listeners {
		fn(d)
	}
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
