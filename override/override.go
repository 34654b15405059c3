// Package override parses caller overrides into a tree of field paths.
//
// Keys use "__" to step into relations, so "door__hole__title" sets the title
// of the hole of the door:
//
//	set, err := override.Parse(override.Values{
//	    "title":             "flash",
//	    "door__hole__title": "flash",
//	})
//
// Parsing is purely syntactic. Whether each segment names a relation is
// checked against the scheme when the set is blended.
package override

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Separator delimits path segments in override keys.
const Separator = "__"

// Values maps override keys to literal values, directives or deferred
// sequences.
type Values = map[string]any

// Entry is a single override: the path segments and the leaf value.
type Entry struct {
	Path  []string
	Value any
}

// Node is the override of one field. A node may carry a value for the field
// itself, overrides of the fields of its relation target, or both.
type Node struct {
	Name     string
	Value    any
	HasValue bool
	Children Set
}

// Set is a tree of overrides keyed by the first path segment.
type Set map[string]*Node

// SyntaxError is returned for malformed override keys.
type SyntaxError struct {
	Key    string
	Reason string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("override: key %q: %s", e.Key, e.Reason)
}

// Parse builds a Set from override keys.
func Parse(v Values) (Set, error) {
	entries := make([]Entry, 0, len(v))
	for _, key := range slices.Sorted(maps.Keys(v)) {
		path, err := Split(key)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Path: path, Value: v[key]})
	}
	return FromEntries(entries...)
}

// Split splits an override key into its path segments.
func Split(key string) ([]string, error) {
	if key == "" {
		return nil, &SyntaxError{Key: key, Reason: "empty key"}
	}
	path := strings.Split(key, Separator)
	for _, seg := range path {
		if seg == "" {
			return nil, &SyntaxError{Key: key, Reason: "empty path segment"}
		}
	}
	return path, nil
}

// FromEntries builds a Set from structured entries.
func FromEntries(entries ...Entry) (Set, error) {
	s := make(Set)
	for _, e := range entries {
		if err := s.add(e.Path, e.Value); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s Set) add(path []string, v any) error {
	if len(path) == 0 {
		return &SyntaxError{Reason: "empty path"}
	}
	for _, seg := range path {
		if seg == "" {
			return &SyntaxError{Key: strings.Join(path, Separator), Reason: "empty path segment"}
		}
	}
	n, ok := s[path[0]]
	if !ok {
		n = &Node{Name: path[0]}
		s[path[0]] = n
	}
	if len(path) == 1 {
		if n.HasValue {
			return &SyntaxError{Key: path[0], Reason: "duplicate override"}
		}
		n.Value, n.HasValue = v, true
		return nil
	}
	if n.Children == nil {
		n.Children = make(Set)
	}
	return n.Children.add(path[1:], v)
}

// Names returns the overridden field names in sorted order.
func (s Set) Names() []string {
	return slices.Sorted(maps.Keys(s))
}

// Get returns the node at the given path.
func (s Set) Get(path ...string) (*Node, bool) {
	if len(path) == 0 {
		return nil, false
	}
	n, ok := s[path[0]]
	if !ok || len(path) == 1 {
		return n, ok
	}
	return n.Children.Get(path[1:]...)
}

// Entries flattens the set back to entries, sorted by path.
func (s Set) Entries() []Entry {
	var entries []Entry
	for _, name := range s.Names() {
		n := s[name]
		if n.HasValue {
			entries = append(entries, Entry{Path: []string{name}, Value: n.Value})
		}
		for _, e := range n.Children.Entries() {
			entries = append(entries, Entry{Path: append([]string{name}, e.Path...), Value: e.Value})
		}
	}
	return entries
}

// Clone returns a deep copy of the tree. Values are shared.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	c := make(Set, len(s))
	for name, n := range s {
		cn := *n
		cn.Children = n.Children.Clone()
		c[name] = &cn
	}
	return c
}

// Merge returns a set holding the overrides of both sets. Values of o win
// over values of s.
func (s Set) Merge(o Set) Set {
	m := s.Clone()
	if m == nil {
		m = make(Set)
	}
	for name, n := range o {
		cur, ok := m[name]
		if !ok {
			cn := *n
			cn.Children = n.Children.Clone()
			m[name] = &cn
			continue
		}
		if n.HasValue {
			cur.Value, cur.HasValue = n.Value, true
		}
		if n.Children != nil {
			cur.Children = cur.Children.Merge(n.Children)
		}
	}
	return m
}
