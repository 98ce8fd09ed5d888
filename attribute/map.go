package attribute

import (
	"fmt"
	"reflect"
)

// Map is an insertion-ordered, scope-local store of attribute values.
// Map is not safe for concurrent use; per the concurrency model, the
// plan builder is single-threaded (see the plan package doc).
type Map struct {
	values map[*token]any
	order  []*token
}

// NewMap creates an empty attribute map.
func NewMap() *Map {
	return &Map{values: make(map[*token]any)}
}

// Get returns the stored value for k, falling back to k's default, and
// reports whether any value (stored or default) was available.
func Get[T any](m *Map, k Key[T]) (T, bool) {
	if m != nil {
		if v, ok := m.values[k.tok]; ok {
			return v.(T), true
		}
	}
	if k.hasDefault {
		return k.def, true
	}
	var zero T
	return zero, false
}

// Put stores v under k, preserving first-insertion order for keys that
// have not been set before.
func Put[T any](m *Map, k Key[T], v T) {
	if _, exists := m.values[k.tok]; !exists {
		m.order = append(m.order, k.tok)
	}
	m.values[k.tok] = v
}

// Has reports whether m holds an explicit value for k (ignoring k's
// default).
func Has[T any](m *Map, k Key[T]) bool {
	if m == nil {
		return false
	}
	_, ok := m.values[k.tok]
	return ok
}

// Names returns the serialization names of every explicitly set
// attribute, in insertion order. Used by the serializer to frame each
// attribute's CBOR payload under its stable name.
func (m *Map) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, len(m.order))
	for i, t := range m.order {
		names[i] = t.name
	}
	return names
}

// EqualValues reports whether m and other hold the same explicitly-set
// keys with equal values, ignoring defaults and insertion order. Used to
// resolve the spec's Open Question on whether operator metadata equality
// should include the attribute map (spec §9): it does, via this method.
func (m *Map) EqualValues(other *Map) bool {
	if m == nil || other == nil {
		return m == other
	}
	if len(m.values) != len(other.values) {
		return false
	}
	for tok, v := range m.values {
		ov, ok := other.values[tok]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}

// RawValue returns the explicitly stored value for the attribute
// registered under name, with its static type erased. Used by the
// serializer, which frames attributes by their stable string name rather
// than by the process-local Key[T] identity (spec §6: "survive
// serialization by identity token and rebind on load").
func (m *Map) RawValue(name string) (any, bool) {
	if m == nil {
		return nil, false
	}
	for _, t := range m.order {
		if t.name == name {
			return m.values[t], true
		}
	}
	return nil, false
}

// RebindByName decodes a value previously registered under name back
// into m, routing through decode, which receives the key's static type
// since the caller (the serializer) knows only the name at this point
// (spec §6: "attribute keys survive serialization by identity token...
// rebind on load"). Returns an error if no key was ever registered under
// name.
func RebindByName(m *Map, name string, decode func(reflect.Type) (any, error)) error {
	registryMu.Lock()
	tok, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return fmt.Errorf("attribute: no key registered under name %q", name)
	}
	v, err := decode(tok.typ)
	if err != nil {
		return err
	}
	if _, exists := m.values[tok]; !exists {
		m.order = append(m.order, tok)
	}
	m.values[tok] = v
	return nil
}

// ScopedMap chains a local attribute map to a parent map for fallback
// lookup. Operator-level maps chain to the plan-level map; port-level
// maps never chain (spec §4.A).
type ScopedMap struct {
	Own    *Map
	parent *Map
}

// NewScoped creates a scoped map whose lookups fall back to parent when
// not found locally. Pass a nil parent for a map that should not chain.
func NewScoped(parent *Map) *ScopedMap {
	return &ScopedMap{Own: NewMap(), parent: parent}
}

// GetScoped resolves k against the local map, then the parent map, then
// k's default.
func GetScoped[T any](m *ScopedMap, k Key[T]) (T, bool) {
	if v, ok := m.Own.values[k.tok]; ok {
		return v.(T), true
	}
	if m.parent != nil {
		if v, ok := Get(m.parent, k); ok {
			return v, true
		}
	}
	if k.hasDefault {
		return k.def, true
	}
	var zero T
	return zero, false
}

// PutScoped stores v in the local map only.
func PutScoped[T any](m *ScopedMap, k Key[T], v T) {
	Put(m.Own, k, v)
}
