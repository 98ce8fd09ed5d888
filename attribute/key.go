// Package attribute implements the typed attribute-key system used to
// annotate plans, operators, and ports with pluggable configuration.
//
// An attribute.Key[T] is a process-unique handle: two keys are equal only
// if they are literally the same Go value, never by comparing names or
// types. Keys carry an optional default and an optional string codec. The
// planfmt serializer frames values as CBOR and does not consult the codec.
package attribute

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/flowplan/logicalplan/invariant"
)

// Codec converts a typed attribute value to and from a string form. It is
// stored on the key only; no code in this module calls it, and plan
// serialization encodes attribute values as CBOR without it.
type Codec[T any] struct {
	Encode func(T) (string, error)
	Decode func(string) (T, error)
}

// token is the non-generic identity carried by every Key[T]. Equality
// between keys is pointer equality on token, which is what makes
// attribute.Key "equality by identity": a fresh New call with the same
// name is a distinct key that happens to share a serialization name with
// a colliding registration, which New rejects outright.
type token struct {
	name string
	typ  reflect.Type
}

// Key is a typed, process-unique attribute identifier.
type Key[T any] struct {
	tok        *token
	def        T
	hasDefault bool
	codec      *Codec[T]
}

// Name returns the key's stable serialization identity (spec: "attribute
// keys survive across serialization by identity token, a stable string").
func (k Key[T]) Name() string {
	return k.tok.name
}

// Equal reports whether two keys are the identical process-unique key.
func (k Key[T]) Equal(other Key[T]) bool {
	return k.tok == other.tok
}

// Default returns the key's default value and whether one was registered.
func (k Key[T]) Default() (T, bool) {
	return k.def, k.hasDefault
}

var (
	registryMu sync.Mutex
	registry   = map[string]*token{}
)

// New declares a new attribute key with no default. The name must be
// unique across the process; registering the same name twice is a
// programming error (it would make two logically distinct keys collide
// at the serialization boundary, where only the name survives).
func New[T any](name string) Key[T] {
	return newKey[T](name, nil, nil)
}

// NewWithDefault declares a new attribute key with the given default.
func NewWithDefault[T any](name string, def T) Key[T] {
	d := def
	return newKey[T](name, &d, nil)
}

// NewWithCodec declares a new attribute key with an explicit string codec.
// Rebinding by name after deserialization decodes the CBOR payload into
// the key's registered type and does not use the codec.
func NewWithCodec[T any](name string, def *T, codec Codec[T]) Key[T] {
	return newKey[T](name, def, &codec)
}

func newKey[T any](name string, def *T, codec *Codec[T]) Key[T] {
	invariant.Precondition(name != "", "attribute key name must not be empty")

	tok := &token{name: name, typ: reflect.TypeOf((*T)(nil)).Elem()}

	registryMu.Lock()
	if existing, ok := registry[name]; ok {
		registryMu.Unlock()
		panic(fmt.Sprintf("attribute: key %q already registered with type %s", name, existing.typ))
	}
	registry[name] = tok
	registryMu.Unlock()

	k := Key[T]{tok: tok, codec: codec}
	if def != nil {
		k.def = *def
		k.hasDefault = true
	}
	return k
}

// Lookup resolves a previously registered key by its serialization name.
// Used when rebinding attributes read back from the wire format, where
// only the name is known until the caller supplies the expected type T.
func Lookup[T any](name string) (Key[T], bool) {
	registryMu.Lock()
	tok, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return Key[T]{}, false
	}
	if tok.typ != reflect.TypeOf((*T)(nil)).Elem() {
		return Key[T]{}, false
	}
	return Key[T]{tok: tok}, true
}
