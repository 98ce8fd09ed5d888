// Package port implements the port descriptor (spec §3, §4.B): a typed
// attachment point on an operator, either an input or an output.
package port

import "github.com/flowplan/logicalplan/attribute"

// Direction distinguishes an input port from an output port.
type Direction int

const (
	// Input ports accept at most one inbound stream.
	Input Direction = iota
	// Output ports source at most one outbound stream (which may fan
	// out to many sinks).
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Key uniquely identifies a port within a plan: the owning operator's
// name plus the port's own field name (spec §3: "port names on a given
// operator are unique", §9: "ports carry the operator's key plus their
// own field name; resolve to the live operator on demand").
type Key struct {
	OperatorName string
	FieldName    string
}

// SubOperator is an opaque placeholder for the unifier/slider operators
// the physical planner synthesizes when it fans partitioned streams back
// together. This module never interprets their contents; it only
// guarantees they are created lazily and at most once per descriptor.
type SubOperator struct {
	Name string
	Kind string
}

// Descriptor is a port on an operator: its direction, its annotations,
// and its own (non-chaining) attribute map.
type Descriptor struct {
	Direction Direction
	Key       Key

	// Optional marks a port that may be left unconnected (spec §3
	// invariant 5: "every non-optional port is connected").
	Optional bool
	// AppDataQuery and AppDataResult are domain-specific annotation
	// marks carried alongside Optional (spec §3).
	AppDataQuery  bool
	AppDataResult bool

	attributes *attribute.Map

	unifier *SubOperator
	slider  *SubOperator
}

// New creates a port descriptor for the given operator/field pair.
func New(dir Direction, operatorName, fieldName string) *Descriptor {
	return &Descriptor{
		Direction:  dir,
		Key:        Key{OperatorName: operatorName, FieldName: fieldName},
		attributes: attribute.NewMap(),
	}
}

// Attributes returns the port's own attribute map. Port-level lookups do
// not chain to the owning operator's map (spec §4.A).
func (d *Descriptor) Attributes() *attribute.Map {
	return d.attributes
}

// IsOutput reports whether this descriptor is an output port.
func (d *Descriptor) IsOutput() bool {
	return d.Direction == Output
}

// Unifier lazily creates (once) and returns the unifier sub-operator for
// an output port. Returns nil for input ports.
func (d *Descriptor) Unifier() *SubOperator {
	if d.Direction != Output {
		return nil
	}
	if d.unifier == nil {
		d.unifier = &SubOperator{Name: d.Key.OperatorName + "#" + d.Key.FieldName + ".unifier", Kind: "unifier"}
	}
	return d.unifier
}

// Slider lazily creates (once) and returns the slider sub-operator for an
// output port. Returns nil for input ports.
func (d *Descriptor) Slider() *SubOperator {
	if d.Direction != Output {
		return nil
	}
	if d.slider == nil {
		d.slider = &SubOperator{Name: d.Key.OperatorName + "#" + d.Key.FieldName + ".slider", Kind: "slider"}
	}
	return d.slider
}
