package planfmt

import (
	"github.com/flowplan/logicalplan/attribute"
	"github.com/flowplan/logicalplan/operator"
	"github.com/flowplan/logicalplan/port"
	"github.com/flowplan/logicalplan/stream"
)

// Source is the read access Write needs into a plan. plan.Plan satisfies
// this structurally; planfmt never imports plan to avoid a cycle (plan
// imports planfmt to expose Plan.WriteTo/a rehydrating Load), the same
// accept-an-interface pattern validator.PlanView uses.
type Source interface {
	Operators() []*operator.Meta
	Streams() []*stream.Meta
	Attributes() *attribute.Map
}

// Doc is the decoded structural content of a serialized plan: every
// operator's metadata (minus its instance, which lives with the
// StorageAgent), every stream, and the plan-level attributes. A caller
// rebuilds a live plan from a Doc by calling Plan.AddOperator/AddStream/
// SetSource/AddSink for each record, after retrieving each operator's
// instance from the same StorageAgent Write used.
type Doc struct {
	Attributes AttrSet
	Operators  []OperatorRecord
	Streams    []StreamRecord
}

// AttrSet is an ordered set of name-keyed attribute values, each framed
// individually as CBOR (spec §4.K: "a third party can, in principle,
// decode a plan's attributes without this module's Go types as long as
// it knows the token -> type mapping").
type AttrSet []AttrEntry

// AttrEntry is one CBOR-framed attribute value, named by its stable
// attribute.Key token rather than by Go type.
type AttrEntry struct {
	Name string
	CBOR []byte
}

// PortRecord is the wire form of a port.Descriptor, minus its owning
// operator name (implied by the enclosing OperatorRecord).
type PortRecord struct {
	FieldName     string
	Optional      bool
	AppDataQuery  bool
	AppDataResult bool
	StreamID      string // empty if unbound
	Attributes    AttrSet
}

// OperatorRecord is the wire form of an operator.Meta. Instance is never
// embedded: Write hands it to the injected StorageAgent keyed by Name,
// and Read leaves retrieval to the caller for the same reason (spec §6).
type OperatorRecord struct {
	Name                          string
	ID                            int64
	Partitionable                 bool
	CheckpointableWithinAppWindow bool
	InputPorts                    []PortRecord
	OutputPorts                   []PortRecord
	Attributes                    AttrSet // the operator's own (non-chained) map
	HasMode                       bool
	Mode                          operator.ProcessingMode
}

// StreamRecord is the wire form of a stream.Meta.
type StreamRecord struct {
	ID       string
	Locality stream.Locality
	Source   *port.Key // nil if unbound
	Sinks    []port.Key
}
