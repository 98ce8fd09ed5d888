// Package operator implements operator metadata (spec §3, §4.D): the
// plan-owned wrapper around a user-supplied operator instance, its ports,
// its adjacency to streams, and its attributes.
package operator

import (
	"fmt"

	"github.com/flowplan/logicalplan/attribute"
	"github.com/flowplan/logicalplan/metric"
	"github.com/flowplan/logicalplan/port"
	"github.com/flowplan/logicalplan/stream"
)

// ClassAnnotations are class-level annotation flags an operator author
// sets once, at construction, rather than per-instance (spec §3:
// "class-level annotation flags").
type ClassAnnotations struct {
	Partitionable                 bool
	CheckpointableWithinAppWindow bool
}

// DefaultClassAnnotations are the annotations assumed when an operator
// author doesn't opt out of anything.
func DefaultClassAnnotations() ClassAnnotations {
	return ClassAnnotations{Partitionable: true, CheckpointableWithinAppWindow: true}
}

// Scratch holds the validator's transient, per-operator working state
// (spec §3: "transient validator scratch"; §9 Design Notes: two
// dedicated fields for the OIO root instead of one overloaded pointer).
// It is reset at the start of every Validate call.
type Scratch struct {
	TarjanVisited bool
	TarjanIndex   int
	TarjanLowlink int
	OnStack       bool

	OioRootResolved bool
	OioRoot         *Meta
}

// Meta is the plan-owned metadata for one operator (spec §3, §4.D).
type Meta struct {
	name     string
	id       int64
	instance any

	annotations ClassAnnotations

	inputPorts  []*port.Descriptor
	outputPorts []*port.Descriptor
	inputIndex  map[string]*port.Descriptor
	outputIndex map[string]*port.Descriptor

	inputStreamOrder  []port.Key
	inputStreams      map[port.Key]*stream.Meta
	outputStreamOrder []port.Key
	outputStreams     map[port.Key]*stream.Meta

	attributes *attribute.ScopedMap

	scratch Scratch

	mode    ProcessingMode
	hasMode bool

	metricAggregator *metric.Aggregator
}

// New creates operator metadata for instance, discovering its ports via
// an explicit PortDeclarer if present or, failing that, by scanning its
// In/Out fields (spec §4.F).
func New(name string, id int64, instance any, planAttrs *attribute.Map, annotations ClassAnnotations) (*Meta, error) {
	inputs, outputs, err := discoverPorts(name, instance)
	if err != nil {
		return nil, err
	}

	m := &Meta{
		name:          name,
		id:            id,
		instance:      instance,
		annotations:   annotations,
		inputPorts:    inputs,
		outputPorts:   outputs,
		inputIndex:    make(map[string]*port.Descriptor, len(inputs)),
		outputIndex:   make(map[string]*port.Descriptor, len(outputs)),
		inputStreams:  make(map[port.Key]*stream.Meta),
		outputStreams: make(map[port.Key]*stream.Meta),
		attributes:    attribute.NewScoped(planAttrs),
	}
	for _, d := range inputs {
		m.inputIndex[d.Key.FieldName] = d
	}
	for _, d := range outputs {
		m.outputIndex[d.Key.FieldName] = d
	}
	return m, nil
}

func (m *Meta) Name() string                  { return m.name }
func (m *Meta) ID() int64                     { return m.id }
func (m *Meta) Instance() any                 { return m.instance }
func (m *Meta) Annotations() ClassAnnotations { return m.annotations }

// Attributes returns the operator's scoped attribute map, which falls
// back to the plan-level map before returning a key's default.
func (m *Meta) Attributes() *attribute.ScopedMap { return m.attributes }

func (m *Meta) InputPorts() []*port.Descriptor  { return m.inputPorts }
func (m *Meta) OutputPorts() []*port.Descriptor { return m.outputPorts }

// InputPort looks up a declared input port by field name.
func (m *Meta) InputPort(field string) (*port.Descriptor, bool) {
	d, ok := m.inputIndex[field]
	return d, ok
}

// OutputPort looks up a declared output port by field name.
func (m *Meta) OutputPort(field string) (*port.Descriptor, bool) {
	d, ok := m.outputIndex[field]
	return d, ok
}

// InputStream returns the stream bound to the given input port, if any.
func (m *Meta) InputStream(key port.Key) (*stream.Meta, bool) {
	s, ok := m.inputStreams[key]
	return s, ok
}

// OutputStream returns the stream bound to the given output port, if any.
func (m *Meta) OutputStream(key port.Key) (*stream.Meta, bool) {
	s, ok := m.outputStreams[key]
	return s, ok
}

// InputStreams returns every input stream in insertion order.
func (m *Meta) InputStreams() []*stream.Meta {
	out := make([]*stream.Meta, 0, len(m.inputStreamOrder))
	for _, k := range m.inputStreamOrder {
		out = append(out, m.inputStreams[k])
	}
	return out
}

// OutputStreams returns every output stream in insertion order.
func (m *Meta) OutputStreams() []*stream.Meta {
	out := make([]*stream.Meta, 0, len(m.outputStreamOrder))
	for _, k := range m.outputStreamOrder {
		out = append(out, m.outputStreams[k])
	}
	return out
}

// BindInputStream records that s is now attached to the given input
// port. Plan-level checks (duplicate binding, root-set updates) are the
// caller's responsibility.
func (m *Meta) BindInputStream(key port.Key, s *stream.Meta) {
	if _, exists := m.inputStreams[key]; !exists {
		m.inputStreamOrder = append(m.inputStreamOrder, key)
	}
	m.inputStreams[key] = s
}

// UnbindInputStream removes the binding for an input port, if any.
func (m *Meta) UnbindInputStream(key port.Key) {
	if _, ok := m.inputStreams[key]; !ok {
		return
	}
	delete(m.inputStreams, key)
	for i, k := range m.inputStreamOrder {
		if k == key {
			m.inputStreamOrder = append(m.inputStreamOrder[:i], m.inputStreamOrder[i+1:]...)
			break
		}
	}
}

// BindOutputStream records that s is now attached to the given output
// port.
func (m *Meta) BindOutputStream(key port.Key, s *stream.Meta) {
	if _, exists := m.outputStreams[key]; !exists {
		m.outputStreamOrder = append(m.outputStreamOrder, key)
	}
	m.outputStreams[key] = s
}

// UnbindOutputStream removes the binding for an output port, if any.
func (m *Meta) UnbindOutputStream(key port.Key) {
	if _, ok := m.outputStreams[key]; !ok {
		return
	}
	delete(m.outputStreams, key)
	for i, k := range m.outputStreamOrder {
		if k == key {
			m.outputStreamOrder = append(m.outputStreamOrder[:i], m.outputStreamOrder[i+1:]...)
			break
		}
	}
}

// HasInboundStream reports whether any input port is bound, which is
// exactly the plan's root-set membership test (spec §3: "Root set:
// operators with no incoming stream").
func (m *Meta) HasInboundStream() bool {
	return len(m.inputStreams) > 0
}

// ResetScratch clears validator scratch state (spec §4.G pass 1).
func (m *Meta) ResetScratch() {
	m.scratch = Scratch{}
}

// ScratchState returns the operator's mutable validator scratch state.
func (m *Meta) ScratchState() *Scratch { return &m.scratch }

// ProcessingMode returns the operator's current processing mode and
// whether one has been set (declared or propagated).
func (m *Meta) ProcessingMode() (ProcessingMode, bool) { return m.mode, m.hasMode }

// SetProcessingMode assigns the operator's processing mode, declared up
// front by the operator author or propagated by the validator.
func (m *Meta) SetProcessingMode(mode ProcessingMode) {
	m.mode = mode
	m.hasMode = true
}

// MetricAggregator returns the operator's inferred or explicit metric
// aggregator metadata, if any.
func (m *Meta) MetricAggregator() *metric.Aggregator { return m.metricAggregator }

// SetMetricAggregator is called by the metric inference pass (spec
// §4.H).
func (m *Meta) SetMetricAggregator(agg *metric.Aggregator) { m.metricAggregator = agg }

// Equal implements the spec's resolved Open Question on OperatorMeta
// equality: equality (unlike identity-keyed map/set usage, which must
// use Name()+ID() only) includes the attribute map, matching the
// source's `equals` behavior (spec §9).
func (m *Meta) Equal(other *Meta) bool {
	if m == other {
		return true
	}
	if other == nil || m.name != other.name || m.id != other.id {
		return false
	}
	return m.attributes.Own.EqualValues(other.attributes.Own)
}

func (m *Meta) String() string {
	return fmt.Sprintf("operator(name=%s, id=%d)", m.name, m.id)
}
