// Package plan implements the plan container (spec §3, §4.B/4.C): the
// owner of every operator and stream in a build, the incrementally
// maintained root set, and the plan-level attribute map operators fall
// back to.
//
// A Plan is not safe for concurrent use. Construction and validation are
// both single-threaded (spec §5); callers needing concurrent read access
// after a plan is frozen must synchronize externally.
package plan

import (
	"github.com/flowplan/logicalplan/attribute"
	"github.com/flowplan/logicalplan/constraint"
	"github.com/flowplan/logicalplan/ids"
	"github.com/flowplan/logicalplan/invariant"
	"github.com/flowplan/logicalplan/operator"
	"github.com/flowplan/logicalplan/port"
	"github.com/flowplan/logicalplan/stream"
)

// Plan owns every operator and stream metadata object for one build
// (spec §3 "Plan").
type Plan struct {
	operators     map[string]*operator.Meta
	operatorOrder []string

	streams     map[string]*stream.Meta
	streamOrder []string

	// roots is the incrementally maintained root set: an operator enters
	// on creation and leaves the first time it becomes a sink (spec §3).
	roots map[string]struct{}

	attributes *attribute.Map
	checker    constraint.Checker
	opSeq      *ids.OperatorSequencer
}

// operatorIDs is the process-global operator id sequencer shared by every
// plan, so no two operators in one process receive the same id.
var operatorIDs = ids.NewOperatorSequencer()

// New creates an empty plan. A nil checker defaults to
// constraint.NopChecker{}.
func New(checker constraint.Checker) *Plan {
	if checker == nil {
		checker = constraint.NopChecker{}
	}
	return &Plan{
		operators:  make(map[string]*operator.Meta),
		streams:    make(map[string]*stream.Meta),
		roots:      make(map[string]struct{}),
		attributes: attribute.NewMap(),
		checker:    checker,
		opSeq:      operatorIDs,
	}
}

// Attributes returns the plan-level attribute map that every operator's
// scoped map falls back to.
func (p *Plan) Attributes() *attribute.Map { return p.attributes }

// ConstraintChecker returns the plan's injected field-level constraint
// checker, satisfying validator.PlanView.
func (p *Plan) ConstraintChecker() constraint.Checker { return p.checker }

// AddOperator registers instance under name with annotations describing
// its class-level capabilities (spec §4.B: "inserts; fails if name is
// already bound to a different operator instance"). Re-adding the same
// instance under its own name is a no-op that returns the existing
// metadata.
func (p *Plan) AddOperator(name string, instance any, annotations operator.ClassAnnotations) (*operator.Meta, error) {
	invariant.Precondition(name != "", "operator name must not be empty")
	invariant.NotNil(instance, "instance")

	if existing, ok := p.operators[name]; ok {
		if existing.Instance() == instance {
			return existing, nil
		}
		return nil, &DuplicateNameError{Kind: "operator", Name: name}
	}

	id := p.opSeq.Next()
	meta, err := operator.New(name, id, instance, p.attributes, annotations)
	if err != nil {
		return nil, err
	}

	p.operators[name] = meta
	p.operatorOrder = append(p.operatorOrder, name)
	p.roots[name] = struct{}{}
	return meta, nil
}

// addOperatorWithID registers instance under name with the given
// operator id instead of drawing one from the plan's sequencer, used
// only when rehydrating a plan from its serialized form so that
// OperatorMeta.Equal (spec §9) holds across a round trip. Callers must
// reseed the sequencer past every id used this way.
func (p *Plan) addOperatorWithID(name string, instance any, annotations operator.ClassAnnotations, id int64) (*operator.Meta, error) {
	invariant.Precondition(name != "", "operator name must not be empty")
	invariant.NotNil(instance, "instance")

	if _, ok := p.operators[name]; ok {
		return nil, &DuplicateNameError{Kind: "operator", Name: name}
	}

	meta, err := operator.New(name, id, instance, p.attributes, annotations)
	if err != nil {
		return nil, err
	}

	p.operators[name] = meta
	p.operatorOrder = append(p.operatorOrder, name)
	p.roots[name] = struct{}{}
	return meta, nil
}

// Operator looks up an operator's metadata by name.
func (p *Plan) Operator(name string) (*operator.Meta, bool) {
	m, ok := p.operators[name]
	return m, ok
}

// Operators returns every operator's metadata in insertion order,
// satisfying validator.PlanView (spec §3: "maps maintain insertion
// order so two builds with the same API calls serialize identically").
func (p *Plan) Operators() []*operator.Meta {
	out := make([]*operator.Meta, len(p.operatorOrder))
	for i, name := range p.operatorOrder {
		out[i] = p.operators[name]
	}
	return out
}

// RootNames returns the current root set (operators with no inbound
// stream) in insertion order (spec §8 property 1).
func (p *Plan) RootNames() []string {
	out := make([]string, 0, len(p.roots))
	for _, name := range p.operatorOrder {
		if _, ok := p.roots[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// AddStream creates an empty stream with the given id (spec §4.B:
// "fails on duplicate id").
func (p *Plan) AddStream(id string) (*stream.Meta, error) {
	invariant.Precondition(id != "", "stream id must not be empty")
	if _, ok := p.streams[id]; ok {
		return nil, &DuplicateNameError{Kind: "stream", Name: id}
	}
	s := stream.New(id)
	p.streams[id] = s
	p.streamOrder = append(p.streamOrder, id)
	return s, nil
}

// Stream looks up a stream's metadata by id.
func (p *Plan) Stream(id string) (*stream.Meta, bool) {
	s, ok := p.streams[id]
	return s, ok
}

// Streams returns every stream's metadata in insertion order, satisfying
// validator.PlanView.
func (p *Plan) Streams() []*stream.Meta {
	out := make([]*stream.Meta, len(p.streamOrder))
	for i, id := range p.streamOrder {
		out[i] = p.streams[id]
	}
	return out
}

// SetSource binds s's source to the output port key (spec §4.B: "fails
// if the owning operator already has a stream on that output port").
func (p *Plan) SetSource(s *stream.Meta, key port.Key) error {
	invariant.NotNil(s, "s")

	opMeta, ok := p.operators[key.OperatorName]
	if !ok {
		return &IllegalWiringError{Reason: "unknown operator " + key.OperatorName}
	}
	if _, ok := opMeta.OutputPort(key.FieldName); !ok {
		return &IllegalWiringError{Reason: "unknown output port " + key.OperatorName + "." + key.FieldName}
	}
	if _, ok := opMeta.OutputStream(key); ok {
		return &IllegalWiringError{Reason: "output port " + key.OperatorName + "." + key.FieldName + " already has a source stream"}
	}

	s.Source = &key
	opMeta.BindOutputStream(key, s)
	return nil
}

// AddSink binds an additional sink input port to s (spec §4.B: "fails
// if the sink input port is already bound in any stream. Removes the
// sink's operator from the root set.").
func (p *Plan) AddSink(s *stream.Meta, key port.Key) error {
	invariant.NotNil(s, "s")

	opMeta, ok := p.operators[key.OperatorName]
	if !ok {
		return &IllegalWiringError{Reason: "unknown operator " + key.OperatorName}
	}
	if _, ok := opMeta.InputPort(key.FieldName); !ok {
		return &IllegalWiringError{Reason: "unknown input port " + key.OperatorName + "." + key.FieldName}
	}
	if _, ok := opMeta.InputStream(key); ok {
		return &IllegalWiringError{Reason: "input port " + key.OperatorName + "." + key.FieldName + " is already bound"}
	}

	s.Sinks = append(s.Sinks, key)
	opMeta.BindInputStream(key, s)
	delete(p.roots, key.OperatorName)
	return nil
}

// RemoveStream detaches every sink (re-promoting newly isolated
// operators to root), clears the source, and unregisters s from the
// plan (spec §4.B: "stream.remove()").
func (p *Plan) RemoveStream(s *stream.Meta) {
	invariant.NotNil(s, "s")

	for _, sinkKey := range s.Sinks {
		opMeta, ok := p.operators[sinkKey.OperatorName]
		if !ok {
			continue
		}
		opMeta.UnbindInputStream(sinkKey)
		if !opMeta.HasInboundStream() {
			p.roots[sinkKey.OperatorName] = struct{}{}
		}
	}
	s.Sinks = nil

	if s.Source != nil {
		if opMeta, ok := p.operators[s.Source.OperatorName]; ok {
			opMeta.UnbindOutputStream(*s.Source)
		}
		s.Source = nil
	}

	delete(p.streams, s.ID)
	for i, id := range p.streamOrder {
		if id == s.ID {
			p.streamOrder = append(p.streamOrder[:i], p.streamOrder[i+1:]...)
			break
		}
	}
}

// RemoveOperator unbinds every input-port sink the operator owns from
// the streams they were attached to, removes every stream the operator
// sourced in its entirety (spec §9 resolved Open Question: orphaned-
// source streams are removed, not left dangling), and removes the
// operator from the plan. Removing an unknown name is a no-op.
func (p *Plan) RemoveOperator(name string) {
	opMeta, ok := p.operators[name]
	if !ok {
		return
	}

	for _, s := range opMeta.InputStreams() {
		s.Sinks = removeKey(s.Sinks, port.Key{OperatorName: name})
	}

	for _, s := range opMeta.OutputStreams() {
		p.RemoveStream(s)
	}

	delete(p.operators, name)
	delete(p.roots, name)
	for i, n := range p.operatorOrder {
		if n == name {
			p.operatorOrder = append(p.operatorOrder[:i], p.operatorOrder[i+1:]...)
			break
		}
	}
}

func removeKey(keys []port.Key, owner port.Key) []port.Key {
	out := keys[:0]
	for _, k := range keys {
		if k.OperatorName != owner.OperatorName {
			out = append(out, k)
		}
	}
	return out
}
