// Package stream implements stream metadata (spec §3, §4.B/4.C): a
// directed multi-sink edge from one output port to an ordered list of
// input ports.
package stream

import "github.com/flowplan/logicalplan/port"

// Locality is a placement hint constraining how the physical planner
// co-locates stream endpoints.
type Locality int

const (
	Unspecified Locality = iota
	NodeLocal
	ContainerLocal
	ThreadLocal
	RackLocal
)

func (l Locality) String() string {
	switch l {
	case NodeLocal:
		return "NODE_LOCAL"
	case ContainerLocal:
		return "CONTAINER_LOCAL"
	case ThreadLocal:
		return "THREAD_LOCAL"
	case RackLocal:
		return "RACK_LOCAL"
	default:
		return "UNSPECIFIED"
	}
}

// Meta is a stream's plan-level metadata. Mutation that affects plan-wide
// bookkeeping (root-set membership, port binding) is owned by the plan
// package; Meta itself only carries the data spec §3 describes.
type Meta struct {
	ID       string
	Source   *port.Key
	Sinks    []port.Key
	Locality Locality
}

// New creates an empty stream with no source and no sinks.
func New(id string) *Meta {
	return &Meta{ID: id}
}

// HasSource reports whether a source output port has been bound.
func (m *Meta) HasSource() bool {
	return m.Source != nil
}

// HasSink reports whether sink is already among this stream's sinks.
func (m *Meta) HasSink(sink port.Key) bool {
	for _, s := range m.Sinks {
		if s == sink {
			return true
		}
	}
	return false
}

// IsDangling reports whether the stream has no source or no sinks (spec
// §4.G pass 4).
func (m *Meta) IsDangling() bool {
	return !m.HasSource() || len(m.Sinks) == 0
}
