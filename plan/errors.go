package plan

import "fmt"

// DuplicateNameError reports an attempt to bind an already-used operator
// name or stream id to something else (spec §7: "Duplicate identifier").
// A duplicate port name is reported by AddOperator as the
// operator.DuplicatePortNameError returned from port discovery.
type DuplicateNameError struct {
	Kind string // "operator" or "stream"
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate %s name: %q", e.Kind, e.Name)
}

// IllegalWiringError reports a port already bound, an unknown port, or a
// self-conflicting wiring request (spec §7: "Illegal wiring").
type IllegalWiringError struct {
	Reason string
}

func (e *IllegalWiringError) Error() string {
	return "illegal wiring: " + e.Reason
}
