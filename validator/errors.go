package validator

import (
	"fmt"
	"strings"

	"github.com/flowplan/logicalplan/constraint"
)

// ConstraintError aggregates field-level constraint violations for one
// operator (spec §7: "Constraint violation").
type ConstraintError struct {
	OperatorName string
	Violations   []constraint.Violation
}

func (e *ConstraintError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("operator %q violates constraints: %s", e.OperatorName, strings.Join(parts, "; "))
}

// CycleError reports one strongly-connected component of size >= 2
// found by the Tarjan pass, or a self-loop reported as a singleton
// (spec §4.G pass 3, §8 property 6).
type CycleError struct {
	Operators []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected among operators: %s", strings.Join(e.Operators, ", "))
}

// UnconnectedPortError reports a required port with no bound stream
// (spec §4.G pass 2, §8 scenario S3: "Input port connection required:
// B.in1").
type UnconnectedPortError struct {
	OperatorName string
	PortName     string
	Output       bool
}

func (e *UnconnectedPortError) Error() string {
	kind := "Input"
	if e.Output {
		kind = "Output"
	}
	return fmt.Sprintf("%s port connection required: %s.%s", kind, e.OperatorName, e.PortName)
}

// OIOError reports a violation of the one-input-one-output consistency
// pass: a non-THREAD_LOCAL input feeding a thread-local fan-in, or input
// streams whose OIO roots diverge (spec §4.G.1, §8 scenario S5).
type OIOError struct {
	OperatorName string
	Reason       string
}

func (e *OIOError) Error() string {
	return fmt.Sprintf("operator %q: OIO violation: %s", e.OperatorName, e.Reason)
}

// ProcessingModeError reports an incompatible processing-mode pairing
// across a stream edge (spec §4.G pass 6, §8 scenario S4).
type ProcessingModeError struct {
	OperatorName string
	Reason       string
}

func (e *ProcessingModeError) Error() string {
	return fmt.Sprintf("operator %q: processing mode conflict: %s", e.OperatorName, e.Reason)
}

// PartitionerError reports that a non-partitionable operator carries a
// partitioner attribute or capability anyway (spec §4.G pass 2).
type PartitionerError struct {
	OperatorName string
	Reason       string
}

func (e *PartitionerError) Error() string {
	return fmt.Sprintf("operator %q: partitioner conflict: %s", e.OperatorName, e.Reason)
}

// CheckpointWindowError reports a checkpoint/application window ratio
// violation on a non-app-window-checkpointable operator (spec §4.G
// pass 2).
type CheckpointWindowError struct {
	OperatorName string
	Reason       string
}

func (e *CheckpointWindowError) Error() string {
	return fmt.Sprintf("operator %q: checkpoint window mismatch: %s", e.OperatorName, e.Reason)
}

// DisconnectedStreamError reports a stream with no source or no sinks
// (spec §4.G pass 4).
type DisconnectedStreamError struct {
	StreamID string
}

func (e *DisconnectedStreamError) Error() string {
	return fmt.Sprintf("stream %q is disconnected", e.StreamID)
}

// NonInputRootError reports a root operator that doesn't implement the
// input-operator capability (spec §4.G pass 5).
type NonInputRootError struct {
	OperatorName string
}

func (e *NonInputRootError) Error() string {
	return fmt.Sprintf("root operator %q does not implement the input-operator capability", e.OperatorName)
}

// ValidationError aggregates every error raised by a single Validate
// call (spec §7: "Validation failure"). Validate stops at the first
// failing pass, so in practice this wraps the errors from exactly one
// pass, but callers should not rely on that.
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("validation failed (%d error(s)): %s", len(e.Errors), strings.Join(parts, "; "))
}

// Unwrap supports errors.Is/errors.As traversal into the aggregated
// errors.
func (e *ValidationError) Unwrap() []error { return e.Errors }
