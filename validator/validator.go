// Package validator implements the plan validator (spec §4.G): cycle
// detection, one-input-one-output consistency, processing-mode
// propagation, field-level constraint checks, and the trigger for
// metric-aggregator inference. Validate accepts a PlanView rather than
// importing the plan package directly so the dependency only flows one
// way (spec §9 Design Notes style: accept capabilities, don't import
// concrete owners).
package validator

import (
	"github.com/flowplan/logicalplan/constraint"
	"github.com/flowplan/logicalplan/operator"
	"github.com/flowplan/logicalplan/stream"
)

// PlanView is the read access Validate needs into a plan. plan.Plan
// satisfies this structurally.
type PlanView interface {
	Operators() []*operator.Meta
	RootNames() []string
	Streams() []*stream.Meta
	ConstraintChecker() constraint.Checker
}

// Validate runs every pass from spec §4.G in order, stopping at the
// first failing pass (each pass's errors are aggregated into one
// plan.ValidationError-shaped error for that pass).
func Validate(p PlanView) error {
	operators := p.Operators()
	opByName := make(map[string]*operator.Meta, len(operators))
	for _, op := range operators {
		opByName[op.Name()] = op
	}

	// Pass 1: reset scratch.
	for _, op := range operators {
		op.ResetScratch()
	}

	// Pass 2: per-operator checks.
	if errs := checkOperators(p, operators, opByName); len(errs) > 0 {
		return aggregate(errs)
	}

	// Pass 3: cycle detection.
	if errs := detectCycles(operators, opByName); len(errs) > 0 {
		return aggregate(errs)
	}

	// Pass 4: dangling streams.
	if errs := checkDanglingStreams(p.Streams()); len(errs) > 0 {
		return aggregate(errs)
	}

	// Pass 5: root operator typing.
	if errs := checkRootTyping(p.RootNames(), opByName); len(errs) > 0 {
		return aggregate(errs)
	}

	// Pass 6: processing-mode propagation.
	if errs := propagateProcessingModes(p.RootNames(), opByName); len(errs) > 0 {
		return aggregate(errs)
	}

	// Pass 7: metric-aggregator inference, invoked here so a validated
	// plan is self-describing (spec §4.G pass 7).
	for _, op := range operators {
		inferMetricAggregator(op)
	}

	return nil
}

func aggregate(errs []error) error {
	return &ValidationError{Errors: errs}
}
