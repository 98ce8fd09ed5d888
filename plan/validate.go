package plan

import "github.com/flowplan/logicalplan/validator"

// Validate runs the full validator pass pipeline (spec §4.G) against p.
// Plan implements validator.PlanView structurally.
func (p *Plan) Validate() error {
	return validator.Validate(p)
}

// Error types produced by Validate live in the validator package, which
// cannot import plan without a cycle (plan already depends on
// validator); these aliases keep every validation error reachable as
// plan.<Name>, matching how callers reach the builder-time errors above.
type (
	ValidationError         = validator.ValidationError
	CycleError              = validator.CycleError
	UnconnectedPortError    = validator.UnconnectedPortError
	OIOError                = validator.OIOError
	ProcessingModeError     = validator.ProcessingModeError
	PartitionerError        = validator.PartitionerError
	CheckpointWindowError   = validator.CheckpointWindowError
	ConstraintError         = validator.ConstraintError
	DisconnectedStreamError = validator.DisconnectedStreamError
	NonInputRootError       = validator.NonInputRootError
)
