package validator

import (
	"fmt"

	"github.com/flowplan/logicalplan/operator"
	"github.com/flowplan/logicalplan/stream"
)

// getOioRoot memoizes the OIO root of op (spec §4.G.1 "getOioRoot(op)").
// 0 inputs: op is its own root. 1 input: the root is op itself unless
// that input is THREAD_LOCAL, in which case it's the source's root.
// >1 inputs: delegate to validateOIO, which performs the full
// consistency check and returns the common root.
func getOioRoot(op *operator.Meta, opByName map[string]*operator.Meta) (*operator.Meta, error) {
	sc := op.ScratchState()
	if sc.OioRootResolved {
		return sc.OioRoot, nil
	}

	ins := op.InputStreams()
	switch len(ins) {
	case 0:
		sc.OioRoot, sc.OioRootResolved = op, true
		return op, nil
	case 1:
		s := ins[0]
		if s.Locality != stream.ThreadLocal {
			sc.OioRoot, sc.OioRootResolved = op, true
			return op, nil
		}
		if s.Source == nil {
			return nil, &DisconnectedStreamError{StreamID: s.ID}
		}
		srcOp, ok := opByName[s.Source.OperatorName]
		if !ok {
			return nil, &OIOError{OperatorName: op.Name(), Reason: fmt.Sprintf("stream %q has no resolvable source operator", s.ID)}
		}
		root, err := getOioRoot(srcOp, opByName)
		if err != nil {
			return nil, err
		}
		sc.OioRoot, sc.OioRootResolved = root, true
		return root, nil
	default:
		return validateOIO(op, opByName)
	}
}

// validateOIO is the multi-input OIO consistency pass (spec §4.G.1):
// every input stream must be THREAD_LOCAL, and every input stream's
// source must trace to the same OIO root.
func validateOIO(om *operator.Meta, opByName map[string]*operator.Meta) (*operator.Meta, error) {
	sc := om.ScratchState()
	if sc.OioRootResolved {
		return sc.OioRoot, nil
	}

	var commonRoot *operator.Meta
	for _, s := range om.InputStreams() {
		if s.Locality != stream.ThreadLocal {
			return nil, &OIOError{OperatorName: om.Name(), Reason: fmt.Sprintf("input stream %q is not THREAD_LOCAL", s.ID)}
		}
		if s.Source == nil {
			return nil, &DisconnectedStreamError{StreamID: s.ID}
		}
		srcOp, ok := opByName[s.Source.OperatorName]
		if !ok {
			return nil, &OIOError{OperatorName: om.Name(), Reason: fmt.Sprintf("stream %q has no resolvable source operator", s.ID)}
		}
		root, err := getOioRoot(srcOp, opByName)
		if err != nil {
			return nil, err
		}
		if commonRoot == nil {
			commonRoot = root
		} else if commonRoot != root {
			return nil, &OIOError{OperatorName: om.Name(), Reason: fmt.Sprintf("input streams trace to distinct OIO roots %q and %q", commonRoot.Name(), root.Name())}
		}
	}

	sc.OioRoot, sc.OioRootResolved = commonRoot, true
	return commonRoot, nil
}
