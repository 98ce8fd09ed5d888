package validator

import (
	"fmt"
	"sort"

	"github.com/flowplan/logicalplan/attribute"
	"github.com/flowplan/logicalplan/metric"
	"github.com/flowplan/logicalplan/operator"
	"github.com/flowplan/logicalplan/stream"
)

// checkOperators runs pass 2 (spec §4.G pass 2): field-level
// constraints, partitioner/checkpoint annotation checks, and per-port
// connectivity, scheduling OIO validation where the data calls for it.
func checkOperators(p PlanView, operators []*operator.Meta, opByName map[string]*operator.Meta) []error {
	checker := p.ConstraintChecker()
	var errs []error

	for _, op := range operators {
		if violations := checker.Check(op.Name(), op.Instance()); len(violations) > 0 {
			errs = append(errs, &ConstraintError{OperatorName: op.Name(), Violations: violations})
		}

		ann := op.Annotations()
		if !ann.Partitionable {
			errs = append(errs, checkPartitioner(op)...)
		}
		if !ann.CheckpointableWithinAppWindow {
			if err := checkCheckpointWindow(op); err != nil {
				errs = append(errs, err)
			}
		}

		needsOIO := false
		for _, in := range op.InputPorts() {
			s, bound := op.InputStream(in.Key)
			if !bound {
				if !in.Optional {
					errs = append(errs, &UnconnectedPortError{OperatorName: op.Name(), PortName: in.Key.FieldName})
				}
				continue
			}
			if s.Locality == stream.ThreadLocal && len(op.InputPorts()) > 1 {
				needsOIO = true
			}
		}
		if needsOIO {
			if _, err := validateOIO(op, opByName); err != nil {
				errs = append(errs, err)
			}
		}

		for _, out := range op.OutputPorts() {
			if _, bound := op.OutputStream(out.Key); !bound && !out.Optional {
				errs = append(errs, &UnconnectedPortError{OperatorName: op.Name(), PortName: out.Key.FieldName, Output: true})
			}
		}
	}
	return errs
}

func checkPartitioner(op *operator.Meta) []error {
	var errs []error
	for _, in := range op.InputPorts() {
		if v, ok := attribute.Get(in.Attributes(), operator.ParallelPartitioned); ok && v {
			errs = append(errs, &PartitionerError{
				OperatorName: op.Name(),
				Reason:       fmt.Sprintf("non-partitionable operator has a parallel-partitioned input port %q", in.Key.FieldName),
			})
			break
		}
	}

	if _, explicit := attribute.GetScoped(op.Attributes(), operator.PartitionerAttr); explicit {
		errs = append(errs, &PartitionerError{
			OperatorName: op.Name(),
			Reason:       "non-partitionable operator has an explicit partitioner attribute",
		})
	} else if operator.IsPartitioner(op.Instance()) {
		errs = append(errs, &PartitionerError{
			OperatorName: op.Name(),
			Reason:       "non-partitionable operator's class implements the partitioner capability",
		})
	}
	return errs
}

func checkCheckpointWindow(op *operator.Meta) error {
	checkpointWindow, _ := attribute.GetScoped(op.Attributes(), operator.CheckpointWindowCount)
	appWindow, _ := attribute.GetScoped(op.Attributes(), operator.ApplicationWindowCount)
	if appWindow == 0 || checkpointWindow%appWindow != 0 {
		return &CheckpointWindowError{
			OperatorName: op.Name(),
			Reason:       fmt.Sprintf("checkpoint window %d is not a multiple of application window %d", checkpointWindow, appWindow),
		}
	}
	return nil
}

// detectCycles runs pass 3 (spec §4.G pass 3): Tarjan's strongly-
// connected-components algorithm starting from every unvisited operator.
func detectCycles(operators []*operator.Meta, opByName map[string]*operator.Meta) []error {
	index := 0
	var stack []*operator.Meta
	var errs []error

	for _, op := range operators {
		if !op.ScratchState().TarjanVisited {
			strongConnect(op, opByName, &index, &stack, &errs)
		}
	}
	return errs
}

func strongConnect(op *operator.Meta, opByName map[string]*operator.Meta, index *int, stack *[]*operator.Meta, errs *[]error) {
	sc := op.ScratchState()
	sc.TarjanIndex = *index
	sc.TarjanLowlink = *index
	*index++
	sc.TarjanVisited = true
	sc.OnStack = true
	*stack = append(*stack, op)

	for _, s := range op.OutputStreams() {
		for _, sinkKey := range s.Sinks {
			succ, ok := opByName[sinkKey.OperatorName]
			if !ok {
				continue
			}
			if succ == op {
				*errs = append(*errs, &CycleError{Operators: []string{op.Name()}})
				continue
			}
			succScratch := succ.ScratchState()
			if !succScratch.TarjanVisited {
				strongConnect(succ, opByName, index, stack, errs)
				if succScratch.TarjanLowlink < sc.TarjanLowlink {
					sc.TarjanLowlink = succScratch.TarjanLowlink
				}
			} else if succScratch.OnStack {
				if succScratch.TarjanIndex < sc.TarjanLowlink {
					sc.TarjanLowlink = succScratch.TarjanIndex
				}
			}
		}
	}

	if sc.TarjanLowlink != sc.TarjanIndex {
		return
	}

	var component []*operator.Meta
	for {
		n := len(*stack) - 1
		top := (*stack)[n]
		*stack = (*stack)[:n]
		top.ScratchState().OnStack = false
		component = append(component, top)
		if top == op {
			break
		}
	}
	if len(component) > 1 {
		names := make([]string, len(component))
		for i, c := range component {
			names[i] = c.Name()
		}
		sort.Strings(names)
		*errs = append(*errs, &CycleError{Operators: names})
	}
}

// checkDanglingStreams runs pass 4 (spec §4.G pass 4).
func checkDanglingStreams(streams []*stream.Meta) []error {
	var errs []error
	for _, s := range streams {
		if s.IsDangling() {
			errs = append(errs, &DisconnectedStreamError{StreamID: s.ID})
		}
	}
	return errs
}

// checkRootTyping runs pass 5 (spec §4.G pass 5).
func checkRootTyping(rootNames []string, opByName map[string]*operator.Meta) []error {
	var errs []error
	for _, name := range rootNames {
		op, ok := opByName[name]
		if !ok {
			continue
		}
		if !operator.IsInputOperator(op.Instance()) {
			errs = append(errs, &NonInputRootError{OperatorName: name})
		}
	}
	return errs
}

// propagateProcessingModes runs pass 6 (spec §4.G pass 6): a Kahn-style
// topological walk from the roots, visiting each operator only after
// every operator feeding it has been visited, applying the compatibility
// rules to every downstream edge along the way. Pass 3 having already
// ruled out cycles guarantees this terminates having visited every
// operator reachable from a root.
func propagateProcessingModes(rootNames []string, opByName map[string]*operator.Meta) []error {
	upstream := make(map[string]map[string]bool, len(opByName))
	downstream := make(map[string]map[string]bool, len(opByName))
	for name := range opByName {
		upstream[name] = make(map[string]bool)
		downstream[name] = make(map[string]bool)
	}
	for name, op := range opByName {
		for _, s := range op.InputStreams() {
			if s.Source != nil {
				upstream[name][s.Source.OperatorName] = true
			}
		}
		for _, s := range op.OutputStreams() {
			for _, sinkKey := range s.Sinks {
				downstream[name][sinkKey.OperatorName] = true
			}
		}
	}

	indegree := make(map[string]int, len(opByName))
	for name := range opByName {
		indegree[name] = len(upstream[name])
	}

	var errs []error
	queue := append([]string{}, rootNames...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		op := opByName[name]

		children := make([]string, 0, len(downstream[name]))
		for child := range downstream[name] {
			children = append(children, child)
		}
		sort.Strings(children)

		for _, childName := range children {
			child := opByName[childName]
			if err := applyProcessingModeRule(op, child); err != nil {
				errs = append(errs, err)
			}
			indegree[childName]--
			if indegree[childName] == 0 {
				queue = append(queue, childName)
			}
		}
	}
	return errs
}

func applyProcessingModeRule(upstreamOp, downstreamOp *operator.Meta) error {
	upMode, upSet := upstreamOp.ProcessingMode()
	downMode, downSet := downstreamOp.ProcessingMode()

	if !downSet {
		switch {
		case upSet && upMode == operator.AtMostOnce:
			downstreamOp.SetProcessingMode(operator.AtMostOnce)
		case upSet && upMode == operator.ExactlyOnce:
			return &ProcessingModeError{
				OperatorName: downstreamOp.Name(),
				Reason:       fmt.Sprintf("upstream %q is EXACTLY_ONCE but downstream has no declared mode", upstreamOp.Name()),
			}
		}
		return nil
	}

	if upSet && upMode == operator.AtMostOnce && downMode != operator.AtMostOnce {
		return &ProcessingModeError{
			OperatorName: downstreamOp.Name(),
			Reason:       fmt.Sprintf("upstream %q is AT_MOST_ONCE but downstream is %s", upstreamOp.Name(), downMode),
		}
	}
	if upSet && upMode == operator.ExactlyOnce && downMode != operator.AtMostOnce {
		return &ProcessingModeError{
			OperatorName: downstreamOp.Name(),
			Reason:       fmt.Sprintf("upstream %q is EXACTLY_ONCE but downstream is %s, expected AT_MOST_ONCE", upstreamOp.Name(), downMode),
		}
	}
	return nil
}

// inferMetricAggregator runs pass 7's per-operator work (spec §4.H).
func inferMetricAggregator(op *operator.Meta) {
	if _, explicit := attribute.GetScoped(op.Attributes(), operator.MetricsAggregatorOverride); explicit {
		return
	}
	dims, _ := attribute.GetScoped(op.Attributes(), operator.DimensionsScheme)
	if agg := metric.Infer(op.Instance(), dims); agg != nil {
		op.SetMetricAggregator(agg)
	}
}
