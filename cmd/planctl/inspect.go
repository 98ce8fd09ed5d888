package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowplan/logicalplan/metric"
)

func formatAggregator(agg *metric.Aggregator) string {
	if agg == nil {
		return "none"
	}
	names := make([]string, len(agg.Fields))
	for i, f := range agg.Fields {
		names[i] = fmt.Sprintf("%s(%s)", f.Name, f.Kind)
	}
	return strings.Join(names, ",")
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print a serialized plan's operators, streams, and inferred metric aggregators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, sum, err := loadPlanFile(args[0])
			if err != nil {
				return err
			}

			// Metric aggregator inference is pass 7 of Validate; run it so
			// inspect reflects inferred, not just explicit, aggregators.
			if err := p.Validate(); err != nil {
				fmt.Printf("warning: plan does not validate cleanly: %v\n", err)
			}

			fmt.Printf("digest: %x\n", sum)
			fmt.Printf("operators (%d):\n", len(p.Operators()))
			for _, op := range p.Operators() {
				fmt.Printf("  %-12s id=%-6d inputs=%-2d outputs=%-2d aggregator=%s\n",
					op.Name(), op.ID(), len(op.InputPorts()), len(op.OutputPorts()), formatAggregator(op.MetricAggregator()))
			}

			fmt.Printf("streams (%d):\n", len(p.Streams()))
			for _, s := range p.Streams() {
				source := "<unbound>"
				if s.Source != nil {
					source = s.Source.OperatorName + "." + s.Source.FieldName
				}
				fmt.Printf("  %-8s source=%-20s sinks=%d\n", s.ID, source, len(s.Sinks))
			}
			return nil
		},
	}
}
