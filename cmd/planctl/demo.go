package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowplan/logicalplan/operator"
	"github.com/flowplan/logicalplan/plan"
	"github.com/flowplan/logicalplan/planfmt"
	"github.com/flowplan/logicalplan/port"
)

func newDemoCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Build a small A -> B -> C plan, validate it, and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildDemoPlan()
			if err != nil {
				return fmt.Errorf("build demo plan: %w", err)
			}

			slog.Debug("built demo plan", "operators", len(p.Operators()), "streams", len(p.Streams()))

			if err := p.Validate(); err != nil {
				return fmt.Errorf("validate demo plan: %w", err)
			}

			printSummary(p)

			if out != "" {
				if err := writeDemoPlan(p, out); err != nil {
					return fmt.Errorf("write demo plan: %w", err)
				}
				fmt.Printf("wrote %s (instance store at %s)\n", out, out+".store")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "also serialize the plan to this file, for validate/inspect to read")
	return cmd
}

func writeDemoPlan(p *plan.Plan, path string) error {
	storage, err := planfmt.NewFileStorageAgent(path + ".store")
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = p.WriteTo(f, storage)
	return err
}

func buildDemoPlan() (*plan.Plan, error) {
	p := plan.New(nil)

	a, err := p.AddOperator("A", &demoSource{}, operator.DefaultClassAnnotations())
	if err != nil {
		return nil, err
	}
	a.SetProcessingMode(operator.AtMostOnce)

	if _, err := p.AddOperator("B", &demoPass{}, operator.DefaultClassAnnotations()); err != nil {
		return nil, err
	}
	if _, err := p.AddOperator("C", &demoSink{}, operator.DefaultClassAnnotations()); err != nil {
		return nil, err
	}

	ab, err := p.AddStream("ab")
	if err != nil {
		return nil, err
	}
	if err := p.SetSource(ab, port.Key{OperatorName: "A", FieldName: "Records"}); err != nil {
		return nil, err
	}
	if err := p.AddSink(ab, port.Key{OperatorName: "B", FieldName: "In"}); err != nil {
		return nil, err
	}

	bc, err := p.AddStream("bc")
	if err != nil {
		return nil, err
	}
	if err := p.SetSource(bc, port.Key{OperatorName: "B", FieldName: "Out"}); err != nil {
		return nil, err
	}
	if err := p.AddSink(bc, port.Key{OperatorName: "C", FieldName: "In"}); err != nil {
		return nil, err
	}

	return p, nil
}

func printSummary(p *plan.Plan) {
	fmt.Printf("plan: %d operators, %d streams, %d root(s)\n", len(p.Operators()), len(p.Streams()), len(p.RootNames()))
	for _, op := range p.Operators() {
		mode, hasMode := op.ProcessingMode()
		modeStr := "unset"
		if hasMode {
			modeStr = mode.String()
		}
		fmt.Printf("  operator %-12s id=%-6d mode=%s\n", op.Name(), op.ID(), modeStr)
	}
	for _, s := range p.Streams() {
		fmt.Printf("  stream %-8s sinks=%d locality=%s\n", s.ID, len(s.Sinks), s.Locality)
	}
}
