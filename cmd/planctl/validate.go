package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowplan/logicalplan/plan"
	"github.com/flowplan/logicalplan/planfmt"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Load a serialized plan and report validation errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := loadPlanFile(args[0])
			if err != nil {
				return err
			}

			if err := p.Validate(); err != nil {
				var verr *plan.ValidationError
				if errors.As(err, &verr) {
					fmt.Printf("invalid: %d error(s)\n", len(verr.Errors))
					for _, e := range verr.Errors {
						fmt.Printf("  - %s\n", e)
					}
					os.Exit(1)
				}
				return err
			}

			fmt.Println("valid")
			return nil
		},
	}
}

// loadPlanFile reads a serialized plan from path using a FileStorageAgent
// rooted alongside it, so operator instances retrieved at load time come
// from the same store a prior `demo`/write populated.
func loadPlanFile(path string) (*plan.Plan, [32]byte, error) {
	var zero [32]byte

	f, err := os.Open(path)
	if err != nil {
		return nil, zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	storage, err := planfmt.NewFileStorageAgent(path + ".store")
	if err != nil {
		return nil, zero, fmt.Errorf("open instance store: %w", err)
	}

	p, sum, err := plan.Load(f, storage, nil)
	if err != nil {
		return nil, zero, fmt.Errorf("load %s: %w", path, err)
	}
	return p, sum, nil
}
