package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ojieame12/concierge-clean-sub002/internal/calc"
)

func newCalcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "List and run engineering calculators",
	}
	cmd.AddCommand(newCalcListCmd())
	cmd.AddCommand(newCalcRunCmd())
	return cmd
}

func newCalcListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered calculators",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := calc.NewRegistry()
			descriptors := registry.Descriptors()
			if !outputJSON {
				for _, d := range descriptors {
					ui.Info("%s  %s", d.ID, d.Label)
				}
			}
			return printJSON(descriptors)
		},
	}
}

func newCalcRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [message]",
		Short: "Detect calculator inputs in a message and run every match",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")

			registry := calc.NewRegistry()
			executor := calc.NewExecutor(registry, logger)
			results := executor.Run(cmd.Context(), message)

			if len(results) == 0 {
				ui.Warning("No calculator fired for this message")
			} else {
				ui.Success("%d calculator(s) ran", len(results))
			}
			return printJSON(results)
		},
	}
}
