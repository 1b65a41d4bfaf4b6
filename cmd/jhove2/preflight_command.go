package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jhove2/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check directories and configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)

			results := preflight.RunAll(cmd.Context(), cfg)
			for _, line := range renderHeading("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			if ctx.configPath != "" {
				fmt.Fprintln(out, renderCheckLine("Config", outcomeNote, ctx.configPath, colorize))
			}
			for _, r := range results {
				fmt.Fprintln(out, renderCheckLine(r.Name, resultOutcome(r), r.Detail, colorize))
			}
			fmt.Fprintln(out, renderCheckSummary(results, colorize))

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d preflight checks failed", len(failed), len(results))
			}
			return nil
		},
	}
}
