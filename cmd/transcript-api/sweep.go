package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one reminder sweep and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logr, err := ctx.ensure()
			if err != nil {
				return err
			}
			app, err := newApplication(cmd.Context(), cfg, logr)
			if err != nil {
				return err
			}
			defer app.Close()

			report := app.scheduler.RunOnce(cmd.Context())
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(report); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			return nil
		},
	}
}
