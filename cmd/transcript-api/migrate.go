package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/transcript-clearance-api/pkg/database"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
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

			return runMigrations(cmd.Context(), app)
		},
	}
}

func runMigrations(ctx context.Context, app *application) error {
	applied, err := database.Migrate(ctx, app.db, app.logger)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	app.logger.Info("migrations complete", zap.Strings("applied", applied))
	return nil
}
