package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, notification workers and reminder scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logr, err := ctx.ensure()
			if err != nil {
				return err
			}
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			app, err := newApplication(signalCtx, cfg, logr)
			if err != nil {
				return err
			}
			defer app.Close()

			if migrate {
				if err := runMigrations(signalCtx, app); err != nil {
					return err
				}
			}

			app.dispatcher.Start(context.WithoutCancel(signalCtx))
			defer app.dispatcher.Stop()
			if cfg.Reminders.SchedulerEnabled {
				app.scheduler.Start(signalCtx)
				defer app.scheduler.Stop()
			}

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Port),
				Handler:           newRouter(routerDepsFor(app)),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-signalCtx.Done():
			}

			logr.Info("shutting down")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")
	return cmd
}
