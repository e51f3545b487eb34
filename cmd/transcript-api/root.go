package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/transcript-clearance-api/pkg/config"
	"github.com/noah-isme/transcript-clearance-api/pkg/logger"
)

type commandContext struct {
	once   sync.Once
	config *config.Config
	logger *zap.Logger
	err    error
}

func (c *commandContext) ensure() (*config.Config, *zap.Logger, error) {
	c.once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.err = fmt.Errorf("load config: %w", err)
			return
		}
		logr, err := logger.New(cfg)
		if err != nil {
			c.err = fmt.Errorf("init logger: %w", err)
			return
		}
		c.config = cfg
		c.logger = logr
	})
	return c.config, c.logger, c.err
}

func (c *commandContext) sync() {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "transcript-api",
		Short:         "Transcript clearance workflow service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, _, err := ctx.ensure()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newSweepCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))

	return rootCmd
}
