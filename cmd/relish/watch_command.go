package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"relish/internal/engine"
	"relish/internal/logging"
	"relish/internal/spool"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the spool directory and process dropped batch files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			eng, err := engine.New(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer eng.Close()

			watcher, err := spool.NewWatcher(cfg, eng, eng.Notifier(), logger)
			if err != nil {
				return err
			}
			return watcher.Run(runCtx)
		},
	}
}
