package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lolbigtime/Folio/internal/output"
	"github.com/lolbigtime/Folio/pkg/folio"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Watch a directory and keep the index in sync",
		Long: `Watch runs in the foreground, re-ingesting created or modified
files and removing deleted ones as they happen. Press Ctrl+C to stop.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, path)
		},
	}
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, err := folio.Open(folio.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer engine.Close()

	out := output.New(cmd.OutOrStdout())
	out.Infof("watching %s (Ctrl+C to stop)", path)

	if err := engine.Watch(ctx, path); err != nil && ctx.Err() == nil {
		return err
	}

	out.Info("watch stopped")
	return nil
}
