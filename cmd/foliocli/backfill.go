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

func newBackfillCmd() *cobra.Command {
	var source string
	var batch int

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Embed chunks missing a vector",
		Long: `Backfill finds every chunk without a stored vector (optionally
scoped to one source) and embeds it in batches, independent of
ingest. Use after switching embedders, or after a sync ingest that
skipped embedding.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBackfill(ctx, cmd, source, batch)
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "restrict to one source id (default: all sources)")
	cmd.Flags().IntVarP(&batch, "batch", "b", 32, "embedding batch size")

	return cmd
}

func runBackfill(ctx context.Context, cmd *cobra.Command, source string, batch int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, err := folio.Open(folio.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer engine.Close()

	n, err := engine.Backfill(ctx, source, batch)
	if err != nil {
		return err
	}

	output.New(cmd.OutOrStdout()).Successf("embedded %d chunks", n)
	return nil
}
