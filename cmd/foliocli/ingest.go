package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lolbigtime/Folio/internal/output"
	"github.com/lolbigtime/Folio/pkg/folio"
)

func newIngestCmd() *cobra.Command {
	var async bool
	var sourceID string

	cmd := &cobra.Command{
		Use:   "ingest <path>",
		Short: "Ingest a file or directory into the index",
		Long: `Ingest loads, chunks and stores a document (or every loadable
document under a directory), building the FTS5 mirror and, when an
embedder is configured, the chunk vectors.

Use --async for caller-supplied contextual prefixes and inline
embedding; the default synchronous ingest skips both.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIngest(ctx, cmd, args[0], sourceID, async)
		},
	}

	cmd.Flags().BoolVar(&async, "async", false, "use the asynchronous pipeline (prefix function + embedding)")
	cmd.Flags().StringVar(&sourceID, "source-id", "", "source id for a single-file ingest (default: generated)")

	return cmd
}

func runIngest(ctx context.Context, cmd *cobra.Command, path, sourceID string, async bool) error {
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

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		var results []dirIngestResult
		if async {
			rs, err := engine.AsyncDir(ctx, path)
			if err != nil {
				return err
			}
			for _, r := range rs {
				results = append(results, dirIngestResult{r.Path, r.SourceID, r.Chunks})
			}
		} else {
			rs, err := engine.SyncDir(ctx, path)
			if err != nil {
				return err
			}
			for _, r := range rs {
				results = append(results, dirIngestResult{r.Path, r.SourceID, r.Chunks})
			}
		}
		for _, r := range results {
			out.Successf("%s → %d chunks (source %s)", r.path, r.chunks, r.sourceID)
		}
		out.Successf("ingested %d files under %s", len(results), path)
		return nil
	}

	if sourceID == "" {
		sourceID = uuid.NewString()
	}
	name := filepath.Base(path)

	var result struct {
		SourceID string
		Chunks   int
	}
	if async {
		r, err := engine.Async(ctx, sourceID, path, name)
		if err != nil {
			return err
		}
		result.SourceID, result.Chunks = r.SourceID, r.Chunks
	} else {
		r, err := engine.Sync(ctx, sourceID, path, name)
		if err != nil {
			return err
		}
		result.SourceID, result.Chunks = r.SourceID, r.Chunks
	}

	out.Successf("ingested %s as source %s (%d chunks)", path, result.SourceID, result.Chunks)
	return nil
}

type dirIngestResult struct {
	path     string
	sourceID string
	chunks   int
}
