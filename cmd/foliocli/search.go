package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lolbigtime/Folio/internal/output"
	"github.com/lolbigtime/Folio/pkg/folio"
)

func newSearchCmd() *cobra.Command {
	var (
		limit      int
		expand     int
		source     string
		lexicalOnly bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the index",
		Long: `Search combines BM25 keyword search with cosine semantic
similarity, fused with the configured hybrid.w_bm25 weight. Use --lexical-only
to skip the semantic component.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, limit, expand, source, lexicalOnly)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().IntVarP(&expand, "expand", "e", 2, "neighbor-window half-width for passage assembly")
	cmd.Flags().StringVarP(&source, "source", "s", "", "restrict to one source id")
	cmd.Flags().BoolVar(&lexicalOnly, "lexical-only", false, "skip semantic search, BM25 only")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, limit, expand int, source string, lexicalOnly bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, err := folio.Open(folio.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer engine.Close()

	if lexicalOnly {
		hits, err := engine.Search(query, source, limit)
		if err != nil {
			return err
		}
		return renderHits(cmd, hits)
	}

	passages, err := engine.SearchHybrid(ctx, query, source, limit, expand)
	if err != nil {
		return err
	}
	return renderPassages(cmd, passages)
}

func renderHits(cmd *cobra.Command, hits []folio.Hit) error {
	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	out := output.New(cmd.OutOrStdout())
	if len(hits) == 0 {
		out.Info("no results")
		return nil
	}
	for i, h := range hits {
		page := "-"
		if h.Page != nil {
			page = fmt.Sprintf("%d", *h.Page)
		}
		out.Successf("%d. [%s p.%s, bm25=%.3f] %s", i+1, h.SourceID, page, h.BM25, h.Excerpt)
	}
	return nil
}

func renderPassages(cmd *cobra.Command, passages []folio.Passage) error {
	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(passages)
	}

	out := output.New(cmd.OutOrStdout())
	if len(passages) == 0 {
		out.Info("no results")
		return nil
	}
	for i, p := range passages {
		page := "-"
		if p.Page != nil {
			page = fmt.Sprintf("%d", *p.Page)
		}
		score := p.BM25
		if p.Fused != nil {
			score = *p.Fused
		}
		out.Successf("%d. [%s p.%s, score=%.3f] %s", i+1, p.SourceID, page, score, p.Excerpt)
	}
	return nil
}
