package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lolbigtime/Folio/internal/output"
	"github.com/lolbigtime/Folio/pkg/folio"
)

func newFetchCmd() *cobra.Command {
	var (
		startPage int
		hasPage   bool
		anchor    string
		expand    int
	)

	cmd := &cobra.Command{
		Use:   "fetch <source-id>",
		Short: "Reassemble a window of a source's text",
		Long: `Fetch reconstructs a contiguous window of a source's chunks. With
--anchor, the window is the first matching chunk widened by --expand
neighbor chunks on each side; with --page, it is every chunk from that
page onward; with neither, it is the whole source. --expand applies
only to --anchor.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hasPage = cmd.Flags().Changed("page")
			return runFetch(cmd.Context(), cmd, args[0], startPage, hasPage, anchor, expand)
		},
	}

	cmd.Flags().IntVar(&startPage, "page", 0, "starting page index")
	cmd.Flags().StringVar(&anchor, "anchor", "", "anchor phrase to locate the window around (takes priority over --page)")
	cmd.Flags().IntVarP(&expand, "expand", "e", 2, "neighbor-window half-width")

	return cmd
}

func runFetch(ctx context.Context, cmd *cobra.Command, sourceID string, startPage int, hasPage bool, anchor string, expand int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, err := folio.Open(folio.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer engine.Close()

	var page *int
	if hasPage {
		page = &startPage
	}

	doc, err := engine.FetchDocument(sourceID, page, anchor, expand)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	out := output.New(cmd.OutOrStdout())
	out.Infof("%s (%s)", doc.DisplayName, doc.SourceID)
	out.Newline()
	fmt.Fprintln(cmd.OutOrStdout(), doc.Text)
	return nil
}
