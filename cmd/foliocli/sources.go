package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lolbigtime/Folio/internal/output"
	"github.com/lolbigtime/Folio/pkg/folio"
)

func newSourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List and manage ingested sources",
	}

	cmd.AddCommand(newSourcesListCmd())
	cmd.AddCommand(newSourcesDeleteCmd())
	return cmd
}

func newSourcesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List ingested sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSourcesList(cmd)
		},
	}
}

func runSourcesList(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, err := folio.Open(folio.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer engine.Close()

	sources, err := engine.ListSources()
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(sources)
	}

	out := output.New(cmd.OutOrStdout())
	rows := make([][]string, 0, len(sources))
	for _, s := range sources {
		rows = append(rows, []string{s.ID, s.DisplayName, fmt.Sprintf("%d", s.Pages), fmt.Sprintf("%d", s.Chunks)})
	}
	out.Table([]string{"ID", "NAME", "PAGES", "CHUNKS"}, rows)
	return nil
}

func newSourcesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <source-id>",
		Short: "Delete a source and its chunks, FTS rows and vectors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSourcesDelete(cmd, args[0])
		},
	}
}

func runSourcesDelete(cmd *cobra.Command, id string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, err := folio.Open(folio.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer engine.Close()

	if err := engine.DeleteSource(id); err != nil {
		return err
	}

	output.New(cmd.OutOrStdout()).Successf("deleted source %s", id)
	return nil
}
