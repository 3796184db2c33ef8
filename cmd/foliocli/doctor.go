package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lolbigtime/Folio/internal/output"
	"github.com/lolbigtime/Folio/pkg/folio"
)

func newDoctorCmd() *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the store's internal consistency",
		Long: `Doctor cross-checks doc_chunks against its FTS5 mirror and vector
table, reporting any drift that could only happen if a prior process
was killed mid-write or the database file was edited outside Folio.

Use --repair to rebuild the FTS mirror from doc_chunks; it does not
recover missing vectors, which require a fresh backfill.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, repair)
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "rebuild the FTS mirror from doc_chunks")

	return cmd
}

func runDoctor(cmd *cobra.Command, repair bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, err := folio.Open(folio.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer engine.Close()

	if repair {
		if err := engine.RepairMissingFTS(); err != nil {
			return err
		}
	}

	result, err := engine.CheckConsistency()
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	out := output.New(cmd.OutOrStdout())
	out.Infof("checked %d ordinals in %s", result.Checked, result.Duration)
	if len(result.Inconsistencies) == 0 {
		out.Success("no inconsistencies found")
		return nil
	}
	for _, inc := range result.Inconsistencies {
		out.Warningf("%s: ordinal=%d chunk=%s %s", inc.Type, inc.Ordinal, inc.ChunkID, inc.Details)
	}
	return nil
}
