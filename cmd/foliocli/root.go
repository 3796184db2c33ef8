// Package main is foliocli, Folio's command-line interface: ingest,
// search, fetch, backfill, sources and watch over a local sqlite
// store. One file per subcommand, each exposing a newXCmd()
// constructor and a runX(...) RunE delegate.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lolbigtime/Folio/internal/config"
	"github.com/lolbigtime/Folio/internal/logging"
	"github.com/lolbigtime/Folio/pkg/version"
)

var (
	dbPath    string
	jsonOut   bool
	debugMode bool

	loggingCleanup func()
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "foliocli",
		Short:   "Folio: an embedded hybrid retrieval engine",
		Version: version.Version,
		Long: `foliocli indexes local documents into a sqlite-backed store and
serves hybrid (BM25 + semantic) search over them.

It runs entirely locally with no external services required.`,
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate("foliocli version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite database path (default: platform config dir)")
	cmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON where supported")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		logCfg := logging.DefaultConfig()
		if debugMode {
			logCfg = logging.DebugConfig()
		}
		logCfg.WriteToStderr = false
		if logger, cleanup, err := logging.Setup(logCfg); err == nil {
			slog.SetDefault(logger)
			loggingCleanup = cleanup
		}
		return nil
	}
	cmd.PersistentPostRunE = func(*cobra.Command, []string) error {
		if loggingCleanup != nil {
			loggingCleanup()
		}
		return nil
	}

	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newBackfillCmd())
	cmd.AddCommand(newSourcesCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func loadConfig() (*config.Config, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	return cfg, nil
}
