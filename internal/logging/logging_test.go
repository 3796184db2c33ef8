package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Level:         "info",
		FilePath:      filepath.Join(dir, "folio.log"),
		MaxSizeMB:     1,
		MaxFiles:      2,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)
	defer cleanup()

	logger.Info("ingest complete", "chunks", 3)

	data, err := os.ReadFile(cfg.FilePath)
	require.NoError(t, err)
	require.Contains(t, string(data), "ingest complete")
	require.Contains(t, string(data), `"chunks":3`)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, -4, int(parseLevel("debug")))
	require.Equal(t, 0, int(parseLevel("info")))
	require.Equal(t, 4, int(parseLevel("warn")))
	require.Equal(t, 8, int(parseLevel("error")))
}
