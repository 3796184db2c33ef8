package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lolbigtime/Folio/internal/collab"
	"github.com/lolbigtime/Folio/internal/store"
	"github.com/lolbigtime/Folio/internal/textloader"
)

func newDirTestOrchestrator(t *testing.T) (*Orchestrator, string) {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	dir := t.TempDir()
	deps := Dependencies{
		Store:   s,
		Loaders: []collab.Loader{textloader.New()},
		Chunker: wholePageChunker{},
	}
	return New(deps, Config{MaxTokensPerChunk: 650, OverlapTokens: 80}), dir
}

func TestSyncDirIngestsLoadableFilesOnly(t *testing.T) {
	o, dir := newDirTestOrchestrator(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha text body"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.bin"), []byte{0x00, 0x01}, 0o644))

	results, err := o.SyncDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, filepath.Join(dir, "a.txt"), results[0].Path)
}

func TestSyncDirSkipsGitignoredFiles(t *testing.T) {
	o, dir := newDirTestOrchestrator(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("skip.txt\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("kept"), 0o644))

	results, err := o.SyncDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, filepath.Join(dir, "keep.txt"), results[0].Path)
}
