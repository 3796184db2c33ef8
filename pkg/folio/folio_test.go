package folio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lolbigtime/Folio/internal/config"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.New()
	cfg.Storage.Path = ":memory:"

	e, err := Open(WithConfig(cfg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func writeTempSource(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestOpenRequiresConfig(t *testing.T) {
	_, err := Open()
	require.ErrorIs(t, err, ErrNilConfig)
}

func TestEngineSyncThenSearch(t *testing.T) {
	e := newTestEngine(t)
	path := writeTempSource(t, "the quick brown fox jumps over the lazy dog")

	_, err := e.Sync(context.Background(), "src-1", path, "Fox Doc")
	require.NoError(t, err)

	hits, err := e.Search("quick fox", "", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
}

func TestEngineAsyncEmbedsAndHybridSearches(t *testing.T) {
	e := newTestEngine(t)
	path := writeTempSource(t, "alpha beta gamma delta epsilon zeta eta theta")

	_, err := e.Async(context.Background(), "src-1", path, "Greek Doc")
	require.NoError(t, err)

	passages, err := e.SearchHybrid(context.Background(), "alpha beta", "", 5, 1)
	require.NoError(t, err)
	require.NotEmpty(t, passages)
}

func TestEngineListAndDeleteSource(t *testing.T) {
	e := newTestEngine(t)
	path := writeTempSource(t, "one two three")

	_, err := e.Sync(context.Background(), "src-1", path, "Doc")
	require.NoError(t, err)

	sources, err := e.ListSources()
	require.NoError(t, err)
	require.Len(t, sources, 1)

	require.NoError(t, e.DeleteSource("src-1"))

	sources, err = e.ListSources()
	require.NoError(t, err)
	require.Empty(t, sources)
}

func TestEngineCheckConsistencyCleanAfterSync(t *testing.T) {
	e := newTestEngine(t)
	path := writeTempSource(t, "one two three four five")

	_, err := e.Sync(context.Background(), "src-1", path, "Doc")
	require.NoError(t, err)

	result, err := e.CheckConsistency()
	require.NoError(t, err)
	require.Empty(t, result.Inconsistencies)
}
