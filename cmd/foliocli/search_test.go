package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lolbigtime/Folio/internal/config"
	"github.com/lolbigtime/Folio/pkg/folio"
)

func seedSource(t *testing.T, dbFile, body string) string {
	t.Helper()
	cfg := config.New()
	cfg.Storage.Path = dbFile
	engine, err := folio.Open(folio.WithConfig(cfg))
	require.NoError(t, err)
	defer engine.Close()

	dir := t.TempDir()
	src := filepath.Join(dir, "source.txt")
	require.NoError(t, os.WriteFile(src, []byte(body), 0o644))

	result, err := engine.Sync(context.Background(), "seed-source", src, "source.txt")
	require.NoError(t, err)
	return result.SourceID
}

func TestSearchCmd_LexicalOnly(t *testing.T) {
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "folio.db")
	seedSource(t, dbFile, "the quick brown fox jumps over the lazy dog")
	resetCLIFlags(t, dbFile)

	cmd := newSearchCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--lexical-only", "fox"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "seed-source")
}

func TestSearchCmd_NoResults(t *testing.T) {
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "folio.db")
	seedSource(t, dbFile, "the quick brown fox jumps over the lazy dog")
	resetCLIFlags(t, dbFile)

	cmd := newSearchCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--lexical-only", "xyzzynomatch"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "no results")
}
