package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetCLIFlags(t *testing.T, dbFile string) {
	t.Helper()
	dbPath = dbFile
	jsonOut = false
	debugMode = false
}

func TestIngestCmd_SingleFile(t *testing.T) {
	dir := t.TempDir()
	resetCLIFlags(t, filepath.Join(dir, "folio.db"))

	src := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(src, []byte("hybrid search combines BM25 and cosine similarity"), 0o644))

	cmd := newIngestCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{src})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "ingested")
}

func TestIngestCmd_Directory(t *testing.T) {
	dir := t.TempDir()
	resetCLIFlags(t, filepath.Join(dir, "folio.db"))

	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "a.txt"), []byte("alpha content"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "b.txt"), []byte("beta content"), 0o644))

	cmd := newIngestCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{docs})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "ingested 2 files")
}
