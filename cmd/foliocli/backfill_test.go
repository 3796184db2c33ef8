package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackfillCmd_EmbedsMissingVectors(t *testing.T) {
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "folio.db")
	seedSource(t, dbFile, "alpha beta gamma delta")
	resetCLIFlags(t, dbFile)

	cmd := newBackfillCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "embedded")
}
