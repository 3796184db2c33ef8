package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourcesListCmd_ShowsSeededSource(t *testing.T) {
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "folio.db")
	sourceID := seedSource(t, dbFile, "alpha beta gamma")
	resetCLIFlags(t, dbFile)

	cmd := newSourcesCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"list"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), sourceID)
}

func TestSourcesDeleteCmd_RemovesSource(t *testing.T) {
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "folio.db")
	sourceID := seedSource(t, dbFile, "alpha beta gamma")
	resetCLIFlags(t, dbFile)

	del := newSourcesCmd()
	delBuf := new(bytes.Buffer)
	del.SetOut(delBuf)
	del.SetArgs([]string{"delete", sourceID})
	require.NoError(t, del.Execute())

	list := newSourcesCmd()
	listBuf := new(bytes.Buffer)
	list.SetOut(listBuf)
	list.SetArgs([]string{"list"})
	require.NoError(t, list.Execute())
	assert.NotContains(t, listBuf.String(), sourceID)
}
