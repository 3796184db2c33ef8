package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCmd_CleanStoreReportsNoIssues(t *testing.T) {
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "folio.db")
	seedSource(t, dbFile, "alpha beta gamma")
	resetCLIFlags(t, dbFile)

	cmd := newDoctorCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "no inconsistencies")
}

func TestDoctorCmd_HasRepairFlag(t *testing.T) {
	cmd := newDoctorCmd()
	flag := cmd.Flags().Lookup("repair")
	assert.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}
