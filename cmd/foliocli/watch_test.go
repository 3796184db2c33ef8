package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatchCmd_StopsCleanlyOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "folio.db")
	resetCLIFlags(t, dbFile)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	target := t.TempDir()
	buf := new(bytes.Buffer)
	cmd := newWatchCmd()
	cmd.SetOut(buf)

	err := runWatch(ctx, cmd, target)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "watching")
	assert.Contains(t, buf.String(), "watch stopped")
}

func TestWatchCmd_UsageShowsOptionalPath(t *testing.T) {
	cmd := newWatchCmd()
	assert.Equal(t, "watch [path]", cmd.Use)
}
