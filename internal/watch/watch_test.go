package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherEmitsCreateEventForNewFile(t *testing.T) {
	dir := t.TempDir()

	w, err := New(Options{DebounceWindow: 30 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = w.Start(ctx, dir) }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("hello"), 0o644))

	select {
	case batch := <-w.Events():
		require.NotEmpty(t, batch)
		require.Equal(t, "new.txt", batch[0].Path)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}

	require.NoError(t, w.Stop())
}

func TestWatcherIgnoresGitignoredFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.log\n"), 0o644))

	w, err := New(Options{DebounceWindow: 30 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = w.Start(ctx, dir) }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "debug.log"), []byte("x"), 0o644))

	select {
	case batch := <-w.Events():
		t.Fatalf("expected no event for ignored file, got %v", batch)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, w.Stop())
}

func TestDebouncerCoalescesCreateThenModify(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	d.add(Event{Path: "a.txt", Operation: OpCreate})
	d.add(Event{Path: "a.txt", Operation: OpModify})

	select {
	case batch := <-d.output():
		require.Len(t, batch, 1)
		require.Equal(t, OpCreate, batch[0].Operation)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for debounced batch")
	}
	d.stop()
}

func TestDebouncerCancelsCreateThenDelete(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	d.add(Event{Path: "a.txt", Operation: OpCreate})
	d.add(Event{Path: "a.txt", Operation: OpDelete})

	select {
	case batch := <-d.output():
		t.Fatalf("expected no batch, got %v", batch)
	case <-time.After(100 * time.Millisecond):
	}
	d.stop()
}
