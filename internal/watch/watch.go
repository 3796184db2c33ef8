// Package watch implements Folio's directory watcher: fsnotify events
// debounced into batches of changed paths, gitignore-filtered. The
// watch command is a foreground CLI convenience invoked at a
// terminal, not a long-running daemon, so there is no polling fallback
// for filesystems without inotify support.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lolbigtime/Folio/internal/gitignore"
)

// Operation classifies a debounced file change.
type Operation int

const (
	OpCreate Operation = iota
	OpModify
	OpDelete
)

func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Event is one coalesced file change, relative to the watched root.
type Event struct {
	Path      string
	Operation Operation
	Timestamp time.Time
}

// Options configures a Watcher.
type Options struct {
	DebounceWindow  time.Duration
	EventBufferSize int
	IgnorePatterns  []string
}

// WithDefaults fills zero-valued fields with Folio's defaults.
func (o Options) WithDefaults() Options {
	if o.DebounceWindow == 0 {
		o.DebounceWindow = 300 * time.Millisecond
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = 256
	}
	return o
}

// Watcher recursively watches a directory and emits debounced batches
// of Events, skipping paths matched by .gitignore (root and nested).
type Watcher struct {
	fsw       *fsnotify.Watcher
	debouncer *debouncer
	gitignore *gitignore.Matcher
	rootPath  string
	opts      Options

	mu      sync.RWMutex
	events  chan []Event
	stopCh  chan struct{}
	stopped bool
}

// New creates a Watcher. Call Start to begin watching.
func New(opts Options) (*Watcher, error) {
	opts = opts.WithDefaults()
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		fsw:       fsw,
		debouncer: newDebouncer(opts.DebounceWindow),
		gitignore: gitignore.New(),
		events:    make(chan []Event, opts.EventBufferSize),
		stopCh:    make(chan struct{}),
		opts:      opts,
	}, nil
}

// Events returns the channel of debounced event batches. Closed when
// the watcher stops.
func (w *Watcher) Events() <-chan []Event { return w.events }

// Start begins watching root recursively. Blocks until ctx is
// cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	w.rootPath = abs

	w.loadGitignore()

	if err := w.addRecursive(abs); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}

	go w.forwardDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)
		}
	}
}

// Stop releases the underlying fsnotify watcher. Safe to call
// multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	w.mu.Unlock()

	close(w.stopCh)
	w.debouncer.stop()
	return w.fsw.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(w.rootPath, path)
		if rel == "." {
			return w.fsw.Add(path)
		}
		if w.shouldIgnoreDir(rel) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) shouldIgnoreDir(rel string) bool {
	if strings.HasPrefix(rel, ".git") || rel == ".git" {
		return true
	}
	return w.gitignore.Match(rel, true)
}

func (w *Watcher) shouldIgnore(rel string, isDir bool) bool {
	if rel == "." || rel == "" {
		return true
	}
	if strings.HasPrefix(rel, ".git/") || rel == ".git" {
		return true
	}
	return w.gitignore.Match(rel, isDir)
}

func (w *Watcher) loadGitignore() {
	m := gitignore.New()
	for _, p := range w.opts.IgnorePatterns {
		m.AddPattern(p)
	}

	gitignorePath := filepath.Join(w.rootPath, ".gitignore")
	if err := m.AddFromFile(gitignorePath, ""); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load root .gitignore", "path", gitignorePath, "error", err)
	}

	_ = filepath.WalkDir(w.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != ".gitignore" || path == gitignorePath {
			return nil
		}
		base, _ := filepath.Rel(w.rootPath, filepath.Dir(path))
		if err := m.AddFromFile(path, base); err != nil {
			slog.Warn("failed to read nested .gitignore", "path", path, "error", err)
		}
		return nil
	})

	w.gitignore = m
}

func (w *Watcher) handle(ev fsnotify.Event) {
	rel, err := filepath.Rel(w.rootPath, ev.Name)
	if err != nil {
		rel = ev.Name
	}

	isDir := false
	if info, err := os.Stat(ev.Name); err == nil {
		isDir = info.IsDir()
	}

	if w.shouldIgnore(rel, isDir) {
		return
	}

	var op Operation
	switch {
	case ev.Op&fsnotify.Create != 0:
		op = OpCreate
		if isDir {
			_ = w.fsw.Add(ev.Name)
		}
	case ev.Op&fsnotify.Write != 0:
		op = OpModify
	case ev.Op&fsnotify.Remove != 0:
		op = OpDelete
	case ev.Op&fsnotify.Rename != 0:
		op = OpDelete
	default:
		return
	}
	if isDir {
		return
	}

	w.debouncer.add(Event{Path: rel, Operation: op, Timestamp: time.Now()})
}

func (w *Watcher) forwardDebounced(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case batch, ok := <-w.debouncer.output():
			if !ok {
				return
			}
			if len(batch) == 0 {
				continue
			}
			select {
			case w.events <- batch:
			default:
				slog.Warn("watch event buffer full, dropping batch", "size", len(batch))
			}
		}
	}
}
