package ingest

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lolbigtime/Folio/internal/gitignore"
)

// dirConcurrency bounds how many files SyncDir/AsyncDir ingest at
// once. Store writes serialize on the single sqlite connection
// regardless; this overlaps each file's load/chunk/embed work instead.
const dirConcurrency = 4

// DirResult pairs one file's ingest Result with the path it came from.
type DirResult struct {
	Path string
	Result
}

// walkLoadable walks root, skipping .git and any path matched by a
// root or nested .gitignore, and calls fn for every file at least one
// configured loader recognizes.
func (o *Orchestrator) walkLoadable(root string, fn func(path string) error) error {
	matcher := gitignore.New()
	gitignorePath := filepath.Join(root, ".gitignore")
	_ = matcher.AddFromFile(gitignorePath, "")

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if rel == ".git" || matcher.Match(rel, true) {
				return filepath.SkipDir
			}
			if nested := filepath.Join(path, ".gitignore"); fileExists(nested) {
				_ = matcher.AddFromFile(nested, rel)
			}
			return nil
		}
		if matcher.Match(rel, false) {
			return nil
		}
		if _, err := o.selectLoader(path); err != nil {
			return nil
		}
		return fn(path)
	})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SyncDir synchronously ingests every loadable file under root,
// assigning each a fresh source id. Files are ingested with bounded
// parallelism (dirConcurrency); one file's failure cancels the rest.
func (o *Orchestrator) SyncDir(ctx context.Context, root string) ([]DirResult, error) {
	return o.ingestDir(ctx, root, o.Sync)
}

// AsyncDir asynchronously ingests every loadable file under root,
// assigning each a fresh source id, with the same bounded parallelism
// as SyncDir.
func (o *Orchestrator) AsyncDir(ctx context.Context, root string) ([]DirResult, error) {
	return o.ingestDir(ctx, root, o.Async)
}

// ingestDir fans walkLoadable's matches out across dirConcurrency
// workers via errgroup.
func (o *Orchestrator) ingestDir(ctx context.Context, root string, ingest func(context.Context, string, string, string) (Result, error)) ([]DirResult, error) {
	var paths []string
	if err := o.walkLoadable(root, func(path string) error {
		paths = append(paths, path)
		return nil
	}); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dirConcurrency)

	var mu sync.Mutex
	results := make([]DirResult, 0, len(paths))

	for _, path := range paths {
		path := path
		g.Go(func() error {
			id := uuid.NewString()
			res, err := ingest(gctx, id, path, filepath.Base(path))
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, DirResult{Path: path, Result: res})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
