// Package folio is Folio's public facade: one engine that owns a
// store, an ingest orchestrator and a retrieval engine, configured
// with functional options (WithX-style Option functions over a
// constructor that validates required fields).
package folio

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/lolbigtime/Folio/internal/collab"
	"github.com/lolbigtime/Folio/internal/config"
	"github.com/lolbigtime/Folio/internal/heuristicprefix"
	"github.com/lolbigtime/Folio/internal/ingest"
	"github.com/lolbigtime/Folio/internal/retrieval"
	"github.com/lolbigtime/Folio/internal/simplechunker"
	"github.com/lolbigtime/Folio/internal/staticembed"
	"github.com/lolbigtime/Folio/internal/store"
	"github.com/lolbigtime/Folio/internal/textloader"
	"github.com/lolbigtime/Folio/internal/watch"
)

// ErrNilConfig is returned when attempting to open an Engine without a
// configuration.
var ErrNilConfig = errors.New("folio: config is required")

// Hit, Passage and Document mirror internal/retrieval's result types
// so callers never import an internal package.
type Hit = retrieval.Hit
type Passage = retrieval.Passage
type Document = retrieval.Document

// Engine is Folio's embedded retrieval engine: one sqlite-backed
// store, one ingest pipeline, one hybrid search surface.
type Engine struct {
	store   *store.Store
	orch    *ingest.Orchestrator
	search  *retrieval.Engine
	cfg     *config.Config
	logger  *slog.Logger
}

// Option configures an Engine under construction.
type Option func(*engineOptions)

type engineOptions struct {
	cfg                *config.Config
	loaders            []collab.Loader
	chunker            collab.Chunker
	embedder           collab.Embedder
	prefixFn           collab.PrefixFunc
	headerFooterFilter collab.HeaderFooterFilter
	logger             *slog.Logger
}

// WithConfig supplies the engine's configuration. Required.
func WithConfig(cfg *config.Config) Option {
	return func(o *engineOptions) { o.cfg = cfg }
}

// WithLoaders overrides the default loader chain (internal/textloader
// only). Loaders are tried in order; the first match wins.
func WithLoaders(loaders ...collab.Loader) Option {
	return func(o *engineOptions) { o.loaders = loaders }
}

// WithChunker overrides the default chunker (internal/simplechunker).
func WithChunker(c collab.Chunker) Option {
	return func(o *engineOptions) { o.chunker = c }
}

// WithEmbedder overrides the default embedder (internal/staticembed,
// LRU-cached). Passing nil keeps the default embedder; this option
// does not turn embedding off.
func WithEmbedder(e collab.Embedder) Option {
	return func(o *engineOptions) { o.embedder = e }
}

// WithPrefixFunc supplies an asynchronous contextual-prefix generator
// (e.g. backed by an LLM). Ingest falls back to the heuristic
// generator when this is nil, errors, or returns an empty prefix.
func WithPrefixFunc(fn collab.PrefixFunc) Option {
	return func(o *engineOptions) { o.prefixFn = fn }
}

// WithHeaderFooterFilter supplies a page-text filter run before
// chunking. Defaults to the identity function.
func WithHeaderFooterFilter(f collab.HeaderFooterFilter) Option {
	return func(o *engineOptions) { o.headerFooterFilter = f }
}

// WithLogger overrides the engine's structured logger. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = logger }
}

// Open builds an Engine from opts. WithConfig is required; all other
// options fall back to Folio's shipped defaults (static embedder,
// heuristic prefixer, plain-text loader, character chunker).
func Open(opts ...Option) (*Engine, error) {
	o := &engineOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.cfg == nil {
		return nil, ErrNilConfig
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	dbPath := o.cfg.Storage.Path
	if dbPath == "" {
		path, err := config.DefaultDBPath()
		if err != nil {
			return nil, err
		}
		dbPath = path
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	if o.loaders == nil {
		o.loaders = []collab.Loader{textloader.New()}
	}
	if o.chunker == nil {
		o.chunker = simplechunker.New(o.cfg.Chunking.MaxTokensPerChunk, o.cfg.Chunking.OverlapTokens)
	}
	if o.embedder == nil {
		o.embedder = staticembed.NewCached(staticembed.New(), staticembed.DefaultCacheSize)
	}

	orch := ingest.New(ingest.Dependencies{
		Store:              s,
		Loaders:            o.loaders,
		Chunker:            o.chunker,
		Embedder:           o.embedder,
		PrefixFn:           o.prefixFn,
		HeaderFooterFilter: o.headerFooterFilter,
		Logger:             o.logger,
	}, ingest.Config{
		MaxTokensPerChunk:   o.cfg.Chunking.MaxTokensPerChunk,
		OverlapTokens:       o.cfg.Chunking.OverlapTokens,
		UseContextualPrefix: o.cfg.Indexing.UseContextualPrefix,
	})

	return &Engine{
		store:  s,
		orch:   orch,
		search: retrieval.New(s, o.embedder),
		cfg:    o.cfg,
		logger: o.logger,
	}, nil
}

// Close releases the engine's storage handle, including its advisory
// file lock.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Sync ingests sourcePath synchronously: no awaited prefix function,
// no embedding. Use for quick indexing where lexical search suffices.
func (e *Engine) Sync(ctx context.Context, sourceID, sourcePath, displayName string) (ingest.Result, error) {
	return e.orch.Sync(ctx, sourceID, sourcePath, displayName)
}

// Async ingests sourcePath with prefix-cache lookups, an optional
// caller-supplied prefix function, and inline embedding when an
// embedder is configured.
func (e *Engine) Async(ctx context.Context, sourceID, sourcePath, displayName string) (ingest.Result, error) {
	return e.orch.Async(ctx, sourceID, sourcePath, displayName)
}

// Backfill embeds every chunk lacking a vector, optionally scoped to
// one source, in batches of size batch.
func (e *Engine) Backfill(ctx context.Context, sourceID string, batch int) (int, error) {
	return e.orch.Backfill(ctx, sourceID, batch)
}

// SyncDir synchronously ingests every loadable, non-gitignored file
// under root, assigning each a fresh source id.
func (e *Engine) SyncDir(ctx context.Context, root string) ([]ingest.DirResult, error) {
	return e.orch.SyncDir(ctx, root)
}

// AsyncDir asynchronously ingests every loadable, non-gitignored file
// under root, assigning each a fresh source id.
func (e *Engine) AsyncDir(ctx context.Context, root string) ([]ingest.DirResult, error) {
	return e.orch.AsyncDir(ctx, root)
}

// Search runs lexical (BM25-only) search.
func (e *Engine) Search(query, sourceFilter string, limit int) ([]Hit, error) {
	return e.search.Search(query, sourceFilter, limit)
}

// SearchHybrid runs hybrid (BM25 + cosine) search with rank fusion,
// assembling each hit into a neighbor-window passage.
func (e *Engine) SearchHybrid(ctx context.Context, query, sourceFilter string, limit, expand int) ([]Passage, error) {
	return e.search.SearchHybrid(ctx, query, sourceFilter, limit, expand, e.cfg.Hybrid.WBM25)
}

// FetchDocument reassembles a window of a source's chunks around an
// anchor phrase or a starting page.
func (e *Engine) FetchDocument(sourceID string, startPage *int, anchor string, expand int) (Document, error) {
	return e.search.FetchDocument(sourceID, startPage, anchor, expand, e.cfg.Hybrid.MaxChars)
}

// ListSources returns every ingested source, most recently imported
// first.
func (e *Engine) ListSources() ([]store.Source, error) {
	return e.store.ListSources()
}

// DeleteSource removes a source and its chunks, FTS mirror rows and
// vectors.
func (e *Engine) DeleteSource(id string) error {
	return e.store.DeleteSource(id)
}

// CheckConsistency cross-checks the chunk table against its FTS
// mirror and vector table, reporting any drift.
func (e *Engine) CheckConsistency() (*store.CheckResult, error) {
	return e.store.CheckConsistency()
}

// RepairMissingFTS rebuilds the FTS mirror from doc_chunks.
func (e *Engine) RepairMissingFTS() error {
	return e.store.RepairMissingFTS()
}

// Watch watches root for file changes and keeps the engine's index in
// sync: created and modified files are (re-)ingested asynchronously,
// deleted files have their source removed. Blocks until ctx is
// cancelled. Source ids are assigned per watched path for the
// lifetime of the call, so a file's re-ingestion reuses its existing
// source row rather than accumulating duplicates.
func (e *Engine) Watch(ctx context.Context, root string) error {
	w, err := watch.New(watch.Options{})
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = w.Stop()
	}()

	sourceIDs := make(map[string]string)

	go func() {
		for batch := range w.Events() {
			for _, ev := range batch {
				id, tracked := sourceIDs[ev.Path]
				switch ev.Operation {
				case watch.OpDelete:
					if tracked {
						if err := e.DeleteSource(id); err != nil {
							e.logger.Warn("watch: delete source failed", "path", ev.Path, "error", err)
						}
						delete(sourceIDs, ev.Path)
					}
				default:
					if !tracked {
						id = uuid.NewString()
						sourceIDs[ev.Path] = id
					}
					full := filepath.Join(root, ev.Path)
					if _, err := e.Async(ctx, id, full, filepath.Base(full)); err != nil {
						e.logger.Warn("watch: ingest failed", "path", ev.Path, "error", err)
					}
				}
			}
		}
	}()

	return w.Start(ctx, root)
}

// HeuristicPrefix exposes the default (non-LLM) contextual-prefix
// generator so a caller's PrefixFunc can fall back to it explicitly,
// e.g. when composing a remote prefixer with retry exhaustion.
func HeuristicPrefix(docName string, pageIndex int, pageText string) string {
	return heuristicprefix.Generate(docName, pageIndex, pageText)
}
