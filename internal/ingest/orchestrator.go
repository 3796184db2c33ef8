// Package ingest implements Folio's ingest orchestrator: the
// synchronous and asynchronous document-to-store pipelines, plus
// out-of-band embedding backfill. Staged as named steps, no hidden
// branching; each pipeline logs one slog record when it completes.
package ingest

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lolbigtime/Folio/internal/collab"
	"github.com/lolbigtime/Folio/internal/folioerr"
	"github.com/lolbigtime/Folio/internal/heuristicprefix"
	"github.com/lolbigtime/Folio/internal/store"
)

// Config is the subset of the chunking/indexing configuration surface
// the orchestrator needs.
type Config struct {
	MaxTokensPerChunk   int
	OverlapTokens       int
	UseContextualPrefix bool
}

// Dependencies are the orchestrator's injected collaborators. Loaders
// are tried in order; the first whose CanLoad accepts the input wins.
// HeaderFooterFilter and PrefixFn are optional; Embedder is optional
// (nil means ingest never embeds).
type Dependencies struct {
	Store              *store.Store
	Loaders            []collab.Loader
	Chunker            collab.Chunker
	Embedder           collab.Embedder
	PrefixFn           collab.PrefixFunc
	HeaderFooterFilter collab.HeaderFooterFilter
	Logger             *slog.Logger
}

// Result summarizes one ingest call.
type Result struct {
	SourceID string
	Chunks   int
}

// Orchestrator runs ingest pipelines against one store.
type Orchestrator struct {
	deps Dependencies
	cfg  Config
}

// New builds an Orchestrator. A nil deps.HeaderFooterFilter defaults
// to the identity function; a nil deps.Logger defaults to slog's
// package-level default logger.
func New(deps Dependencies, cfg Config) *Orchestrator {
	if deps.HeaderFooterFilter == nil {
		deps.HeaderFooterFilter = func(text string) string { return text }
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Orchestrator{deps: deps, cfg: cfg}
}

func (o *Orchestrator) selectLoader(sourcePath string) (collab.Loader, error) {
	for _, l := range o.deps.Loaders {
		if l.CanLoad(sourcePath) {
			return l, nil
		}
	}
	return nil, folioerr.Input(folioerr.ErrCodeNoLoader, "no loader matches: "+sourcePath, nil)
}

// pageChunk pairs a raw chunk text with the page it was split from.
type pageChunk struct {
	text string
	page int
}

func (o *Orchestrator) loadAndChunk(ctx context.Context, sourceID, sourcePath string) (collab.LoadedDocument, []pageChunk, error) {
	loader, err := o.selectLoader(sourcePath)
	if err != nil {
		return collab.LoadedDocument{}, nil, err
	}

	doc, err := loader.Load(ctx, sourcePath)
	if err != nil {
		return collab.LoadedDocument{}, nil, err
	}

	var chunks []pageChunk
	for _, page := range doc.Pages {
		filtered := o.deps.HeaderFooterFilter(page.Text)
		texts, err := o.deps.Chunker.Chunk(ctx, filtered)
		if err != nil {
			return collab.LoadedDocument{}, nil, folioerr.Loader(folioerr.ErrCodeDecodeFailed, "chunk page", err)
		}
		for _, t := range texts {
			chunks = append(chunks, pageChunk{text: t, page: page.Index})
		}
	}

	return doc, chunks, nil
}

// augment joins a prefix and its chunk content with the single space
// that stripSectionTitlePrefix expects to strip back off. An empty
// prefix yields the content unchanged.
func augment(prefix, content string) string {
	if prefix == "" {
		return content
	}
	return prefix + " " + content
}

// syncPrefix computes the synchronous contextualizer's prefix for one
// chunk, or "" when contextual prefixing is disabled.
func (o *Orchestrator) syncPrefix(doc collab.LoadedDocument, pc pageChunk) string {
	if !o.cfg.UseContextualPrefix {
		return ""
	}
	var pageText string
	for _, p := range doc.Pages {
		if p.Index == pc.page {
			pageText = p.Text
			break
		}
	}
	return heuristicprefix.Generate(doc.Name, pc.page, pageText)
}

// Sync runs the synchronous ingest pipeline: no prefix-function await,
// no embedding.
func (o *Orchestrator) Sync(ctx context.Context, sourceID, sourcePath, displayName string) (Result, error) {
	doc, chunks, err := o.loadAndChunk(ctx, sourceID, sourcePath)
	if err != nil {
		return Result{}, err
	}

	if err := o.deps.Store.DeleteChunksForSource(sourceID); err != nil {
		return Result{}, err
	}
	if err := o.deps.Store.InsertSource(sourceID, sourcePath, displayName, len(doc.Pages), 0); err != nil {
		return Result{}, err
	}

	count := 0
	for _, pc := range chunks {
		prefix := o.syncPrefix(doc, pc)
		page := pc.page
		if _, err := o.deps.Store.Insert(sourceID, &page, pc.text, prefix, augment(prefix, pc.text)); err != nil {
			return Result{}, err
		}
		count++
	}

	if err := o.deps.Store.InsertSource(sourceID, sourcePath, displayName, len(doc.Pages), count); err != nil {
		return Result{}, err
	}

	o.deps.Logger.Info("sync ingest complete", "source_id", sourceID, "chunks", count)
	return Result{SourceID: sourceID, Chunks: count}, nil
}

// sanitizePrefix enforces the prefix cache sanitizer contract: strip
// newlines to spaces, trim whitespace, drop a leading literal
// "answer:" case-insensitively, trim one trailing '.', and cap at 600
// runes.
func sanitizePrefix(raw string) string {
	s := strings.ReplaceAll(raw, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)

	if len(s) >= 7 && strings.EqualFold(s[:7], "answer:") {
		s = strings.TrimSpace(s[7:])
	}

	s = strings.TrimSuffix(s, ".")

	runes := []rune(s)
	if len(runes) > 600 {
		runes = runes[:600]
	}
	return string(runes)
}

// Async runs the asynchronous ingest pipeline: per-chunk prefix cache
// lookup, caller-provided PrefixFn with fallback to the synchronous
// contextualizer, and optional inline embedding.
func (o *Orchestrator) Async(ctx context.Context, sourceID, sourcePath, displayName string) (Result, error) {
	doc, chunks, err := o.loadAndChunk(ctx, sourceID, sourcePath)
	if err != nil {
		return Result{}, err
	}

	if err := o.deps.Store.DeleteChunksForSource(sourceID); err != nil {
		return Result{}, err
	}
	if err := o.deps.Store.InsertSource(sourceID, sourcePath, displayName, len(doc.Pages), 0); err != nil {
		return Result{}, err
	}

	count := 0
	for _, pc := range chunks {
		prefix, err := o.resolvePrefix(ctx, doc, sourceID, pc)
		if err != nil {
			return Result{}, err
		}

		page := pc.page
		augmented := augment(prefix, pc.text)
		id, err := o.deps.Store.Insert(sourceID, &page, pc.text, prefix, augmented)
		if err != nil {
			return Result{}, err
		}

		if o.deps.Embedder != nil {
			vec, err := o.deps.Embedder.Embed(ctx, augmented)
			if err != nil {
				return Result{}, folioerr.Embedder(folioerr.ErrCodeEmbedFailed, "embed chunk", err)
			}
			if len(vec) != o.deps.Embedder.Dimensions() {
				return Result{}, folioerr.Embedder(folioerr.ErrCodeDimensionMismatch, "embedder returned unexpected dimension", nil)
			}
			if err := o.deps.Store.InsertVector(id, vec); err != nil {
				return Result{}, err
			}
		}
		count++
	}

	if err := o.deps.Store.InsertSource(sourceID, sourcePath, displayName, len(doc.Pages), count); err != nil {
		return Result{}, err
	}

	o.deps.Logger.Info("async ingest complete", "source_id", sourceID, "chunks", count)
	return Result{SourceID: sourceID, Chunks: count}, nil
}

func (o *Orchestrator) resolvePrefix(ctx context.Context, doc collab.LoadedDocument, sourceID string, pc pageChunk) (string, error) {
	key := store.CachePrefixKey(sourceID, pc.page, pc.text)
	if cached, ok, err := o.deps.Store.GetCachedPrefix(key); err != nil {
		return "", err
	} else if ok {
		return cached, nil
	}

	if o.deps.PrefixFn != nil {
		docContext := doc.Name
		result, err := o.deps.PrefixFn(ctx, pc.text, docContext)
		if err == nil {
			sanitized := sanitizePrefix(result)
			if sanitized != "" {
				meta := `{"model":"user-provided","rev":"v1","chars":` + strconv.Itoa(len([]rune(sanitized))) + `}`
				if err := o.deps.Store.PutCachedPrefix(key, sanitized, meta); err != nil {
					return "", err
				}
				return sanitized, nil
			}
		}
	}

	return o.syncPrefix(doc, pc), nil
}

// Backfill embeds every chunk lacking a vector, optionally scoped to a
// single source (an empty sourceID covers every source), in batches of
// size batch > 0. Each batch requires
// |embeddings| == |chunks|, else the batch fails as a count mismatch.
func (o *Orchestrator) Backfill(ctx context.Context, sourceID string, batch int) (int, error) {
	if batch <= 0 {
		folioerr.Panic(folioerr.ErrCodeBadBatch, "backfill: batch must be positive")
	}
	if o.deps.Embedder == nil {
		return 0, folioerr.Input(folioerr.ErrCodeNoEmbedder, "backfill requires a configured embedder", nil)
	}

	scopes := []string{sourceID}
	if sourceID == "" {
		sources, err := o.deps.Store.ListSources()
		if err != nil {
			return 0, err
		}
		scopes = scopes[:0]
		for _, src := range sources {
			scopes = append(scopes, src.ID)
		}
	}

	var ids []string
	chunksByID := make(map[string]store.NeighborChunk)
	for _, scope := range scopes {
		missing, err := o.deps.Store.ChunksMissingVectors(scope)
		if err != nil {
			return 0, err
		}
		ids = append(ids, missing...)
		all, err := o.deps.Store.FetchAllChunks(scope)
		if err != nil {
			return 0, err
		}
		for _, c := range all {
			chunksByID[c.ID] = c
		}
	}

	embedded := 0
	for start := 0; start < len(ids); start += batch {
		end := start + batch
		if end > len(ids) {
			end = len(ids)
		}
		batchIDs := ids[start:end]

		texts := make([]string, len(batchIDs))
		for i, id := range batchIDs {
			c := chunksByID[id]
			texts[i] = augment(c.SectionTitle, c.Content)
		}

		vectors, err := o.deps.Embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return embedded, folioerr.Embedder(folioerr.ErrCodeEmbedFailed, "embed backfill batch", err)
		}
		if len(vectors) != len(texts) {
			return embedded, folioerr.Embedder(folioerr.ErrCodeEmbedCountMismatch, "embedder returned a different count than requested", nil)
		}

		for i, id := range batchIDs {
			if err := o.deps.Store.InsertVector(id, vectors[i]); err != nil {
				return embedded, err
			}
			embedded++
		}
	}

	o.deps.Logger.Info("backfill complete", "source_id", sourceID, "embedded", embedded)
	return embedded, nil
}
