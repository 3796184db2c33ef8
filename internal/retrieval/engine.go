// Package retrieval implements Folio's query-time orchestration: plain
// BM25 search, BM25-only passage retrieval with neighbor-window
// assembly, hybrid BM25+cosine search with rank fusion, and
// document-fetch/anchor assembly. Staged as explicit, named steps with
// no hidden branching.
package retrieval

import (
	"context"
	"strings"

	"github.com/lolbigtime/Folio/internal/collab"
	"github.com/lolbigtime/Folio/internal/folioerr"
	"github.com/lolbigtime/Folio/internal/rank"
	"github.com/lolbigtime/Folio/internal/store"
)

// Hit is a bare FTS match, as returned by Search.
type Hit struct {
	SourceID string
	Page     *int
	Excerpt  string
	BM25     float64
}

// Passage is a neighbor-expanded, deduplicated window of text, as
// returned by SearchWithContext and SearchHybrid.
type Passage struct {
	SourceID string
	Page     *int
	Excerpt  string
	Text     string
	BM25     float64
	Cosine   *float64
	Fused    *float64
}

// Document is an assembled slice of a source, as returned by
// FetchDocument.
type Document struct {
	SourceID    string
	DisplayName string
	Text        string
	MinPage     *int
	MaxPage     *int
}

// Engine is the retrieval orchestrator. An Embedder is optional; when
// nil, SearchHybrid degenerates to BM25-only ranking (every candidate
// gets a nil cosine).
type Engine struct {
	store    *store.Store
	embedder collab.Embedder
}

// New builds an Engine over store. embedder may be nil.
func New(s *store.Store, embedder collab.Embedder) *Engine {
	return &Engine{store: s, embedder: embedder}
}

// Search returns the top limit FTS snippets ordered by ascending BM25.
func (e *Engine) Search(query, sourceFilter string, limit int) ([]Hit, error) {
	requirePositive(limit, folioerr.ErrCodeBadLimit, "limit")

	hits, err := e.store.FtsHits(query, sourceFilter, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Hit, len(hits))
	for i, h := range hits {
		out[i] = Hit{SourceID: h.SourceID, Page: h.Page, Excerpt: h.Excerpt, BM25: h.BM25}
	}
	return out, nil
}

// candidatePoolSize is the FTS probe width: max(limit*6, 60).
func candidatePoolSize(limit int) int {
	n := limit * 6
	if n < 60 {
		n = 60
	}
	return n
}

// SearchWithContext performs BM25-only passage retrieval with
// neighbor-window assembly and dedup by used ordinal.
func (e *Engine) SearchWithContext(query, sourceFilter string, limit, expand int) ([]Passage, error) {
	requirePositive(limit, folioerr.ErrCodeBadLimit, "limit")
	requireNonNegative(expand, folioerr.ErrCodeBadExpand, "expand")

	hits, err := e.store.FtsHits(query, sourceFilter, candidatePoolSize(limit))
	if err != nil {
		return nil, err
	}

	used := make(map[int64]struct{})
	var passages []Passage
	for _, h := range hits {
		if len(passages) >= limit {
			break
		}
		if _, seen := used[h.Ordinal]; seen {
			continue
		}
		window, err := e.store.FetchNeighbors(h.SourceID, h.Ordinal, expand)
		if err != nil {
			return nil, err
		}
		if len(window) == 0 {
			continue
		}
		for _, c := range window {
			used[c.Ordinal] = struct{}{}
		}
		passages = append(passages, Passage{
			SourceID: h.SourceID,
			Page:     window[0].Page,
			Excerpt:  h.Excerpt,
			Text:     joinWindowText(window),
			BM25:     h.BM25,
		})
	}
	return passages, nil
}

// SearchHybrid performs the same candidate probe and neighbor-window
// assembly as SearchWithContext, but ranks the candidate pool by
// descending fused BM25/cosine score before windowing.
func (e *Engine) SearchHybrid(ctx context.Context, query, sourceFilter string, limit, expand int, wBM25 float64) ([]Passage, error) {
	requirePositive(limit, folioerr.ErrCodeBadLimit, "limit")
	requireNonNegative(expand, folioerr.ErrCodeBadExpand, "expand")

	hits, err := e.store.FtsHits(query, sourceFilter, candidatePoolSize(limit))
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	cosines := make(map[int64]float64)
	if e.embedder != nil {
		qVec, err := e.embedder.Embed(ctx, query)
		if err != nil {
			return nil, folioerr.Embedder(folioerr.ErrCodeEmbedFailed, "embed query", err)
		}

		// FetchVectorsForSource and FetchAllChunks are keyed by chunk
		// id/ordinal respectively; join them once per distinct source
		// in the candidate pool rather than once per hit.
		perSource := make(map[string]map[string]store.VectorRow)
		chunksBySource := make(map[string][]store.NeighborChunk)
		for _, h := range hits {
			if _, ok := perSource[h.SourceID]; ok {
				continue
			}
			vecs, err := e.store.FetchVectorsForSource(h.SourceID)
			if err != nil {
				return nil, err
			}
			perSource[h.SourceID] = vecs
			chunks, err := e.store.FetchAllChunks(h.SourceID)
			if err != nil {
				return nil, err
			}
			chunksBySource[h.SourceID] = chunks
		}
		for _, h := range hits {
			chunks := chunksBySource[h.SourceID]
			vecs := perSource[h.SourceID]
			for _, c := range chunks {
				if c.Ordinal != h.Ordinal {
					continue
				}
				if row, ok := vecs[c.ID]; ok {
					cosines[h.Ordinal] = store.CosineSimilarity(qVec, row.Vector)
				}
				break
			}
		}
	}

	candidates := make([]rank.Candidate, len(hits))
	for i, h := range hits {
		c := rank.Candidate{Ordinal: h.Ordinal, BM25: h.BM25}
		if v, ok := cosines[h.Ordinal]; ok {
			cv := v
			c.Cosine = &cv
		}
		candidates[i] = c
	}
	fused := rank.Fuse(candidates, wBM25)

	hitByOrdinal := make(map[int64]store.FTSHit, len(hits))
	for _, h := range hits {
		hitByOrdinal[h.Ordinal] = h
	}

	used := make(map[int64]struct{})
	var passages []Passage
	for _, f := range fused {
		if len(passages) >= limit {
			break
		}
		if _, seen := used[f.Ordinal]; seen {
			continue
		}
		h := hitByOrdinal[f.Ordinal]
		window, err := e.store.FetchNeighbors(h.SourceID, h.Ordinal, expand)
		if err != nil {
			return nil, err
		}
		if len(window) == 0 {
			continue
		}
		for _, c := range window {
			used[c.Ordinal] = struct{}{}
		}
		score := f.Score
		p := Passage{
			SourceID: h.SourceID,
			Page:     window[0].Page,
			Excerpt:  h.Excerpt,
			Text:     joinWindowText(window),
			BM25:     h.BM25,
			Cosine:   f.Cosine,
			Fused:    &score,
		}
		passages = append(passages, p)
	}
	return passages, nil
}

// FetchDocument assembles a coherent slice of a source for display or
// prompt grounding. anchor, when non-empty after trimming, takes
// priority over startPage. expand is bounded to [0, 8]; maxChars <= 0
// means no truncation.
func (e *Engine) FetchDocument(sourceID string, startPage *int, anchor string, expand int, maxChars int) (Document, error) {
	if expand < 0 || expand > 8 {
		folioerr.Panic(folioerr.ErrCodeBadExpand, "fetchDocument: expand out of range [0, 8]")
	}
	if startPage != nil && *startPage < 0 {
		folioerr.Panic(folioerr.ErrCodeBadStartPage, "fetchDocument: negative startPage")
	}

	src, err := e.store.FetchSource(sourceID)
	if err != nil {
		return Document{}, err
	}
	if src == nil {
		return Document{}, folioerr.Input(folioerr.ErrCodeUnknownSource, "unknown source: "+sourceID, nil)
	}

	var window []store.NeighborChunk
	trimmedAnchor := strings.TrimSpace(anchor)
	switch {
	case trimmedAnchor != "":
		ordinal, found, err := e.store.FindAnchorOrdinal(sourceID, trimmedAnchor)
		if err != nil {
			return Document{}, err
		}
		if found {
			window, err = e.store.FetchNeighbors(sourceID, ordinal, expand)
			if err != nil {
				return Document{}, err
			}
		}
	case startPage != nil:
		window, err = e.store.FetchChunksFromPage(sourceID, *startPage)
		if err != nil {
			return Document{}, err
		}
	default:
		window, err = e.store.FetchAllChunks(sourceID)
		if err != nil {
			return Document{}, err
		}
	}

	if len(window) == 0 {
		return Document{SourceID: sourceID, DisplayName: src.DisplayName}, nil
	}

	text := joinWindowText(window)
	if maxChars > 0 && len(text) > maxChars {
		text = text[:maxChars]
	}

	var minPage, maxPage *int
	for _, c := range window {
		if c.Page == nil {
			continue
		}
		if minPage == nil || *c.Page < *minPage {
			p := *c.Page
			minPage = &p
		}
		if maxPage == nil || *c.Page > *maxPage {
			p := *c.Page
			maxPage = &p
		}
	}

	return Document{
		SourceID:    sourceID,
		DisplayName: src.DisplayName,
		Text:        text,
		MinPage:     minPage,
		MaxPage:     maxPage,
	}, nil
}

func joinWindowText(window []store.NeighborChunk) string {
	parts := make([]string, len(window))
	for i, c := range window {
		parts[i] = c.Content
	}
	return strings.Join(parts, "\n\n")
}

func requirePositive(n int, code, name string) {
	if n <= 0 {
		folioerr.Panic(code, name+" must be positive")
	}
}

func requireNonNegative(n int, code, name string) {
	if n < 0 {
		folioerr.Panic(code, name+" must be non-negative")
	}
}
