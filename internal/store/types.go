// Package store implements Folio's embedded relational persistence
// layer: the migration runner (C1), the chunk/source store with its
// FTS5 mirror (C2), the prefix cache (C3), and the vector store (C4).
package store

import "time"

// Source is a logical document grouping.
type Source struct {
	ID         string
	DisplayName string
	FilePath   string
	Pages      int
	Chunks     int
	ImportedAt time.Time
}

// Chunk is a unit of retrieval.
type Chunk struct {
	ID           string
	SourceID     string
	Ordinal      int64
	Page         *int
	Content      string
	SectionTitle string
}

// NeighborChunk is a chunk returned by fetchNeighbors/fetchAllChunks,
// carrying its ordinal for window-assembly bookkeeping.
type NeighborChunk struct {
	Chunk
}

// FTSHit is one row returned by ftsHits: an FTS5 match plus its
// display-ready excerpt.
type FTSHit struct {
	Ordinal int64
	SourceID string
	Page     *int
	Excerpt  string
	BM25     float64
}

// VectorRow is the decoded form of a stored vector.
type VectorRow struct {
	ChunkID string
	Dim     int
	Vector  []float32
}
