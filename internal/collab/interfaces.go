// Package collab declares the collaborator interfaces Folio's ingest
// and retrieval orchestrators are built against. Each has exactly one
// default implementation shipped alongside it (internal/textloader,
// internal/simplechunker, internal/staticembed, internal/heuristicprefix);
// callers are free to supply their own.
package collab

import "context"

// Page is one page of a loaded document: its 1-indexed position and
// its raw text.
type Page struct {
	Index int
	Text  string
}

// LoadedDocument is a Loader's output: a display name plus its pages
// in reading order.
type LoadedDocument struct {
	Name  string
	Pages []Page
}

// Loader turns a source identifier (most commonly a filesystem path)
// into a LoadedDocument. The ingest orchestrator uses the first Loader
// in its chain whose CanLoad accepts the source; an error from that
// Loader's Load is returned as is, and later loaders are not tried.
type Loader interface {
	// CanLoad reports whether this loader recognizes sourcePath,
	// typically by file extension.
	CanLoad(sourcePath string) bool

	// Load extracts a LoadedDocument from sourcePath.
	Load(ctx context.Context, sourcePath string) (LoadedDocument, error)

	// Name identifies the loader for logging and error details.
	Name() string
}

// Chunker splits one page's text into ordered chunk texts. The ingest
// orchestrator calls it once per page so each resulting chunk can
// carry that page's index; chunk order is treated as insertion order.
type Chunker interface {
	Chunk(ctx context.Context, pageText string) ([]string, error)
}

// Embedder turns chunk text into a fixed-dimension dense vector.
// Implementations that wrap a remote model should apply their own
// batching and retry policy internally; EmbedBatch exists so callers
// that can batch get to.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
}

// HeaderFooterFilter strips running headers/footers from a page's raw
// text before chunking, between Loader and Chunker. No heuristic
// implementation ships by default; the ingest orchestrator's default
// is the identity function.
type HeaderFooterFilter func(pageText string) string

// PrefixFunc generates the short contextual augmentation prepended to
// a chunk's content before it is indexed and embedded. docContext is
// whatever surrounding-document summary the caller has on hand. An
// error, or a return that is empty after sanitizing, makes the ingest
// orchestrator fall back to the heuristic prefix.
type PrefixFunc func(ctx context.Context, chunkText, docContext string) (string, error)
