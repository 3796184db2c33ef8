package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lolbigtime/Folio/internal/collab"
	"github.com/lolbigtime/Folio/internal/store"
)

type fakeLoader struct {
	ext string
	doc collab.LoadedDocument
}

func (f *fakeLoader) CanLoad(path string) bool { return hasSuffix(path, f.ext) }
func (f *fakeLoader) Load(ctx context.Context, path string) (collab.LoadedDocument, error) {
	return f.doc, nil
}
func (f *fakeLoader) Name() string { return "fake-loader" }

func hasSuffix(s, suffix string) bool {
	if len(suffix) > len(s) {
		return false
	}
	return s[len(s)-len(suffix):] == suffix
}

type wholePageChunker struct{}

func (wholePageChunker) Chunk(ctx context.Context, pageText string) ([]string, error) {
	if pageText == "" {
		return nil, nil
	}
	return []string{pageText}, nil
}

type fakeEmbedder struct{ dim int }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, f.dim), nil
}
func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}
func (f *fakeEmbedder) Dimensions() int   { return f.dim }
func (f *fakeEmbedder) ModelName() string { return "fake" }

func newTestDeps(t *testing.T, doc collab.LoadedDocument, embedder collab.Embedder) Dependencies {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return Dependencies{
		Store:   s,
		Loaders: []collab.Loader{&fakeLoader{ext: ".txt", doc: doc}},
		Chunker: wholePageChunker{},
		Embedder: embedder,
	}
}

func twoPageDoc() collab.LoadedDocument {
	return collab.LoadedDocument{
		Name: "doc.txt",
		Pages: []collab.Page{
			{Index: 1, Text: "page one body text"},
			{Index: 2, Text: "page two body text"},
		},
	}
}

func TestSyncIngestInsertsChunksAndUpdatesSource(t *testing.T) {
	deps := newTestDeps(t, twoPageDoc(), nil)
	o := New(deps, Config{MaxTokensPerChunk: 650, OverlapTokens: 80})

	result, err := o.Sync(context.Background(), "src-1", "doc.txt", "Doc")
	require.NoError(t, err)
	require.Equal(t, 2, result.Chunks)

	src, err := deps.Store.FetchSource("src-1")
	require.NoError(t, err)
	require.Equal(t, 2, src.Chunks)
}

func TestSyncIngestNoLoaderMatchIsInputFault(t *testing.T) {
	deps := newTestDeps(t, twoPageDoc(), nil)
	o := New(deps, Config{MaxTokensPerChunk: 650, OverlapTokens: 80})

	_, err := o.Sync(context.Background(), "src-1", "doc.pdf", "Doc")
	require.Error(t, err)
}

func TestSyncIngestContextualPrefixSetsSectionTitle(t *testing.T) {
	deps := newTestDeps(t, twoPageDoc(), nil)
	o := New(deps, Config{MaxTokensPerChunk: 650, OverlapTokens: 80, UseContextualPrefix: true})

	_, err := o.Sync(context.Background(), "src-1", "doc.txt", "Doc")
	require.NoError(t, err)

	chunks, err := deps.Store.FetchAllChunks("src-1")
	require.NoError(t, err)
	for _, c := range chunks {
		require.NotEmpty(t, c.SectionTitle)
	}
}

func TestAsyncIngestWithoutPrefixFnUsesHeuristic(t *testing.T) {
	deps := newTestDeps(t, twoPageDoc(), nil)
	o := New(deps, Config{MaxTokensPerChunk: 650, OverlapTokens: 80, UseContextualPrefix: true})

	result, err := o.Async(context.Background(), "src-1", "doc.txt", "Doc")
	require.NoError(t, err)
	require.Equal(t, 2, result.Chunks)
}

func TestAsyncIngestEmbedsWhenEmbedderConfigured(t *testing.T) {
	embedder := &fakeEmbedder{dim: 4}
	deps := newTestDeps(t, twoPageDoc(), embedder)
	o := New(deps, Config{MaxTokensPerChunk: 650, OverlapTokens: 80})

	_, err := o.Async(context.Background(), "src-1", "doc.txt", "Doc")
	require.NoError(t, err)

	chunks, err := deps.Store.FetchAllChunks("src-1")
	require.NoError(t, err)
	for _, c := range chunks {
		_, ok, err := deps.Store.FetchVector(c.ID)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestAsyncIngestPrefixFnFallsBackOnFailure(t *testing.T) {
	deps := newTestDeps(t, twoPageDoc(), nil)
	deps.PrefixFn = func(ctx context.Context, chunkText, docContext string) (string, error) {
		return "", errFailingPrefix
	}
	o := New(deps, Config{MaxTokensPerChunk: 650, OverlapTokens: 80, UseContextualPrefix: true})

	result, err := o.Async(context.Background(), "src-1", "doc.txt", "Doc")
	require.NoError(t, err)
	require.Equal(t, 2, result.Chunks)
}

var errFailingPrefix = errFailingPrefixType{}

type errFailingPrefixType struct{}

func (errFailingPrefixType) Error() string { return "prefix generation failed" }

func TestBackfillEmbedsMissingVectorsOnly(t *testing.T) {
	embedder := &fakeEmbedder{dim: 3}
	deps := newTestDeps(t, twoPageDoc(), nil)
	o := New(deps, Config{MaxTokensPerChunk: 650, OverlapTokens: 80})

	_, err := o.Sync(context.Background(), "src-1", "doc.txt", "Doc")
	require.NoError(t, err)

	deps.Embedder = embedder
	o2 := New(deps, Config{MaxTokensPerChunk: 650, OverlapTokens: 80})

	n, err := o2.Backfill(context.Background(), "src-1", 1)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestBackfillRequiresPositiveBatch(t *testing.T) {
	deps := newTestDeps(t, twoPageDoc(), &fakeEmbedder{dim: 2})
	o := New(deps, Config{MaxTokensPerChunk: 650, OverlapTokens: 80})

	require.Panics(t, func() {
		_, _ = o.Backfill(context.Background(), "src-1", 0)
	})
}

func TestBackfillWithoutEmbedderIsInputFault(t *testing.T) {
	deps := newTestDeps(t, twoPageDoc(), nil)
	o := New(deps, Config{MaxTokensPerChunk: 650, OverlapTokens: 80})

	_, err := o.Backfill(context.Background(), "src-1", 1)
	require.Error(t, err)
}

// recordingEmbedder records every text it's asked to embed and returns
// a vector deterministically derived from that text, so tests can
// check both "what was embedded" and "is the resulting vector stable".
type recordingEmbedder struct {
	dim   int
	texts []string
}

func (r *recordingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	r.texts = append(r.texts, text)
	return deterministicVector(text, r.dim), nil
}

func (r *recordingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		r.texts = append(r.texts, t)
		out[i] = deterministicVector(t, r.dim)
	}
	return out, nil
}

func (r *recordingEmbedder) Dimensions() int   { return r.dim }
func (r *recordingEmbedder) ModelName() string { return "recording" }

func deterministicVector(text string, dim int) []float32 {
	sum := 0
	for _, b := range []byte(text) {
		sum += int(b)
	}
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(sum + i)
	}
	return v
}

// TestHeuristicPrefixEmbedTextAndBackfillAgree covers the heuristic
// contextualizer's embed-text contract end to end: the text handed to
// the embedder begins with "[", and backfilling a chunk that was
// ingested without an embedder reproduces the exact same augmented
// text (and therefore the exact same vector) Async would have embedded
// inline.
func TestHeuristicPrefixEmbedTextAndBackfillAgree(t *testing.T) {
	deps := newTestDeps(t, twoPageDoc(), nil)
	o := New(deps, Config{MaxTokensPerChunk: 650, OverlapTokens: 80, UseContextualPrefix: true})

	_, err := o.Sync(context.Background(), "src-1", "doc.txt", "Doc")
	require.NoError(t, err)

	chunks, err := deps.Store.FetchAllChunks("src-1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	expected := make(map[string]string, len(chunks))
	for _, c := range chunks {
		text := augment(c.SectionTitle, c.Content)
		require.True(t, strings.HasPrefix(text, "["), "embed text must begin with '[', got %q", text)
		expected[c.ID] = text
	}

	embedder := &recordingEmbedder{dim: 3}
	deps.Embedder = embedder
	o2 := New(deps, Config{MaxTokensPerChunk: 650, OverlapTokens: 80})

	n, err := o2.Backfill(context.Background(), "src-1", 2)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.ElementsMatch(t, valuesOf(expected), embedder.texts)

	for id, text := range expected {
		vec, ok, err := deps.Store.FetchVector(id)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, deterministicVector(text, 3), vec)
	}
}

func valuesOf(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func TestSanitizePrefixRules(t *testing.T) {
	require.Equal(t, "hello world", sanitizePrefix("  hello\nworld.  "))
	require.Equal(t, "context here", sanitizePrefix("Answer: context here"))
	require.Equal(t, "context here", sanitizePrefix("answer:context here."))
}
