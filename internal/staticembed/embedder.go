// Package staticembed is Folio's default Embedder (C10): a
// hash-based, dependency-free embedding that needs no network call or
// model download. Its semantic quality is far below a neural model's,
// but it is deterministic and instant, so Folio works out of the box
// before a caller wires in a real embedder.
package staticembed

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// Dimensions is the fixed output width of the static embedder.
const Dimensions = 256

const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"of": true, "to": true, "in": true, "on": true, "for": true, "is": true,
	"are": true, "was": true, "were": true, "it": true, "that": true, "this": true,
}

// Embedder is Folio's default, dependency-free Embedder.
type Embedder struct{}

// New returns a ready-to-use static embedder.
func New() *Embedder { return &Embedder{} }

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, Dimensions), nil
	}
	return normalize(vectorize(trimmed)), nil
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *Embedder) Dimensions() int   { return Dimensions }
func (e *Embedder) ModelName() string { return "folio-static-v1" }

func vectorize(text string) []float32 {
	vector := make([]float32, Dimensions)

	for _, tok := range filterStopWords(tokenize(text)) {
		vector[hashIndex(tok)] += tokenWeight
	}

	normalized := normalizeForNgrams(text)
	for _, gram := range ngrams(normalized, ngramSize) {
		vector[hashIndex(gram)] += ngramWeight
	}

	return vector
}

func tokenize(text string) []string {
	words := tokenRegex.FindAllString(text, -1)
	tokens := make([]string, len(words))
	for i, w := range words {
		tokens[i] = strings.ToLower(w)
	}
	return tokens
}

func filterStopWords(tokens []string) []string {
	filtered := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !stopWords[t] {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

func normalizeForNgrams(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func ngrams(text string, n int) []string {
	if len(text) < n {
		return nil
	}
	out := make([]string, 0, len(text)-n+1)
	for i := 0; i <= len(text)-n; i++ {
		out = append(out, text[i:i+n])
	}
	return out
}

func hashIndex(s string) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(Dimensions))
}

func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, f := range v {
		sumSquares += float64(f) * float64(f)
	}
	if sumSquares == 0 {
		return v
	}
	norm := float32(1.0 / math.Sqrt(sumSquares))
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = f * norm
	}
	return out
}
