// Package simplechunker is Folio's default Chunker: a character-
// windowed splitter with overlap, approximating tokens as ≈3.6 chars
// each since plain text carries no token boundaries of its own.
package simplechunker

import (
	"context"
	"strings"
)

// CharsPerToken is the fixed token-to-character approximation used to
// size windows from a token budget.
const CharsPerToken = 3.6

// Chunker splits page text into overlapping windows of roughly
// MaxTokensPerChunk tokens, each overlapping the previous by roughly
// OverlapTokens tokens. Both are converted to character counts via
// CharsPerToken. Window boundaries prefer the nearest whitespace
// within a small lookback so words aren't split mid-token.
type Chunker struct {
	MaxTokensPerChunk int
	OverlapTokens     int
}

// New returns a Chunker sized from a token budget.
func New(maxTokensPerChunk, overlapTokens int) *Chunker {
	return &Chunker{MaxTokensPerChunk: maxTokensPerChunk, OverlapTokens: overlapTokens}
}

func (c *Chunker) Chunk(ctx context.Context, pageText string) ([]string, error) {
	if pageText == "" {
		return nil, nil
	}

	maxChars := int(float64(c.MaxTokensPerChunk) * CharsPerToken)
	overlapChars := int(float64(c.OverlapTokens) * CharsPerToken)
	if maxChars <= 0 {
		maxChars = len(pageText)
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	var chunks []string
	runes := []rune(pageText)
	start := 0
	for start < len(runes) {
		end := start + maxChars
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = nearestBoundary(runes, end)
		}

		chunk := string(runes[start:end])
		if trimmed := strings.TrimSpace(chunk); trimmed != "" {
			chunks = append(chunks, trimmed)
		}

		if end >= len(runes) {
			break
		}
		next := nearestBoundary(runes, end-overlapChars)
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks, nil
}

// nearestBoundary walks backward from pos (bounded to a small
// lookback window) to the nearest whitespace rune, so a chunk doesn't
// split a word in half. If none is found within the lookback, pos is
// returned unchanged.
func nearestBoundary(runes []rune, pos int) int {
	const lookback = 80
	limit := pos - lookback
	if limit < 0 {
		limit = 0
	}
	for i := pos; i > limit; i-- {
		if isSpace(runes[i-1]) {
			return i
		}
	}
	return pos
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
