package simplechunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkEmptyPageReturnsNil(t *testing.T) {
	c := New(650, 80)
	chunks, err := c.Chunk(context.Background(), "")
	require.NoError(t, err)
	require.Nil(t, chunks)
}

func TestChunkShortPageIsOneChunk(t *testing.T) {
	c := New(650, 80)
	chunks, err := c.Chunk(context.Background(), "a short page of text")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, "a short page of text", chunks[0])
}

func TestChunkLongPageSplitsWithOverlap(t *testing.T) {
	c := New(10, 3)
	word := "alpha "
	text := strings.Repeat(word, 100)

	chunks, err := c.Chunk(context.Background(), text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		require.NotEmpty(t, chunk)
	}
}

func TestChunkNeverSplitsWordsWhenBoundaryFound(t *testing.T) {
	c := New(5, 1)
	text := strings.Repeat("word ", 50)
	chunks, err := c.Chunk(context.Background(), text)
	require.NoError(t, err)
	for _, chunk := range chunks {
		require.False(t, strings.HasPrefix(chunk, "ord"))
		require.False(t, strings.HasSuffix(chunk, "wo"))
	}
}
