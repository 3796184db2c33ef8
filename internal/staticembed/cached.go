package staticembed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lolbigtime/Folio/internal/collab"
)

// DefaultCacheSize bounds a Cached embedder's in-memory LRU when the
// caller doesn't specify one.
const DefaultCacheSize = 1000

// Cached wraps any collab.Embedder with an LRU keyed on text+model, so
// repeated queries (a common case for the query side of hybrid search)
// skip recomputation entirely.
type Cached struct {
	inner collab.Embedder
	cache *lru.Cache[string, []float32]
}

// NewCached wraps inner with an LRU cache of the given size (falls
// back to DefaultCacheSize when size <= 0).
func NewCached(inner collab.Embedder, size int) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](size)
	return &Cached{inner: inner, cache: cache}
}

func (c *Cached) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text + "\x00" + c.inner.ModelName()))
	return hex.EncodeToString(sum[:])
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, v)
	return v, nil
}

func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := c.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *Cached) Dimensions() int   { return c.inner.Dimensions() }
func (c *Cached) ModelName() string { return c.inner.ModelName() }
