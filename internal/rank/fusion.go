// Package rank implements Folio's BM25/cosine rank fusion. It has no
// dependency on the store or retrieval packages: it operates purely on
// scores, so it can be unit tested in isolation.
package rank

import "sort"

// Candidate is one scored item going into fusion. Cosine is nil when
// no embedder is configured for the current query.
type Candidate struct {
	Ordinal int64
	BM25    float64
	Cosine  *float64
}

// Fused is a Candidate annotated with its fused score.
type Fused struct {
	Candidate
	Score float64
}

// Fuse normalizes and combines BM25 and cosine for every candidate and
// returns them ordered by descending fused score. Ties break on
// ascending BM25 (better lexical match first), then ascending ordinal.
func Fuse(candidates []Candidate, w float64) []Fused {
	if len(candidates) == 0 {
		return nil
	}

	min, max := candidates[0].BM25, candidates[0].BM25
	for _, c := range candidates[1:] {
		if c.BM25 < min {
			min = c.BM25
		}
		if c.BM25 > max {
			max = c.BM25
		}
	}

	out := make([]Fused, len(candidates))
	for i, c := range candidates {
		nb := normalizeBM25(c.BM25, min, max)
		score := nb
		if c.Cosine != nil {
			nc := normalizeCosine(*c.Cosine)
			score = w*nb + (1-w)*nc
		}
		out[i] = Fused{Candidate: c, Score: score}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].BM25 != out[j].BM25 {
			return out[i].BM25 < out[j].BM25
		}
		return out[i].Ordinal < out[j].Ordinal
	})
	return out
}

// normalizeBM25 min-max normalizes x against [min, max] with inversion
// so that a lower raw BM25 (FTS5's convention: lower is better)
// becomes a higher normalized score. A degenerate [min, max] (all
// candidates tied) normalizes to 1 for every candidate.
func normalizeBM25(x, min, max float64) float64 {
	if max == min {
		return 1
	}
	return (max - x) / (max - min)
}

// normalizeCosine affine-maps cosine similarity from [-1, 1] to [0, 1]
// and clamps, guarding against values fractionally outside range from
// floating-point error.
func normalizeCosine(y float64) float64 {
	nc := (y + 1) / 2
	if nc < 0 {
		return 0
	}
	if nc > 1 {
		return 1
	}
	return nc
}
