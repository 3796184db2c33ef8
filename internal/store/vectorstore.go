package store

import (
	"database/sql"
	"encoding/binary"
	"math"

	"github.com/lolbigtime/Folio/internal/folioerr"
)

// encodeVector packs a float32 slice into a little-endian byte blob,
// 4 bytes per component.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks a little-endian float32 blob. A blob whose
// length is not a multiple of 4 is a storage fault.
func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, folioerr.Storage(folioerr.ErrCodeBlobShapeMismatch, "vector blob length not a multiple of 4", nil)
	}
	n := len(blob) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out, nil
}

// InsertVector upserts the embedding for chunkID. dim must equal
// len(vec); a mismatch is a programmer error, not a storage fault,
// since it can only come from a caller misreporting its own output.
func (s *Store) InsertVector(chunkID string, vec []float32) error {
	if len(vec) == 0 {
		folioerr.Panic(folioerr.ErrCodeDimensionMismatch, "insert vector: empty vector")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO doc_chunk_vectors (chunk_id, dim, vec)
		VALUES (?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET dim = excluded.dim, vec = excluded.vec
	`, chunkID, len(vec), encodeVector(vec))
	if err != nil {
		return folioerr.Storage(folioerr.ErrCodeConstraint, "insert vector", err)
	}
	return nil
}

// FetchVector returns the stored vector for chunkID, or (nil, false,
// nil) when no embedding has been written for that chunk.
func (s *Store) FetchVector(chunkID string) ([]float32, bool, error) {
	var dim int
	var blob []byte
	err := s.db.QueryRow(`SELECT dim, vec FROM doc_chunk_vectors WHERE chunk_id = ?`, chunkID).Scan(&dim, &blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, folioerr.Storage(folioerr.ErrCodeConstraint, "fetch vector", err)
	}
	vec, err := decodeVector(blob)
	if err != nil {
		return nil, false, err
	}
	if len(vec) != dim {
		return nil, false, folioerr.Storage(folioerr.ErrCodeBlobShapeMismatch, "stored dim does not match blob length", nil)
	}
	return vec, true, nil
}

// FetchVectorsForSource returns every stored vector belonging to
// chunks of sourceID, keyed by chunk id.
func (s *Store) FetchVectorsForSource(sourceID string) (map[string]VectorRow, error) {
	rows, err := s.db.Query(`
		SELECT v.chunk_id, v.dim, v.vec
		FROM doc_chunk_vectors v
		JOIN doc_chunks dc ON dc.id = v.chunk_id
		WHERE dc.source_id = ?
	`, sourceID)
	if err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "fetch vectors for source", err)
	}
	defer rows.Close()

	out := make(map[string]VectorRow)
	for rows.Next() {
		var chunkID string
		var dim int
		var blob []byte
		if err := rows.Scan(&chunkID, &dim, &blob); err != nil {
			return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "scan vector row", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		out[chunkID] = VectorRow{ChunkID: chunkID, Dim: dim, Vector: vec}
	}
	if err := rows.Err(); err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "iterate vectors", err)
	}
	return out, nil
}

// ChunksMissingVectors returns the ids of sourceID's chunks that have
// no row in doc_chunk_vectors yet, for backfill.
func (s *Store) ChunksMissingVectors(sourceID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT dc.id FROM doc_chunks dc
		LEFT JOIN doc_chunk_vectors v ON v.chunk_id = dc.id
		WHERE dc.source_id = ? AND v.chunk_id IS NULL
		ORDER BY dc.ordinal ASC
	`, sourceID)
	if err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "list chunks missing vectors", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "scan chunk id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "iterate chunks missing vectors", err)
	}
	return ids, nil
}

// CosineSimilarity computes the cosine similarity of a and b using
// double-precision accumulators so a long run of small embedding
// values doesn't lose precision to repeated float32 rounding. Returns
// 0 if either vector is zero-length or all-zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		folioerr.Panic(folioerr.ErrCodeDimensionMismatch, "cosine similarity: dimension mismatch")
	}
	var dot, normA, normB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
