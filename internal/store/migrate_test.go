package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunMigrationsIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, runMigrations(s.db))
	require.NoError(t, runMigrations(s.db))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	require.Equal(t, len(migrations), count)
}

func TestReconcileLegacyVectorTableRekeysByChunkID(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.InsertSource("src-1", "/a.pdf", "A", 1, 0))
	id, err := s.Insert("src-1", nil, "chunk body", "", "")
	require.NoError(t, err)

	var ordinal int64
	require.NoError(t, s.db.QueryRow(`SELECT ordinal FROM doc_chunks WHERE id = ?`, id).Scan(&ordinal))

	// Simulate a database produced before the ordinal-keyed vector
	// table was replaced: drop the current layout and recreate it
	// keyed by ordinal with one legacy row.
	_, err = s.db.Exec(`DROP TABLE doc_chunk_vectors`)
	require.NoError(t, err)
	_, err = s.db.Exec(`CREATE TABLE doc_chunk_vectors (ordinal INTEGER PRIMARY KEY, dim INTEGER NOT NULL, vec BLOB NOT NULL)`)
	require.NoError(t, err)
	_, err = s.db.Exec(`INSERT INTO doc_chunk_vectors (ordinal, dim, vec) VALUES (?, ?, ?)`, ordinal, 2, encodeVector([]float32{1, 2}))
	require.NoError(t, err)

	require.NoError(t, runMigrations(s.db))

	vec, ok, err := s.FetchVector(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []float32{1, 2}, vec)
}
