package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckConsistencyCleanStore(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.InsertSource("src-1", "/a.pdf", "A", 1, 0))
	id, err := s.Insert("src-1", nil, "chunk body", "", "")
	require.NoError(t, err)
	require.NoError(t, s.InsertVector(id, []float32{1, 0}))

	result, err := s.CheckConsistency()
	require.NoError(t, err)
	require.Equal(t, 1, result.Checked)
	require.Empty(t, result.Inconsistencies)
}

func TestCheckConsistencyDetectsMissingFTS(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.InsertSource("src-1", "/a.pdf", "A", 1, 0))
	_, err := s.Insert("src-1", nil, "chunk body", "", "")
	require.NoError(t, err)

	_, err = s.db.Exec(`DELETE FROM doc_chunks_fts`)
	require.NoError(t, err)

	result, err := s.CheckConsistency()
	require.NoError(t, err)
	require.Len(t, result.Inconsistencies, 1)
	require.Equal(t, InconsistencyMissingFTS, result.Inconsistencies[0].Type)

	require.NoError(t, s.RepairMissingFTS())
	result, err = s.CheckConsistency()
	require.NoError(t, err)
	require.Empty(t, result.Inconsistencies)
}

func TestCheckConsistencyDetectsOrphanVector(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.InsertSource("src-1", "/a.pdf", "A", 1, 0))
	id, err := s.Insert("src-1", nil, "chunk body", "", "")
	require.NoError(t, err)
	require.NoError(t, s.InsertVector(id, []float32{1, 0}))

	// ON DELETE CASCADE would otherwise remove the vector row along
	// with its chunk; disable enforcement to simulate the kind of
	// external tampering CheckConsistency exists to catch.
	_, err = s.db.Exec(`PRAGMA foreign_keys = OFF`)
	require.NoError(t, err)
	_, err = s.db.Exec(`DELETE FROM doc_chunks WHERE id = ?`, id)
	require.NoError(t, err)
	_, err = s.db.Exec(`PRAGMA foreign_keys = ON`)
	require.NoError(t, err)

	result, err := s.CheckConsistency()
	require.NoError(t, err)

	found := false
	for _, issue := range result.Inconsistencies {
		if issue.Type == InconsistencyOrphanVector && issue.ChunkID == id {
			found = true
		}
	}
	require.True(t, found)
}
