package store

import (
	"time"

	"github.com/lolbigtime/Folio/internal/folioerr"
)

// InconsistencyType categorizes a detected cross-table defect.
type InconsistencyType int

const (
	// InconsistencyOrphanFTS is an FTS mirror row with no matching
	// doc_chunks row at that ordinal.
	InconsistencyOrphanFTS InconsistencyType = iota
	// InconsistencyMissingFTS is a doc_chunks row with no mirror row at
	// its ordinal.
	InconsistencyMissingFTS
	// InconsistencyOrphanVector is a vector row whose chunk_id no
	// longer exists in doc_chunks.
	InconsistencyOrphanVector
)

func (t InconsistencyType) String() string {
	switch t {
	case InconsistencyOrphanFTS:
		return "orphan_fts"
	case InconsistencyMissingFTS:
		return "missing_fts"
	case InconsistencyOrphanVector:
		return "orphan_vector"
	default:
		return "unknown"
	}
}

// Inconsistency is one detected defect.
type Inconsistency struct {
	Type    InconsistencyType
	Ordinal int64
	ChunkID string
	Details string
}

// CheckResult is the outcome of a consistency pass.
type CheckResult struct {
	Checked         int
	Inconsistencies []Inconsistency
	Duration        time.Duration
}

// CheckConsistency compares doc_chunks against its FTS mirror and
// against doc_chunk_vectors, looking for the drift that can only
// happen if a prior process was killed mid-write or the database file
// was edited outside Folio. It is read-only; callers decide whether to
// rebuild the FTS mirror or re-embed the affected chunks.
func (s *Store) CheckConsistency() (*CheckResult, error) {
	start := time.Now()
	var issues []Inconsistency

	chunkOrdinals := make(map[int64]struct{})
	rows, err := s.db.Query(`SELECT ordinal FROM doc_chunks`)
	if err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "list chunk ordinals", err)
	}
	for rows.Next() {
		var ord int64
		if err := rows.Scan(&ord); err != nil {
			rows.Close()
			return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "scan chunk ordinal", err)
		}
		chunkOrdinals[ord] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "iterate chunk ordinals", err)
	}

	ftsOrdinals := make(map[int64]struct{})
	ftsRows, err := s.db.Query(`SELECT rowid FROM doc_chunks_fts`)
	if err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "list fts ordinals", err)
	}
	for ftsRows.Next() {
		var ord int64
		if err := ftsRows.Scan(&ord); err != nil {
			ftsRows.Close()
			return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "scan fts ordinal", err)
		}
		ftsOrdinals[ord] = struct{}{}
		if _, ok := chunkOrdinals[ord]; !ok {
			issues = append(issues, Inconsistency{Type: InconsistencyOrphanFTS, Ordinal: ord, Details: "fts mirror row has no matching doc_chunks row"})
		}
	}
	ftsRows.Close()
	if err := ftsRows.Err(); err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "iterate fts ordinals", err)
	}

	for ord := range chunkOrdinals {
		if _, ok := ftsOrdinals[ord]; !ok {
			issues = append(issues, Inconsistency{Type: InconsistencyMissingFTS, Ordinal: ord, Details: "doc_chunks row has no fts mirror row"})
		}
	}

	chunkIDs := make(map[string]struct{}, len(chunkOrdinals))
	idRows, err := s.db.Query(`SELECT id FROM doc_chunks`)
	if err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "list chunk ids", err)
	}
	for idRows.Next() {
		var id string
		if err := idRows.Scan(&id); err != nil {
			idRows.Close()
			return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "scan chunk id", err)
		}
		chunkIDs[id] = struct{}{}
	}
	idRows.Close()
	if err := idRows.Err(); err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "iterate chunk ids", err)
	}

	vecRows, err := s.db.Query(`SELECT chunk_id FROM doc_chunk_vectors`)
	if err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "list vector chunk ids", err)
	}
	for vecRows.Next() {
		var chunkID string
		if err := vecRows.Scan(&chunkID); err != nil {
			vecRows.Close()
			return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "scan vector chunk id", err)
		}
		if _, ok := chunkIDs[chunkID]; !ok {
			issues = append(issues, Inconsistency{Type: InconsistencyOrphanVector, ChunkID: chunkID, Details: "vector row has no matching doc_chunks row"})
		}
	}
	vecRows.Close()
	if err := vecRows.Err(); err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "iterate vector chunk ids", err)
	}

	return &CheckResult{
		Checked:         len(chunkOrdinals),
		Inconsistencies: issues,
		Duration:        time.Since(start),
	}, nil
}

// RepairMissingFTS rebuilds the FTS mirror wholesale. It is the only
// repair available for either orphan_fts or missing_fts findings since
// external-content FTS5 tables don't support a partial resync.
func (s *Store) RepairMissingFTS() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`INSERT INTO doc_chunks_fts(doc_chunks_fts) VALUES('rebuild')`); err != nil {
		return folioerr.Storage(folioerr.ErrCodeConstraint, "rebuild fts mirror", err)
	}
	return nil
}
