package store

import (
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/lolbigtime/Folio/internal/folioerr"
)

// Store is the chunk/source store (C2), the prefix cache (C3), and the
// vector store (C4), all backed by one sqlite file. Writes are
// serialized onto a single writer lane; reads use the database's own
// snapshot isolation under WAL mode.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	mu   sync.Mutex
	path string
}

// Open opens (creating if necessary) the sqlite database at path,
// applying the migration ladder (C1). path may be ":memory:" for an
// in-memory database.
func Open(path string) (*Store, error) {
	db, lock, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, err
	}
	return &Store{db: db, lock: lock, path: path}, nil
}

// Close releases the database handle and any advisory file lock.
func (s *Store) Close() error {
	err := s.db.Close()
	if s.lock != nil {
		if uerr := s.lock.Unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}
	return err
}

// InsertSource upserts a source row by id. Fields other than id are
// overwritten; imported_at is set to wall clock time on every write.
func (s *Store) InsertSource(id, filePath, displayName string, pages, chunkCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO sources (id, display_name, file_path, pages, chunks, imported_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			file_path = excluded.file_path,
			pages = excluded.pages,
			chunks = excluded.chunks,
			imported_at = excluded.imported_at
	`, id, displayName, filePath, pages, chunkCount, time.Now().UTC().Format("2006-01-02T15:04:05.000000000Z07:00"))
	if err != nil {
		return folioerr.Storage(folioerr.ErrCodeConstraint, "insert source", err)
	}
	return nil
}

// legacySourcePattern returns the SQL LIKE pattern matching the
// historical composite source ids shaped "<base> p.<n>".
func legacySourcePattern(base string) string {
	return base + " p.%"
}

// DeleteChunksForSource removes every chunk row whose source id equals
// id or matches the legacy "<id> p.%" pattern, then rebuilds the FTS
// mirror. It is idempotent and does not remove the source row itself.
func (s *Store) DeleteChunksForSource(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteChunksForSourceLocked(id)
}

func (s *Store) deleteChunksForSourceLocked(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return folioerr.Storage(folioerr.ErrCodeConstraint, "begin delete transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM doc_chunks WHERE source_id = ? OR source_id LIKE ?`, id, legacySourcePattern(id)); err != nil {
		return folioerr.Storage(folioerr.ErrCodeConstraint, "delete chunks for source", err)
	}
	if _, err := tx.Exec(`INSERT INTO doc_chunks_fts(doc_chunks_fts) VALUES('rebuild')`); err != nil {
		return folioerr.Storage(folioerr.ErrCodeConstraint, "rebuild fts mirror", err)
	}
	if err := tx.Commit(); err != nil {
		return folioerr.Storage(folioerr.ErrCodeConstraint, "commit delete transaction", err)
	}
	return nil
}

// DeleteSource deletes all of a source's chunks, then the source row.
func (s *Store) DeleteSource(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.deleteChunksForSourceLocked(id); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM sources WHERE id = ?`, id); err != nil {
		return folioerr.Storage(folioerr.ErrCodeConstraint, "delete source", err)
	}
	return nil
}

// Insert writes a new chunk row with a freshly generated id and a
// matching FTS mirror row sharing its ordinal. ftsContent defaults to
// content when empty. Returns the new chunk id.
func (s *Store) Insert(sourceID string, page *int, content, sectionTitle, ftsContent string) (string, error) {
	if ftsContent == "" {
		ftsContent = content
	}
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return "", folioerr.Storage(folioerr.ErrCodeConstraint, "begin insert transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO doc_chunks (content, source_id, section_title, id, page)
		VALUES (?, ?, ?, ?, ?)
	`, content, sourceID, sectionTitle, id, page)
	if err != nil {
		return "", folioerr.Storage(folioerr.ErrCodeConstraint, "insert chunk", err)
	}
	ordinal, err := res.LastInsertId()
	if err != nil {
		return "", folioerr.Storage(folioerr.ErrCodeConstraint, "read chunk ordinal", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO doc_chunks_fts (rowid, content, source_id, section_title)
		VALUES (?, ?, ?, ?)
	`, ordinal, ftsContent, sourceID, sectionTitle); err != nil {
		return "", folioerr.Storage(folioerr.ErrCodeConstraint, "insert fts mirror row", err)
	}

	if err := tx.Commit(); err != nil {
		return "", folioerr.Storage(folioerr.ErrCodeConstraint, "commit insert transaction", err)
	}
	return id, nil
}

// FtsHits runs an FTS5 MATCH query, optionally restricted to a source
// id, ordered by ascending BM25 (lower is better), limited as
// requested. The excerpt strips a leading "sectionTitle " prefix once.
func (s *Store) FtsHits(query string, sourceFilter string, limit int) ([]FTSHit, error) {
	args := []any{query}
	sqlQuery := `
		SELECT f.rowid, f.source_id, bm25(doc_chunks_fts) AS score,
		       snippet(doc_chunks_fts, 0, '', '', '…', 18) AS excerpt,
		       f.section_title, dc.page
		FROM doc_chunks_fts f
		JOIN doc_chunks dc ON dc.ordinal = f.rowid
		WHERE doc_chunks_fts MATCH ?
	`
	if sourceFilter != "" {
		sqlQuery += " AND f.source_id = ?"
		args = append(args, sourceFilter)
	}
	sqlQuery += " ORDER BY score ASC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "query fts hits", err)
	}
	defer rows.Close()

	var hits []FTSHit
	for rows.Next() {
		var h FTSHit
		var sectionTitle string
		var page sql.NullInt64
		if err := rows.Scan(&h.Ordinal, &h.SourceID, &h.BM25, &h.Excerpt, &sectionTitle, &page); err != nil {
			return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "scan fts hit", err)
		}
		if page.Valid {
			p := int(page.Int64)
			h.Page = &p
		}
		h.Excerpt = stripSectionTitlePrefix(h.Excerpt, sectionTitle)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "iterate fts hits", err)
	}
	return hits, nil
}

// stripSectionTitlePrefix removes a leading "sectionTitle " prefix from
// excerpt exactly once.
func stripSectionTitlePrefix(excerpt, sectionTitle string) string {
	if sectionTitle == "" {
		return excerpt
	}
	prefix := sectionTitle + " "
	return strings.TrimPrefix(excerpt, prefix)
}

// FetchNeighbors returns up to expand chunks strictly before
// aroundOrdinal (ascending), the center chunk, then up to expand after,
// all restricted to sourceID.
func (s *Store) FetchNeighbors(sourceID string, aroundOrdinal int64, expand int) ([]NeighborChunk, error) {
	before, err := s.queryChunks(`
		SELECT ordinal, id, source_id, page, content, section_title FROM doc_chunks
		WHERE source_id = ? AND ordinal < ? ORDER BY ordinal DESC LIMIT ?
	`, sourceID, aroundOrdinal, expand)
	if err != nil {
		return nil, err
	}
	reverse(before)

	center, err := s.queryChunks(`
		SELECT ordinal, id, source_id, page, content, section_title FROM doc_chunks
		WHERE source_id = ? AND ordinal = ?
	`, sourceID, aroundOrdinal)
	if err != nil {
		return nil, err
	}

	after, err := s.queryChunks(`
		SELECT ordinal, id, source_id, page, content, section_title FROM doc_chunks
		WHERE source_id = ? AND ordinal > ? ORDER BY ordinal ASC LIMIT ?
	`, sourceID, aroundOrdinal, expand)
	if err != nil {
		return nil, err
	}

	out := make([]NeighborChunk, 0, len(before)+len(center)+len(after))
	out = append(out, before...)
	out = append(out, center...)
	out = append(out, after...)
	return out, nil
}

// FetchChunksFromPage returns all chunks whose page is >= page,
// ordered by ordinal.
func (s *Store) FetchChunksFromPage(sourceID string, page int) ([]NeighborChunk, error) {
	return s.queryChunks(`
		SELECT ordinal, id, source_id, page, content, section_title FROM doc_chunks
		WHERE source_id = ? AND page >= ? ORDER BY ordinal ASC
	`, sourceID, page)
}

// FetchAllChunks returns all chunks of a source, ordered by ordinal.
func (s *Store) FetchAllChunks(sourceID string) ([]NeighborChunk, error) {
	return s.queryChunks(`
		SELECT ordinal, id, source_id, page, content, section_title FROM doc_chunks
		WHERE source_id = ? ORDER BY ordinal ASC
	`, sourceID)
}

func (s *Store) queryChunks(query string, args ...any) ([]NeighborChunk, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "query chunks", err)
	}
	defer rows.Close()

	var out []NeighborChunk
	for rows.Next() {
		var c NeighborChunk
		var page sql.NullInt64
		if err := rows.Scan(&c.Ordinal, &c.ID, &c.SourceID, &page, &c.Content, &c.SectionTitle); err != nil {
			return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "scan chunk row", err)
		}
		if page.Valid {
			p := int(page.Int64)
			c.Page = &p
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "iterate chunks", err)
	}
	return out, nil
}

func reverse(chunks []NeighborChunk) {
	for i, j := 0, len(chunks)-1; i < j; i, j = i+1, j-1 {
		chunks[i], chunks[j] = chunks[j], chunks[i]
	}
}

// FindAnchorOrdinal returns the ordinal of the first chunk in sourceID
// whose content contains the anchor substring (case-insensitive),
// or (0, false, nil) when there is no match.
func (s *Store) FindAnchorOrdinal(sourceID, anchor string) (int64, bool, error) {
	var ordinal int64
	pattern := "%" + escapeLike(anchor) + "%"
	err := s.db.QueryRow(`
		SELECT ordinal FROM doc_chunks
		WHERE source_id = ? AND content LIKE ? ESCAPE '\' ORDER BY ordinal ASC LIMIT 1
	`, sourceID, pattern).Scan(&ordinal)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, folioerr.Storage(folioerr.ErrCodeConstraint, "find anchor ordinal", err)
	}
	return ordinal, true, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// FetchSource looks up source metadata by id. Returns nil, nil if no
// such source exists.
func (s *Store) FetchSource(id string) (*Source, error) {
	var src Source
	var importedAt string
	err := s.db.QueryRow(`
		SELECT id, display_name, file_path, pages, chunks, imported_at FROM sources WHERE id = ?
	`, id).Scan(&src.ID, &src.DisplayName, &src.FilePath, &src.Pages, &src.Chunks, &importedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "fetch source", err)
	}
	src.ImportedAt, _ = time.Parse(time.RFC3339Nano, importedAt)
	return &src, nil
}

// ListSources returns all sources ordered by import time descending.
func (s *Store) ListSources() ([]Source, error) {
	rows, err := s.db.Query(`
		SELECT id, display_name, file_path, pages, chunks, imported_at FROM sources
		ORDER BY imported_at DESC
	`)
	if err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "list sources", err)
	}
	defer rows.Close()

	var out []Source
	for rows.Next() {
		var src Source
		var importedAt string
		if err := rows.Scan(&src.ID, &src.DisplayName, &src.FilePath, &src.Pages, &src.Chunks, &importedAt); err != nil {
			return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "scan source row", err)
		}
		src.ImportedAt, _ = time.Parse(time.RFC3339Nano, importedAt)
		out = append(out, src)
	}
	if err := rows.Err(); err != nil {
		return nil, folioerr.Storage(folioerr.ErrCodeConstraint, "iterate sources", err)
	}
	return out, nil
}

// chunkCount returns the number of chunk rows for a source.
func (s *Store) chunkCount(sourceID string) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM doc_chunks WHERE source_id = ?`, sourceID).Scan(&n); err != nil {
		return 0, folioerr.Storage(folioerr.ErrCodeConstraint, "count chunks", err)
	}
	return n, nil
}
