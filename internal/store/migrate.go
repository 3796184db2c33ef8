package store

import (
	"database/sql"
	"fmt"

	"github.com/lolbigtime/Folio/internal/folioerr"
)

// migration is one ordered schema script. Scripts run inside a single
// transaction at database open.
type migration struct {
	name string
	sql  []string
}

// migrations is the fixed ordered list of schema scripts. The column
// order inside doc_chunks matters: doc_chunks_fts is declared as an
// FTS5 external-content table whose three columns map onto the
// *leftmost* three non-rowid columns of doc_chunks, in the same order
// — hence (content, source_id, section_title) come first, before the
// id/page columns that callers otherwise treat as primary.
var migrations = []migration{
	{
		name: "0001_sources",
		sql: []string{
			`CREATE TABLE IF NOT EXISTS sources (
				id TEXT PRIMARY KEY,
				display_name TEXT NOT NULL DEFAULT '',
				file_path TEXT NOT NULL DEFAULT '',
				pages INTEGER NOT NULL DEFAULT 0,
				chunks INTEGER NOT NULL DEFAULT 0,
				imported_at TEXT NOT NULL DEFAULT ''
			)`,
		},
	},
	{
		name: "0002_doc_chunks",
		sql: []string{
			`CREATE TABLE IF NOT EXISTS doc_chunks (
				ordinal INTEGER PRIMARY KEY AUTOINCREMENT,
				content TEXT NOT NULL,
				source_id TEXT NOT NULL,
				section_title TEXT NOT NULL DEFAULT '',
				id TEXT NOT NULL UNIQUE,
				page INTEGER,
				FOREIGN KEY (source_id) REFERENCES sources(id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_doc_chunks_source ON doc_chunks(source_id)`,
		},
	},
	{
		name: "0003_doc_chunks_fts",
		sql: []string{
			`CREATE VIRTUAL TABLE IF NOT EXISTS doc_chunks_fts USING fts5(
				content,
				source_id UNINDEXED,
				section_title UNINDEXED,
				content='doc_chunks',
				content_rowid='ordinal',
				tokenize='unicode61 remove_diacritics 2 tokenchars ''-_'''
			)`,
		},
	},
	{
		name: "0004_prefix_cache",
		sql: []string{
			`CREATE TABLE IF NOT EXISTS prefix_cache (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				meta TEXT NOT NULL DEFAULT '{}',
				created_at TEXT NOT NULL DEFAULT ''
			)`,
		},
	},
	{
		name: "0005_doc_chunk_vectors",
		sql: []string{
			`CREATE TABLE IF NOT EXISTS doc_chunk_vectors (
				chunk_id TEXT PRIMARY KEY,
				dim INTEGER NOT NULL,
				vec BLOB NOT NULL,
				FOREIGN KEY (chunk_id) REFERENCES doc_chunks(id) ON DELETE CASCADE
			)`,
		},
	},
}

// runMigrations applies every migration in order inside a single
// transaction, then reconciles any legacy ordinal-keyed vector table.
// A failure at any step is a fatal open error (storage fault).
func runMigrations(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return folioerr.Storage(folioerr.ErrCodeMigrationFailed, "begin migration transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (name TEXT PRIMARY KEY)`); err != nil {
		return folioerr.Storage(folioerr.ErrCodeMigrationFailed, "create schema_migrations", err)
	}

	for _, m := range migrations {
		var applied int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, m.name).Scan(&applied); err != nil {
			return folioerr.Storage(folioerr.ErrCodeMigrationFailed, fmt.Sprintf("check migration %s", m.name), err)
		}
		if applied > 0 {
			continue
		}
		for _, stmt := range m.sql {
			if _, err := tx.Exec(stmt); err != nil {
				return folioerr.Storage(folioerr.ErrCodeMigrationFailed, fmt.Sprintf("apply migration %s", m.name), err)
			}
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(name) VALUES (?)`, m.name); err != nil {
			return folioerr.Storage(folioerr.ErrCodeMigrationFailed, fmt.Sprintf("record migration %s", m.name), err)
		}
	}

	if err := reconcileLegacyVectorTable(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return folioerr.Storage(folioerr.ErrCodeMigrationFailed, "commit migration transaction", err)
	}
	return nil
}

// reconcileLegacyVectorTable detects the legacy doc_chunk_vectors
// layout keyed by chunk ordinal (no chunk_id column) and rebuilds it
// keyed by chunk id, joining legacy rows against current chunk rows on
// the ordinal.
func reconcileLegacyVectorTable(tx *sql.Tx) error {
	rows, err := tx.Query(`PRAGMA table_info(doc_chunk_vectors)`)
	if err != nil {
		return folioerr.Storage(folioerr.ErrCodeMigrationFailed, "inspect doc_chunk_vectors", err)
	}
	hasChunkID := false
	hasOrdinal := false
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			rows.Close()
			return folioerr.Storage(folioerr.ErrCodeMigrationFailed, "scan doc_chunk_vectors columns", err)
		}
		switch name {
		case "chunk_id":
			hasChunkID = true
		case "ordinal":
			hasOrdinal = true
		}
	}
	rows.Close()

	if hasChunkID || !hasOrdinal {
		// Already in the current layout, or table doesn't exist yet.
		return nil
	}

	stmts := []string{
		`CREATE TABLE doc_chunk_vectors_migrated (
			chunk_id TEXT PRIMARY KEY,
			dim INTEGER NOT NULL,
			vec BLOB NOT NULL,
			FOREIGN KEY (chunk_id) REFERENCES doc_chunks(id) ON DELETE CASCADE
		)`,
		`INSERT INTO doc_chunk_vectors_migrated (chunk_id, dim, vec)
			SELECT dc.id, legacy.dim, legacy.vec
			FROM doc_chunk_vectors legacy
			JOIN doc_chunks dc ON dc.ordinal = legacy.ordinal`,
		`DROP TABLE doc_chunk_vectors`,
		`ALTER TABLE doc_chunk_vectors_migrated RENAME TO doc_chunk_vectors`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return folioerr.Storage(folioerr.ErrCodeMigrationFailed, "migrate legacy vector table", err)
		}
	}
	return nil
}
