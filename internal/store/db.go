package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/lolbigtime/Folio/internal/folioerr"
)

// openDB opens the sqlite file at path (or an in-memory database for
// ":memory:"), applying the pragmas the store layer depends on:
// single-writer WAL mode, a busy timeout, and foreign keys enabled
// (required by the vector table's ON DELETE CASCADE).
//
// For a real file path, an advisory flock guards against the
// multiple-writer-process scenario spec's Non-goals exclude from
// support — rather than silently corrupting a WAL file, a second
// process opening the same path fails fast with a storage fault.
func openDB(path string) (*sql.DB, *flock.Flock, error) {
	var lock *flock.Flock
	dsn := path
	if path != ":memory:" && path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, folioerr.Storage(folioerr.ErrCodeOpenFailed, "create database directory", err)
		}
		lock = flock.New(path + ".lock")
		locked, err := lock.TryLock()
		if err != nil {
			return nil, nil, folioerr.Storage(folioerr.ErrCodeOpenFailed, "acquire database lock", err)
		}
		if !locked {
			return nil, nil, folioerr.Storage(folioerr.ErrCodeOpenFailed, fmt.Sprintf("database %s is locked by another process", path), nil)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, nil, folioerr.Storage(folioerr.ErrCodeOpenFailed, "open sqlite database", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, nil, folioerr.Storage(folioerr.ErrCodeOpenFailed, "enable foreign keys", err)
	}

	return db, lock, nil
}
