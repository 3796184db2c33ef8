package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/lolbigtime/Folio/internal/folioerr"
)

// CachePrefixKey computes the prefix cache key: the hex SHA-256 of
// "sourceId|pageIndexOrMinusOne|chunkText". page < 0 (no page concept)
// is encoded as -1.
func CachePrefixKey(sourceID string, page int, chunkText string) string {
	sum := sha256.Sum256([]byte(sourceID + "|" + strconv.Itoa(page) + "|" + chunkText))
	return hex.EncodeToString(sum[:])
}

// GetCachedPrefix returns the cached augmentation for key, or
// ("", false, nil) on a cache miss.
func (s *Store) GetCachedPrefix(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM prefix_cache WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, folioerr.Storage(folioerr.ErrCodeConstraint, "fetch cached prefix", err)
	}
	return value, true, nil
}

// PutCachedPrefix stores (or overwrites) the augmentation for key.
// meta is an opaque JSON document describing how value was produced
// (e.g. the prefix generator's name and version); an empty meta is
// stored as "{}".
func (s *Store) PutCachedPrefix(key, value, meta string) error {
	if meta == "" {
		meta = "{}"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO prefix_cache (key, value, meta, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, meta = excluded.meta, created_at = excluded.created_at
	`, key, value, meta, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return folioerr.Storage(folioerr.ErrCodeConstraint, "store cached prefix", err)
	}
	return nil
}
