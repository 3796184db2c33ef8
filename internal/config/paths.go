package config

import (
	"os"
	"path/filepath"
)

// DefaultDBPath returns the default sqlite file location: a "Folio"
// subdirectory of the platform's user config directory, named
// "folio.sqlite". Intentionally thin — an os.UserConfigDir() call, a
// filepath.Join, and an os.MkdirAll that creates the "Folio" directory.
func DefaultDBPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "Folio")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "folio.sqlite"), nil
}
