// Package textloader is Folio's default Loader (C10): it reads plain
// text and Markdown files from disk. PDF ingestion needs a decoder
// this pack carries none of (see DESIGN.md), so it is left to a
// caller-supplied Loader; textloader only ever recognizes .txt/.md/.markdown.
package textloader

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/lolbigtime/Folio/internal/collab"
	"github.com/lolbigtime/Folio/internal/folioerr"
)

var supportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// Loader reads plain text/Markdown files, splitting them into pages on
// form-feed characters (U+000C) when present; files with no form feed
// are a single page.
type Loader struct{}

// New returns a ready-to-use textloader.
func New() *Loader { return &Loader{} }

func (l *Loader) CanLoad(sourcePath string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(sourcePath))]
}

func (l *Loader) Load(ctx context.Context, sourcePath string) (collab.LoadedDocument, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return collab.LoadedDocument{}, folioerr.Loader(folioerr.ErrCodeDecodeFailed, "read "+sourcePath, err)
	}

	raw := strings.Split(string(data), "\f")
	pages := make([]collab.Page, len(raw))
	for i, text := range raw {
		pages[i] = collab.Page{Index: i + 1, Text: text}
	}

	return collab.LoadedDocument{
		Name:  filepath.Base(sourcePath),
		Pages: pages,
	}, nil
}

func (l *Loader) Name() string { return "textloader" }
