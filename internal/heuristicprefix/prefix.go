// Package heuristicprefix is Folio's synchronous contextualizer: a
// pattern-based fallback that needs no model call, used whenever an
// async prefix function isn't configured or fails.
package heuristicprefix

import (
	"fmt"
	"regexp"
	"strings"
)

// pageHeaderPattern matches a standalone "page N"-shaped line so it
// can be skipped when hunting for the first meaningful line of a page.
var pageHeaderPattern = regexp.MustCompile(`(?i)^\s*page\s+\d+\s*$`)

// Generate builds a short contextual prefix from the document name,
// its page index, and the first non-trivial line of that page's text
// that isn't itself a "page N" header. The result always begins with
// "[", marking it as heuristically generated.
func Generate(docName string, pageIndex int, pageText string) string {
	var bracket string
	if docName != "" {
		bracket = fmt.Sprintf("[From %s, page %d]", docName, pageIndex)
	} else {
		bracket = fmt.Sprintf("[page %d]", pageIndex)
	}

	parts := []string{bracket}
	if line := firstMeaningfulLine(pageText); line != "" {
		parts = append(parts, line)
	}

	return strings.Join(parts, ", ")
}

func firstMeaningfulLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if pageHeaderPattern.MatchString(trimmed) {
			continue
		}
		return trimmed
	}
	return ""
}
