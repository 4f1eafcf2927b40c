// Package markup cleans the free-text fields upstreams hand back. Several
// catalogs (AniList, TVmaze, ComicVine) embed HTML in their summaries; the
// canonical schema carries plain text only.
package markup

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PreviewLimit is the maximum length of a description preview, in runes,
// before the ellipsis marker.
const PreviewLimit = 200

var (
	lineBreaks = regexp.MustCompile(`(?i)<br\s*/?>`)
	spaceRuns  = regexp.MustCompile(`[ \t]+`)
	blankRuns  = regexp.MustCompile(`\n{3,}`)
)

// Strip removes HTML markup from s and normalizes whitespace. Plain text
// passes through with only whitespace cleanup.
func Strip(s string) string {
	if s == "" {
		return ""
	}
	s = lineBreaks.ReplaceAllString(s, "\n")
	if strings.ContainsRune(s, '<') {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			s = doc.Text()
		}
	}
	s = spaceRuns.ReplaceAllString(s, " ")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Preview truncates cleaned text to PreviewLimit runes, appending an
// ellipsis marker only when truncation actually occurred.
func Preview(s string) string {
	runes := []rune(s)
	if len(runes) <= PreviewLimit {
		return s
	}
	return string(runes[:PreviewLimit]) + "..."
}
