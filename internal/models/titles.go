package models

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// titleKey reduces a title to a comparison key: compatibility-normalized
// (full-width forms folded to their ASCII equivalents), width-folded,
// lowercased, and trimmed. Upstreams frequently list the same title with
// different width or casing; those must not survive as separate alternates.
func titleKey(s string) string {
	s = norm.NFKC.String(s)
	s = width.Fold.String(s)
	return strings.ToLower(strings.TrimSpace(s))
}

// DedupTitles builds the alternate-title list for a DetailRecord: candidates
// are kept in order, deduplicated by normalized key, with empties and
// duplicates of the primary title dropped.
func DedupTitles(primary string, candidates []string) []string {
	seen := map[string]struct{}{titleKey(primary): {}}
	var out []string
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		key := titleKey(c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// FirstNonEmpty returns the first non-blank candidate, or PlaceholderTitle
// when every candidate is unusable. Adapters use it as the title fallback
// chain so records never leave with an empty title.
func FirstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return PlaceholderTitle
}
