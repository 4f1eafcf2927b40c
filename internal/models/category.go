package models

import (
	"fmt"
	"strings"
)

// MediaCategory identifies the kind of media a request is about.
// It is a closed enumeration; routing decisions key off it.
type MediaCategory string

const (
	CategoryAnime  MediaCategory = "Anime"
	CategoryManga  MediaCategory = "Manga"
	CategoryBook   MediaCategory = "Book"
	CategoryMovie  MediaCategory = "Movie"
	CategorySeries MediaCategory = "Series"
)

// Categories returns all known media categories.
func Categories() []MediaCategory {
	return []MediaCategory{CategoryAnime, CategoryManga, CategoryBook, CategoryMovie, CategorySeries}
}

// ParseCategory validates a raw category string against the known set.
// Matching is case-insensitive; the canonical spelling is returned.
func ParseCategory(raw string) (MediaCategory, error) {
	for _, category := range Categories() {
		if strings.EqualFold(raw, string(category)) {
			return category, nil
		}
	}
	return "", fmt.Errorf("unknown media category %q", raw)
}

// IsSerializedVideo reports whether records of this category can carry
// season structure.
func (c MediaCategory) IsSerializedVideo() bool {
	return c == CategorySeries || c == CategoryAnime
}

func (c MediaCategory) String() string {
	return string(c)
}
