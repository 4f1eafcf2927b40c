package models

// PlaceholderTitle is substituted when no title candidate is usable.
// Titles are never empty on records leaving an adapter.
const PlaceholderTitle = "Unknown"

// SearchResult is the lightweight preview record returned by a search.
// IDs are provider-scoped; only the (Source, ID) pair is unique.
// Optional numeric fields use pointers so that "absent" and zero are
// never conflated.
type SearchResult struct {
	ID                 string   `json:"id"`
	Source             Source   `json:"source"`
	Title              string   `json:"title"`
	OriginalTitle      string   `json:"originalTitle,omitempty"`
	CoverURL           string   `json:"coverUrl,omitempty"`
	Year               *int     `json:"year,omitempty"`
	DescriptionPreview string   `json:"descriptionPreview"`
	Episodes           *int     `json:"episodes,omitempty"`
	Chapters           *int     `json:"chapters,omitempty"`
	Volumes            *int     `json:"volumes,omitempty"`
	PageCount          *int     `json:"pageCount,omitempty"`
	Genres             []string `json:"genres,omitempty"`
	Authors            []string `json:"authors,omitempty"`
	Studios            []string `json:"studios,omitempty"`
}

// Season describes one season of serialized video content.
type Season struct {
	Number          int    `json:"number"`
	Episodes        *int   `json:"episodes,omitempty"`
	DurationMinutes *int   `json:"durationMinutes,omitempty"`
	ReleaseDate     string `json:"releaseDate,omitempty"`
}

// DetailRecord is the full record returned by a details lookup.
// It is a superset of SearchResult. Records are built fresh per request and
// owned by the caller once returned; nothing here is shared or retained.
type DetailRecord struct {
	ID                 string   `json:"id"`
	Source             Source   `json:"source"`
	Title              string   `json:"title"`
	AlternateTitles    []string `json:"alternateTitles,omitempty"`
	CoverURL           string   `json:"coverUrl,omitempty"`
	Description        string   `json:"description"`
	ReleaseDate        string   `json:"releaseDate,omitempty"` // ISO date; year-only upstreams yield YYYY-01-01
	Year               *int     `json:"year,omitempty"`
	Episodes           *int     `json:"episodes,omitempty"`
	Chapters           *int     `json:"chapters,omitempty"`
	Volumes            *int     `json:"volumes,omitempty"`
	PageCount          *int     `json:"pageCount,omitempty"`
	AvgDurationMinutes *int     `json:"avgDurationMinutes,omitempty"`
	Genres             []string `json:"genres,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	Authors            []string `json:"authors,omitempty"`
	Studios            []string `json:"studios,omitempty"`
	Seasons            []Season `json:"seasons,omitempty"`
	ExternalLink       string   `json:"externalLink,omitempty"`
}

// Int returns a pointer to v, for populating optional numeric fields.
func Int(v int) *int {
	return &v
}
