package models

import "fmt"

// Source identifies one upstream catalog. The set is closed: records carry a
// Source so that (Source, ID) pairs are unique, and the federation layer
// refuses to dispatch to anything outside this list.
type Source string

const (
	SourceAniList     Source = "anilist"
	SourceTMDB        Source = "tmdb"
	SourceOpenLibrary Source = "openlibrary"
	SourceTVMaze      Source = "tvmaze"
	SourceMangaDex    Source = "mangadex"
	SourceGoogleBooks Source = "googlebooks"
	SourceComicVine   Source = "comicvine"
)

// Sources returns all known source identifiers.
func Sources() []Source {
	return []Source{
		SourceAniList,
		SourceTMDB,
		SourceOpenLibrary,
		SourceTVMaze,
		SourceMangaDex,
		SourceGoogleBooks,
		SourceComicVine,
	}
}

// ParseSource validates a raw source string against the closed set.
func ParseSource(raw string) (Source, error) {
	switch Source(raw) {
	case SourceAniList, SourceTMDB, SourceOpenLibrary, SourceTVMaze,
		SourceMangaDex, SourceGoogleBooks, SourceComicVine:
		return Source(raw), nil
	}
	return "", fmt.Errorf("unknown source %q", raw)
}

func (s Source) String() string {
	return string(s)
}
