package federation

import (
	"errors"

	"github.com/TenKdoToLami/UpNext/internal/apperrors"
	"github.com/TenKdoToLami/UpNext/internal/models"
)

// errIncompatible marks a valid source that cannot serve the requested
// category. It never leaves this package; Search maps it to an empty list.
var errIncompatible = errors.New("source incompatible with category")

// compatibility is the static table of which catalogs can answer for which
// categories. A source missing a category here is rejected even when the
// caller names it explicitly.
var compatibility = map[models.Source][]models.MediaCategory{
	models.SourceAniList:     {models.CategoryAnime, models.CategoryManga},
	models.SourceTMDB:        {models.CategoryMovie, models.CategorySeries},
	models.SourceOpenLibrary: {models.CategoryBook},
	models.SourceGoogleBooks: {models.CategoryBook},
	models.SourceTVMaze:      {models.CategorySeries, models.CategoryAnime},
	models.SourceMangaDex:    {models.CategoryManga},
	models.SourceComicVine:   {models.CategoryManga, models.CategoryBook},
}

func compatible(source models.Source, category models.MediaCategory) bool {
	for _, c := range compatibility[source] {
		if c == category {
			return true
		}
	}
	return false
}

// resolve picks exactly one source for a call. Priority order: explicit
// override, then the per-category preference read fresh from config, then
// the built-in default for the category.
func (s *Service) resolve(category models.MediaCategory, override string) (models.Source, error) {
	if override != "" {
		source, err := models.ParseSource(override)
		if err != nil {
			return "", apperrors.NewInvalidSourceError(override)
		}
		if !compatible(source, category) {
			return "", errIncompatible
		}
		return source, nil
	}

	if raw := s.prefer(category.String()); raw != "" {
		source, err := models.ParseSource(raw)
		if err == nil && compatible(source, category) {
			return source, nil
		}
		s.log.Warn().
			Str("preference", raw).
			Str("category", category.String()).
			Msg("Ignoring configured preference, source unknown or incompatible")
	}

	return s.defaultSource(category), nil
}

func (s *Service) defaultSource(category models.MediaCategory) models.Source {
	switch category {
	case models.CategoryAnime:
		return models.SourceAniList
	case models.CategoryManga:
		return models.SourceMangaDex
	case models.CategoryMovie:
		return models.SourceTMDB
	case models.CategorySeries:
		// Without a TMDB key, TVmaze answers series lookups keyless.
		if !s.creds.Has(models.SourceTMDB) {
			return models.SourceTVMaze
		}
		return models.SourceTMDB
	case models.CategoryBook:
		return models.SourceOpenLibrary
	}
	return models.SourceAniList
}

// credentialFallback names the keyless source a search retries on when the
// routed catalog refuses for lack of an API key. Only pairs where a keyless
// compatible alternative exists are listed.
func credentialFallback(category models.MediaCategory, primary models.Source) (models.Source, bool) {
	switch {
	case category == models.CategorySeries && primary == models.SourceTMDB:
		return models.SourceTVMaze, true
	case category == models.CategoryBook && primary == models.SourceGoogleBooks:
		return models.SourceOpenLibrary, true
	case category == models.CategoryManga && primary == models.SourceComicVine:
		return models.SourceMangaDex, true
	}
	return "", false
}
