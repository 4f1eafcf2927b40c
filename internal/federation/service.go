// Package federation routes search and detail calls to one of the upstream
// catalog adapters and normalizes their failure behavior: searches are
// total, details surface typed errors.
package federation

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/TenKdoToLami/UpNext/internal/apperrors"
	"github.com/TenKdoToLami/UpNext/internal/config"
	"github.com/TenKdoToLami/UpNext/internal/credentials"
	"github.com/TenKdoToLami/UpNext/internal/metrics"
	"github.com/TenKdoToLami/UpNext/internal/models"
	"github.com/TenKdoToLami/UpNext/internal/provider"
)

// Service is the single entry point the host surface talks to. It owns no
// upstream knowledge beyond the routing table; adapters do the rest.
type Service struct {
	registry *provider.Registry
	creds    *credentials.Store
	prefer   func(category string) string
	persist  func(provider, key string) error
	log      zerolog.Logger
}

type Option func(*Service)

// WithPreferenceLookup replaces the config-backed preference lookup, for tests.
func WithPreferenceLookup(fn func(category string) string) Option {
	return func(s *Service) { s.prefer = fn }
}

// WithKeyPersistence replaces the config-file key writer, for tests.
func WithKeyPersistence(fn func(provider, key string) error) Option {
	return func(s *Service) { s.persist = fn }
}

func NewService(registry *provider.Registry, creds *credentials.Store, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		creds:    creds,
		prefer:   config.PreferredSource,
		persist:  config.SaveProviderKey,
		log:      config.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search federates one search call to a single adapter. It fails soft:
// besides an unknown category or an unknown override source, every failure
// is logged and answered with an empty list.
func (s *Service) Search(ctx context.Context, query, category, override string) ([]models.SearchResult, error) {
	cat, err := models.ParseCategory(category)
	if err != nil {
		return nil, apperrors.NewInvalidCategoryError(category)
	}
	metrics.SearchesTotal.WithLabelValues(cat.String()).Inc()

	query = strings.TrimSpace(query)
	if query == "" {
		return []models.SearchResult{}, nil
	}

	source, err := s.resolve(cat, override)
	if err != nil {
		if errors.Is(err, errIncompatible) {
			s.log.Debug().
				Str("source", override).
				Str("category", cat.String()).
				Msg("Requested source cannot serve this category")
			return []models.SearchResult{}, nil
		}
		return nil, err
	}

	results, err := s.searchOn(ctx, source, query, cat)
	if err == nil {
		return results, nil
	}

	// A catalog refusing for lack of a key is retried on a keyless
	// alternative, but only when routing chose the catalog itself. An
	// explicit override is answered as asked or not at all.
	if override == "" && errors.Is(err, &apperrors.ErrCredentialMissing{}) {
		if fallback, ok := credentialFallback(cat, source); ok {
			s.log.Info().
				Str("from", source.String()).
				Str("to", fallback.String()).
				Msg("Falling back to keyless source, credential missing")
			if results, err := s.searchOn(ctx, fallback, query, cat); err == nil {
				return results, nil
			}
		}
	}

	s.log.Error().Err(err).
		Str("source", source.String()).
		Str("category", cat.String()).
		Msg("Search failed upstream")
	return []models.SearchResult{}, nil
}

func (s *Service) searchOn(ctx context.Context, source models.Source, query string, category models.MediaCategory) ([]models.SearchResult, error) {
	p, ok := s.registry.Get(source)
	if !ok {
		return nil, apperrors.NewInvalidSourceError(source.String())
	}
	results, err := p.Search(ctx, query, category)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	return results, nil
}

// Details dispatches a lookup to the named source. Unlike Search it is not
// total: typed failures pass through to the caller unchanged, and a record
// the upstream does not know is (nil, nil).
func (s *Service) Details(ctx context.Context, externalID, category, source string) (*models.DetailRecord, error) {
	cat, err := models.ParseCategory(category)
	if err != nil {
		return nil, apperrors.NewInvalidCategoryError(category)
	}
	src, err := models.ParseSource(source)
	if err != nil {
		return nil, apperrors.NewInvalidSourceError(source)
	}
	p, ok := s.registry.Get(src)
	if !ok {
		return nil, apperrors.NewInvalidSourceError(source)
	}

	record, err := p.Details(ctx, externalID, cat)
	switch {
	case err != nil:
		metrics.DetailLookupsTotal.WithLabelValues(src.String(), "error").Inc()
		return nil, err
	case record == nil:
		metrics.DetailLookupsTotal.WithLabelValues(src.String(), "not_found").Inc()
		return nil, nil
	}
	metrics.DetailLookupsTotal.WithLabelValues(src.String(), "success").Inc()
	return record, nil
}

// SetCredential stores an API key for a source and persists it to the config
// file. An empty key clears the stored credential. The update is visible to
// in-flight adapters immediately.
func (s *Service) SetCredential(source, key string) error {
	src, err := models.ParseSource(source)
	if err != nil {
		return apperrors.NewInvalidSourceError(source)
	}
	s.creds.Set(src, key)
	if err := s.persist(src.String(), key); err != nil {
		s.log.Error().Err(err).Str("source", src.String()).Msg("Failed to persist credential")
		return err
	}
	return nil
}
