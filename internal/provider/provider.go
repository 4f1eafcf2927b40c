// Package provider defines the contract every upstream catalog adapter
// implements, and the registry the federation layer resolves adapters from.
package provider

import (
	"context"

	"github.com/TenKdoToLami/UpNext/internal/models"
)

// Provider adapts one upstream catalog to the canonical schema. Adapters own
// their upstream's transport, authentication, and response shape entirely;
// nothing provider-specific leaks past this interface.
//
// Search returns an empty slice for a query that is empty after trimming,
// without any network call. Details returns (nil, nil) when the upstream
// reports the item as not found; transport failures surface as
// *apperrors.ErrUpstream and a missing required key as
// *apperrors.ErrCredentialMissing, raised before any network round-trip.
type Provider interface {
	Name() models.Source
	Search(ctx context.Context, query string, category models.MediaCategory) ([]models.SearchResult, error)
	Details(ctx context.Context, externalID string, category models.MediaCategory) (*models.DetailRecord, error)
}

// Registry is a read-only lookup table of providers keyed by source.
// The provider set is tiny and fixed at startup; a plain map suffices.
type Registry struct {
	bySource map[models.Source]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	bySource := make(map[models.Source]Provider, len(providers))
	for _, p := range providers {
		bySource[p.Name()] = p
	}
	return &Registry{bySource: bySource}
}

// Get returns the provider registered for a source.
func (r *Registry) Get(source models.Source) (Provider, bool) {
	p, ok := r.bySource[source]
	return p, ok
}
