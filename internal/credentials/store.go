// Package credentials holds the mutable API keys for credentialed providers.
// One Store instance is shared process-wide; adapters consult it on every
// call so a key added at runtime takes effect without re-instantiation.
package credentials

import (
	"strings"
	"sync"

	"github.com/TenKdoToLami/UpNext/internal/models"
)

// Store is a concurrency-safe map of provider keys. An in-flight request may
// observe either the old or the new value across a concurrent Set; no
// stronger guarantee is needed.
type Store struct {
	mu   sync.RWMutex
	keys map[models.Source]string
}

func NewStore() *Store {
	return &Store{keys: make(map[models.Source]string)}
}

// Set stores (or replaces) the key for a provider. Idempotent; a blank key
// clears the entry.
func (s *Store) Set(source models.Source, key string) {
	key = strings.TrimSpace(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == "" {
		delete(s.keys, source)
		return
	}
	s.keys[source] = key
}

// Get returns the key for a provider, or "" when none is configured.
func (s *Store) Get(source models.Source) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[source]
}

// Has reports whether a non-empty key is configured for a provider.
func (s *Store) Has(source models.Source) bool {
	return s.Get(source) != ""
}
