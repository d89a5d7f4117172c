package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/tessera/pkg/domain"
)

// Store implements ports.SchemaStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Schema
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Schema),
	}
}

// Save persists the schema in memory.
func (s *Store) Save(ctx context.Context, pageRef string, schema domain.Schema) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := schema.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[pageRef] = copied
	return nil
}

// Load retrieves the schema from memory.
func (s *Store) Load(ctx context.Context, pageRef string) (domain.Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schema, ok := s.data[pageRef]
	if !ok {
		return domain.Schema{}, domain.ErrPageNotFound
	}
	return schema.Clone(), nil
}

// Delete removes the schema from memory.
func (s *Store) Delete(ctx context.Context, pageRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, pageRef)
	return nil
}

// List returns all stored page references.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make([]string, 0, len(s.data))
	for ref := range s.data {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs, nil
}
