package middleware_test

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	mu    sync.Mutex
	data  map[string]domain.Schema
	saves int
	fail  error
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]domain.Schema),
	}
}

func (s *MockStore) Save(ctx context.Context, pageRef string, schema domain.Schema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.saves++
	s.data[pageRef] = schema.Clone()
	return nil
}

func (s *MockStore) Load(ctx context.Context, pageRef string) (domain.Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schema, ok := s.data[pageRef]
	if !ok {
		return domain.Schema{}, domain.ErrPageNotFound
	}
	return schema.Clone(), nil
}

func (s *MockStore) Delete(ctx context.Context, pageRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, pageRef)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var errBackend = errors.New("backend down")

var _ ports.SchemaStore = (*MockStore)(nil)
