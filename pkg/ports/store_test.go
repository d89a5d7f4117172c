package ports_test

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"

	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/ports"
)

// MockStore is a JSON-roundtripping implementation of SchemaStore for testing purposes.
type MockStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string][]byte)}
}

func (m *MockStore) Save(ctx context.Context, pageRef string, schema domain.Schema) error {
	// Serialize to simulate a real backend
	raw, err := json.Marshal(schema)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[pageRef] = raw
	return nil
}

func (m *MockStore) Load(ctx context.Context, pageRef string) (domain.Schema, error) {
	m.mu.Lock()
	raw, ok := m.data[pageRef]
	m.mu.Unlock()
	if !ok {
		return domain.Schema{}, domain.ErrPageNotFound
	}
	var s domain.Schema
	err := json.Unmarshal(raw, &s)
	return s, err
}

func (m *MockStore) Delete(ctx context.Context, pageRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, pageRef)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	refs := make([]string, 0, len(m.data))
	for ref := range m.data {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs, nil
}

func TestSchemaStore_Contract(t *testing.T) {
	// The mock doubles as a check that the contract suite itself is sound.
	ports.RunSchemaStoreContract(t, NewMockStore())
}
