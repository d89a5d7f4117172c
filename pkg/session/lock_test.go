package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/registry"
)

// nopStore accepts everything and stores nothing.
type nopStore struct{}

func (nopStore) Save(ctx context.Context, pageRef string, schema domain.Schema) error { return nil }
func (nopStore) Load(ctx context.Context, pageRef string) (domain.Schema, error) {
	return domain.NewSchema(), nil
}
func (nopStore) Delete(ctx context.Context, pageRef string) error { return nil }
func (nopStore) List(ctx context.Context) ([]string, error)         { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{}, registry.NewRegistry())
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		ref := fmt.Sprintf("page-%d", i)
		_, _ = mgr.Open(ctx, ref)
		_ = mgr.Delete(ctx, ref)
	}

	lockCount := len(mgr.locks)
	t.Logf("Pages opened: %d, Locks leaked: %d", count, lockCount)

	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
	if n := len(mgr.Sessions()); n != 0 {
		t.Errorf("expected no open sessions, got %d", n)
	}
}
