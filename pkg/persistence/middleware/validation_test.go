package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/tessera/pkg/components"
	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/persistence/middleware"
	"github.com/aretw0/tessera/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationMiddleware_DuplicateIDs(t *testing.T) {
	base := NewMockStore()
	store := middleware.NewValidationMiddleware(nil)(base)

	dup := domain.NewSchema(
		domain.Node{ID: "a", Type: "Header"},
		domain.Node{ID: "box", Type: "Container", Children: []domain.Node{{ID: "a", Type: "Footer"}}},
	)
	err := store.Save(context.Background(), "home", dup)
	require.ErrorIs(t, err, middleware.ErrInvalidSchema)
	assert.ErrorContains(t, err, "duplicate node ids: a")
	assert.Zero(t, base.saves, "refused saves never reach the store")
}

func TestValidationMiddleware_Contracts(t *testing.T) {
	reg, err := components.NewRegistry()
	require.NoError(t, err)

	base := NewMockStore()
	store := middleware.NewValidationMiddleware(reg)(base)
	ctx := context.Background()

	bad := domain.NewSchema(domain.Node{ID: "hero", Type: "Hero", Props: map[string]any{"title": 42}})
	err = store.Save(ctx, "home", bad)
	require.ErrorIs(t, err, middleware.ErrInvalidSchema)

	good := domain.NewSchema(domain.Node{ID: "hero", Type: "Hero", Props: map[string]any{"title": "Hi"}})
	require.NoError(t, store.Save(ctx, "home", good))

	// Unknown types are rendered as placeholders, so they are saved as-is.
	unknown := domain.NewSchema(domain.Node{ID: "x", Type: "Carousel"})
	require.NoError(t, store.Save(ctx, "other", unknown))
	assert.Equal(t, 2, base.saves)
}

func TestChain_Order(t *testing.T) {
	var calls []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.SchemaStore) ports.SchemaStore {
			return &tracingStore{SchemaStore: next, name: name, calls: &calls}
		}
	}

	store := middleware.Chain(NewMockStore(), tag("outer"), nil, tag("inner"))
	_, err := store.Load(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrPageNotFound))
	assert.Equal(t, []string{"outer", "inner"}, calls)
}

type tracingStore struct {
	ports.SchemaStore
	name  string
	calls *[]string
}

func (s *tracingStore) Load(ctx context.Context, pageRef string) (domain.Schema, error) {
	*s.calls = append(*s.calls, s.name)
	return s.SchemaStore.Load(ctx, pageRef)
}
