package ports

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/tessera/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSchemaStoreContract runs a suite of tests to verify that a SchemaStore implementation
// adheres to the defined interface contract.
func RunSchemaStoreContract(t *testing.T, store SchemaStore) {
	ctx := context.Background()
	pageRef := "contract-test-page-" + time.Now().Format("20060102150405")

	sample := func() domain.Schema {
		s := domain.NewSchema(
			domain.Node{
				ID:       "hero",
				Type:     "Hero",
				Props:    map[string]any{"title": "Welcome", "count": 42},
				Style:    map[string]string{"padding": "80px 20px"},
				Editable: []string{"title"},
			},
			domain.Node{ID: "wrap", Type: "Container", Props: map[string]any{}, Editable: []string{}, Children: []domain.Node{
				{ID: "text", Type: "ContentSection", Props: map[string]any{"heading": "About"}},
			}},
		)
		s.Metadata = &domain.Metadata{Name: "Landing Page", Category: "Landing"}
		return s
	}

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, pageRef, sample()), "Save should not return error")

		loaded, err := store.Load(ctx, pageRef)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.KindPage, loaded.Kind)
		require.Len(t, loaded.Components, 2)
		assert.Equal(t, "Welcome", loaded.Components[0].Props["title"])
		// JSON backends turn ints into float64; only presence is part of the contract.
		assert.NotNil(t, loaded.Components[0].Props["count"])
		assert.Equal(t, "80px 20px", loaded.Components[0].Style["padding"])
		assert.Equal(t, []string{"title"}, loaded.Components[0].Editable)
		require.Len(t, loaded.Components[1].Children, 1)
		assert.Equal(t, "text", loaded.Components[1].Children[0].ID)
		// An empty editable list locks every prop and must not come back as nil.
		assert.NotNil(t, loaded.Components[1].Editable)
		assert.Empty(t, loaded.Components[1].Editable)
		assert.False(t, loaded.Components[1].IsEditable("tag"))
		assert.Nil(t, loaded.Components[1].Children[0].Editable)
		require.NotNil(t, loaded.Metadata)
		assert.Equal(t, "Landing Page", loaded.Metadata.Name)
	})

	t.Run("Save Replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, pageRef, domain.NewSchema(domain.Node{ID: "only", Type: "Header"})))

		loaded, err := store.Load(ctx, pageRef)
		require.NoError(t, err)
		require.Len(t, loaded.Components, 1)
		assert.Equal(t, "only", loaded.Components[0].ID)
	})

	t.Run("Isolation", func(t *testing.T) {
		s := sample()
		require.NoError(t, store.Save(ctx, pageRef, s))
		s.Components[0].Props["title"] = "mutated after save"

		loaded, err := store.Load(ctx, pageRef)
		require.NoError(t, err)
		assert.Equal(t, "Welcome", loaded.Components[0].Props["title"])

		loaded.Components[0].Props["title"] = "mutated after load"
		again, err := store.Load(ctx, pageRef)
		require.NoError(t, err)
		assert.Equal(t, "Welcome", again.Components[0].Props["title"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+pageRef)
		assert.ErrorIs(t, err, domain.ErrPageNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, pageRef, sample()))

		require.NoError(t, store.Delete(ctx, pageRef), "Delete should not return error")

		_, err := store.Load(ctx, pageRef)
		assert.ErrorIs(t, err, domain.ErrPageNotFound, "Load after Delete should return ErrPageNotFound")

		assert.NoError(t, store.Delete(ctx, pageRef), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		ref1 := pageRef + "-1"
		ref2 := pageRef + "-2"
		_ = store.Save(ctx, ref1, sample())
		_ = store.Save(ctx, ref2, sample())

		defer func() {
			_ = store.Delete(ctx, ref1)
			_ = store.Delete(ctx, ref2)
		}()

		refs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, refs, ref1)
		assert.Contains(t, refs, ref2)
	})

	t.Run("Concurrent Saves", func(t *testing.T) {
		ref := pageRef + "-concurrent"
		defer func() { _ = store.Delete(ctx, ref) }()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				s := domain.NewSchema(domain.Node{ID: fmt.Sprintf("n%d", i), Type: "Header"})
				assert.NoError(t, store.Save(ctx, ref, s))
			}(i)
		}
		wg.Wait()

		// Last write wins; the value must be one complete schema.
		loaded, err := store.Load(ctx, ref)
		require.NoError(t, err)
		assert.Len(t, loaded.Components, 1)
	})
}
