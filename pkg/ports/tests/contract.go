package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/ports"
)

// TemplateSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.TemplateSource.
// expected maps template ids to their display names.
func TemplateSourceContractTest(t *testing.T, source ports.TemplateSource, expected map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetTemplate_Success", func(t *testing.T) {
		for id, name := range expected {
			tmpl, err := source.GetTemplate(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error getting template %s: %v", id, err)
			}
			if tmpl.ID != id {
				t.Errorf("id mismatch: got %q, want %q", tmpl.ID, id)
			}
			if tmpl.Name != name {
				t.Errorf("name mismatch for %s: got %q, want %q", id, tmpl.Name, name)
			}
			if tmpl.Schema.Kind != domain.KindPage {
				t.Errorf("template %s: kind %q, want %q", id, tmpl.Schema.Kind, domain.KindPage)
			}
		}
	})

	t.Run("GetTemplate_NotFound", func(t *testing.T) {
		_, err := source.GetTemplate(ctx, "non-existent-template")
		if !errors.Is(err, domain.ErrTemplateNotFound) {
			t.Errorf("expected ErrTemplateNotFound, got %v", err)
		}
	})

	t.Run("ListTemplates", func(t *testing.T) {
		list, err := source.ListTemplates(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing templates: %v", err)
		}
		if len(list) != len(expected) {
			t.Errorf("expected %d templates, got %d", len(expected), len(list))
		}
		for i := 1; i < len(list); i++ {
			if list[i-1].ID > list[i].ID {
				t.Errorf("templates not ordered by id: %q before %q", list[i-1].ID, list[i].ID)
			}
		}
		for _, tmpl := range list {
			if _, ok := expected[tmpl.ID]; !ok {
				t.Errorf("unexpected template %q", tmpl.ID)
			}
		}
	})
}
