package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/tessera/internal/presentation/graph"
	"github.com/aretw0/tessera/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	known := func(typ string) bool { return typ != "Carousel" }

	tests := []struct {
		name     string
		schema   domain.Schema
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name: "Page Root",
			schema: domain.Schema{
				Kind:     domain.KindPage,
				Metadata: &domain.Metadata{Name: `Say "hi"`},
			},
			contains: []string{`__page(("Say 'hi'"))`},
		},
		{
			name:   "Untitled Page",
			schema: domain.NewSchema(),
			contains: []string{
				`__page(("page"))`,
			},
		},
		{
			name: "Nesting And Shapes",
			schema: domain.NewSchema(
				domain.Node{ID: "hero", Type: "Hero"},
				domain.Node{ID: "body", Type: "Container", Children: []domain.Node{
					{ID: "text", Type: "ContentSection"},
				}},
			),
			contains: []string{
				`n_hero["hero <br/> Hero"]`,
				`n_body[["body <br/> Container"]]`,
				"__page --> n_hero",
				"__page --> n_body",
				"n_body --> n_text",
			},
			excludes: []string{"Overlay Styles"},
		},
		{
			name: "ID Sanitization",
			schema: domain.NewSchema(
				domain.Node{ID: "hero-1700000000000", Type: "Hero"},
				domain.Node{ID: "a.b/c", Type: "Header"},
			),
			contains: []string{
				`n_hero_1700000000000["hero-1700000000000 <br/> Hero"]`,
				`n_a_b_c["a.b/c <br/> Header"]`,
			},
		},
		{
			name: "Overlay",
			schema: domain.NewSchema(
				domain.Node{ID: "hero", Type: "Hero"},
				domain.Node{ID: "x", Type: "Carousel"},
			),
			overlay: &graph.Overlay{Selected: "hero", Known: known},
			contains: []string{
				`n_x{{"x <br/> Carousel"}}`,
				"class n_x unknown;",
				"class n_hero selected;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.schema, tt.overlay)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}
