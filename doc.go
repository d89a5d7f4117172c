/*
Package tessera is the page-composition engine of a website builder.

A page is a Schema: an ordered tree of typed component nodes with open prop
bags. Editing happens through intents (insert, patch, remove, move, undo, redo)
applied by pure tree operations and recorded in a bounded undo history. The
same render engine turns a schema into an abstract visual tree for the editor
canvas, the preview pane and the public renderer, merging per-node override
data over stored props.

# Architecture

The packages follow a hexagonal layout:

  - pkg/domain: Node, Schema, Element and the diff between schemas.
  - pkg/tree, pkg/history, pkg/render: the pure core.
  - pkg/registry, pkg/props, pkg/components: component definitions and contracts.
  - pkg/editor, pkg/session: editing sessions and their lifecycle over a store.
  - pkg/ports and pkg/adapters: stores (memory, file, redis, sql), templates (loam),
    and the HTTP and MCP surfaces.

# Usage

	eng, err := tessera.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	view, err := eng.CreatePage(ctx, "acme/home", "landing")
	if err != nil {
		log.Fatal(err)
	}

	view, err = eng.Sessions().Do(ctx, "acme/home", func(s *editor.Session) (editor.View, error) {
		return s.PatchProps(view.Schema.Components[0].ID, map[string]any{"title": "Hello"})
	})

	tree := eng.Render(view.Schema, render.Overrides{
		"hero": {"subtitle": "Personalized"},
	})

Rendering never fails: an unknown component type renders as a visible
placeholder element, so a page saved with a component that was later removed
from the registry stays editable.
*/
package tessera
