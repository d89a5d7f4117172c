package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/tessera/internal/presentation/tui"
	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/ports"
	"github.com/aretw0/tessera/pkg/render"
)

// Previewer is what Watch needs from the engine.
type Previewer interface {
	Templates() ports.TemplateSource
	Render(schema domain.Schema, overrides render.Overrides) domain.VisualTree
	Watch(ctx context.Context) (<-chan string, error)
}

// Watch renders a template and renders it again every time its source
// changes, until ctx is cancelled. format is applied by present.
func Watch(ctx context.Context, eng Previewer, templateID string, w io.Writer, present func(domain.VisualTree) (string, error)) error {
	if present == nil {
		present = func(t domain.VisualTree) (string, error) { return tui.Markdown(t), nil }
	}

	events, err := eng.Watch(ctx)
	if err != nil {
		return err
	}

	draw := func() {
		tmpl, err := eng.Templates().GetTemplate(ctx, templateID)
		if err != nil {
			printSystemMessage(w, "Cannot load '%s': %v", templateID, err)
			return
		}
		out, err := present(eng.Render(tmpl.Schema, nil))
		if err != nil {
			printSystemMessage(w, "Cannot render '%s': %v", templateID, err)
			return
		}
		fmt.Fprint(w, out)
	}

	draw()
	printSystemMessage(w, "Watching '%s' for changes.", templateID)
	for {
		select {
		case <-ctx.Done():
			return nil
		case id, ok := <-events:
			if !ok {
				return nil
			}
			if id != templateID {
				continue
			}
			printSystemMessage(w, "Reloaded '%s'.", id)
			draw()
		}
	}
}
