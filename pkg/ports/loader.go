package ports

import (
	"context"

	"github.com/aretw0/tessera/pkg/domain"
)

// TemplateSource provides the starting schemas offered when creating a page.
type TemplateSource interface {
	// ListTemplates returns every template, ordered by id.
	ListTemplates(ctx context.Context) ([]domain.Template, error)

	// GetTemplate returns one template.
	// Returns domain.ErrTemplateNotFound if the id is unknown.
	GetTemplate(ctx context.Context, id string) (domain.Template, error)
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is typically used for hot-reload of templates in dev mode.
type Watchable interface {
	// Watch returns a channel that receives the id of each changed document.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}
