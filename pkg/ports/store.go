package ports

import (
	"context"

	"github.com/aretw0/tessera/pkg/domain"
)

// SchemaStore persists page schemas.
// Save and Load are atomic: a failed Save leaves the previous value in place.
type SchemaStore interface {
	// Save persists the schema for a page reference, replacing any previous value.
	Save(ctx context.Context, pageRef string, schema domain.Schema) error

	// Load retrieves the schema for a page reference.
	// Returns domain.ErrPageNotFound if the page does not exist.
	Load(ctx context.Context, pageRef string) (domain.Schema, error)

	// Delete removes the page. Deleting a missing page is not an error.
	Delete(ctx context.Context, pageRef string) error

	// List returns every stored page reference.
	List(ctx context.Context) ([]string, error)
}
