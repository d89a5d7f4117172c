package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/ports"
	"github.com/aretw0/tessera/pkg/tree"
)

// ErrInvalidSchema is returned when a schema is refused before it reaches the store.
var ErrInvalidSchema = errors.New("invalid schema")

// SchemaValidator checks a schema against component contracts.
// *registry.Registry satisfies it.
type SchemaValidator interface {
	ValidateSchema(s domain.Schema) error
}

type validationMiddleware struct {
	next      ports.SchemaStore
	validator SchemaValidator
}

// NewValidationMiddleware refuses to save schemas with duplicate node ids or,
// when validator is not nil, props that break a component contract.
// Loads are passed through untouched.
func NewValidationMiddleware(validator SchemaValidator) Middleware {
	return func(next ports.SchemaStore) ports.SchemaStore {
		return &validationMiddleware{next: next, validator: validator}
	}
}

func (m *validationMiddleware) Save(ctx context.Context, pageRef string, schema domain.Schema) error {
	if dups := tree.Duplicates(schema); len(dups) > 0 {
		return fmt.Errorf("%w: duplicate node ids: %s", ErrInvalidSchema, strings.Join(dups, ", "))
	}
	if m.validator != nil {
		if err := m.validator.ValidateSchema(schema); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSchema, err)
		}
	}
	return m.next.Save(ctx, pageRef, schema)
}

func (m *validationMiddleware) Load(ctx context.Context, pageRef string) (domain.Schema, error) {
	return m.next.Load(ctx, pageRef)
}

func (m *validationMiddleware) Delete(ctx context.Context, pageRef string) error {
	return m.next.Delete(ctx, pageRef)
}

func (m *validationMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
