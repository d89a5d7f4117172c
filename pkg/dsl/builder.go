package dsl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/tree"
)

// Builder manages the schema construction.
type Builder struct {
	nodes    []*NodeBuilder
	metadata *domain.Metadata
}

// New creates a new schema builder.
func New() *Builder {
	return &Builder{}
}

// Name sets the metadata name of the schema.
func (b *Builder) Name(name string) *Builder {
	b.meta().Name = name
	return b
}

func (b *Builder) Description(desc string) *Builder {
	b.meta().Description = desc
	return b
}

func (b *Builder) Category(category string) *Builder {
	b.meta().Category = category
	return b
}

func (b *Builder) meta() *domain.Metadata {
	if b.metadata == nil {
		b.metadata = &domain.Metadata{}
	}
	return b.metadata
}

// Add appends a new top-level node.
// If a top-level node with that id already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb := lookup(b.nodes, id); nb != nil {
		return nb
	}
	nb := &NodeBuilder{node: domain.Node{ID: id}}
	b.nodes = append(b.nodes, nb)
	return nb
}

// Build compiles the nodes into a page schema.
// Every node needs an id and a type, and ids must be unique across the tree.
func (b *Builder) Build() (domain.Schema, error) {
	nodes := make([]domain.Node, 0, len(b.nodes))
	for _, nb := range b.nodes {
		nodes = append(nodes, nb.Build())
	}

	schema := domain.NewSchema(nodes...)
	if b.metadata != nil {
		md := *b.metadata
		schema.Metadata = &md
	}

	var errs []error
	tree.Walk(schema, func(n domain.Node, _ int) bool {
		if n.ID == "" {
			errs = append(errs, fmt.Errorf("node of type %q has no id", n.Type))
		}
		if n.Type == "" {
			errs = append(errs, fmt.Errorf("node %q has no type", n.ID))
		}
		return true
	})
	if dups := tree.Duplicates(schema); len(dups) > 0 {
		errs = append(errs, fmt.Errorf("duplicate node ids: %s", strings.Join(dups, ", ")))
	}
	if err := errors.Join(errs...); err != nil {
		return domain.Schema{}, fmt.Errorf("failed to build schema: %w", err)
	}
	return schema, nil
}

// Template builds the schema and wraps it as a template.
// Name, description and category come from the schema metadata.
func (b *Builder) Template(id string) (domain.Template, error) {
	schema, err := b.Build()
	if err != nil {
		return domain.Template{}, err
	}
	t := domain.Template{ID: id, Schema: schema}
	if schema.Metadata != nil {
		t.Name = schema.Metadata.Name
		t.Description = schema.Metadata.Description
		t.Category = schema.Metadata.Category
	}
	return t, nil
}

func lookup(nodes []*NodeBuilder, id string) *NodeBuilder {
	for _, nb := range nodes {
		if nb.node.ID == id {
			return nb
		}
	}
	return nil
}
