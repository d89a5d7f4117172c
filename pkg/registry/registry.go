package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/props"
	"github.com/aretw0/tessera/pkg/tree"
)

// ErrInvalidDefinition is returned when a definition lacks a type or renderer.
var ErrInvalidDefinition = errors.New("invalid component definition")

// Input is what a renderer receives for one node: props already merged with
// overrides, the node's own style, and the node's children already rendered.
type Input struct {
	ID       string
	Type     string
	Props    map[string]any
	Style    map[string]string
	Children []domain.Element
}

// RenderFunc turns one node into a visual element.
// Renderers must be pure: no I/O and no registry mutation.
type RenderFunc func(Input) domain.Element

// Definition describes a component type.
type Definition struct {
	Type         string
	Label        string
	Icon         string
	DefaultProps map[string]any
	Contract     props.Contract
	Render       RenderFunc
}

// CatalogEntry is the palette view of a definition.
type CatalogEntry struct {
	Type         string         `json:"type"`
	Label        string         `json:"label"`
	Icon         string         `json:"icon,omitempty"`
	DefaultProps map[string]any `json:"defaultProps"`
	Contract     props.Contract `json:"contract,omitempty"`
}

// Registry maps component type tags to renderers and defaults.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]Definition
	order []string
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]Definition),
	}
}

// Register adds a component type with its renderer and default props.
// If the type exists, it is overwritten and keeps its catalog position.
func (r *Registry) Register(typ string, fn RenderFunc, defaults map[string]any) error {
	return r.Define(Definition{Type: typ, Label: typ, Render: fn, DefaultProps: defaults})
}

// Define adds a fully described component type.
func (r *Registry) Define(def Definition) error {
	if def.Type == "" {
		return fmt.Errorf("%w: empty type", ErrInvalidDefinition)
	}
	if def.Render == nil {
		return fmt.Errorf("%w: %s has no renderer", ErrInvalidDefinition, def.Type)
	}
	if def.Label == "" {
		def.Label = def.Type
	}
	def.DefaultProps = domain.CloneProps(def.DefaultProps)
	if def.DefaultProps == nil {
		def.DefaultProps = map[string]any{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Type]; !exists {
		r.order = append(r.order, def.Type)
	}
	r.defs[def.Type] = def
	return nil
}

// Resolve returns the renderer for typ. A miss is not an error:
// the render path substitutes a placeholder.
func (r *Registry) Resolve(typ string) (RenderFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[typ]
	if !ok {
		return nil, false
	}
	return def.Render, true
}

// Lookup returns the full definition for typ.
func (r *Registry) Lookup(typ string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[typ]
	if !ok {
		return Definition{}, false
	}
	def.DefaultProps = domain.CloneProps(def.DefaultProps)
	return def, true
}

// Defaults returns a deep copy of the default props for typ.
func (r *Registry) Defaults(typ string) (map[string]any, bool) {
	def, ok := r.Lookup(typ)
	if !ok {
		return nil, false
	}
	return def.DefaultProps, true
}

// Types lists registered types in registration order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Catalog lists the insertable components in registration order.
func (r *Registry) Catalog() []CatalogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]CatalogEntry, 0, len(r.order))
	for _, typ := range r.order {
		def := r.defs[typ]
		entries = append(entries, CatalogEntry{
			Type:         def.Type,
			Label:        def.Label,
			Icon:         def.Icon,
			DefaultProps: domain.CloneProps(def.DefaultProps),
			Contract:     def.Contract,
		})
	}
	return entries
}

// Validate checks a single node's props against its type's contract.
// Unknown types yield domain.ErrUnknownComponent.
func (r *Registry) Validate(n domain.Node) error {
	r.mu.RLock()
	def, ok := r.defs[n.Type]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownComponent, n.Type)
	}
	if err := props.Validate(def.Contract, n.Props); err != nil {
		return fmt.Errorf("node %s (%s): %w", n.ID, n.Type, err)
	}
	return nil
}

// ValidateSchema validates every node of s with a known type.
// Unknown types are skipped: they render as placeholders and do not make
// a page invalid.
func (r *Registry) ValidateSchema(s domain.Schema) error {
	var errs []error
	tree.Walk(s, func(n domain.Node, _ int) bool {
		err := r.Validate(n)
		if err != nil && !errors.Is(err, domain.ErrUnknownComponent) {
			errs = append(errs, err)
		}
		return true
	})
	return errors.Join(errs...)
}
