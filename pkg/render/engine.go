// Package render turns a schema plus per-render override data into a visual tree.
package render

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/tessera/internal/logging"
	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/registry"
)

// ErrNoRegistry is returned by New when no registry is supplied.
// It is the only configuration error of the render path.
var ErrNoRegistry = errors.New("render: component registry is required")

// Overrides maps node ids to partial props applied on top of the stored props
// for a single render call.
type Overrides map[string]map[string]any

// Resolver is the part of the registry the engine needs.
type Resolver interface {
	Resolve(typ string) (registry.RenderFunc, bool)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used to report placeholders.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPlaceholder replaces the element produced for nodes that cannot be rendered.
func WithPlaceholder(fn func(n domain.Node, reason string) domain.Element) Option {
	return func(e *Engine) {
		if fn != nil {
			e.placeholder = fn
		}
	}
}

// Engine renders schemas. It holds no per-render state and is safe for concurrent use.
type Engine struct {
	registry    Resolver
	logger      *slog.Logger
	placeholder func(n domain.Node, reason string) domain.Element
}

// New creates an engine backed by reg.
func New(reg Resolver, opts ...Option) (*Engine, error) {
	if reg == nil {
		return nil, ErrNoRegistry
	}
	// A typed nil pointer is as unusable as a nil interface.
	if r, ok := reg.(*registry.Registry); ok && r == nil {
		return nil, ErrNoRegistry
	}

	e := &Engine{
		registry:    reg,
		logger:      logging.NewNop(),
		placeholder: Placeholder,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Render walks the schema depth-first and produces one root element per node.
// Unknown types and failing renderers become placeholders; siblings are unaffected.
// Render is a pure function of its arguments.
func (e *Engine) Render(s domain.Schema, overrides Overrides) domain.VisualTree {
	out := domain.VisualTree{Elements: e.renderAll(s.Components, overrides)}
	if s.Metadata != nil {
		md := *s.Metadata
		out.Metadata = &md
	}
	return out
}

func (e *Engine) renderAll(nodes []domain.Node, overrides Overrides) []domain.Element {
	if len(nodes) == 0 {
		return nil
	}
	elements := make([]domain.Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, e.renderNode(n, overrides))
	}
	return elements
}

func (e *Engine) renderNode(n domain.Node, overrides Overrides) domain.Element {
	merged := MergeProps(n.Props, overrides[n.ID])
	children := e.renderAll(n.Children, overrides)

	fn, ok := e.registry.Resolve(n.Type)
	if !ok {
		e.logger.Debug("unknown component type", "node_id", n.ID, "type", n.Type)
		return e.keyed(e.placeholder(n, "Unknown component: "+n.Type), n)
	}

	el, err := e.invoke(fn, registry.Input{
		ID:       n.ID,
		Type:     n.Type,
		Props:    merged,
		Style:    copyStyle(n.Style),
		Children: children,
	})
	if err != nil {
		e.logger.Warn("component renderer failed", "node_id", n.ID, "type", n.Type, "err", err)
		return e.keyed(e.placeholder(n, fmt.Sprintf("Failed to render %s", n.Type)), n)
	}
	return e.keyed(el, n)
}

func (e *Engine) invoke(fn registry.RenderFunc, in registry.Input) (el domain.Element, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("renderer panic: %v", r)
		}
	}()
	return fn(in), nil
}

// keyed stamps the node identity onto its root element.
func (e *Engine) keyed(el domain.Element, n domain.Node) domain.Element {
	el.Key = n.ID
	el.Kind = n.Type
	return el
}

// Placeholder is the default element for nodes that cannot be rendered.
func Placeholder(_ domain.Node, reason string) domain.Element {
	return domain.Element{
		Tag:         "div",
		Text:        reason,
		Placeholder: true,
	}
}

func copyStyle(style map[string]string) map[string]string {
	if style == nil {
		return nil
	}
	out := make(map[string]string, len(style))
	for k, v := range style {
		out[k] = v
	}
	return out
}
