package tessera

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/tessera/internal/logging"
	loamAdapter "github.com/aretw0/tessera/pkg/adapters/loam"
	"github.com/aretw0/tessera/pkg/adapters/memory"
	"github.com/aretw0/tessera/pkg/components"
	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/editor"
	"github.com/aretw0/tessera/pkg/persistence/middleware"
	"github.com/aretw0/tessera/pkg/ports"
	"github.com/aretw0/tessera/pkg/registry"
	"github.com/aretw0/tessera/pkg/render"
	"github.com/aretw0/tessera/pkg/session"
)

// Engine is the high-level entry point for the Tessera library.
// It wires the registry, the renderer, the template source and the session
// manager over one page store.
type Engine struct {
	registry     *registry.Registry
	renderer     *render.Engine
	templates    ports.TemplateSource
	templateDir  string
	store        ports.SchemaStore
	middlewares  []middleware.Middleware
	sessions     *session.Manager
	locker       ports.DistributedLocker
	historyLimit int
	observers    []session.Observer
	logger       *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets the page store (default: in-memory).
func WithStore(store ports.SchemaStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithStoreMiddleware wraps the page store, outermost first.
func WithStoreMiddleware(mws ...middleware.Middleware) Option {
	return func(e *Engine) {
		e.middlewares = append(e.middlewares, mws...)
	}
}

// WithRegistry replaces the built-in component registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithTemplates sets the template source (default: the built-in library).
func WithTemplates(src ports.TemplateSource) Option {
	return func(e *Engine) {
		e.templates = src
	}
}

// WithTemplateDir reads templates from a Loam repository at dir.
func WithTemplateDir(dir string) Option {
	return func(e *Engine) {
		e.templateDir = dir
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHistoryLimit caps each session's undo stack. Zero means unbounded.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		e.historyLimit = n
	}
}

// WithLocker serializes page edits across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithObserver registers a callback for every committed page change.
func WithObserver(o session.Observer) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, o)
	}
}

// New initializes a Tessera Engine.
// Without options it uses the built-in components and templates and keeps
// pages in memory.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	if eng.registry == nil {
		reg, err := components.NewRegistry()
		if err != nil {
			return nil, fmt.Errorf("failed to load component catalog: %w", err)
		}
		eng.registry = reg
	}

	renderer, err := render.New(eng.registry, render.WithLogger(eng.logger))
	if err != nil {
		return nil, err
	}
	eng.renderer = renderer

	if eng.templates == nil {
		if eng.templateDir != "" {
			loader, err := loamAdapter.Open(eng.templateDir)
			if err != nil {
				return nil, err
			}
			eng.templates = loader
		} else {
			lib, err := components.Templates()
			if err != nil {
				return nil, fmt.Errorf("failed to load template library: %w", err)
			}
			eng.templates = lib
		}
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	eng.store = middleware.Chain(eng.store, eng.middlewares...)

	managerOpts := []session.Option{
		session.WithLogger(eng.logger),
		session.WithTemplates(eng.templates),
	}
	if eng.historyLimit > 0 {
		managerOpts = append(managerOpts, session.WithEditorOptions(editor.WithHistoryLimit(eng.historyLimit)))
	}
	if eng.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(eng.locker))
	}
	for _, o := range eng.observers {
		managerOpts = append(managerOpts, session.WithObserver(o))
	}
	eng.sessions = session.NewManager(eng.store, eng.registry, managerOpts...)

	return eng, nil
}

// Registry returns the component registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Templates returns the template source.
func (e *Engine) Templates() ports.TemplateSource {
	return e.templates
}

// Sessions returns the editing session manager.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Store returns the page store, middleware included.
func (e *Engine) Store() ports.SchemaStore {
	return e.store
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Render produces the visual tree of schema with overrides merged over props.
// It never fails: unknown types and broken renderers become placeholders.
func (e *Engine) Render(schema domain.Schema, overrides render.Overrides) domain.VisualTree {
	return e.renderer.Render(schema, overrides)
}

// Preview renders the page as it is being edited: the open session when
// there is one, the persisted schema otherwise.
func (e *Engine) Preview(ctx context.Context, pageRef string, overrides render.Overrides) (domain.VisualTree, error) {
	if view, err := e.sessions.View(pageRef); err == nil {
		return e.Render(view.Schema, overrides), nil
	}
	return e.renderStored(ctx, pageRef, overrides)
}

// Public renders the persisted page, ignoring unsaved edits.
func (e *Engine) Public(ctx context.Context, pageRef string) (domain.VisualTree, error) {
	return e.renderStored(ctx, pageRef, nil)
}

// CreatePage creates a page from a template and opens an editing session on it.
func (e *Engine) CreatePage(ctx context.Context, pageRef, templateID string) (editor.View, error) {
	return e.sessions.Create(ctx, pageRef, templateID)
}

// Validate checks schema against the registered prop contracts.
func (e *Engine) Validate(schema domain.Schema) error {
	return e.registry.ValidateSchema(schema)
}

// Watch returns a channel that signals when templates change.
// Returns error if the template source does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := e.templates.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current template source does not support watching")
}

func (e *Engine) renderStored(ctx context.Context, pageRef string, overrides render.Overrides) (domain.VisualTree, error) {
	schema, err := e.store.Load(ctx, pageRef)
	if err != nil {
		return domain.VisualTree{}, fmt.Errorf("failed to load page %s: %w", pageRef, err)
	}
	return e.Render(schema, overrides), nil
}
