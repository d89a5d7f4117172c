package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/tessera/internal/logging"
	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/editor"
	"github.com/aretw0/tessera/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed page lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// Observer is notified after an intent changed a page. The diff is never nil.
type Observer func(pageRef string, diff *domain.SchemaDiff)

// IntentFunc runs one editing intent against an open session.
type IntentFunc func(s *editor.Session) (editor.View, error)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager owns the open editing sessions and orchestrates their persistence.
// Intents on one page are serialized; different pages proceed in parallel.
// It uses reference counting to garbage collect unused page locks.
type Manager struct {
	store     ports.SchemaStore
	palette   editor.Palette
	templates ports.TemplateSource

	// mu guards locks, the per-page lock table.
	mu    sync.Mutex
	locks map[string]*lockEntry

	smu      sync.RWMutex
	sessions map[string]*editor.Session

	omu       sync.RWMutex
	observers []Observer

	locker     ports.DistributedLocker
	lockTTL    time.Duration
	editorOpts []editor.Option
	logger     *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager and the sessions it opens.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithTemplates enables Create.
func WithTemplates(src ports.TemplateSource) Option {
	return func(m *Manager) {
		m.templates = src
	}
}

// WithEditorOptions passes options to every session the Manager opens.
func WithEditorOptions(opts ...editor.Option) Option {
	return func(m *Manager) {
		m.editorOpts = append(m.editorOpts, opts...)
	}
}

// WithObserver registers an observer at construction time.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
}

// NewManager creates a new session manager over the given persistence store.
func NewManager(store ports.SchemaStore, palette editor.Palette, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		palette:  palette,
		locks:    make(map[string]*lockEntry),
		sessions: make(map[string]*editor.Session),
		lockTTL:  DefaultLockTTL,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Observe registers an observer for page changes.
func (m *Manager) Observe(o Observer) {
	if o == nil {
		return
	}
	m.omu.Lock()
	defer m.omu.Unlock()
	m.observers = append(m.observers, o)
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(pageRef) after unlocking.
func (m *Manager) acquire(pageRef string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[pageRef]
	if !exists {
		entry = &lockEntry{}
		m.locks[pageRef] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(pageRef string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[pageRef]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, pageRef)
	}
}

// WithLock executes a function while holding the lock for the page.
func (m *Manager) WithLock(ctx context.Context, pageRef string, fn func(context.Context) error) error {
	entry := m.acquire(pageRef)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(pageRef)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, pageRef, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"page_ref", pageRef,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Open starts an editing session over the stored page.
// If the page is already open, its current view is returned.
func (m *Manager) Open(ctx context.Context, pageRef string) (editor.View, error) {
	var view editor.View
	err := m.WithLock(ctx, pageRef, func(ctx context.Context) error {
		if s, ok := m.session(pageRef); ok {
			view = s.View()
			return nil
		}

		schema, err := m.store.Load(ctx, pageRef)
		if err != nil {
			return fmt.Errorf("failed to load page %s: %w", pageRef, err)
		}
		view = m.start(pageRef, schema)
		return nil
	})
	return view, err
}

// Create stores a new page built from a template and opens it.
// It fails with domain.ErrPageExists if the reference is taken.
func (m *Manager) Create(ctx context.Context, pageRef, templateID string) (editor.View, error) {
	if m.templates == nil {
		return editor.View{}, fmt.Errorf("%w: no template source configured", domain.ErrTemplateNotFound)
	}

	var view editor.View
	err := m.WithLock(ctx, pageRef, func(ctx context.Context) error {
		if _, ok := m.session(pageRef); ok {
			return fmt.Errorf("%w: %s", domain.ErrPageExists, pageRef)
		}
		_, err := m.store.Load(ctx, pageRef)
		if err == nil {
			return fmt.Errorf("%w: %s", domain.ErrPageExists, pageRef)
		}
		if !errors.Is(err, domain.ErrPageNotFound) {
			return fmt.Errorf("failed to check page existence: %w", err)
		}

		tmpl, err := m.templates.GetTemplate(ctx, templateID)
		if err != nil {
			return err
		}
		schema := tmpl.Schema.Clone()
		if schema.Metadata == nil {
			schema.Metadata = &domain.Metadata{Name: tmpl.Name, Description: tmpl.Description, Category: tmpl.Category}
		}

		// Persist immediately to reserve the reference
		if err := m.store.Save(ctx, pageRef, schema); err != nil {
			return fmt.Errorf("failed to initialize page: %w", err)
		}
		view = m.start(pageRef, schema)
		m.notify(pageRef, domain.Diff(pageRef, nil, schema))
		return nil
	})
	return view, err
}

// Do runs an intent under the page lock. Observers are told about any change.
func (m *Manager) Do(ctx context.Context, pageRef string, fn IntentFunc) (editor.View, error) {
	var view editor.View
	err := m.WithLock(ctx, pageRef, func(ctx context.Context) error {
		s, ok := m.session(pageRef)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrSessionNotOpen, pageRef)
		}

		before := s.View()
		var err error
		view, err = fn(s)
		if err != nil {
			return err
		}
		if view.Revision != before.Revision {
			m.notify(pageRef, domain.Diff(pageRef, &before.Schema, view.Schema))
		}
		return nil
	})
	return view, err
}

// View returns the current view of an open page without taking the page lock.
func (m *Manager) View(pageRef string) (editor.View, error) {
	s, ok := m.session(pageRef)
	if !ok {
		return editor.View{}, fmt.Errorf("%w: %s", domain.ErrSessionNotOpen, pageRef)
	}
	return s.View(), nil
}

// Save persists the current schema of an open page.
// On failure the session is left intact and still dirty, so the caller can retry.
func (m *Manager) Save(ctx context.Context, pageRef string) (editor.View, error) {
	var view editor.View
	err := m.WithLock(ctx, pageRef, func(ctx context.Context) error {
		s, ok := m.session(pageRef)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrSessionNotOpen, pageRef)
		}
		var err error
		view, err = m.save(ctx, pageRef, s)
		return err
	})
	return view, err
}

// SaveDirty saves every open page with unsaved edits and reports how many were saved.
// Failures do not stop the remaining saves; they are joined in the returned error.
func (m *Manager) SaveDirty(ctx context.Context) (int, error) {
	var (
		saved int
		errs  []error
	)
	for _, ref := range m.Sessions() {
		if s, ok := m.session(ref); !ok || !s.Dirty() {
			continue
		}
		err := m.WithLock(ctx, ref, func(ctx context.Context) error {
			s, ok := m.session(ref)
			if !ok || !s.Dirty() {
				return nil
			}
			if _, err := m.save(ctx, ref, s); err != nil {
				return err
			}
			saved++
			return nil
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return saved, errors.Join(errs...)
}

// Close ends the editing session of a page, saving unsaved edits first.
// If that save fails the session stays open. Closing a page that is not open is a no-op.
func (m *Manager) Close(ctx context.Context, pageRef string) error {
	return m.WithLock(ctx, pageRef, func(ctx context.Context) error {
		s, ok := m.session(pageRef)
		if !ok {
			return nil
		}
		if s.Dirty() {
			if _, err := m.save(ctx, pageRef, s); err != nil {
				return err
			}
		}
		m.smu.Lock()
		delete(m.sessions, pageRef)
		m.smu.Unlock()
		m.logger.Debug("session closed", "page_ref", pageRef)
		return nil
	})
}

// Discard ends the editing session of a page without saving.
func (m *Manager) Discard(pageRef string) {
	m.smu.Lock()
	defer m.smu.Unlock()
	delete(m.sessions, pageRef)
}

// Delete closes any session without saving and removes the page from the store.
func (m *Manager) Delete(ctx context.Context, pageRef string) error {
	return m.WithLock(ctx, pageRef, func(ctx context.Context) error {
		m.Discard(pageRef)
		return m.store.Delete(ctx, pageRef)
	})
}

// Sessions lists the references of open pages in sorted order.
func (m *Manager) Sessions() []string {
	m.smu.RLock()
	defer m.smu.RUnlock()
	refs := make([]string, 0, len(m.sessions))
	for ref := range m.sessions {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying schema store.
func (m *Manager) Store() ports.SchemaStore {
	return m.store
}

func (m *Manager) session(pageRef string) (*editor.Session, bool) {
	m.smu.RLock()
	defer m.smu.RUnlock()
	s, ok := m.sessions[pageRef]
	return s, ok
}

// start must be called with the page lock held.
func (m *Manager) start(pageRef string, schema domain.Schema) editor.View {
	opts := append([]editor.Option{editor.WithLogger(m.logger.With("page_ref", pageRef))}, m.editorOpts...)
	s := editor.New(m.palette, opts...)
	view := s.Load(schema)

	m.smu.Lock()
	m.sessions[pageRef] = s
	m.smu.Unlock()

	m.logger.Debug("session opened", "page_ref", pageRef, "components", len(schema.Components))
	return view
}

// save must be called with the page lock held.
func (m *Manager) save(ctx context.Context, pageRef string, s *editor.Session) (editor.View, error) {
	view := s.View()
	if err := m.store.Save(ctx, pageRef, view.Schema); err != nil {
		m.logger.Error("failed to save page", "page_ref", pageRef, "revision", view.Revision, "err", err)
		return view, fmt.Errorf("failed to save page %s: %w", pageRef, err)
	}
	s.MarkSaved(view.Revision)
	view.Dirty = s.Dirty()
	m.logger.Info("page saved", "page_ref", pageRef, "revision", view.Revision)
	return view, nil
}

func (m *Manager) notify(pageRef string, diff *domain.SchemaDiff) {
	if diff == nil {
		return
	}
	m.omu.RLock()
	observers := append([]Observer(nil), m.observers...)
	m.omu.RUnlock()
	for _, o := range observers {
		o(pageRef, diff)
	}
}
