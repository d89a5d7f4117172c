// Package editor implements the editing session: the history stack, the
// current selection and the component palette behind one open page.
//
// Every intent returns the observable View. Structural intents that change
// the tree commit exactly once; no-ops and selection never commit.
package editor

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/tessera/internal/logging"
	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/history"
	"github.com/aretw0/tessera/pkg/registry"
	"github.com/aretw0/tessera/pkg/tree"
)

// View is the observable state after an intent.
// Schema is shared with the history stack and must not be modified.
type View struct {
	Schema   domain.Schema `json:"schema"`
	Selected string        `json:"selected,omitempty"`
	CanUndo  bool          `json:"canUndo"`
	CanRedo  bool          `json:"canRedo"`
	Revision uint64        `json:"revision"`
	Dirty    bool          `json:"dirty"`
}

// Palette is the subset of the registry a session needs.
type Palette interface {
	Defaults(typ string) (map[string]any, bool)
	Catalog() []registry.CatalogEntry
}

// Option configures a Session.
type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHistoryLimit caps the undo stack. See history.WithLimit.
func WithHistoryLimit(n int) Option {
	return func(s *Session) {
		s.historyOpts = append(s.historyOpts, history.WithLimit(n))
	}
}

// WithClock replaces the time source used to mint node ids.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session is one editing session over one page.
// It is safe for concurrent use, although intents are expected from a single writer.
type Session struct {
	mu          sync.Mutex
	palette     Palette
	history     *history.History
	historyOpts []history.Option
	selected    string
	savedRev    uint64
	logger      *slog.Logger
	now         func() time.Time
}

// New creates an empty session. Load must be called before editing.
func New(palette Palette, opts ...Option) *Session {
	s := &Session{
		palette: palette,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = history.New(s.historyOpts...)
	return s
}

// Load starts the session over schema, clearing history and selection.
// The loaded schema counts as saved.
func (s *Session) Load(schema domain.Schema) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.Load(schema)
	s.selected = ""
	s.savedRev = s.history.Revision()
	return s.view()
}

// Select sets the selection. An empty id clears it; an unknown id is ignored.
func (s *Session) Select(id string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.history.Current()
	if !ok {
		return View{}, domain.ErrSessionNotOpen
	}
	if id == "" || tree.Contains(cur, id) {
		s.selected = id
	}
	return s.view(), nil
}

// Insert adds a new node of type typ built from the registry defaults.
// at is the optional top-level index; omitted means append.
// It returns the id minted for the node.
func (s *Session) Insert(typ string, at ...int) (View, string, error) {
	defaults, ok := s.palette.Defaults(typ)
	if !ok {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.view(), "", fmt.Errorf("%w: %s", domain.ErrUnknownComponent, typ)
	}

	editable := make([]string, 0, len(defaults))
	for k := range defaults {
		editable = append(editable, k)
	}
	sort.Strings(editable)

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.history.Current()
	if !ok {
		return View{}, "", domain.ErrSessionNotOpen
	}

	node := domain.Node{
		ID:       s.mintID(cur, typ),
		Type:     typ,
		Props:    defaults,
		Editable: editable,
	}
	next, _ := s.add(cur, node, at)
	s.commit(next, "insert", "node_id", node.ID, "type", typ)
	return s.view(), node.ID, nil
}

// Add inserts a caller-built node. Ids in its subtree that collide with
// existing ids (or with each other) are regenerated.
func (s *Session) Add(node domain.Node, at ...int) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.history.Current()
	if !ok {
		return View{}, domain.ErrSessionNotOpen
	}

	node = s.dedupe(cur, node.Clone())
	next, _ := s.add(cur, node, at)
	s.commit(next, "add", "node_id", node.ID, "type", node.Type)
	return s.view(), nil
}

// PatchProps merges props into node id. Keys the node does not declare
// editable are dropped; an unknown id is a no-op.
func (s *Session) PatchProps(id string, props map[string]any) (View, error) {
	return s.Patch(id, domain.Patch{Props: props})
}

// PatchStyle merges style entries into node id.
func (s *Session) PatchStyle(id string, style map[string]string) (View, error) {
	return s.Patch(id, domain.Patch{Style: style})
}

// Patch applies both halves of p. Props follow the editable rule of PatchProps.
func (s *Session) Patch(id string, p domain.Patch) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.history.Current()
	if !ok {
		return View{}, domain.ErrSessionNotOpen
	}

	node, found := tree.Find(cur, id)
	if !found {
		return s.view(), nil
	}

	if len(p.Props) > 0 {
		allowed := make(map[string]any, len(p.Props))
		for k, v := range p.Props {
			if node.IsEditable(k) {
				allowed[k] = v
			} else {
				s.logger.Debug("dropping non-editable prop", "node_id", id, "key", k)
			}
		}
		p.Props = allowed
	}

	if next, changed := tree.Patch(cur, id, p); changed {
		s.commit(next, "patch", "node_id", id)
	}
	return s.view(), nil
}

// Remove deletes node id and its subtree. A selection inside the removed
// subtree is cleared.
func (s *Session) Remove(id string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.history.Current()
	if !ok {
		return View{}, domain.ErrSessionNotOpen
	}

	if next, changed := tree.Remove(cur, id); changed {
		s.commit(next, "remove", "node_id", id)
	}
	return s.view(), nil
}

// Move reorders a top-level node; the index is clamped.
func (s *Session) Move(id string, index int) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.history.Current()
	if !ok {
		return View{}, domain.ErrSessionNotOpen
	}

	if next, changed := tree.Move(cur, id, index); changed {
		s.commit(next, "move", "node_id", id, "index", index)
	}
	return s.view(), nil
}

func (s *Session) Undo() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.history.Loaded() {
		return View{}, domain.ErrSessionNotOpen
	}
	if s.history.Undo() {
		s.dropStaleSelection()
	}
	return s.view(), nil
}

func (s *Session) Redo() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.history.Loaded() {
		return View{}, domain.ErrSessionNotOpen
	}
	if s.history.Redo() {
		s.dropStaleSelection()
	}
	return s.view(), nil
}

// View returns the current observable state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// Schema returns a deep copy of the current schema.
func (s *Session) Schema() (domain.Schema, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.history.Current()
	if !ok {
		return domain.Schema{}, false
	}
	return cur.Clone(), true
}

// Palette lists the insertable components.
func (s *Session) Palette() []registry.CatalogEntry {
	return s.palette.Catalog()
}

// Dirty reports whether the current revision differs from the last saved one.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty()
}

// MarkSaved records rev as persisted. Pass the Revision of the View that was saved.
func (s *Session) MarkSaved(rev uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savedRev = rev
}

func (s *Session) view() View {
	cur, ok := s.history.Current()
	if !ok {
		return View{}
	}
	return View{
		Schema:   cur,
		Selected: s.selected,
		CanUndo:  s.history.CanUndo(),
		CanRedo:  s.history.CanRedo(),
		Revision: s.history.Revision(),
		Dirty:    s.dirty(),
	}
}

func (s *Session) dirty() bool {
	return s.history.Loaded() && s.history.Revision() != s.savedRev
}

func (s *Session) commit(next domain.Schema, intent string, args ...any) {
	// Commit only fails when nothing is loaded, which every caller has ruled out.
	_ = s.history.Commit(next)
	s.dropStaleSelection()
	s.logger.Debug("intent committed", append([]any{"intent", intent, "revision", s.history.Revision()}, args...)...)
}

func (s *Session) dropStaleSelection() {
	if s.selected == "" {
		return
	}
	cur, _ := s.history.Current()
	if !tree.Contains(cur, s.selected) {
		s.selected = ""
	}
}

func (s *Session) add(cur domain.Schema, node domain.Node, at []int) (domain.Schema, bool) {
	if len(at) > 0 {
		return tree.Add(cur, node, at[0])
	}
	return tree.Append(cur, node)
}

// mintID builds "<type>-<unix millis>", suffixed with a counter on collision.
func (s *Session) mintID(cur domain.Schema, typ string) string {
	base := strings.ToLower(typ) + "-" + strconv.FormatInt(s.now().UnixMilli(), 10)
	return uniqueID(base, func(id string) bool { return tree.Contains(cur, id) })
}

// dedupe regenerates ids in node's subtree that are empty or already taken.
func (s *Session) dedupe(cur domain.Schema, node domain.Node) domain.Node {
	taken := make(map[string]bool)
	tree.Walk(cur, func(n domain.Node, _ int) bool {
		taken[n.ID] = true
		return true
	})

	var fix func(n *domain.Node)
	fix = func(n *domain.Node) {
		if n.ID == "" || taken[n.ID] {
			base := n.ID
			if base == "" {
				base = strings.ToLower(n.Type)
			}
			renamed := uniqueID(base, func(id string) bool { return taken[id] })
			s.logger.Debug("regenerated colliding node id", "from", n.ID, "to", renamed)
			n.ID = renamed
		}
		taken[n.ID] = true
		for i := range n.Children {
			fix(&n.Children[i])
		}
	}
	fix(&node)
	return node
}

func uniqueID(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		id := base + "-" + strconv.Itoa(i)
		if !taken(id) {
			return id
		}
	}
}
