// Package history implements the bounded undo/redo stack of an editing session.
package history

import (
	"errors"
	"sync"

	"github.com/aretw0/tessera/pkg/domain"
)

// ErrEmpty is returned by Commit before any schema has been loaded.
var ErrEmpty = errors.New("history is empty: load a schema first")

// Entry is one captured snapshot.
// Revision grows monotonically across commits and is never reused,
// so it can be compared against a saved revision to detect unsaved edits.
type Entry struct {
	Schema   domain.Schema
	Revision uint64
}

// Option configures a History.
type Option func(*History)

// WithLimit caps the number of retained entries.
// Once exceeded, the oldest entries are dropped. Zero or negative means unbounded.
func WithLimit(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.limit = n
		}
	}
}

// History is a stack of schema snapshots plus a cursor.
// The zero value is Empty and ready to use.
type History struct {
	mu      sync.RWMutex
	entries []Entry
	cursor  int
	limit   int
	nextRev uint64
}

// New creates an empty History.
func New(opts ...Option) *History {
	h := &History{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load resets the stack to a single entry holding s.
func (h *History) Load(s domain.Schema) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextRev = 0
	h.entries = []Entry{{Schema: s.Clone(), Revision: 0}}
	h.cursor = 0
}

// Commit appends s after the cursor, discarding any redoable entries.
func (h *History) Commit(s domain.Schema) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return ErrEmpty
	}

	h.nextRev++
	h.entries = append(h.entries[:h.cursor+1:h.cursor+1], Entry{Schema: s.Clone(), Revision: h.nextRev})
	h.cursor = len(h.entries) - 1

	if h.limit > 0 && len(h.entries) > h.limit {
		drop := len(h.entries) - h.limit
		h.entries = append([]Entry(nil), h.entries[drop:]...)
		h.cursor -= drop
	}
	return nil
}

// Undo moves the cursor one step back. It reports whether the cursor moved.
func (h *History) Undo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor == 0 {
		return false
	}
	h.cursor--
	return true
}

// Redo moves the cursor one step forward. It reports whether the cursor moved.
func (h *History) Redo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor >= len(h.entries)-1 {
		return false
	}
	h.cursor++
	return true
}

func (h *History) CanUndo() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cursor > 0
}

func (h *History) CanRedo() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cursor < len(h.entries)-1
}

// Current returns the schema under the cursor. The result is shared with
// the stack and must be treated as read-only.
func (h *History) Current() (domain.Schema, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.entries) == 0 {
		return domain.Schema{}, false
	}
	return h.entries[h.cursor].Schema, true
}

// Revision returns the revision of the entry under the cursor.
func (h *History) Revision() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.entries) == 0 {
		return 0
	}
	return h.entries[h.cursor].Revision
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Loaded reports whether the history is Active.
func (h *History) Loaded() bool {
	return h.Len() > 0
}

// Reset returns the history to Empty.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = nil
	h.cursor = 0
	h.nextRev = 0
}
