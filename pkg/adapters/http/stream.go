package http

import (
	"log/slog"
	"sync"

	"github.com/aretw0/tessera/internal/logging"
	"github.com/google/uuid"
)

// StreamManager fans page diffs out to SSE subscribers.
// Each subscription is identified by a random token.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]chan string // page ref -> token -> channel
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[string]chan string),
		logger:      logger,
	}
}

// Subscribe registers a listener for pageRef. The returned cancel func
// unregisters it and closes the channel.
func (sm *StreamManager) Subscribe(pageRef string) (string, <-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	token := uuid.NewString()
	ch := make(chan string, 10)
	if _, ok := sm.subscribers[pageRef]; !ok {
		sm.subscribers[pageRef] = make(map[string]chan string)
	}
	sm.subscribers[pageRef][token] = ch

	return token, ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[pageRef]; ok {
			if c, ok := subs[token]; ok {
				delete(subs, token)
				close(c)
			}
			if len(subs) == 0 {
				delete(sm.subscribers, pageRef)
			}
		}
	}
}

// Subscribers returns how many listeners pageRef has.
func (sm *StreamManager) Subscribers(pageRef string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[pageRef])
}

func (sm *StreamManager) Broadcast(pageRef string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for token, ch := range sm.subscribers[pageRef] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: client buffer full, dropping message", "page_ref", pageRef, "subscriber", token)
		}
	}
}
