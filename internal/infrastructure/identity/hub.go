package identity

import (
	"context"
	"sync"

	"github.com/jurifinder/legal-vault/internal/core/domain"
)

// Hub fans session events out to in-process subscribers keyed by session ID.
type Hub struct {
	mu   sync.RWMutex
	next uint64
	subs map[string]map[uint64]*subscription
}

type subscription struct {
	mu     sync.Mutex
	active bool
	fn     func(domain.SessionEvent)
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[uint64]*subscription)}
}

// Subscribe registers fn for events of sessionID. fn is never invoked once
// the returned function has returned.
func (h *Hub) Subscribe(sessionID string, fn func(domain.SessionEvent)) func() {
	sub := &subscription{active: true, fn: fn}

	h.mu.Lock()
	h.next++
	id := h.next
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[uint64]*subscription)
	}
	h.subs[sessionID][id] = sub
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[sessionID], id)
			if len(h.subs[sessionID]) == 0 {
				delete(h.subs, sessionID)
			}
			h.mu.Unlock()

			// waits for an in-flight delivery to finish
			sub.mu.Lock()
			sub.active = false
			sub.mu.Unlock()
		})
	}
}

// Publish delivers ev synchronously to every current subscriber of its session.
func (h *Hub) Publish(_ context.Context, ev domain.SessionEvent) error {
	h.mu.RLock()
	targets := make([]*subscription, 0, len(h.subs[ev.SessionID]))
	for _, s := range h.subs[ev.SessionID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		s.mu.Lock()
		if s.active {
			s.fn(ev)
		}
		s.mu.Unlock()
	}
	return nil
}

// Subscribers returns the number of live subscriptions for sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}
