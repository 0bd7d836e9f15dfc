// Package notify is an optional push channel for cache mutations. The pull
// query API works without it; subscribers that fall behind lose events rather
// than block writers.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/feastly/catalog-cache/model"
)

const subscriberBuffer = 16

type Hub struct {
	mu     sync.RWMutex
	subs   map[string]chan model.ChangeEvent
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan model.ChangeEvent)}
}

// Subscribe registers a listener. The returned cancel func must be called to
// release the subscription; the channel is closed on cancel or hub close.
func (h *Hub) Subscribe() (<-chan model.ChangeEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan model.ChangeEvent, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish fans the event out to all subscribers without blocking: a full
// subscriber buffer drops the event for that subscriber only.
func (h *Hub) Publish(entity model.EntityKind, op model.ChangeOp, keys []string) {
	event := model.ChangeEvent{
		ID:     uuid.New().String(),
		Entity: entity,
		Op:     op,
		Keys:   keys,
		At:     time.Now().UnixMilli(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close shuts the hub down and closes all subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
