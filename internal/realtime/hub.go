package realtime

import (
	"context"
	"log/slog"
	"sync"
)

const subscriberBuffer = 64

// Hub is an in-process Broker. Publish never blocks: a subscriber whose
// buffer is full misses the event and a warning is logged.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*hubSubscription]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*hubSubscription]struct{})}
}

func (h *Hub) Publish(_ context.Context, change Change) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrBrokerClosed
	}
	for sub := range h.subs[change.Table] {
		sub.deliver(change)
	}
	return nil
}

func (h *Hub) Subscribe(_ context.Context, table string) (Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrBrokerClosed
	}
	sub := &hubSubscription{
		hub:   h,
		table: table,
		ch:    make(chan Change, subscriberBuffer),
	}
	if h.subs[table] == nil {
		h.subs[table] = make(map[*hubSubscription]struct{})
	}
	h.subs[table][sub] = struct{}{}
	return sub, nil
}

func (h *Hub) Ping(_ context.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrBrokerClosed
	}
	return nil
}

// Close ends every open subscription.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for _, set := range h.subs {
		for sub := range set {
			sub.shut()
		}
	}
	h.subs = nil
	return nil
}

func (h *Hub) remove(sub *hubSubscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[sub.table]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.table)
		}
	}
}

type hubSubscription struct {
	hub    *Hub
	table  string
	mu     sync.Mutex
	ch     chan Change
	closed bool
}

func (s *hubSubscription) Changes() <-chan Change { return s.ch }

func (s *hubSubscription) deliver(change Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- change:
	default:
		slog.Warn("realtime subscriber buffer full, dropping change",
			"collection", change.Table, "type", string(change.Type))
	}
}

func (s *hubSubscription) shut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

func (s *hubSubscription) Close() error {
	s.hub.remove(s)
	s.shut()
	return nil
}

var _ Broker = (*Hub)(nil)
