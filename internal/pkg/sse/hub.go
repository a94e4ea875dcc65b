// Package sse fans server-sent events out to subscribers grouped by topic.
// The HTTP layer subscribes managers under their company id.
package sse

import (
	"sync"
)

// Event is one server-sent event.
type Event struct {
	Topic string
	Event string
	Data  any
}

// Hub tracks subscribers per topic.
type Hub struct {
	mu          sync.RWMutex
	buffer      int
	subscribers map[string]map[chan Event]struct{}
	dropped     uint64
}

func NewHub() *Hub {
	return &Hub{
		buffer:      16,
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a subscriber and returns its channel plus the
// function that unregisters and closes it.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[chan Event]struct{})
	}
	h.subscribers[topic][ch] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[topic], ch)
			close(ch)
			if len(h.subscribers[topic]) == 0 {
				delete(h.subscribers, topic)
			}
		})
	}
	return ch, cancel
}

// Publish delivers e to every subscriber of topic and returns how many
// received it. Slow subscribers with a full buffer miss the event.
func (h *Hub) Publish(topic string, e Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	e.Topic = topic
	delivered := 0
	for ch := range h.subscribers[topic] {
		select {
		case ch <- e:
			delivered++
		default:
			h.dropped++
		}
	}
	return delivered
}

// SubscriberCount returns the subscribers of one topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[topic])
}

func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}

// Dropped returns how many deliveries were skipped because a buffer was full.
func (h *Hub) Dropped() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}
