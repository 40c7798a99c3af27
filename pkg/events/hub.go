package events

import (
	"sync"
)

// Hub fans events out to realtime subscribers. A subscriber that cannot keep
// up misses events.
type Hub struct {
	sync.RWMutex
	subs   map[int]chan Event
	nextID int
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[int]chan Event),
	}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// cancel func unregisters it and closes the channel.
func (h *Hub) Subscribe(size int) (<-chan Event, func()) {
	if size <= 0 {
		size = 1
	}

	h.Lock()
	defer h.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, size)
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.Lock()
			defer h.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}

	return ch, cancel
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.RLock()
	defer h.RUnlock()
	return len(h.subs)
}

func (h *Hub) Handle(ev Event) {
	h.RLock()
	defer h.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
