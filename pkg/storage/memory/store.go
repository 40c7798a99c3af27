package memory

import "github.com/oneilljw/homecontrol/pkg/storage"

// store contains all memory-based sub-stores for managing the models
type store struct {
	events *eventStore
}

// NewStore creates a new memory-based Storage interface. The event store
// keeps at most capacity events; zero or less means unbounded.
func NewStore(capacity int) storage.Interface {
	return &store{
		events: newEventStore(capacity),
	}
}

// Events returns a sub-store for managing the event model
func (s *store) Events() storage.EventStore {
	return s.events
}
