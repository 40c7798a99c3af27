package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/oneilljw/homecontrol/pkg/model"
	"github.com/oneilljw/homecontrol/pkg/storage"
)

type eventStore struct {
	store    map[int32]model.Event
	nextID   int32
	oldestID int32
	capacity int
	sync.RWMutex
}

func newEventStore(capacity int) *eventStore {
	return &eventStore{
		store:    make(map[int32]model.Event),
		nextID:   1,
		oldestID: 1,
		capacity: capacity,
	}
}

func (s *eventStore) FetchRecent(limit int) ([]model.Event, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.Event, 0, len(s.store))
	for _, m := range s.store {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID > models[j].ID })

	if limit > 0 && len(models) > limit {
		models = models[:limit]
	}
	return models, nil
}

func (s *eventStore) FindByID(id int32) (*model.Event, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[id]; ok {
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *eventStore) Create(m *model.Event) error {
	s.Lock()
	defer s.Unlock()

	m.ID = s.getNextID()
	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = time.Now().Round(time.Second).UTC()
	if m.Timestamp.IsZero() {
		m.Timestamp = m.CreatedAt
	}

	s.store[m.ID] = *m

	// Drop the oldest events once the capacity is exceeded
	for s.capacity > 0 && len(s.store) > s.capacity {
		delete(s.store, s.oldestID)
		s.oldestID++
	}

	return nil
}

func (s *eventStore) getNextID() int32 {
	id := s.nextID
	s.nextID++
	return id
}
