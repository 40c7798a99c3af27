package events

import (
	"encoding/json"

	"github.com/oneilljw/homecontrol/pkg/model"
	"github.com/oneilljw/homecontrol/pkg/storage"
	log "github.com/sirupsen/logrus"
)

// StoreSink records events in the event store.
type StoreSink struct {
	store storage.EventStore
}

func NewStoreSink(store storage.EventStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Handle(ev Event) {
	m := &model.Event{
		Topic:     ev.Topic,
		SessionID: ev.SessionID,
		Message:   ev.Message,
		Timestamp: ev.Timestamp,
	}

	if ev.Data != nil {
		details, err := json.Marshal(ev.Data)
		if err != nil {
			log.Errorf("failed to marshal event details: %s", err)
		} else {
			m.Details = string(details)
		}
	}

	if err := s.store.Create(m); err != nil {
		log.Errorf("failed to store event: %s", err)
	}
}
