package storage

import "github.com/oneilljw/homecontrol/pkg/model"

// Interface is implemented by the storage
type Interface interface {
	Events() EventStore
}

// EventStore is responsible for managing the Event model
type EventStore interface {
	// FetchRecent returns up to limit events, newest first.
	FetchRecent(limit int) ([]model.Event, error)
	FindByID(id int32) (*model.Event, error)
	Create(m *model.Event) error
}
