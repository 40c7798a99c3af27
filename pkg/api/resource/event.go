package resource

import (
	"encoding/json"
	"time"

	"github.com/oneilljw/homecontrol/pkg/model"
)

type EventResource struct {
	ID        int32       `json:"id"`
	Topic     string      `json:"topic"`
	SessionID int         `json:"sessionId,omitempty"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
	Details   interface{} `json:"details,omitempty"`
}

type EventListResource struct {
	Members []*EventResource `json:"members"`
}

func NewEvent(m *model.Event) (out *EventResource) {
	out = &EventResource{
		ID:        m.ID,
		Topic:     m.Topic,
		SessionID: m.SessionID,
		Message:   m.Message,
		Timestamp: m.Timestamp,
	}

	var details interface{}
	if err := json.Unmarshal([]byte(m.Details), &details); err == nil {
		out.Details = details
	}

	return // out
}

func NewEventList(m []model.Event) (out *EventListResource) {
	out = &EventListResource{
		Members: make([]*EventResource, 0, len(m)),
	}

	for i := range m {
		out.Members = append(out.Members, NewEvent(&m[i]))
	}

	return // out
}
