package resource

import (
	"time"

	"github.com/oneilljw/homecontrol/pkg/events"
)

type RealtimeEventResource struct {
	Topic     string      `json:"topic"`
	SessionID int         `json:"sessionId,omitempty"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewRealtimeEvent(ev events.Event) *RealtimeEventResource {
	return &RealtimeEventResource{
		Topic:     ev.Topic,
		SessionID: ev.SessionID,
		Message:   ev.Message,
		Data:      ev.Data,
		Timestamp: ev.Timestamp,
	}
}
