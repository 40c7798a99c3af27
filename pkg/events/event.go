package events

import (
	"fmt"
	"time"

	"github.com/oneilljw/homecontrol/pkg/session"
)

const (
	TopicMembership = "membership"
	TopicLog        = "log"
	TopicHeartbeat  = "heartbeat"
	TopicKilled     = "killed"
)

// Event is a session notification in a transport neutral form.
type Event struct {
	Topic     string      `json:"topic"`
	SessionID int         `json:"sessionId,omitempty"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// HeartbeatData is the payload of a heartbeat event.
type HeartbeatData struct {
	From    session.Heartbeat `json:"from"`
	To      session.Heartbeat `json:"to"`
	Elapsed string            `json:"elapsed"`
}

// KilledData is the payload of a killed event.
type KilledData struct {
	Reason  string `json:"reason"`
	Elapsed string `json:"elapsed"`
}

// Sink consumes events. Sinks are called from the notifier goroutine.
type Sink interface {
	Handle(ev Event)
}

type observer struct {
	sinks []Sink
	now   func() time.Time
}

// NewObserver turns session notifications into events and hands them to
// every sink in order.
func NewObserver(sinks ...Sink) session.Observer {
	return &observer{
		sinks: sinks,
		now:   time.Now,
	}
}

func (o *observer) emit(ev Event) {
	ev.Timestamp = o.now().UTC()
	for _, s := range o.sinks {
		s.Handle(ev)
	}
}

func (o *observer) MembershipChanged(sessions []session.Snapshot) {
	o.emit(Event{
		Topic:   TopicMembership,
		Message: fmt.Sprintf("%d client(s) connected", len(sessions)),
		Data:    sessions,
	})
}

func (o *observer) LogMessage(text string) {
	o.emit(Event{
		Topic:   TopicLog,
		Message: text,
	})
}

func (o *observer) HeartbeatTransition(sessionID int, from, to session.Heartbeat, elapsed time.Duration) {
	o.emit(Event{
		Topic:     TopicHeartbeat,
		SessionID: sessionID,
		Message:   fmt.Sprintf("Client %d heart beat %s -> %s", sessionID, from, to),
		Data: HeartbeatData{
			From:    from,
			To:      to,
			Elapsed: elapsed.String(),
		},
	})
}

func (o *observer) SessionKilled(sessionID int, reason string, elapsed time.Duration) {
	o.emit(Event{
		Topic:     TopicKilled,
		SessionID: sessionID,
		Message:   fmt.Sprintf("Client %d killed (%s)", sessionID, reason),
		Data: KilledData{
			Reason:  reason,
			Elapsed: elapsed.String(),
		},
	})
}
