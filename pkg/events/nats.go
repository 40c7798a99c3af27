package events

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
)

const subjectPrefix = "homecontrol.v1.events"

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// NATSSink publishes events as JSON to homecontrol.v1.events.<topic>.
type NATSSink struct {
	pub Publisher
}

func NewNATSSink(pub Publisher) *NATSSink {
	return &NATSSink{pub: pub}
}

// Subject returns the NATS subject for the given topic.
func Subject(topic string) string {
	return fmt.Sprintf("%s.%s", subjectPrefix, topic)
}

func (s *NATSSink) Handle(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("failed to marshal event: %s", err)
		return
	}

	if err := s.pub.Publish(Subject(ev.Topic), data); err != nil {
		log.WithField("topic", ev.Topic).Errorf("failed to publish event: %s", err)
	}
}
