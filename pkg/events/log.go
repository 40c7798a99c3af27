package events

import (
	log "github.com/sirupsen/logrus"
)

// LogSink traces every event at debug level.
type LogSink struct{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Handle(ev Event) {
	entry := log.WithField("topic", ev.Topic)
	if ev.SessionID != 0 {
		entry = entry.WithField("session", ev.SessionID)
	}
	entry.Debug(ev.Message)
}
