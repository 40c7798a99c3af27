package model

import "time"

// Event is a persisted record of something that happened to the session
// registry, e.g. a connect, a login attempt or a heartbeat kill.
type Event struct {
	ID        int32
	Topic     string
	SessionID int
	Message   string
	Details   string
	Timestamp time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
