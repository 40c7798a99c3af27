package resource

import (
	"time"

	"github.com/oneilljw/homecontrol/pkg/session"
)

type SessionResource struct {
	ID             int       `json:"id"`
	UserID         string    `json:"userId"`
	State          string    `json:"state"`
	Heartbeat      string    `json:"heartbeat"`
	ClientVersion  string    `json:"clientVersion"`
	RemoteAddr     string    `json:"remoteAddr"`
	ConnectedAt    time.Time `json:"connectedAt"`
	LastActiveAt   time.Time `json:"lastActiveAt"`
	PendingChanges int       `json:"pendingChanges"`
}

type SessionListResource struct {
	Members []*SessionResource `json:"members"`
}

func NewSession(s session.Snapshot) (out *SessionResource) {
	out = &SessionResource{
		ID:             s.ID,
		UserID:         s.UserID,
		State:          s.State.String(),
		Heartbeat:      s.Heartbeat.String(),
		ClientVersion:  s.ClientVersion,
		RemoteAddr:     s.RemoteAddr,
		ConnectedAt:    s.ConnectedAt,
		LastActiveAt:   s.LastActiveAt,
		PendingChanges: s.PendingChanges,
	}

	return // out
}

// NewSessionList keeps the order of the given snapshots.
func NewSessionList(snaps []session.Snapshot) (out *SessionListResource) {
	out = &SessionListResource{
		Members: make([]*SessionResource, 0, len(snaps)),
	}

	for _, s := range snaps {
		out.Members = append(out.Members, NewSession(s))
	}

	return // out
}
