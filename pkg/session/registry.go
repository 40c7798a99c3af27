package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Registry is the table of live sessions. All structural mutation and the
// sweep iteration are serialized by its mutex.
type Registry struct {
	sync.RWMutex
	sessions map[int]*Session
	nextID   int
	notifier *Notifier
	clock    func() time.Time
}

// RegistryCfg configures a Registry.
type RegistryCfg func(*Registry)

// WithNotifier sets the notifier used to report to observers.
func WithNotifier(n *Notifier) RegistryCfg {
	return func(reg *Registry) {
		reg.notifier = n
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(clock func() time.Time) RegistryCfg {
	return func(reg *Registry) {
		reg.clock = clock
	}
}

func NewRegistry(cfgs ...RegistryCfg) *Registry {
	reg := &Registry{
		sessions: make(map[int]*Session),
		nextID:   1,
		clock:    time.Now,
	}
	for _, cfg := range cfgs {
		cfg(reg)
	}
	return reg
}

func (reg *Registry) now() time.Time {
	return reg.clock()
}

// Add assigns the session its id and inserts it.
func (reg *Registry) Add(sess *Session) int {
	reg.Lock()
	sess.id = reg.nextID
	reg.nextID++
	reg.sessions[sess.id] = sess
	snaps := reg.snapshotsLocked()
	reg.Unlock()

	msg := fmt.Sprintf("Client %d connected", sess.id)
	log.WithField("session_id", sess.id).Info(msg)
	reg.notifier.MembershipChanged(snaps)
	reg.notifier.LogMessage(msg)

	return sess.id
}

// Remove deletes the session from the table and closes its connection. It
// is safe to call more than once.
func (reg *Registry) Remove(sess *Session) bool {
	removed := reg.detach(sess)
	sess.close()
	return removed
}

// detach deletes the session from the table without closing the
// connection.
func (reg *Registry) detach(sess *Session) bool {
	reg.Lock()
	cur, ok := reg.sessions[sess.id]
	if !ok || cur != sess {
		reg.Unlock()
		return false
	}
	delete(reg.sessions, sess.id)
	snaps := reg.snapshotsLocked()
	reg.Unlock()

	log.WithField("session_id", sess.id).Info("registry removed session")
	reg.notifier.MembershipChanged(snaps)
	return true
}

// Find returns the session with the given id.
func (reg *Registry) Find(id int) (*Session, error) {
	reg.RLock()
	defer reg.RUnlock()

	if sess, ok := reg.sessions[id]; ok {
		return sess, nil
	}
	return nil, ErrSessionNotFound
}

// Kill ends the session with the given id on behalf of an operator.
func (reg *Registry) Kill(id int) error {
	sess, err := reg.Find(id)
	if err != nil {
		return err
	}

	sess.end()
	if !reg.Remove(sess) {
		return ErrSessionNotFound
	}

	msg := fmt.Sprintf("Client %d killed", id)
	log.WithField("session_id", id).Warn(msg)
	reg.notifier.LogMessage(msg)
	reg.notifier.SessionKilled(id, "operator", reg.now().Sub(sess.LastActiveAt()))
	return nil
}

// Broadcast appends change to the queue of every registered session except
// originator and returns the number of recipients. originator may be nil to
// reach every session.
func (reg *Registry) Broadcast(originator *Session, change string) int {
	reg.Lock()
	defer reg.Unlock()

	n := 0
	for _, sess := range reg.sessions {
		if sess == originator {
			continue
		}
		sess.changes.push(change)
		n++
	}
	return n
}

// BroadcastAll delivers a change that has no originating session, e.g. one
// detected by polling the device.
func (reg *Registry) BroadcastAll(change string) int {
	return reg.Broadcast(nil, change)
}

// Len returns the number of registered sessions.
func (reg *Registry) Len() int {
	reg.RLock()
	defer reg.RUnlock()
	return len(reg.sessions)
}

// Snapshots returns the session table ordered by id.
func (reg *Registry) Snapshots() []Snapshot {
	reg.RLock()
	defer reg.RUnlock()
	return reg.snapshotsLocked()
}

func (reg *Registry) snapshotsLocked() []Snapshot {
	snaps := make([]Snapshot, 0, len(reg.sessions))
	for _, sess := range reg.sessions {
		snaps = append(snaps, sess.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].ID < snaps[j].ID
	})
	return snaps
}

// CloseAll ends and removes every session, used on shutdown.
func (reg *Registry) CloseAll() {
	reg.RLock()
	all := make([]*Session, 0, len(reg.sessions))
	for _, sess := range reg.sessions {
		all = append(all, sess)
	}
	reg.RUnlock()

	for _, sess := range all {
		sess.end()
		reg.Remove(sess)
	}
}

// stateChanged tells observers that the session table needs a refresh.
func (reg *Registry) stateChanged() {
	reg.notifier.MembershipChanged(reg.Snapshots())
}

func (reg *Registry) loginAttempt(valid bool, msg string) {
	if valid {
		log.Info(msg)
	} else {
		log.Warn(msg)
	}
	reg.notifier.LogMessage(msg)

	// Redraw the table, we now know who the client is
	if valid {
		reg.stateChanged()
	}
}
