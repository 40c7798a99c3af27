package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/oneilljw/homecontrol/pkg/proto"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const maxLineSize = 64 * 1024

// Session owns one client connection. The lifecycle fields are written by
// the session worker only, the heartbeat fields by the monitor only (except
// for start), and the change queue by broadcasters (push) and the worker
// (drain).
type Session struct {
	sync.RWMutex
	id           int
	srv          *Server
	conn         net.Conn
	state        State
	heartbeat    Heartbeat // set to Active once by start, then monitor only
	heartbeatAt  time.Time
	login        *proto.Login
	version      string
	connectedAt  time.Time
	lastActiveAt time.Time
	lastCommand  string
	changes      *changeQueue
	closeOnce    sync.Once
}

// Snapshot is a point in time copy of a session for operator tooling.
type Snapshot struct {
	ID             int       `json:"id"`
	UserID         string    `json:"userId"`
	State          State     `json:"state"`
	Heartbeat      Heartbeat `json:"heartbeat"`
	ClientVersion  string    `json:"clientVersion"`
	RemoteAddr     string    `json:"remoteAddr"`
	ConnectedAt    time.Time `json:"connectedAt"`
	LastActiveAt   time.Time `json:"lastActiveAt"`
	PendingChanges int       `json:"pendingChanges"`
}

func newSession(srv *Server, conn net.Conn, now time.Time) *Session {
	return &Session{
		srv:          srv,
		conn:         conn,
		state:        StateConnected,
		heartbeat:    HeartbeatNotStarted,
		heartbeatAt:  now,
		version:      "N/A",
		connectedAt:  now,
		lastActiveAt: now,
		changes:      newChangeQueue(),
	}
}

func (sess *Session) ID() int {
	return sess.id
}

func (sess *Session) State() State {
	sess.RLock()
	defer sess.RUnlock()
	return sess.state
}

func (sess *Session) Heartbeat() Heartbeat {
	sess.RLock()
	defer sess.RUnlock()
	return sess.heartbeat
}

func (sess *Session) LastActiveAt() time.Time {
	sess.RLock()
	defer sess.RUnlock()
	return sess.lastActiveAt
}

func (sess *Session) Snapshot() Snapshot {
	sess.RLock()
	defer sess.RUnlock()

	snap := Snapshot{
		ID:             sess.id,
		UserID:         "Anonymous",
		State:          sess.state,
		Heartbeat:      sess.heartbeat,
		ClientVersion:  sess.version,
		ConnectedAt:    sess.connectedAt,
		LastActiveAt:   sess.lastActiveAt,
		PendingChanges: sess.changes.len(),
	}
	if sess.login != nil {
		snap.UserID = sess.login.UserID
	}
	if sess.conn != nil && sess.conn.RemoteAddr() != nil {
		snap.RemoteAddr = sess.conn.RemoteAddr().String()
	}
	return snap
}

// Run is the read-dispatch-respond loop of the session. It returns when the
// session ended, either by logout or because the connection failed or was
// closed by a kill.
func (sess *Session) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			sess.die(fmt.Errorf("runtime fault: %v", r))
		}
	}()

	sess.start()

	if err := sess.writeLine(proto.Greeting); err != nil {
		sess.die(errors.Wrap(err, "failed to send greeting"))
		return
	}

	sc := bufio.NewScanner(sess.conn)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)

	for sess.State() != StateEnded {
		if !sc.Scan() {
			err := sc.Err()
			if err == nil {
				err = io.EOF
			}
			sess.die(errors.Wrap(err, "failed to read command"))
			return
		}

		line := strings.TrimSuffix(sc.Text(), "\r")
		res, flag := sess.handle(ctx, proto.ParseCommand(line))

		if flag == FlagCloseGracefully {
			sess.logout(res)
			return
		}

		if err := sess.writeLine(res); err != nil {
			sess.die(errors.Wrap(err, "failed to send response"))
			return
		}
	}
}

// start marks the session running. It's called once by the worker.
func (sess *Session) start() {
	now := sess.srv.reg.now()

	sess.Lock()
	sess.state = StateRunning
	sess.heartbeat = HeartbeatActive
	sess.heartbeatAt = now
	sess.Unlock()

	sess.srv.reg.stateChanged()
}

// touch records the arrival of a command. Any traffic counts as heartbeat.
func (sess *Session) touch(command string) {
	now := sess.srv.reg.now()

	sess.Lock()
	sess.lastActiveAt = now
	sess.lastCommand = command
	sess.Unlock()
}

// end moves the session to StateEnded and reports whether it was still
// alive before.
func (sess *Session) end() bool {
	sess.Lock()
	defer sess.Unlock()

	if sess.state == StateEnded {
		return false
	}
	sess.state = StateEnded
	return true
}

// die treats a connection fault like a kill: the session ends and is
// removed from the registry.
func (sess *Session) die(err error) {
	if sess.end() {
		sess.RLock()
		lastCommand := sess.lastCommand
		sess.RUnlock()

		msg := fmt.Sprintf("Client %d died, %s, last command: %s", sess.id, err, lastCommand)
		log.WithFields(log.Fields{
			"session_id":   sess.id,
			"last_command": lastCommand,
		}).Warn(msg)
		sess.srv.reg.notifier.LogMessage(msg)
	} else {
		log.WithField("session_id", sess.id).Debugf("session worker stopped: %s", err)
	}

	sess.srv.reg.Remove(sess)
}

// logout leaves the registry, sends the final response and closes the
// connection.
func (sess *Session) logout(res string) {
	sess.end()
	sess.srv.reg.detach(sess)

	msg := fmt.Sprintf("Client %d, %s logged out", sess.id, sess.userID())
	log.WithField("session_id", sess.id).Info(msg)
	sess.srv.reg.notifier.LogMessage(msg)

	if err := sess.writeLine(res); err != nil {
		log.WithField("session_id", sess.id).Debugf("session failed to send goodbye: %s", err)
	}

	sess.close()
}

func (sess *Session) userID() string {
	sess.RLock()
	defer sess.RUnlock()
	if sess.login == nil {
		return "Anonymous"
	}
	return sess.login.UserID
}

func (sess *Session) writeLine(line string) error {
	_, err := io.WriteString(sess.conn, line+"\n")
	return err
}

// close closes the connection exactly once. A blocked read in the worker
// fails afterwards.
func (sess *Session) close() {
	sess.closeOnce.Do(func() {
		if err := sess.conn.Close(); err != nil {
			msg := fmt.Sprintf("Client %d: close socket error: %s", sess.id, err)
			log.WithField("session_id", sess.id).Warn(msg)
			sess.srv.reg.notifier.LogMessage(msg)
		}
	})
}
