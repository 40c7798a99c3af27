package session

import (
	"io"
	"testing"
	"time"

	"github.com/oneilljw/homecontrol/pkg/proto"
	"github.com/stretchr/testify/require"
)

func TestLoginValid(t *testing.T) {
	srv, _ := newTestServer(t)
	c, sess := connect(t, srv)

	require.Equal(t, StateRunning, sess.State())
	require.Equal(t, HeartbeatActive, sess.Heartbeat())

	require.Equal(t, proto.ResponseValid, c.send(validLogin))
	require.Equal(t, StateLoggedIn, sess.State())

	snap := sess.Snapshot()
	require.Equal(t, "john", snap.UserID)
	require.Equal(t, "1.0", snap.ClientVersion)
}

func TestLoginInvalid(t *testing.T) {
	srv, _ := newTestServer(t)
	c, sess := connect(t, srv)

	tests := []struct {
		line string
		want string
	}{
		{line: `LOGIN_REQUEST{"userId":"john","password":"wrong","clientVersion":"1.0"}`, want: "INVALIDIncorrect password"},
		{line: `LOGIN_REQUEST{"userId":"john"`, want: "INVALIDMalformed login request"},
		{line: `LOGIN_REQUEST`, want: "INVALIDMalformed login request"},
		{line: `LOGIN_REQUESTnull`, want: "INVALIDMalformed login request"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, c.send(tt.line), tt.line)
		require.Equal(t, StateRunning, sess.State())
	}

	// The session survives failed authentication
	_, err := srv.Registry().Find(sess.ID())
	require.NoError(t, err)
	require.Equal(t, proto.ResponseValid, c.send(validLogin))
}

func TestFailedLoginKeepsLoggedIn(t *testing.T) {
	srv, _ := newTestServer(t)
	c, sess := connect(t, srv)

	require.Equal(t, proto.ResponseValid, c.send(validLogin))
	require.Equal(t, "INVALIDIncorrect password", c.send(`LOGIN_REQUEST{"userId":"john","password":"x"}`))
	require.Equal(t, StateLoggedIn, sess.State())
}

func TestGetStatus(t *testing.T) {
	srv, gw := newTestServer(t)
	c, _ := connect(t, srv)

	require.Equal(t, gw.status, c.send("GET<status>"))
	require.Equal(t, gw.status, c.send("GET<garage_door_status>"))
}

func TestUnrecognizedCommand(t *testing.T) {
	srv, _ := newTestServer(t)
	c, sess := connect(t, srv)

	require.Equal(t, "UNRECOGNIZED_COMMANDHELLO", c.send("HELLO"))
	require.Equal(t, StateRunning, sess.State())
}

func TestCommandUpdatesLastActive(t *testing.T) {
	clock := newFakeClock()
	srv, _ := newTestServer(t, WithClock(clock.Now))
	c, sess := connect(t, srv)

	require.Equal(t, clock.Now(), sess.LastActiveAt())

	now := clock.Advance(time.Minute)
	c.send("garbage")
	require.Equal(t, now, sess.LastActiveAt())
}

func TestPostBroadcastsToOtherSessions(t *testing.T) {
	srv, gw := newTestServer(t)
	first, _ := connect(t, srv)
	second, _ := connect(t, srv)

	require.Equal(t, proto.ResponseValid, first.send(validLogin))
	require.Equal(t, proto.ResponseValid, second.send(validLogin))

	res := second.send(`POST<status,{"leftOpen":true,"rightOpen":false}>`)
	require.Equal(t, gw.res, res)
	require.Equal(t, []string{`{"leftOpen":true,"rightOpen":false}`}, gw.applied)

	require.Equal(t, `["UPDATED_GARAGE_DOOR{\"leftOpen\":true,\"rightOpen\":false}"]`, first.send("GET<changes>"))
	require.Equal(t, proto.ResponseNoChanges, first.send("GET<changes>"))

	// The sender never receives its own change
	require.Equal(t, proto.ResponseNoChanges, second.send("GET<changes>"))
}

func TestPostWithoutChangeDoesNotBroadcast(t *testing.T) {
	srv, gw := newTestServer(t)
	gw.res = "UPDATE_GARAGE_DOOR_FAILED"
	gw.changed = false

	first, _ := connect(t, srv)
	second, _ := connect(t, srv)

	require.Equal(t, "UPDATE_GARAGE_DOOR_FAILED", second.send(`POST<status,{"leftOpen":true}>`))
	require.Equal(t, proto.ResponseNoChanges, first.send("GET<changes>"))
}

func TestChangesPreserveOrder(t *testing.T) {
	srv, _ := newTestServer(t)
	c, _ := connect(t, srv)

	for _, change := range []string{"a", "b", "c", "d"} {
		require.Equal(t, 1, srv.Registry().BroadcastAll(change))
	}

	require.Equal(t, `["a","b","c","d"]`, c.send("GET<changes>"))
	require.Equal(t, proto.ResponseNoChanges, c.send("GET<changes>"))
}

func TestLogout(t *testing.T) {
	srv, _ := newTestServer(t)
	c, sess := connect(t, srv)

	require.Equal(t, proto.ResponseValid, c.send(validLogin))
	require.Equal(t, proto.ResponseGoodbye, c.send("LOGOUT"))

	_, err := srv.Registry().Find(sess.ID())
	require.Equal(t, ErrSessionNotFound, err)
	require.Equal(t, StateEnded, sess.State())

	_, err = c.r.ReadString('\n')
	require.Equal(t, io.EOF, err)
}

func TestPeerCloseRemovesSession(t *testing.T) {
	srv, _ := newTestServer(t)
	c, sess := connect(t, srv)
	require.Equal(t, 1, srv.Registry().Len())

	require.NoError(t, c.conn.Close())

	require.Eventually(t, func() bool {
		return srv.Registry().Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, StateEnded, sess.State())
}

func TestRuntimeFaultKillsSession(t *testing.T) {
	obs := &recordingObserver{}
	n := NewNotifier(64, obs)
	srv, gw := newTestServer(t, WithNotifier(n))
	gw.fault = "boom"

	c, sess := connect(t, srv)
	other, _ := connect(t, srv)
	require.Equal(t, proto.ResponseValid, c.send(validLogin))

	c.conn.SetDeadline(time.Now().Add(5 * time.Second))
	_, err := c.conn.Write([]byte("POST<status,{}>\n"))
	require.NoError(t, err)

	_, err = c.r.ReadString('\n')
	require.Equal(t, io.EOF, err)

	require.Equal(t, StateEnded, sess.State())
	_, err = srv.Registry().Find(sess.ID())
	require.Equal(t, ErrSessionNotFound, err)
	require.Equal(t, 1, srv.Registry().Len())

	// The fault stays contained to the failing session
	require.Equal(t, proto.ResponseNoChanges, other.send("GET<changes>"))

	n.Close()
	obs.Lock()
	defer obs.Unlock()
	require.Contains(t, obs.logs, "Client 1 died, runtime fault: boom, last command: POST<status,{}>")
}

func TestKill(t *testing.T) {
	srv, _ := newTestServer(t)
	c, sess := connect(t, srv)
	other, _ := connect(t, srv)

	require.NoError(t, srv.Registry().Kill(sess.ID()))
	require.Equal(t, StateEnded, sess.State())

	_, err := c.r.ReadString('\n')
	require.Error(t, err)

	_, err = srv.Registry().Find(sess.ID())
	require.Equal(t, ErrSessionNotFound, err)
	require.Equal(t, ErrSessionNotFound, srv.Registry().Kill(sess.ID()))

	// Other sessions keep working
	require.Equal(t, proto.ResponseValid, other.send(validLogin))
	require.Equal(t, 1, srv.Registry().Len())
}

func TestObserversSeeLifecycle(t *testing.T) {
	obs := &recordingObserver{}
	n := NewNotifier(64, obs)
	srv, _ := newTestServer(t, WithNotifier(n))

	c, _ := connect(t, srv)
	require.Equal(t, proto.ResponseValid, c.send(validLogin))
	require.Equal(t, proto.ResponseGoodbye, c.send("LOGOUT"))

	n.Close()

	obs.Lock()
	defer obs.Unlock()
	require.Contains(t, obs.logs, "Client 1 connected")
	require.Contains(t, obs.logs, "Client 1, john login request successful")
	require.Contains(t, obs.logs, "Client 1, john logged out")
	// add, start, login, logout
	require.GreaterOrEqual(t, obs.memberships, 4)
}
