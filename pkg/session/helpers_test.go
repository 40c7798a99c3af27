package session

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oneilljw/homecontrol/pkg/authority"
	"github.com/oneilljw/homecontrol/pkg/proto"
	"github.com/stretchr/testify/require"
)

const validLogin = `LOGIN_REQUEST{"userId":"john","password":"erin1992","clientVersion":"1.0"}`

type fakeGateway struct {
	sync.Mutex
	status  string
	res     string
	changed bool
	applied []string
	fault   string
}

func (g *fakeGateway) Status() string {
	g.Lock()
	defer g.Unlock()
	return g.status
}

func (g *fakeGateway) Apply(ctx context.Context, payload string) (string, bool) {
	g.Lock()
	defer g.Unlock()
	g.applied = append(g.applied, payload)
	if g.fault != "" {
		panic(g.fault)
	}
	return g.res, g.changed
}

type fakeClock struct {
	sync.Mutex
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2015, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.Lock()
	defer c.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.Lock()
	defer c.Unlock()
	c.t = c.t.Add(d)
	return c.t
}

type recordingObserver struct {
	sync.Mutex
	memberships int
	logs        []string
	transitions []Transition
	kills       []int
}

func (o *recordingObserver) MembershipChanged(sessions []Snapshot) {
	o.Lock()
	defer o.Unlock()
	o.memberships++
}

func (o *recordingObserver) LogMessage(text string) {
	o.Lock()
	defer o.Unlock()
	o.logs = append(o.logs, text)
}

func (o *recordingObserver) HeartbeatTransition(sessionID int, from, to Heartbeat, elapsed time.Duration) {
	o.Lock()
	defer o.Unlock()
	o.transitions = append(o.transitions, Transition{SessionID: sessionID, From: from, To: to, Elapsed: elapsed})
}

func (o *recordingObserver) SessionKilled(sessionID int, reason string, elapsed time.Duration) {
	o.Lock()
	defer o.Unlock()
	o.kills = append(o.kills, sessionID)
}

func newTestServer(t *testing.T, cfgs ...RegistryCfg) (*Server, *fakeGateway) {
	t.Helper()
	gw := &fakeGateway{
		status:  `UPDATED_GARAGE_DOOR{"leftOpen":false,"rightOpen":false}`,
		res:     `UPDATED_GARAGE_DOOR{"leftOpen":true,"rightOpen":false}`,
		changed: true,
	}
	srv := NewServer(NewRegistry(cfgs...), gw, authority.NewAuthority("john", "erin1992"))
	t.Cleanup(srv.Registry().CloseAll)
	return srv, gw
}

type testClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

// connect runs a session worker on one end of a pipe and returns the
// other end after the greeting was received.
func connect(t *testing.T, srv *Server) (*testClient, *Session) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { client.Close() })

	sess := srv.HandleConn(context.Background(), server)
	c := &testClient{t: t, conn: client, r: bufio.NewReader(client)}
	require.Equal(t, proto.Greeting, c.readLine())
	return c, sess
}

func (c *testClient) send(line string) string {
	c.t.Helper()
	c.conn.SetDeadline(time.Now().Add(5 * time.Second))
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(c.t, err)
	return c.readLine()
}

func (c *testClient) readLine() string {
	c.t.Helper()
	c.conn.SetDeadline(time.Now().Add(5 * time.Second))
	line, err := c.r.ReadString('\n')
	require.NoError(c.t, err)
	return strings.TrimSuffix(line, "\n")
}

// park registers a session without a worker, in the given state.
func park(t *testing.T, srv *Server, state State) *Session {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { client.Close() })

	sess := newSession(srv, server, srv.reg.now())
	sess.state = state
	if state != StateConnected {
		sess.heartbeat = HeartbeatActive
	}
	srv.reg.Add(sess)
	return sess
}
