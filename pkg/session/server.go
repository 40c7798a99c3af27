package session

import (
	"context"
	"net"
	"time"

	"github.com/oneilljw/homecontrol/pkg/proto"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Gateway is the device the sessions serve state for.
type Gateway interface {
	// Status returns the serialized device state.
	Status() string
	// Apply forwards a serialized command and reports whether the device
	// state changed. Failures are reported through the response string.
	Apply(ctx context.Context, payload string) (string, bool)
}

// Authorizer validates login requests.
type Authorizer interface {
	Authorize(login *proto.Login) error
}

// Server accepts control connections and runs one session worker per
// connection.
type Server struct {
	reg  *Registry
	gw   Gateway
	auth Authorizer
}

func NewServer(reg *Registry, gw Gateway, auth Authorizer) *Server {
	return &Server{
		reg:  reg,
		gw:   gw,
		auth: auth,
	}
}

func (srv *Server) Registry() *Registry {
	return srv.reg
}

// Serve accepts connections on ln until ctx is done or the listener fails.
func (srv *Server) Serve(ctx context.Context, ln net.Listener) error {
	stopCh := make(chan struct{})
	defer close(stopCh)

	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
		case <-stopCh:
		}
	}()

	log.WithField("addr", ln.Addr().String()).Info("control server accepting connections")

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				log.Info("control server received stop signal")
				return nil
			default:
			}

			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				if backoff == 0 {
					backoff = 5 * time.Millisecond
				} else if backoff *= 2; backoff > time.Second {
					backoff = time.Second
				}
				log.Warnf("control server accept error: %s; retrying in %s", err, backoff)
				time.Sleep(backoff)
				continue
			}
			return errors.Wrap(err, "failed to accept connection")
		}
		backoff = 0

		srv.HandleConn(ctx, conn)
	}
}

// HandleConn registers a new session for conn and starts its worker.
func (srv *Server) HandleConn(ctx context.Context, conn net.Conn) *Session {
	sess := newSession(srv, conn, srv.reg.now())
	srv.reg.Add(sess)
	go sess.Run(ctx)
	return sess
}
