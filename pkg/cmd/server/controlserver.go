package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	colorable "github.com/mattn/go-colorable"
	nats "github.com/nats-io/nats.go"
	"github.com/oneilljw/homecontrol/config"
	"github.com/oneilljw/homecontrol/pkg/api"
	"github.com/oneilljw/homecontrol/pkg/authority"
	"github.com/oneilljw/homecontrol/pkg/events"
	"github.com/oneilljw/homecontrol/pkg/gateway"
	"github.com/oneilljw/homecontrol/pkg/session"
	"github.com/oneilljw/homecontrol/pkg/storage"
	"github.com/oneilljw/homecontrol/pkg/storage/memory"
	"github.com/oneilljw/homecontrol/pkg/storage/postgres"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	notifierBufferSize = 1024
	shutdownTimeout    = 10 * time.Second
)

type controlServer struct {
	c *config.Config

	nc    *nats.Conn
	db    *sqlx.DB
	store storage.Interface

	reg      *session.Registry
	notifier *session.Notifier
	door     *gateway.GarageDoor
	hub      *events.Hub

	wg sync.WaitGroup
}

func setupLogging(c *config.Config) {
	formatter := &log.TextFormatter{
		FullTimestamp: true,
	}
	log.SetFormatter(formatter)
	log.SetOutput(colorable.NewColorableStdout())

	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("unknown log level %q, using info", c.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func newControlServer(c *config.Config) (*controlServer, error) {
	s := &controlServer{
		c:    c,
		door: gateway.NewGarageDoor(c.DeviceURL, c.DeviceTimeout),
		hub:  events.NewHub(),
	}

	if err := s.openStore(); err != nil {
		return nil, err
	}
	if err := s.connectNATS(); err != nil {
		s.closeStore()
		return nil, err
	}

	sinks := []events.Sink{
		events.NewLogSink(),
		events.NewStoreSink(s.store.Events()),
		s.hub,
	}
	if s.nc != nil {
		sinks = append(sinks, events.NewNATSSink(s.nc))
	}

	s.notifier = session.NewNotifier(notifierBufferSize, events.NewObserver(sinks...))
	s.reg = session.NewRegistry(session.WithNotifier(s.notifier))

	return s, nil
}

// openStore uses PostgreSQL when a database url is configured and falls back
// to the bounded memory store otherwise.
func (s *controlServer) openStore() error {
	if s.c.DatabaseURL == "" {
		s.store = memory.NewStore(s.c.EventLogSize)
		log.WithField("capacity", s.c.EventLogSize).Info("Using memory event store")
		return nil
	}

	db, err := sqlx.Open("postgres", s.c.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return errors.Wrap(err, "failed to connect to database")
	}

	s.db = db
	s.store = postgres.NewStore(db)
	log.Info("Using PostgreSQL event store")
	return nil
}

func (s *controlServer) closeStore() {
	if s.db != nil {
		s.db.Close()
	}
}

// connectNATS is skipped when no NATS url is configured.
func (s *controlServer) connectNATS() error {
	if s.c.NATSServerURL == "" {
		return nil
	}

	s.wg.Add(1)
	nc, err := nats.Connect(s.c.NATSServerURL,
		nats.DrainTimeout(shutdownTimeout),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Errorf("NATS error: %s", err)
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("NATS connection closed")
			s.wg.Done()
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("NATS disconnected: %s", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("NATS reconnected to %s", nc.ConnectedUrl())
		}))
	if err != nil {
		s.wg.Done()
		return errors.Wrap(err, "failed to connect to NATS")
	}

	s.nc = nc
	log.WithField("url", s.c.NATSServerURL).Info("Publishing events to NATS")
	return nil
}

func (s *controlServer) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	addr := net.JoinHostPort(s.c.BindHost, fmt.Sprintf("%d", s.c.BindPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}

	srv := session.NewServer(s.reg, s.door, authority.NewAuthority(s.c.UserID, s.c.Password))

	monitor := session.NewMonitor(s.reg, s.c.SweepInterval, session.Limits{
		Inactive: s.c.InactiveLimit,
		Terminal: s.c.TerminalLimit,
	})
	poller := gateway.NewPoller(s.door, s.reg, s.c.PollInterval)

	if _, _, err := s.door.Refresh(ctx); err != nil {
		log.Warnf("failed to read initial garage door state: %s", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		monitor.Run(ctx)
	}()
	if s.c.PollInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(ctx)
		}()
	} else {
		log.Info("device poller disabled")
	}

	e := s.newEcho()
	go func() {
		apiAddr := net.JoinHostPort(s.c.BindHost, fmt.Sprintf("%d", s.c.APIBindPort))
		log.WithFields(log.Fields{
			"host": s.c.BindHost,
			"port": s.c.APIBindPort,
		}).Info("Starting API server")

		if err := e.Start(apiAddr); err != nil {
			log.Info("Shutting down the API server")
		}
	}()

	log.WithFields(log.Fields{
		"host":    s.c.BindHost,
		"port":    s.c.BindPort,
		"version": s.c.BuildVersion,
	}).Info("Starting control server")

	err = srv.Serve(ctx, ln)
	cancel()

	// The acceptor has stopped, so drop every live session
	s.reg.CloseAll()
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := e.Shutdown(shutdownCtx); serr != nil {
		log.Errorf("failed to shutdown API server: %s", serr)
	}

	return err
}

func (s *controlServer) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(logger())

	api.NewHandler(s.reg, s.store, s.door, s.hub).RegisterRoutes(e)
	return e
}

func (s *controlServer) Shutdown() {
	// Flush pending notifications before the sinks go away
	s.notifier.Close()

	if s.nc != nil {
		if err := s.nc.Drain(); err != nil {
			log.Errorf("failed to drain NATS: %s", err)
			s.nc.Close()
		}

		doneCh := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(doneCh)
		}()
		select {
		case <-doneCh:
		case <-time.After(shutdownTimeout):
			log.Error("NATS drain timed out")
		}
	}

	s.closeStore()
	log.Info("Shutdown server successful")
}

// RunServeControlServer starts the home control server and blocks until an
// interrupt or terminate signal is received.
func RunServeControlServer(c *config.Config) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		setupLogging(c)

		s, err := newControlServer(c)
		if err != nil {
			log.Error("failed to create new server instance: ", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Wait for interrupt signal to gracefully shutdown the server
		quitCh := make(chan os.Signal, 1)
		signal.Notify(quitCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-quitCh
			log.Info("Shutdown signal received")
			cancel()
		}()

		serveErr := s.Serve(ctx)
		s.Shutdown()

		if serveErr != nil {
			log.Error("control server failed: ", serveErr)
			os.Exit(1)
		}
	}
}
