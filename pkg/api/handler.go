package api

import (
	"github.com/labstack/echo"
	"github.com/oneilljw/homecontrol/pkg/events"
	"github.com/oneilljw/homecontrol/pkg/gateway"
	"github.com/oneilljw/homecontrol/pkg/session"
	"github.com/oneilljw/homecontrol/pkg/storage"
	log "github.com/sirupsen/logrus"
)

// Device exposes the cached device state.
type Device interface {
	State() gateway.DoorState
}

// Handler contains all properties to serve the API
type Handler struct {
	reg    *session.Registry
	store  storage.Interface
	device Device
	hub    *events.Hub
}

// NewHandler create a new API handler
func NewHandler(reg *session.Registry, store storage.Interface, device Device, hub *events.Hub) *Handler {
	return &Handler{
		reg:    reg,
		store:  store,
		device: device,
		hub:    hub,
	}
}

// RegisterRoutes attaches the handlers to the echo web server
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	log.Debug("Register API routes")
	api := e.Group("/api/v1")

	api.GET("/sessions", h.handleFetchSessions)
	api.GET("/sessions/:id", h.handleGetSessionByID)
	api.DELETE("/sessions/:id", h.handleKillSession)

	api.GET("/events", h.handleFetchEvents)
	api.GET("/events/:id", h.handleGetEventByID)

	api.GET("/device", h.handleGetDevice)

	api.Any("/realtime-events", h.realtimeEventsHandler())
}

func errorBody(err error) echo.Map {
	return echo.Map{"error": err.Error()}
}
