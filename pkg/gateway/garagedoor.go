package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	StatusPrefix   = "UPDATED_GARAGE_DOOR"
	ResponseFailed = "UPDATE_GARAGE_DOOR_FAILED"
)

type Door int

const (
	DoorLeft Door = iota
	DoorRight
)

func (d Door) String() string {
	if d == DoorLeft {
		return "LEFT"
	}
	return "RIGHT"
}

func (d Door) suffix() string {
	if d == DoorLeft {
		return "L"
	}
	return "R"
}

// DoorState is the state of both garage doors.
type DoorState struct {
	LeftOpen  bool `json:"leftOpen"`
	RightOpen bool `json:"rightOpen"`
}

func (s DoorState) open(d Door) bool {
	if d == DoorLeft {
		return s.LeftOpen
	}
	return s.RightOpen
}

func (s *DoorState) set(d Door, open bool) {
	if d == DoorLeft {
		s.LeftOpen = open
	} else {
		s.RightOpen = open
	}
}

// GarageDoor drives the garage doors through the HTTP bridge of an Arduino
// Yun. The last known state is cached; Refresh re-reads it from the device.
type GarageDoor struct {
	sync.Mutex
	baseURL string
	client  *http.Client
	state   DoorState
}

func NewGarageDoor(baseURL string, timeout time.Duration) *GarageDoor {
	return &GarageDoor{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Status returns the cached door state.
func (g *GarageDoor) Status() string {
	g.Lock()
	defer g.Unlock()
	return formatStatus(g.state)
}

// State returns the cached door state.
func (g *GarageDoor) State() DoorState {
	g.Lock()
	defer g.Unlock()
	return g.state
}

// Apply moves every door whose requested state differs from the cached one.
// The returned bool reports whether the state changed.
func (g *GarageDoor) Apply(ctx context.Context, payload string) (string, bool) {
	desired, err := ParseDoorState(payload)
	if err != nil {
		log.Warnf("garage door rejected update: %s", err)
		return ResponseFailed, false
	}

	g.Lock()
	defer g.Unlock()

	changed := false
	for _, d := range []Door{DoorLeft, DoorRight} {
		if desired.open(d) == g.state.open(d) {
			continue
		}
		if err := g.toggle(ctx, d); err != nil {
			log.WithField("door", d.String()).Errorf("garage door toggle failed: %s", err)
			return ResponseFailed, false
		}
		g.state.set(d, desired.open(d))
		changed = true
	}

	return formatStatus(g.state), changed
}

// Refresh reads both doors from the device and reports whether the cached
// state changed.
func (g *GarageDoor) Refresh(ctx context.Context) (string, bool, error) {
	g.Lock()
	defer g.Unlock()

	var next DoorState
	for _, d := range []Door{DoorLeft, DoorRight} {
		open, err := g.read(ctx, d)
		if err != nil {
			return formatStatus(g.state), false, err
		}
		next.set(d, open)
	}

	changed := next != g.state
	g.state = next
	return formatStatus(g.state), changed, nil
}

func (g *GarageDoor) read(ctx context.Context, d Door) (bool, error) {
	body, err := g.send(ctx, "read"+d.suffix())
	if err != nil {
		return false, err
	}

	switch {
	case strings.Contains(body, "set to 1"):
		return true, nil
	case strings.Contains(body, "set to 0"):
		return false, nil
	}
	return false, errors.Errorf("unexpected %s door response %q", d, body)
}

func (g *GarageDoor) toggle(ctx context.Context, d Door) error {
	_, err := g.send(ctx, "toggle"+d.suffix())
	return err
}

func (g *GarageDoor) send(ctx context.Context, op string) (string, error) {
	url := fmt.Sprintf("%s/%s", g.baseURL, op)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create device request")
	}

	res, err := g.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to reach device")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", errors.Errorf("device responded with %s", res.Status)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, 1024))
	if err != nil {
		return "", errors.Wrap(err, "failed to read device response")
	}
	return string(data), nil
}

// ParseDoorState decodes the payload of POST<status,...>.
func ParseDoorState(payload string) (DoorState, error) {
	var s DoorState
	payload = strings.TrimSuffix(strings.TrimSpace(payload), ">")
	if payload == "" {
		return s, errors.New("door state payload is missing")
	}
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return s, errors.Wrap(err, "failed to unmarshal door state")
	}
	return s, nil
}

func formatStatus(s DoorState) string {
	return fmt.Sprintf("%s{\"leftOpen\":%t,\"rightOpen\":%t}", StatusPrefix, s.LeftOpen, s.RightOpen)
}
