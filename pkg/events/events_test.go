package events

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/oneilljw/homecontrol/pkg/session"
	"github.com/oneilljw/homecontrol/pkg/storage/memory"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectingSink struct {
	sync.Mutex
	events []Event
}

func (s *collectingSink) Handle(ev Event) {
	s.Lock()
	defer s.Unlock()
	s.events = append(s.events, ev)
}

type fakePublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(subj string, data []byte) error {
	p.subjects = append(p.subjects, subj)
	p.payloads = append(p.payloads, data)
	return p.err
}

func TestObserverEmitsEvents(t *testing.T) {
	sink := &collectingSink{}
	obs := NewObserver(sink)

	obs.MembershipChanged([]session.Snapshot{{ID: 1}, {ID: 2}})
	obs.LogMessage("Client 1 connected")
	obs.HeartbeatTransition(1, session.HeartbeatActive, session.HeartbeatLost, 3*time.Minute)
	obs.SessionKilled(2, "heartbeat", 13*time.Minute)

	require.Len(t, sink.events, 4)

	assert.Equal(t, TopicMembership, sink.events[0].Topic)
	assert.Equal(t, "2 client(s) connected", sink.events[0].Message)

	assert.Equal(t, TopicLog, sink.events[1].Topic)
	assert.Equal(t, "Client 1 connected", sink.events[1].Message)

	assert.Equal(t, TopicHeartbeat, sink.events[2].Topic)
	assert.Equal(t, 1, sink.events[2].SessionID)
	assert.Equal(t, HeartbeatData{From: session.HeartbeatActive, To: session.HeartbeatLost, Elapsed: "3m0s"}, sink.events[2].Data)

	assert.Equal(t, TopicKilled, sink.events[3].Topic)
	assert.Equal(t, "Client 2 killed (heartbeat)", sink.events[3].Message)

	for _, ev := range sink.events {
		assert.False(t, ev.Timestamp.IsZero())
	}
}

func TestStoreSinkCreatesEvents(t *testing.T) {
	store := memory.NewStore(0).Events()
	obs := NewObserver(NewStoreSink(store))

	obs.SessionKilled(3, "operator", time.Second)

	all, err := store.FetchRecent(0)
	require.NoError(t, err)
	require.Len(t, all, 1)

	m := all[0]
	assert.Equal(t, TopicKilled, m.Topic)
	assert.Equal(t, 3, m.SessionID)
	assert.JSONEq(t, `{"reason":"operator","elapsed":"1s"}`, m.Details)
}

func TestNATSSinkPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	NewNATSSink(pub).Handle(Event{Topic: TopicLog, Message: "hello"})

	require.Len(t, pub.subjects, 1)
	assert.Equal(t, "homecontrol.v1.events.log", pub.subjects[0])

	var ev Event
	require.NoError(t, json.Unmarshal(pub.payloads[0], &ev))
	assert.Equal(t, "hello", ev.Message)
}

func TestNATSSinkSurvivesPublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	assert.NotPanics(t, func() {
		NewNATSSink(pub).Handle(Event{Topic: TopicLog})
	})
}

func TestHubFanOut(t *testing.T) {
	hub := NewHub()

	a, cancelA := hub.Subscribe(4)
	b, cancelB := hub.Subscribe(4)
	defer cancelB()
	assert.Equal(t, 2, hub.Len())

	hub.Handle(Event{Topic: TopicLog, Message: "one"})

	assert.Equal(t, "one", (<-a).Message)
	assert.Equal(t, "one", (<-b).Message)

	cancelA()
	cancelA()
	assert.Equal(t, 1, hub.Len())

	_, ok := <-a
	assert.False(t, ok)
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(1)
	defer cancel()

	hub.Handle(Event{Message: "first"})
	hub.Handle(Event{Message: "second"})

	assert.Equal(t, "first", (<-ch).Message)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %q", ev.Message)
	default:
	}
}
