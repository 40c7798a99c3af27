package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type scriptedRefresher struct {
	status  string
	changed bool
	err     error
}

func (r *scriptedRefresher) Refresh(ctx context.Context) (string, bool, error) {
	return r.status, r.changed, r.err
}

type recordingSink struct {
	sync.Mutex
	changes []string
}

func (s *recordingSink) BroadcastAll(change string) int {
	s.Lock()
	defer s.Unlock()
	s.changes = append(s.changes, change)
	return 2
}

func (s *recordingSink) list() []string {
	s.Lock()
	defer s.Unlock()
	return append([]string(nil), s.changes...)
}

func TestPollerBroadcastsChanges(t *testing.T) {
	sink := &recordingSink{}
	p := NewPoller(&scriptedRefresher{status: "UPDATED_GARAGE_DOOR{}", changed: true}, sink, time.Second)

	assert.True(t, p.Poll(context.Background()))
	assert.Equal(t, []string{"UPDATED_GARAGE_DOOR{}"}, sink.list())
}

func TestPollerIgnoresUnchangedAndErrors(t *testing.T) {
	sink := &recordingSink{}

	assert.False(t, NewPoller(&scriptedRefresher{status: "x"}, sink, time.Second).Poll(context.Background()))
	assert.False(t, NewPoller(&scriptedRefresher{changed: true, err: errors.New("down")}, sink, time.Second).Poll(context.Background()))
	assert.Empty(t, sink.list())
}

func TestPollerRunStopsOnCancel(t *testing.T) {
	sink := &recordingSink{}
	p := NewPoller(&scriptedRefresher{status: "s", changed: true}, sink, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return len(sink.list()) > 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}
