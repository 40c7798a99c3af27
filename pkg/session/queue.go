package session

import (
	"sync"

	"github.com/eapache/queue"
)

// changeQueue is the inbox of change notifications of one session. Any
// number of broadcasters may push concurrently; only the owner drains it.
type changeQueue struct {
	mu sync.Mutex
	q  *queue.Queue
}

func newChangeQueue() *changeQueue {
	return &changeQueue{
		q: queue.New(),
	}
}

func (c *changeQueue) push(change string) {
	c.mu.Lock()
	c.q.Add(change)
	c.mu.Unlock()
}

// drain removes and returns all queued entries in insertion order.
func (c *changeQueue) drain() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.q.Length() == 0 {
		return nil
	}

	out := make([]string, c.q.Length())
	for i := range out {
		out[i] = c.q.Remove().(string)
	}
	return out
}

func (c *changeQueue) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.q.Length()
}
