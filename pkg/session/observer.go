package session

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Observer receives fire-and-forget notifications about the session
// subsystem, e.g. a dashboard or a log collector.
type Observer interface {
	MembershipChanged(sessions []Snapshot)
	LogMessage(text string)
	HeartbeatTransition(sessionID int, from, to Heartbeat, elapsed time.Duration)
	SessionKilled(sessionID int, reason string, elapsed time.Duration)
}

// Notifier delivers notifications to observers from its own goroutine. When
// the buffer is full notifications are dropped instead of blocking the
// caller.
type Notifier struct {
	observers []Observer
	inboxCh   chan func(Observer)
	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

func NewNotifier(size int, observers ...Observer) *Notifier {
	if size <= 0 {
		size = 1
	}

	n := &Notifier{
		observers: observers,
		inboxCh:   make(chan func(Observer), size),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}

	go n.worker()

	return n
}

func (n *Notifier) worker() {
	defer close(n.doneCh)
	for {
		select {
		case fn := <-n.inboxCh:
			n.deliver(fn)
		case <-n.stopCh:
			// Flush what is already queued
			for {
				select {
				case fn := <-n.inboxCh:
					n.deliver(fn)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) deliver(fn func(Observer)) {
	for _, o := range n.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("notifier observer panicked: %v", r)
				}
			}()
			fn(o)
		}()
	}
}

func (n *Notifier) push(fn func(Observer)) {
	if n == nil {
		return
	}

	select {
	case <-n.stopCh:
		return
	default:
	}

	select {
	case n.inboxCh <- fn:
	default:
		log.Warn("notifier buffer is full, notification dropped")
	}
}

// Close stops the delivery goroutine after flushing queued notifications.
func (n *Notifier) Close() {
	if n == nil {
		return
	}
	n.closeOnce.Do(func() {
		close(n.stopCh)
	})
	<-n.doneCh
}

func (n *Notifier) MembershipChanged(sessions []Snapshot) {
	n.push(func(o Observer) { o.MembershipChanged(sessions) })
}

func (n *Notifier) LogMessage(text string) {
	n.push(func(o Observer) { o.LogMessage(text) })
}

func (n *Notifier) HeartbeatTransition(sessionID int, from, to Heartbeat, elapsed time.Duration) {
	n.push(func(o Observer) { o.HeartbeatTransition(sessionID, from, to, elapsed) })
}

func (n *Notifier) SessionKilled(sessionID int, reason string, elapsed time.Duration) {
	n.push(func(o Observer) { o.SessionKilled(sessionID, reason, elapsed) })
}
