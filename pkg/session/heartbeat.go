package session

import (
	"context"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

// Limits are the heartbeat time windows of a deployment.
type Limits struct {
	// Inactive is the silence after which an authenticated session loses its
	// heartbeat and an unauthenticated session is killed.
	Inactive time.Duration
	// Terminal is how long a session stays Lost before it becomes Terminal,
	// and how long it stays Terminal before it is killed. Both windows start
	// at the previous transition, not at the last command, so a silent
	// session lives roughly Inactive + 2*Terminal plus sweep jitter.
	Terminal time.Duration
}

// Transition is one heartbeat state change applied by a sweep.
type Transition struct {
	SessionID int
	From      Heartbeat
	To        Heartbeat
	Elapsed   time.Duration
}

// SweepResult summarizes a sweep.
type SweepResult struct {
	Transitions []Transition
	Killed      []int
}

type verdict struct {
	sess    *Session
	elapsed time.Duration
}

// SweepHeartbeats applies the heartbeat state machine to every session.
// Decisions are made while holding the registry lock; the kills are applied
// afterwards in a separate pass.
func (reg *Registry) SweepHeartbeats(now time.Time, limits Limits) SweepResult {
	var res SweepResult
	var doomed []verdict

	reg.Lock()
	for _, sess := range reg.sessions {
		t, kill := sess.assessHeartbeat(now, limits)
		if t != nil {
			res.Transitions = append(res.Transitions, *t)
		}
		if kill {
			doomed = append(doomed, verdict{sess: sess, elapsed: now.Sub(sess.LastActiveAt())})
		}
	}
	reg.Unlock()

	sort.Slice(res.Transitions, func(i, j int) bool {
		return res.Transitions[i].SessionID < res.Transitions[j].SessionID
	})
	sort.Slice(doomed, func(i, j int) bool {
		return doomed[i].sess.id < doomed[j].sess.id
	})

	for _, t := range res.Transitions {
		var msg string
		switch t.To {
		case HeartbeatLost:
			msg = fmt.Sprintf("Client %d heart beat lost, not detected in %d seconds", t.SessionID, int64(t.Elapsed/time.Second))
		case HeartbeatTerminal:
			msg = fmt.Sprintf("Client %d heart beat terminal, not detected in %d seconds", t.SessionID, int64(t.Elapsed/time.Second))
		case HeartbeatActive:
			msg = fmt.Sprintf("Client %d heart beat recovered, detected in %d seconds", t.SessionID, int64(t.Elapsed/time.Second))
		}
		log.WithFields(log.Fields{
			"session_id": t.SessionID,
			"from":       t.From.String(),
			"to":         t.To.String(),
		}).Info(msg)
		reg.notifier.HeartbeatTransition(t.SessionID, t.From, t.To, t.Elapsed)
		reg.notifier.LogMessage(msg)
	}

	if len(res.Transitions) > 0 {
		reg.stateChanged()
	}

	res.Killed = reg.applyKills(doomed)
	return res
}

// applyKills removes the doomed sessions and reports the ones it actually
// removed. A session that left between the decision and the kill is skipped.
func (reg *Registry) applyKills(doomed []verdict) []int {
	var killed []int
	for _, v := range doomed {
		v.sess.end()
		if !reg.Remove(v.sess) {
			continue
		}

		var msg string
		if v.sess.Heartbeat() == HeartbeatTerminal {
			msg = fmt.Sprintf("Client %d heart beat remained terminal, client killed", v.sess.id)
		} else {
			msg = fmt.Sprintf("Client %d never logged in, inactive for %d seconds, client killed", v.sess.id, int64(v.elapsed/time.Second))
		}
		log.WithField("session_id", v.sess.id).Warn(msg)
		reg.notifier.SessionKilled(v.sess.id, "heartbeat", v.elapsed)
		reg.notifier.LogMessage(msg)
		killed = append(killed, v.sess.id)
	}
	return killed
}

// assessHeartbeat evaluates the session once. It returns the applied
// transition, if any, and whether the session must be killed.
func (sess *Session) assessHeartbeat(now time.Time, limits Limits) (*Transition, bool) {
	sess.Lock()
	defer sess.Unlock()

	elapsed := now.Sub(sess.lastActiveAt)

	if sess.state == StateRunning {
		// Unauthenticated sessions have no grace period
		return nil, elapsed > limits.Inactive
	}
	if !sess.state.authenticated() {
		return nil, false
	}

	inStage := now.Sub(sess.heartbeatAt)

	switch sess.heartbeat {
	case HeartbeatActive:
		if elapsed > limits.Inactive {
			return sess.moveHeartbeat(HeartbeatLost, now, elapsed), false
		}
	case HeartbeatLost:
		if elapsed < limits.Inactive {
			return sess.moveHeartbeat(HeartbeatActive, now, elapsed), false
		}
		if inStage > limits.Terminal {
			return sess.moveHeartbeat(HeartbeatTerminal, now, elapsed), false
		}
	case HeartbeatTerminal:
		if elapsed < limits.Inactive {
			return sess.moveHeartbeat(HeartbeatActive, now, elapsed), false
		}
		if inStage > limits.Terminal {
			return nil, true
		}
	}

	return nil, false
}

// moveHeartbeat must be called with the session lock held.
func (sess *Session) moveHeartbeat(to Heartbeat, now time.Time, elapsed time.Duration) *Transition {
	t := &Transition{
		SessionID: sess.id,
		From:      sess.heartbeat,
		To:        to,
		Elapsed:   elapsed,
	}
	sess.heartbeat = to
	sess.heartbeatAt = now
	return t
}

// Monitor runs the heartbeat sweep periodically.
type Monitor struct {
	reg      *Registry
	interval time.Duration
	limits   Limits
}

// NewMonitor falls back to a one minute sweep when interval is not positive.
func NewMonitor(reg *Registry, interval time.Duration, limits Limits) *Monitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Monitor{
		reg:      reg,
		interval: interval,
		limits:   limits,
	}
}

// Run blocks until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	log.WithFields(log.Fields{
		"interval":       m.interval.String(),
		"inactive_limit": m.limits.Inactive.String(),
		"terminal_limit": m.limits.Terminal.String(),
	}).Info("heartbeat monitor started")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("heartbeat monitor received stop signal")
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep runs one pass at the registry's current time.
func (m *Monitor) Sweep() SweepResult {
	return m.reg.SweepHeartbeats(m.reg.now(), m.limits)
}
