package gateway

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Refresher re-reads device state.
type Refresher interface {
	Refresh(ctx context.Context) (string, bool, error)
}

// ChangeSink receives changes that were not caused by any session.
type ChangeSink interface {
	BroadcastAll(change string) int
}

// Poller periodically refreshes the device and fans detected changes out to
// every connected session.
type Poller struct {
	device   Refresher
	sink     ChangeSink
	interval time.Duration
}

func NewPoller(device Refresher, sink ChangeSink, interval time.Duration) *Poller {
	return &Poller{
		device:   device,
		sink:     sink,
		interval: interval,
	}
}

// Run blocks until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	log.WithField("interval", p.interval.String()).Info("device poller started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("device poller received stop signal")
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll refreshes once and broadcasts the new status if it changed.
func (p *Poller) Poll(ctx context.Context) bool {
	status, changed, err := p.device.Refresh(ctx)
	if err != nil {
		log.Warnf("device poller failed to refresh: %s", err)
		return false
	}
	if !changed {
		return false
	}

	n := p.sink.BroadcastAll(status)
	log.WithField("recipients", n).Infof("device poller detected a change: %s", status)
	return true
}
