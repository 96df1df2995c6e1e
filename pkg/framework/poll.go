package framework

import (
	"context"
	"time"
)

// DefaultPollInterval is used when Poller.Interval is not set.
const DefaultPollInterval = 10 * time.Millisecond

// PollFunc is invoked on every pass of a Poller.
// Returning an error stops the Poller.
type PollFunc func(context.Context) error

// Poller runs a func repeatedly with a bounded sleep between passes.
// A pass starts early when woken through TriggerNext or a wake chan.
type Poller struct {
	Interval time.Duration

	wakeUpCh chan struct{}
}

// NewPoller creates a Poller.
func NewPoller(interval time.Duration) *Poller {
	return &Poller{Interval: interval, wakeUpCh: make(chan struct{}, 1)}
}

// TriggerNext schedules the next pass to be executed
// immediately after the current pass.
func (p *Poller) TriggerNext() {
	select {
	case p.wakeUpCh <- struct{}{}:
	default:
	}
}

// Run calls fn until ctx is done or fn fails. wake may be nil.
func (p *Poller) Run(ctx context.Context, wake <-chan struct{}, fn PollFunc) error {
	if p.wakeUpCh == nil {
		p.wakeUpCh = make(chan struct{}, 1)
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		if err := fn(ctx); err != nil {
			return err
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		case <-wake:
		case <-p.wakeUpCh:
		}
	}
}
