package game

import (
	"context"
	"time"
)

// Driver ticks a session at its current fall interval until the game ends.
type Driver struct {
	s    *Session
	wake chan struct{}
}

// NewDriver creates a driver for s. Call Run to start ticking.
func NewDriver(s *Session) *Driver {
	return &Driver{s: s, wake: make(chan struct{}, 1)}
}

// Run blocks, ticking the session, until the session reaches PhaseGameOver (returns nil) or ctx is
// done (returns ctx.Err()). The timer is re-armed after every tick with the session's interval, so
// level changes take effect on the next fall.
func (d *Driver) Run(ctx context.Context) error {
	for {
		if d.s.Phase() == PhaseGameOver {
			return nil
		}
		timer := time.NewTimer(d.s.Interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-d.wake:
			timer.Stop()
		case <-timer.C:
			d.s.Tick(ctx)
		}
	}
}

// Wake makes Run re-read the session state immediately.
func (d *Driver) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Notify is an event hook: it wakes the driver on events that change pacing.
func (d *Driver) Notify(e Event) {
	switch e.Type {
	case EventResumed, EventReset, EventLevelUp, EventGameOver:
		d.Wake()
	}
}
