package frames

import "time"

// ManualClock is a host clock that only moves when told to. Hosts use it
// for deterministic playback; tests use it to step frames.
type ManualClock struct {
	t time.Duration
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Duration { return c.t }

// Advance moves the clock forward. Negative steps are ignored.
func (c *ManualClock) Advance(d time.Duration) {
	if d > 0 {
		c.t += d
	}
}
