package health

import "time"

// CooldownState is the global anti-thrash guard: every authorized restart
// consults it first. Cooldown intentionally includes failed restarts, so
// a storm of failures can't bypass it.
type CooldownState struct {
	interval    time.Duration
	lastRestart time.Time
	hasRestart  bool
}

// NewCooldownState returns a CooldownState with no prior restart recorded.
func NewCooldownState(interval time.Duration) *CooldownState {
	return &CooldownState{interval: interval}
}

// Ready reports whether a new restart may be authorized at now.
func (c *CooldownState) Ready(now time.Time) bool {
	if !c.hasRestart {
		return true
	}

	return now.Sub(c.lastRestart) >= c.interval
}

// RecordRestart updates last_restart unconditionally, whether or not the
// restart itself succeeded.
func (c *CooldownState) RecordRestart(now time.Time) {
	c.hasRestart = true
	c.lastRestart = now
}
