package health

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// BackoffLadder is the per-failure-class retry ladder: it escalates on
// every recheck that still finds the gateway transient-unhealthy, and
// authorizes exactly one restart the moment the next escalation would
// exceed the configured ceiling.
//
// The multiplicative step itself is delegated to cenkalti/backoff's
// ExponentialBackOff (RandomizationFactor 0 for determinism, MaxInterval
// left effectively unbounded so the library never silently clamps); the
// ceiling check and restart-authorization rule are implemented here, on
// top of it.
type BackoffLadder struct {
	stepper *backoff.ExponentialBackOff
	max     time.Duration

	active    bool
	wait      time.Duration
	failStart time.Time
}

// NewBackoffLadder returns an inactive ladder with the given parameters.
func NewBackoffLadder(initial, max time.Duration, multiplier float64) *BackoffLadder {
	stepper := backoff.NewExponentialBackOff()
	stepper.InitialInterval = initial
	stepper.Multiplier = multiplier
	stepper.MaxInterval = 365 * 24 * time.Hour
	stepper.RandomizationFactor = 0
	stepper.MaxElapsedTime = 0
	stepper.Reset()

	return &BackoffLadder{stepper: stepper, max: max}
}

// Active reports whether the ladder is currently armed.
func (l *BackoffLadder) Active() bool { return l.active }

// Wait returns the current wait duration (0 if inactive).
func (l *BackoffLadder) Wait() time.Duration { return l.wait }

// Enter arms the ladder on first entry to Transient-unhealthy. A no-op if
// already active.
//
// The stepper is primed with one throwaway NextBackOff() call: cenkalti/backoff
// returns the unmultiplied InitialInterval on its first call after Reset()
// and only applies Multiplier from the second call onward, so without this
// priming call Escalate()'s first real step would repeat InitialInterval
// instead of advancing the ladder.
func (l *BackoffLadder) Enter(now time.Time) {
	if l.active {
		return
	}

	l.active = true
	l.failStart = now
	l.wait = l.stepper.InitialInterval
	l.stepper.NextBackOff()
}

// Reset clears the ladder: healthy observation or authorized restart.
func (l *BackoffLadder) Reset() {
	l.active = false
	l.wait = 0
	l.failStart = time.Time{}
	l.stepper.Reset()
}

// Due reports whether enough time has elapsed since failStart to perform
// the next recheck.
func (l *BackoffLadder) Due(now time.Time) bool {
	return l.active && now.Sub(l.failStart) >= l.wait
}

// Escalate advances the ladder: wait <- min(wait*multiplier, max) and
// failStart <- now, unless the next step would exceed max, in which case
// it reports exceeded=true and leaves the caller to authorize a restart
// and call Reset().
func (l *BackoffLadder) Escalate(now time.Time) (exceeded bool) {
	candidate := l.stepper.NextBackOff()
	if candidate == backoff.Stop || candidate > l.max {
		return true
	}

	l.wait = candidate
	l.failStart = now
	return false
}
