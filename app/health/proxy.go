package health

// ProxyTracker gates the Proxy-degraded failure class: it authorizes a
// restart once proxy_ok has been false for failThreshold consecutive
// checks, resetting the counter on any success. A plain consecutive
// counter rather than a circuit breaker: a breaker's half-open state
// reopens on a single failed trial, so a second Proxy-degraded episode
// after a recovery would authorize a restart on just one bad check
// instead of clearing failThreshold consecutive failures again.
type ProxyTracker struct {
	failThreshold uint32
	consecutive   uint32
	tripped       bool
}

// NewProxyTracker returns a tracker that authorizes a restart after
// failThreshold consecutive failed observations.
func NewProxyTracker(failThreshold uint32) *ProxyTracker {
	return &ProxyTracker{failThreshold: failThreshold}
}

// Observe records a proxy_ok result and reports whether this observation
// just authorized a restart. Once tripped, it stays tripped (no repeat
// restarts for the same episode) until a success resets it.
func (t *ProxyTracker) Observe(ok bool) (justTripped bool) {
	if ok {
		t.consecutive = 0
		t.tripped = false
		return false
	}

	t.consecutive++

	if t.tripped || t.consecutive < t.failThreshold {
		return false
	}

	t.tripped = true
	return true
}
