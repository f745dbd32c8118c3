package health

// WakeState detects a system sleep/reboot by watching monotonic uptime: a
// decrease (reboot) or an implausible forward jump (long suspend) both
// count as "wake detected", triggering a one-shot settle-then-verify.
type WakeState struct {
	lastUptime float64
	hasSample  bool
}

// Observe updates the detector with the current uptime and reports whether
// a wake transition occurred. tickInterval is the configured check
// interval in seconds; a jump bigger than 10x it is treated as a wake.
func (w *WakeState) Observe(uptimeSeconds, tickIntervalSeconds float64) bool {
	if !w.hasSample {
		w.hasSample = true
		w.lastUptime = uptimeSeconds
		return false
	}

	woke := uptimeSeconds < w.lastUptime || uptimeSeconds > w.lastUptime+tickIntervalSeconds*10
	w.lastUptime = uptimeSeconds

	return woke
}
