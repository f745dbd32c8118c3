//go:build windows

package supervisor

import "os"

// notifyForceTick is a no-op on Windows: SIGUSR1 has no equivalent, so
// forced ticks are unavailable and the loop falls back to the ticker.
func notifyForceTick(ch chan os.Signal) {}
