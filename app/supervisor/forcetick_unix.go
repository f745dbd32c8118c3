//go:build !windows

package supervisor

import (
	"os"
	"os/signal"
	"syscall"
)

// notifyForceTick wires ch to receive SIGUSR1, letting an operator trigger
// an out-of-band tick without waiting for the next ticker fire.
func notifyForceTick(ch chan os.Signal) {
	signal.Notify(ch, syscall.SIGUSR1)
}
