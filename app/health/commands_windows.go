//go:build windows

package health

import (
	"strconv"
	"time"
)

// pingCommand builds the argv for a single ICMP echo with the given timeout.
func pingCommand(target string, timeout time.Duration) []string {
	millis := int(timeout.Milliseconds())
	if millis < 1 {
		millis = 1000
	}

	return []string{"ping", "-n", "1", "-w", strconv.Itoa(millis), target}
}

// restartCommand builds the argv to restart a service by label.
func restartCommand(label string) []string {
	return []string{"cmd.exe", "/C", "sc stop " + label + " & sc start " + label}
}
