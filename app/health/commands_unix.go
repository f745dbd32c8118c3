//go:build !windows

package health

import (
	"strconv"
	"time"
)

// pingCommand builds the argv for a single ICMP echo with the given timeout.
func pingCommand(target string, timeout time.Duration) []string {
	seconds := int(timeout.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	return []string{"ping", "-c", "1", "-W", strconv.Itoa(seconds), target}
}

// restartCommand builds the argv to restart a user-scope service by label.
func restartCommand(label string) []string {
	return []string{"systemctl", "--user", "restart", label}
}
