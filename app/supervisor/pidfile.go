package supervisor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/fleetwatch/sentinel/app/utils"
)

// EnsureSingleInstance checks pidPath for a live pid. If the recorded
// process is gone, the stale file is removed and EnsureSingleInstance
// succeeds; if it is alive, it returns an error ("already running").
func EnsureSingleInstance(pidPath string) error {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading pid file %s: %w", pidPath, err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		// Unreadable content, treat as stale.
		return os.Remove(pidPath)
	}

	alive, err := process.PidExists(int32(pid))
	if err != nil {
		return fmt.Errorf("error checking pid %d: %w", pid, err)
	}

	if alive {
		return fmt.Errorf("already running with pid %d", pid)
	}

	return os.Remove(pidPath)
}

// WritePidFile persists the current process pid at pidPath.
func WritePidFile(pidPath string) error {
	if err := os.MkdirAll(filepath.Dir(pidPath), 0700); err != nil {
		return fmt.Errorf("error creating directory for pid file: %w", err)
	}

	return utils.WriteFileAtomic(pidPath, []byte(strconv.Itoa(os.Getpid())), 0600)
}

// RemovePidFile erases the pid file on graceful shutdown.
func RemovePidFile(pidPath string) error {
	if err := os.Remove(pidPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error removing pid file %s: %w", pidPath, err)
	}
	return nil
}

// ReadPidFile returns the pid recorded at pidPath, or 0 if it doesn't exist.
func ReadPidFile(pidPath string) (int, error) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("error reading pid file %s: %w", pidPath, err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("error parsing pid file %s: %w", pidPath, err)
	}

	return pid, nil
}
