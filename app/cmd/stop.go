package cmd

import (
	"fmt"
	"syscall"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/fleetwatch/sentinel/app/supervisor"
)

var stopCommand = Command{
	Description: "Stop the running supervisor.",

	Target: func(opts Options) error {
		cfg, err := loadConfig(opts)
		if err != nil {
			return err
		}

		pid, err := supervisor.ReadPidFile(cfg.PidFilePath())
		if err != nil {
			return err
		}
		if pid == 0 {
			return fmt.Errorf("supervisor is not running")
		}

		alive, err := process.PidExists(int32(pid))
		if err != nil {
			return fmt.Errorf("error checking pid %d: %w", pid, err)
		}
		if !alive {
			return supervisor.RemovePidFile(cfg.PidFilePath())
		}

		proc, err := process.NewProcess(int32(pid))
		if err != nil {
			return fmt.Errorf("error locating process %d: %w", pid, err)
		}

		if err := proc.SendSignal(syscall.SIGTERM); err != nil {
			return fmt.Errorf("error signaling process %d: %w", pid, err)
		}

		fmt.Printf("sent termination signal to pid %d\n", pid)
		return nil
	},
}
