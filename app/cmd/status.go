package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/fleetwatch/sentinel/app/backup"
	"github.com/fleetwatch/sentinel/app/health"
	"github.com/fleetwatch/sentinel/app/safeguard"
	"github.com/fleetwatch/sentinel/app/supervisor"
)

var statusCommand = Command{
	Description: "Report supervisor, gateway, config safeguard and backup status.",

	Target: func(opts Options) error {
		cfg, err := loadConfig(opts)
		if err != nil {
			return err
		}

		ctx := context.Background()

		printSupervisorStatus(cfg)
		printGatewayStatus(ctx, cfg)
		printSafeguardStatus(cfg)
		printBackupStatus(ctx, cfg)

		return nil
	},
}

func printSupervisorStatus(cfg *supervisor.Config) {
	fmt.Println("supervisor:")

	pid, err := supervisor.ReadPidFile(cfg.PidFilePath())
	if err != nil || pid == 0 {
		fmt.Println("  state: not running")
		return
	}

	alive, err := process.PidExists(int32(pid))
	if err != nil || !alive {
		fmt.Println("  state: stale pid file")
		return
	}

	fmt.Printf("  state: running (pid %d)\n", pid)
}

func printGatewayStatus(ctx context.Context, cfg *supervisor.Config) {
	prober := health.NewProber(
		cfg.ServiceLabel, cfg.HealthCheckURL, cfg.PingTarget, cfg.PingTimeout,
		cfg.ExternalCheckURL, cfg.ProxyURL, cfg.LLMAPICheckURL,
	)

	fmt.Println("gateway:")
	fmt.Printf("  liveness: %v\n", prober.Liveness(ctx))
	fmt.Printf("  http_health: %v\n", prober.HTTPHealth(ctx))
	fmt.Printf("  online: %v\n", prober.Online(ctx))
	fmt.Printf("  external_reachable: %v\n", prober.ExternalReachable(ctx))
	fmt.Printf("  proxy_ok: %v\n", prober.ProxyOK(ctx))

	if uptime, err := prober.Uptime(ctx); err == nil {
		fmt.Printf("  uptime: %s\n", time.Duration(uptime*float64(time.Second)))
	}
}

func printSafeguardStatus(cfg *supervisor.Config) {
	info, err := safeguard.ReadStatus(cfg.ChecksumPath(), cfg.ArmedTicketPath(), cfg.SnapshotDir())
	if err != nil {
		fmt.Printf("config safeguard: error reading state: %v\n", err)
		return
	}

	fmt.Println("config safeguard:")
	fmt.Printf("  checksum: %s\n", orNone(info.ChecksumPrefix))

	if info.Armed {
		remaining := time.Until(info.ArmedDeadline).Round(time.Second)
		fmt.Printf("  armed: true (deadline in %s)\n", remaining)
	} else {
		fmt.Println("  armed: false")
	}

	fmt.Printf("  snapshots: %d\n", info.SnapshotCount)
	if info.NewestSnapshot != "" {
		fmt.Printf("  newest_snapshot: %s\n", filepath.Base(info.NewestSnapshot))
	}
}

func printBackupStatus(ctx context.Context, cfg *supervisor.Config) {
	fmt.Println("backup:")

	lastCommit, hash, err := backup.ReadStatus(ctx, cfg.BackupRepoDir())
	if err != nil {
		fmt.Printf("  error: %v\n", err)
		return
	}

	if hash == "" {
		fmt.Println("  last_commit: none")
		return
	}

	fmt.Printf("  last_commit: %s (%s)\n", hash, lastCommit.Format(time.RFC3339))
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
