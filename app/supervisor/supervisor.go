package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fleetwatch/sentinel/app/backup"
	"github.com/fleetwatch/sentinel/app/health"
	"github.com/fleetwatch/sentinel/app/heartbeat"
	"github.com/fleetwatch/sentinel/app/log"
	"github.com/fleetwatch/sentinel/app/safeguard"
	"github.com/fleetwatch/sentinel/app/utils"
)

// Supervisor owns the tick loop and wires GatewayHealth, AgentHeartbeat,
// ConfigSafeguard and ConfigBackup together: a ticker plus a signal
// channel select, with modules run to completion sequentially within a
// tick, never in parallel.
type Supervisor struct {
	Config *Config

	Health    *health.Module
	Heartbeat *heartbeat.Module
	Safeguard *safeguard.Module
	Backup    *backup.Module

	prober *health.Prober

	tickCount int
}

// New builds a Supervisor from cfg.
func New(cfg *Config) (*Supervisor, error) {
	for _, dir := range []string{cfg.StateDir, cfg.SnapshotDir()} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("error creating directory %s: %w", dir, err)
		}
	}

	prober := health.NewProber(
		cfg.ServiceLabel, cfg.HealthCheckURL, cfg.PingTarget, cfg.PingTimeout,
		cfg.ExternalCheckURL, cfg.ProxyURL, cfg.LLMAPICheckURL,
	)

	healthModule := health.NewModule(
		prober, cfg.BackoffInitial, cfg.BackoffMax, cfg.BackoffMultiplier,
		cfg.Cooldown, cfg.CheckInterval, cfg.TunSettle,
		cfg.ProxyCheckInterval, cfg.ProxyFailThreshold,
	)

	workspaces := make([]heartbeat.Workspace, 0, len(cfg.AgentWorkspaces))
	for _, ws := range cfg.AgentWorkspaces {
		workspaces = append(workspaces, heartbeat.Workspace{Name: ws.Name, Dir: ws.Dir})
	}
	heartbeatModule := heartbeat.NewModule(workspaces, cfg.HeartbeatThresholdMin, cfg.HeartbeatCheckInterval)

	safeguardModule, err := safeguard.NewModule(
		cfg.ConfigPath, cfg.ChecksumPath(), cfg.ArmedTicketPath(), cfg.SnapshotDir(),
		cfg.RollbackTimeout, cfg.SnapshotRetention, prober, prober,
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing config safeguard: %w", err)
	}

	backupModule := backup.NewModule(cfg.ConfigPath, cfg.BackupRepoDir(), cfg.BackupInterval)

	return &Supervisor{
		Config:    cfg,
		Health:    healthModule,
		Heartbeat: heartbeatModule,
		Safeguard: safeguardModule,
		Backup:    backupModule,
		prober:    prober,
	}, nil
}

// Run drives the tick loop until ctx is cancelled or SIGTERM/SIGINT is
// received. It blocks.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := EnsureSingleInstance(s.Config.PidFilePath()); err != nil {
		return err
	}

	if err := WritePidFile(s.Config.PidFilePath()); err != nil {
		return err
	}
	defer func() {
		if err := RemovePidFile(s.Config.PidFilePath()); err != nil {
			log.Errorf("error removing pid file: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	forceTick := make(chan os.Signal, 1)
	notifyForceTick(forceTick)

	ticker := time.NewTicker(s.Config.CheckInterval)
	defer ticker.Stop()

	log.Infof("supervisor started (check_interval=%s)", s.Config.CheckInterval)

	for {
		select {
		case <-ctx.Done():
			log.Infof("supervisor shutting down")
			return nil
		case now := <-ticker.C:
			s.tick(ctx, now)
		case <-forceTick:
			log.Infof("forced tick requested")
			s.tick(ctx, time.Now())
		}
	}
}

// RunOnce runs a single tick and returns, used by `start --run-once` for
// operators who want one evaluation without starting the long-lived loop.
func (s *Supervisor) RunOnce(ctx context.Context) {
	s.tick(ctx, time.Now())
}

const logTrimEveryNTicks = 100

// tick executes the four modules in dependency order: GatewayHealth,
// AgentHeartbeat, ConfigSafeguard, ConfigBackup, then a periodic log trim. A recover()
// wrapper is the last line of defense so a panic inside a single module
// cannot bring down the whole loop.
func (s *Supervisor) tick(ctx context.Context, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("recovered from panic during tick: %v", r)
		}
	}()

	s.tickCount++

	action := s.Health.Tick(ctx, now)
	if action != health.ActionNone {
		log.Infof("gateway health: %s", action)
	}

	s.tickHeartbeat(ctx, now)

	if err := s.Safeguard.Tick(ctx, now); err != nil {
		log.Errorf("config safeguard tick error: %v", err)
	}

	s.Backup.Tick(ctx, now)

	if s.tickCount%logTrimEveryNTicks == 0 {
		s.trimLogIfOversized()
	}
}

// trimLogIfOversized checks the log file's line count every
// logTrimEveryNTicks ticks and trims it down to half MaxLogLines only
// when it has actually grown past the configured ceiling.
func (s *Supervisor) trimLogIfOversized() {
	path := s.Config.LogFilePath()

	count, err := utils.CountLines(path)
	if err != nil {
		log.Errorf("error counting log file lines: %v", err)
		return
	}

	if count <= s.Config.MaxLogLines {
		return
	}

	if err := utils.TrimLogFile(path, s.Config.MaxLogLines); err != nil {
		log.Errorf("error trimming log file: %v", err)
	}
}

func (s *Supervisor) tickHeartbeat(ctx context.Context, now time.Time) {
	_, stale := s.Heartbeat.Tick(now)
	if len(stale) == 0 {
		return
	}

	liveness := s.prober.Liveness(ctx)
	httpHealthy := liveness && s.prober.HTTPHealth(ctx)

	switch heartbeat.Classify(stale, liveness, httpHealthy) {
	case heartbeat.OutcomeRestartRequested:
		log.Errorf("agents stale and gateway dead, requesting restart: %v", stale)
		if s.Health.Cooldown.Ready(now) {
			if err := s.prober.Restart(ctx); err != nil {
				log.Errorf("error restarting gateway for stale agents: %v", err)
			}
			s.Health.Cooldown.RecordRestart(now)
		}
	case heartbeat.OutcomeLoggedOnly:
		log.Warnf("agents stale but gateway health module will handle it: %v", stale)
	case heartbeat.OutcomeWarned:
		log.Warnf("agents stale despite healthy gateway, possible internal scheduler failure: %v", stale)
	}
}
