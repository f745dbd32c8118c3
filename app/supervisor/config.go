// Package supervisor wires GatewayHealth, AgentHeartbeat, ConfigSafeguard
// and ConfigBackup into the single tick loop that drives the gateway
// reliability supervisor.
package supervisor

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the supervisor's immutable runtime parameters, loaded once
// at startup from a key=value file layered over compiled-in defaults.
// Never mutated during a run.
type Config struct {
	ConfigDir string
	StateDir  string

	CheckInterval     time.Duration
	Cooldown          time.Duration
	BackoffInitial    time.Duration
	BackoffMax        time.Duration
	BackoffMultiplier float64

	HealthCheckURL     string
	PingTarget         string
	PingTimeout        time.Duration
	ExternalCheckURL   string
	ProxyURL           string
	LLMAPICheckURL     string
	ProxyCheckInterval int
	ProxyFailThreshold int
	TunSettle          time.Duration

	HeartbeatCheckInterval time.Duration
	HeartbeatThresholdMin  float64
	AgentWorkspaces        []AgentWorkspace

	ConfigPath        string
	RollbackTimeout   time.Duration
	SnapshotRetention int

	ServiceLabel string

	MaxLogLines int

	BackupInterval time.Duration
}

// AgentWorkspace pairs an agent name with the workspace directory holding
// its heartbeat state file.
type AgentWorkspace struct {
	Name string
	Dir  string
}

// Default values for every recognized configuration key; a config file
// overrides whichever of these it sets.
const (
	defaultCheckInterval     = 15 * time.Second
	defaultCooldown          = 2 * time.Minute
	defaultBackoffInitial    = 30 * time.Second
	defaultBackoffMax        = 5 * time.Minute
	defaultBackoffMultiplier = 2.0

	defaultPingTimeout        = 3 * time.Second
	defaultProxyCheckInterval = 4
	defaultProxyFailThreshold = 3
	defaultTunSettle          = 10 * time.Second

	defaultHeartbeatCheckInterval = 10 * time.Minute
	defaultHeartbeatThresholdMin  = 120.0

	defaultRollbackTimeout   = 5 * time.Minute
	defaultSnapshotRetention = 20

	defaultMaxLogLines = 10000

	defaultBackupInterval = time.Hour

	defaultServiceLabel = "gateway"
)

// LoadConfig reads configDir/supervisor.env (if present) and returns a
// Config with every unset key filled from its default. stateDir holds the
// pid file, checksum, armed ticket and snapshot directory.
func LoadConfig(configDir, stateDir string) (*Config, error) {
	values := map[string]string{}

	configPath := filepath.Join(configDir, "supervisor.env")
	if _, err := os.Stat(configPath); err == nil {
		parsed, err := godotenv.Read(configPath)
		if err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", configPath, err)
		}
		values = parsed
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("error reading %s: %w", configPath, err)
	}

	cfg := &Config{
		ConfigDir:         configDir,
		StateDir:          stateDir,
		CheckInterval:     durationValue(values, "CHECK_INTERVAL", defaultCheckInterval),
		Cooldown:          durationValue(values, "COOLDOWN", defaultCooldown),
		BackoffInitial:    durationValue(values, "BACKOFF_INITIAL", defaultBackoffInitial),
		BackoffMax:        durationValue(values, "BACKOFF_MAX", defaultBackoffMax),
		BackoffMultiplier: floatValue(values, "BACKOFF_MULTIPLIER", defaultBackoffMultiplier),

		HealthCheckURL:     stringValue(values, "HEALTH_CHECK_URL", "http://127.0.0.1:8080/health"),
		PingTarget:         stringValue(values, "PING_TARGET", "1.1.1.1"),
		PingTimeout:        durationValue(values, "PING_TIMEOUT", defaultPingTimeout),
		ExternalCheckURL:   stringValue(values, "DISCORD_CHECK_URL", "https://discord.com/api/v10/gateway"),
		ProxyURL:           stringValue(values, "PROXY_URL", ""),
		LLMAPICheckURL:     stringValue(values, "LLM_API_CHECK_URL", "https://api.anthropic.com"),
		ProxyCheckInterval: intValue(values, "PROXY_CHECK_INTERVAL", defaultProxyCheckInterval),
		ProxyFailThreshold: intValue(values, "PROXY_FAIL_THRESHOLD", defaultProxyFailThreshold),
		TunSettle:          durationValue(values, "TUN_SETTLE", defaultTunSettle),

		HeartbeatCheckInterval: durationValue(values, "HEARTBEAT_CHECK_INTERVAL", defaultHeartbeatCheckInterval),
		HeartbeatThresholdMin:  floatValue(values, "HEARTBEAT_THRESHOLD_MIN", defaultHeartbeatThresholdMin),
		AgentWorkspaces:        parseAgentWorkspaces(stringValue(values, "AGENT_WORKSPACES", "")),

		ConfigPath:        stringValue(values, "CONFIG_PATH", filepath.Join(configDir, "gateway.json")),
		RollbackTimeout:   durationValue(values, "ROLLBACK_TIMEOUT", defaultRollbackTimeout),
		SnapshotRetention: intValue(values, "SNAPSHOT_RETENTION", defaultSnapshotRetention),

		ServiceLabel: stringValue(values, "SERVICE_LABEL", defaultServiceLabel),

		MaxLogLines: intValue(values, "MAX_LOG_LINES", defaultMaxLogLines),

		BackupInterval: defaultBackupInterval,
	}

	return cfg, nil
}

func stringValue(values map[string]string, key, def string) string {
	if v, ok := values[key]; ok && v != "" {
		return v
	}
	return def
}

func durationValue(values map[string]string, key string, def time.Duration) time.Duration {
	v, ok := values[key]
	if !ok || v == "" {
		return def
	}

	if d, err := time.ParseDuration(v); err == nil {
		return d
	}

	if seconds, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(seconds * float64(time.Second))
	}

	return def
}

func floatValue(values map[string]string, key string, def float64) float64 {
	v, ok := values[key]
	if !ok || v == "" {
		return def
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}

	return f
}

func intValue(values map[string]string, key string, def int) int {
	v, ok := values[key]
	if !ok || v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

// parseAgentWorkspaces parses AGENT_WORKSPACES, a space-separated list of
// name:path pairs. A leading ~ in path is expanded to the user's home dir.
func parseAgentWorkspaces(raw string) []AgentWorkspace {
	var workspaces []AgentWorkspace

	for _, field := range strings.Fields(raw) {
		name, dir, found := strings.Cut(field, ":")
		if !found {
			continue
		}

		workspaces = append(workspaces, AgentWorkspace{
			Name: name,
			Dir:  expandHome(dir),
		})
	}

	return workspaces
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	u, err := user.Current()
	if err != nil {
		return path
	}

	return filepath.Join(u.HomeDir, strings.TrimPrefix(path, "~"))
}

// PidFilePath, ChecksumPath, ArmedTicketPath, SnapshotDir, LogFilePath and
// BackupRepoDir return the fixed sub-paths under StateDir per the persisted
// state layout.
func (c *Config) PidFilePath() string         { return filepath.Join(c.StateDir, "watchdog.pid") }
func (c *Config) ChecksumPath() string        { return filepath.Join(c.StateDir, "state", "config-checksum") }
func (c *Config) ArmedTicketPath() string     { return filepath.Join(c.StateDir, "state", "rollback-armed.flag") }
func (c *Config) SnapshotDir() string         { return filepath.Join(c.StateDir, "snapshots") }
func (c *Config) LogFilePath() string         { return filepath.Join(c.StateDir, "sentinel.log") }
func (c *Config) BackupRepoDir() string       { return filepath.Join(c.StateDir, "backup") }
