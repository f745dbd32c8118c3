// Package heartbeat implements AgentHeartbeat: a rate-limited staleness
// probe over per-agent state files, detecting the "process alive,
// scheduler dead" failure mode.
package heartbeat

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fleetwatch/sentinel/app/log"
)

// stateFileSubPath is the fixed sub-path within an agent's workspace
// holding its last-heartbeat timestamp.
const stateFileSubPath = ".heartbeat"

// Workspace pairs an agent name with its workspace directory.
type Workspace struct {
	Name string
	Dir  string
}

// Outcome is what a heartbeat invocation decided to do after classifying
// every configured agent.
type Outcome int

const (
	// OutcomeNone: no stale agents, or no agents configured.
	OutcomeNone Outcome = iota
	// OutcomeRestartRequested: stale and liveness false.
	OutcomeRestartRequested
	// OutcomeLoggedOnly: stale and liveness true but http_health false.
	OutcomeLoggedOnly
	// OutcomeWarned: stale but gateway fully healthy.
	OutcomeWarned
)

// Module is AgentHeartbeat. It self-rate-limits so Tick is a cheap no-op
// when called more often than HeartbeatCheckInterval allows.
type Module struct {
	Workspaces    []Workspace
	ThresholdMins float64

	limiter *rate.Limiter
}

// NewModule returns a Module that runs at most once per checkInterval.
func NewModule(workspaces []Workspace, thresholdMins float64, checkInterval time.Duration) *Module {
	return &Module{
		Workspaces:    workspaces,
		ThresholdMins: thresholdMins,
		limiter:       rate.NewLimiter(rate.Every(checkInterval), 1),
	}
}

// Tick runs the staleness check if the self rate-limit allows it this
// tick, returning the names of stale agents. The returned Outcome is
// always OutcomeNone: Tick has no gateway signals, so the decision is
// left to Classify.
func (m *Module) Tick(now time.Time) (Outcome, []string) {
	if !m.limiter.AllowN(now, 1) {
		return OutcomeNone, nil
	}

	return OutcomeNone, m.staleAgents(now)
}

// staleAgents returns the names of every configured agent whose heartbeat
// is older than ThresholdMins.
func (m *Module) staleAgents(now time.Time) []string {
	var stale []string

	for _, ws := range m.Workspaces {
		last, err := readHeartbeat(filepath.Join(ws.Dir, stateFileSubPath))
		if err != nil {
			log.Warnf("error reading heartbeat for agent %s: %v", ws.Name, err)
			continue
		}

		minutesStale := now.Sub(last).Minutes()
		if minutesStale > m.ThresholdMins {
			stale = append(stale, ws.Name)
		}
	}

	return stale
}

// Classify applies the heartbeat decision table once the stale-agent set
// and the gateway's current liveness/http_health are known. It never
// initiates a restart for a healthy gateway.
func Classify(stale []string, liveness, httpHealthy bool) Outcome {
	if len(stale) == 0 {
		return OutcomeNone
	}

	switch {
	case !liveness:
		return OutcomeRestartRequested
	case !httpHealthy:
		return OutcomeLoggedOnly
	default:
		return OutcomeWarned
	}
}

// readHeartbeat parses the ISO-8601-like timestamp at path. A missing
// timezone offset is treated as UTC.
func readHeartbeat(path string) (time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, err
	}

	return ParseTimestamp(strings.TrimSpace(string(data)))
}

// ParseTimestamp accepts RFC3339 with or without a zone offset.
func ParseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	return time.ParseInLocation("2006-01-02T15:04:05", raw, time.UTC)
}
