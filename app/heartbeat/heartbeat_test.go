package heartbeat

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHeartbeat(t *testing.T, dir, value string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0700))
	path := filepath.Join(dir, stateFileSubPath)
	require.NoError(t, os.WriteFile(path, []byte(value), 0600))
	return dir
}

func TestParseTimestampWithAndWithoutOffset(t *testing.T) {
	withOffset, err := ParseTimestamp("2026-08-03T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 8, withOffset.UTC().Hour())

	withoutOffset, err := ParseTimestamp("2026-08-03T10:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, withoutOffset.Location())
	assert.Equal(t, 10, withoutOffset.Hour())
}

// Scenario 6: all configured agents' timestamps are 180 minutes old;
// HEARTBEAT_THRESHOLD_MIN=120. Expected: every agent classified stale.
func TestStaleAgentsScenario6(t *testing.T) {
	now := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
	old := now.Add(-180 * time.Minute).Format(time.RFC3339)

	dir := t.TempDir()
	writeHeartbeat(t, filepath.Join(dir, "agent-a"), old)
	writeHeartbeat(t, filepath.Join(dir, "agent-b"), old)

	m := NewModule([]Workspace{
		{Name: "agent-a", Dir: filepath.Join(dir, "agent-a")},
		{Name: "agent-b", Dir: filepath.Join(dir, "agent-b")},
	}, 120, time.Minute)

	stale := m.staleAgents(now)
	assert.ElementsMatch(t, []string{"agent-a", "agent-b"}, stale)

	// Gateway liveness true, HTTP healthy: warning only, no restart.
	assert.Equal(t, OutcomeWarned, Classify(stale, true, true))
}

func TestClassifyNeverRestartsHealthyGateway(t *testing.T) {
	assert.Equal(t, OutcomeNone, Classify(nil, true, true))
	assert.Equal(t, OutcomeRestartRequested, Classify([]string{"a"}, false, true))
	assert.Equal(t, OutcomeLoggedOnly, Classify([]string{"a"}, true, false))
	assert.Equal(t, OutcomeWarned, Classify([]string{"a"}, true, true))
}

func TestModuleSelfRateLimits(t *testing.T) {
	start := time.Unix(0, 0)
	dir := writeHeartbeat(t, filepath.Join(t.TempDir(), "agent-a"), start.Add(-180*time.Minute).Format(time.RFC3339))
	m := NewModule([]Workspace{{Name: "agent-a", Dir: dir}}, 120, time.Hour)

	_, first := m.Tick(start)
	assert.Equal(t, []string{"agent-a"}, first)

	_, stale := m.Tick(start.Add(time.Minute))
	assert.Nil(t, stale)

	outcome, third := m.Tick(start.Add(2 * time.Hour))
	assert.Equal(t, OutcomeNone, outcome)
	assert.Equal(t, []string{"agent-a"}, third)
}

func TestMissingHeartbeatFileIsSkippedNotFatal(t *testing.T) {
	dir := t.TempDir()
	m := NewModule([]Workspace{{Name: "ghost", Dir: dir}}, 120, time.Minute)

	stale := m.staleAgents(time.Now())
	assert.Empty(t, stale)
}
