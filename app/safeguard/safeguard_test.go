package safeguard

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHealth struct {
	liveness   bool
	httpHealth bool
}

func (f *fakeHealth) Liveness(context.Context) bool   { return f.liveness }
func (f *fakeHealth) HTTPHealth(context.Context) bool { return f.httpHealth }

type fakeRestarter struct {
	restarts int
}

func (f *fakeRestarter) Restart(context.Context) error {
	f.restarts++
	return nil
}

func newTestModule(t *testing.T, health HealthProbe, restarter Restarter) (*Module, string) {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "gateway.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"version":1}`), 0600))

	m, err := NewModule(
		configPath,
		filepath.Join(dir, "state", "config-checksum"),
		filepath.Join(dir, "state", "rollback-armed.flag"),
		filepath.Join(dir, "snapshots"),
		300*time.Second,
		20,
		health,
		restarter,
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	// The fsnotify accelerant is a tick-skipping optimization only; tests
	// disable it so every tick re-hashes deterministically instead of
	// racing real filesystem event delivery.
	if m.watcher != nil {
		_ = m.watcher.Close()
		m.watcher = nil
	}

	return m, configPath
}

func TestFirstRunBootstrapsWithoutArming(t *testing.T) {
	health := &fakeHealth{liveness: true, httpHealth: true}
	m, _ := newTestModule(t, health, &fakeRestarter{})

	require.NoError(t, m.Tick(context.Background(), time.Unix(0, 0)))
	assert.False(t, m.Armed())

	digest, err := readChecksum(m.ChecksumPath)
	require.NoError(t, err)
	assert.NotEmpty(t, digest)
}

// Scenario 3: good config change. Config changes at tick 5; gateway
// healthy from tick 7 onward; ROLLBACK_TIMEOUT=300, tick period 15s.
// Expected: ticket armed at tick 5, auto-confirmed at or after tick 25, no
// restart issued by the safeguard.
func TestGoodConfigChangeAutoConfirms(t *testing.T) {
	health := &fakeHealth{liveness: true, httpHealth: true}
	restarter := &fakeRestarter{}
	m, configPath := newTestModule(t, health, restarter)
	m.SettleDelay = 0
	ctx := context.Background()

	start := time.Unix(0, 0)
	tickTime := func(tick int) time.Time { return start.Add(time.Duration(tick-1) * 15 * time.Second) }

	require.NoError(t, m.Tick(ctx, tickTime(1))) // bootstrap

	require.NoError(t, os.WriteFile(configPath, []byte(`{"version":2}`), 0600))
	require.NoError(t, m.Tick(ctx, tickTime(5)))
	require.True(t, m.Armed())
	armedAtTick5 := m.CurrentTicket().SnapshotPath

	for tick := 6; tick <= 25; tick++ {
		require.NoError(t, m.Tick(ctx, tickTime(tick)))
	}

	assert.False(t, m.Armed(), "ticket should be auto-confirmed by tick 25")
	assert.Zero(t, restarter.restarts)
	assert.FileExists(t, armedAtTick5)
}

// Scenario 4: bad config change. Config changes at tick 5; gateway
// unhealthy at tick 7. Expected: rollback at tick 7, config byte-equal to
// the pre-change snapshot, restart with reason config-rollback, ticket
// cleared.
func TestBadConfigChangeRollsBack(t *testing.T) {
	health := &fakeHealth{liveness: true, httpHealth: true}
	restarter := &fakeRestarter{}
	m, configPath := newTestModule(t, health, restarter)
	m.SettleDelay = 0
	ctx := context.Background()

	start := time.Unix(0, 0)
	tickTime := func(tick int) time.Time { return start.Add(time.Duration(tick-1) * 15 * time.Second) }

	require.NoError(t, m.Tick(ctx, tickTime(1)))

	require.NoError(t, os.WriteFile(configPath, []byte(`{"version":2}`), 0600))
	require.NoError(t, m.Tick(ctx, tickTime(5)))
	require.True(t, m.Armed())
	snapshotAtArm, err := os.ReadFile(m.CurrentTicket().SnapshotPath)
	require.NoError(t, err)

	health.httpHealth = false
	require.NoError(t, m.Tick(ctx, tickTime(7)))

	assert.False(t, m.Armed())
	assert.Equal(t, 1, restarter.restarts)

	restored, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, snapshotAtArm, restored)
}

// Scenario 5: crash during armed window. Config changes at tick 5, then
// the supervisor is rebuilt from the same state dir. Checks the reload:
// the ticket comes back with its original absolute deadline, in state
// Armed-Unseen.
func TestCrashDuringArmedWindowReloadsDeadline(t *testing.T) {
	health := &fakeHealth{liveness: true, httpHealth: true}
	m, configPath := newTestModule(t, health, &fakeRestarter{})
	m.SettleDelay = 0
	ctx := context.Background()

	start := time.Unix(0, 0)
	tickTime := func(tick int) time.Time { return start.Add(time.Duration(tick-1) * 15 * time.Second) }

	require.NoError(t, m.Tick(ctx, tickTime(1)))
	require.NoError(t, os.WriteFile(configPath, []byte(`{"version":2}`), 0600))
	require.NoError(t, m.Tick(ctx, tickTime(5)))
	require.True(t, m.Armed())

	originalDeadline := m.CurrentTicket().Deadline

	// Simulate a crash: rebuild a fresh Module from the same state dir.
	reloaded, err := NewModule(configPath, m.ChecksumPath, m.TicketPath, m.SnapshotDir,
		m.RollbackTimeout, m.SnapshotRetention, health, &fakeRestarter{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reloaded.Close() })

	require.True(t, reloaded.Armed())
	assert.Equal(t, originalDeadline, reloaded.CurrentTicket().Deadline)
	assert.Equal(t, ArmedUnseen, reloaded.state)
}

func TestConfirmIsIdempotent(t *testing.T) {
	health := &fakeHealth{liveness: true, httpHealth: true}
	m, _ := newTestModule(t, health, &fakeRestarter{})

	wasArmed, err := m.Confirm()
	require.NoError(t, err)
	assert.False(t, wasArmed)

	wasArmed, err = m.Confirm()
	require.NoError(t, err)
	assert.False(t, wasArmed)
}

func TestSnapshotThenRollbackRoundTrips(t *testing.T) {
	health := &fakeHealth{liveness: true, httpHealth: true}
	m, configPath := newTestModule(t, health, &fakeRestarter{})

	original, err := os.ReadFile(configPath)
	require.NoError(t, err)

	path, err := m.Snapshot(ReasonManual, time.Unix(1000, 0))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(configPath, []byte(`{"version":"corrupted"}`), 0600))

	require.NoError(t, m.Rollback(context.Background(), path))

	restored, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestRollbackWithNoSnapshotReportsError(t *testing.T) {
	health := &fakeHealth{liveness: true, httpHealth: true}
	m, _ := newTestModule(t, health, &fakeRestarter{})

	err := m.Rollback(context.Background(), "")
	assert.Error(t, err)
}

// TestPeriodicResyncCatchesChangeBehindStrandedWatcher is the regression
// case for a watch pinned to an orphaned inode after an atomic
// rename-over-configPath: it simulates permanent strand by pointing the
// module's watcher at an unrelated decoy file, so Pending() never fires
// for the real change, and confirms the periodic forced rehash still
// detects it within watcherResyncEveryNTicks.
func TestPeriodicResyncCatchesChangeBehindStrandedWatcher(t *testing.T) {
	health := &fakeHealth{liveness: true, httpHealth: true}
	dir := t.TempDir()
	configPath := filepath.Join(dir, "gateway.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"version":1}`), 0600))

	m, err := NewModule(
		configPath,
		filepath.Join(dir, "state", "config-checksum"),
		filepath.Join(dir, "state", "rollback-armed.flag"),
		filepath.Join(dir, "snapshots"),
		300*time.Second,
		20,
		health,
		&fakeRestarter{},
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	m.SettleDelay = 0

	// Strand the watcher deliberately: point it at a decoy file that is
	// never written, so Pending() can never observe the real change.
	decoyPath := filepath.Join(dir, "decoy")
	require.NoError(t, os.WriteFile(decoyPath, []byte("x"), 0600))
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
	decoyWatcher, err := NewWatcher(decoyPath)
	require.NoError(t, err)
	m.watcher = decoyWatcher

	ctx := context.Background()
	start := time.Unix(0, 0)
	tickTime := func(tick int) time.Time { return start.Add(time.Duration(tick-1) * 15 * time.Second) }

	require.NoError(t, m.Tick(ctx, tickTime(1))) // bootstrap

	// Atomic rename-over, the exact deploy idiom that orphans an
	// inode-pinned watch.
	newConfigPath := filepath.Join(dir, "gateway.json.new")
	require.NoError(t, os.WriteFile(newConfigPath, []byte(`{"version":2}`), 0600))
	require.NoError(t, os.Rename(newConfigPath, configPath))

	// tickCount is 1 after bootstrap; ticks up to tickCount ==
	// watcherResyncEveryNTicks-1 must not trigger the forced rehash.
	for tick := 2; tick < watcherResyncEveryNTicks; tick++ {
		require.NoError(t, m.Tick(ctx, tickTime(tick)))
		require.False(t, m.Armed(), "tick %d: stranded watcher's Pending() must not detect the change early", tick)
	}

	require.NoError(t, m.Tick(ctx, tickTime(watcherResyncEveryNTicks)))
	assert.True(t, m.Armed(), "forced periodic rehash should catch the change the stranded watcher missed")
}
