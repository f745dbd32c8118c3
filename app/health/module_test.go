package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSignaler drives Module.Tick from a fixed sequence of canned
// observations instead of live I/O, so the classifier can be exercised
// against literal signal traces without depending on real probes.
type scriptedSignaler struct {
	liveness          bool
	httpHealth        bool
	online            bool
	externalReachable bool
	proxyOK           bool
	uptime            float64
	restarts          int
}

func (s *scriptedSignaler) Liveness(context.Context) bool          { return s.liveness }
func (s *scriptedSignaler) HTTPHealth(context.Context) bool        { return s.httpHealth }
func (s *scriptedSignaler) Online(context.Context) bool            { return s.online }
func (s *scriptedSignaler) ExternalReachable(context.Context) bool { return s.externalReachable }
func (s *scriptedSignaler) ProxyOK(context.Context) bool           { return s.proxyOK }
func (s *scriptedSignaler) Uptime(context.Context) (float64, error) {
	s.uptime += 15
	return s.uptime, nil
}
func (s *scriptedSignaler) Restart(context.Context) error {
	s.restarts++
	return nil
}

func newTestModule(sig Signaler) *Module {
	m := NewModule(sig, 30*time.Second, 300*time.Second, 2, 120*time.Second, 15*time.Second, 0, 4, 3)
	m.RestartPollInterval = 0
	return m
}

// Scenario 1: transient blip. healthy, healthy, unhealthy, unhealthy,
// healthy, healthy with BACKOFF_INITIAL=30, CHECK_INTERVAL=15. No restart
// issued; backoff enters at tick 3, resets at tick 5.
func TestModuleTransientBlip(t *testing.T) {
	sig := &scriptedSignaler{liveness: true, online: true, externalReachable: true, proxyOK: true}
	m := newTestModule(sig)
	ctx := context.Background()
	start := time.Unix(0, 0)

	healthAt := map[int]bool{1: true, 2: true, 3: false, 4: false, 5: true, 6: true}

	for tick := 1; tick <= 6; tick++ {
		sig.httpHealth = healthAt[tick]
		now := start.Add(time.Duration(tick-1) * 15 * time.Second)
		action := m.Tick(ctx, now)

		if tick == 3 {
			assert.Equal(t, ActionDeferBackoff, action)
			assert.True(t, m.Backoff.Active())
			assert.Equal(t, 30*time.Second, m.Backoff.Wait())
		}
		if tick == 5 {
			assert.False(t, m.Backoff.Active(), "backoff should reset on recovery")
		}
		assert.False(t, action.IsRestart(), "no restart expected on a transient blip")
	}

	assert.Zero(t, sig.restarts)
}

// Scenario 2: persistent fault. Health never recovers; eventually the
// backoff ladder exceeds BACKOFF_MAX and exactly one restart is
// authorized. The ladder then re-arms from BACKOFF_INITIAL and does not
// exceed the ceiling again within the 60-tick window.
func TestModulePersistentFault(t *testing.T) {
	sig := &scriptedSignaler{liveness: true, httpHealth: false, online: true, externalReachable: true, proxyOK: true}
	m := newTestModule(sig)
	ctx := context.Background()

	now := time.Unix(0, 0)
	restarts := 0

	for tick := 0; tick < 60; tick++ {
		now = now.Add(15 * time.Second)
		action := m.Tick(ctx, now)
		if action.IsRestart() {
			restarts++
		}
	}

	require.Equal(t, 1, restarts, "exactly one restart should be authorized within the window")
	assert.Equal(t, 1, sig.restarts)
}

func TestModuleFatalLivenessRestartsImmediately(t *testing.T) {
	sig := &scriptedSignaler{liveness: false, online: true, externalReachable: true, proxyOK: true}
	m := newTestModule(sig)

	action := m.Tick(context.Background(), time.Unix(0, 0))
	assert.Equal(t, ActionRestartFatal, action)
	assert.Equal(t, 1, sig.restarts)
}

func TestModuleCooldownSuppressesSecondRestart(t *testing.T) {
	sig := &scriptedSignaler{liveness: false, online: true, externalReachable: true, proxyOK: true}
	m := newTestModule(sig)
	ctx := context.Background()

	now := time.Unix(0, 0)
	first := m.Tick(ctx, now)
	require.Equal(t, ActionRestartFatal, first)

	now = now.Add(15 * time.Second)
	second := m.Tick(ctx, now)
	assert.Equal(t, ActionDeferCooldown, second)
	assert.Equal(t, 1, sig.restarts)
}

func TestModuleNetworkDownSkipsRestOfTick(t *testing.T) {
	sig := &scriptedSignaler{liveness: false, httpHealth: false, online: false}
	m := newTestModule(sig)

	action := m.Tick(context.Background(), time.Unix(0, 0))
	assert.Equal(t, ActionDeferNetwork, action)
	assert.Zero(t, sig.restarts, "liveness failure must not restart while network is down")
}

func TestModuleHTTP401CountsHealthyAtSignalerLevel(t *testing.T) {
	// Exercised at the Prober level in signals_test.go; Module only ever
	// sees the resolved boolean, so it has nothing special to do with
	// 401/403 beyond treating httpHealth=true as healthy.
	sig := &scriptedSignaler{liveness: true, httpHealth: true, online: true, externalReachable: true, proxyOK: true}
	m := newTestModule(sig)

	action := m.Tick(context.Background(), time.Unix(0, 0))
	assert.Equal(t, ActionNone, action)
}
