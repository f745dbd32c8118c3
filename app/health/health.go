package health

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fleetwatch/sentinel/app/log"
)

// Signaler is the capability set GatewayHealth classifies against. *Prober
// implements it against the real OS/network/gateway; tests substitute a
// scripted fake to drive the classifier with synthetic signal traces,
// keeping the decision logic itself free of live I/O.
type Signaler interface {
	Liveness(ctx context.Context) bool
	HTTPHealth(ctx context.Context) bool
	Online(ctx context.Context) bool
	ExternalReachable(ctx context.Context) bool
	ProxyOK(ctx context.Context) bool
	Uptime(ctx context.Context) (float64, error)
	Restart(ctx context.Context) error
}

// Uptime adapts the package-level UptimeSeconds probe to the Signaler
// interface.
func (p *Prober) Uptime(ctx context.Context) (float64, error) {
	return UptimeSeconds(ctx)
}

// Restart adapts RestartService to the Signaler interface.
func (p *Prober) Restart(ctx context.Context) error {
	return RestartService(ctx, p.ServiceLabel)
}

// Module is GatewayHealth: the decision core that consumes liveness, HTTP
// health, network reachability, proxy reachability and uptime signals and
// emits at most one restart action per tick.
type Module struct {
	Signaler Signaler

	Backoff  *BackoffLadder
	Cooldown *CooldownState
	Wake     WakeState
	Network  NetworkState
	Proxy    *ProxyTracker

	CheckInterval      time.Duration
	TunSettle          time.Duration
	ProxyCheckInterval int

	// RestartPollInterval is the spacing between post-restart health
	// polls. Exposed so tests can shrink it.
	RestartPollInterval time.Duration

	tickCount int
}

// NewModule builds a Module from the configured parameters.
func NewModule(signaler Signaler, backoffInitial, backoffMax time.Duration, backoffMultiplier float64,
	cooldown, checkInterval, tunSettle time.Duration, proxyCheckInterval, proxyFailThreshold int) *Module {

	return &Module{
		Signaler:            signaler,
		Backoff:             NewBackoffLadder(backoffInitial, backoffMax, backoffMultiplier),
		Cooldown:            NewCooldownState(cooldown),
		Proxy:               NewProxyTracker(uint32(proxyFailThreshold)),
		CheckInterval:       checkInterval,
		TunSettle:           tunSettle,
		ProxyCheckInterval:  proxyCheckInterval,
		RestartPollInterval: 5 * time.Second,
	}
}

// Tick runs one GatewayHealth evaluation in order: wake check, network
// transition check, fatal/transient classification, then a proxy check
// every ProxyCheckInterval ticks.
func (m *Module) Tick(ctx context.Context, now time.Time) Action {
	m.tickCount++

	if action, handled := m.checkWake(ctx, now); handled {
		return action
	}

	online := m.Signaler.Online(ctx)

	if action, handled := m.checkNetwork(ctx, now, online); handled {
		return action
	}

	if m.Network.WasDown() {
		return ActionDeferNetwork
	}

	if action, handled := m.checkFatalOrTransient(ctx, now); handled {
		return action
	}

	if m.ProxyCheckInterval > 0 && m.tickCount%m.ProxyCheckInterval == 0 {
		if action, handled := m.checkProxy(ctx, now); handled {
			return action
		}
	}

	return ActionNone
}

func (m *Module) checkWake(ctx context.Context, now time.Time) (Action, bool) {
	uptime, err := m.Signaler.Uptime(ctx)
	if err != nil {
		log.Warnf("uptime probe failed: %v", err)
		return ActionNone, false
	}

	woke := m.Wake.Observe(uptime, m.CheckInterval.Seconds())
	if !woke {
		return ActionNone, false
	}

	log.Infof("wake detected (uptime %.0fs)", uptime)
	sleep(ctx, m.TunSettle)

	if !m.Signaler.Online(ctx) {
		return ActionDeferSettle, true
	}

	return m.authorize(ctx, now, ActionRestartWake), true
}

func (m *Module) checkNetwork(ctx context.Context, now time.Time, online bool) (Action, bool) {
	switch m.Network.Observe(online) {
	case TransitionWentDown:
		log.Warnf("network went down")
		return ActionDeferNetwork, true
	case TransitionRecovered:
		log.Infof("network recovered, settling")
		sleep(ctx, m.TunSettle)

		if m.Signaler.Online(ctx) && m.Signaler.ExternalReachable(ctx) {
			return m.authorize(ctx, now, ActionRestartNetworkRecovered), true
		}

		log.Warnf("network recovery did not hold through settle")
		return ActionDeferSettle, true
	default:
		return ActionNone, false
	}
}

func (m *Module) checkFatalOrTransient(ctx context.Context, now time.Time) (Action, bool) {
	if !m.Signaler.Liveness(ctx) {
		log.Errorf("gateway liveness false for two consecutive probes")
		return m.authorize(ctx, now, ActionRestartFatal), true
	}

	if m.Signaler.HTTPHealth(ctx) {
		if m.Backoff.Active() {
			log.Infof("gateway recovered, resetting backoff")
			m.Backoff.Reset()
		}
		return ActionNone, false
	}

	if !m.Backoff.Active() {
		m.Backoff.Enter(now)
		log.Warnf("gateway unhealthy, entering backoff (wait=%s)", m.Backoff.Wait())
		return ActionDeferBackoff, true
	}

	if !m.Backoff.Due(now) {
		return ActionDeferBackoff, true
	}

	if m.Backoff.Escalate(now) {
		log.Warnf("backoff ladder exceeded ceiling, authorizing restart")
		return m.authorize(ctx, now, ActionRestartBackoffExceeded), true
	}

	log.Warnf("gateway still unhealthy, escalating backoff (wait=%s)", m.Backoff.Wait())
	return ActionDeferBackoff, true
}

func (m *Module) checkProxy(ctx context.Context, now time.Time) (Action, bool) {
	ok := m.Signaler.ProxyOK(ctx)
	if !m.Proxy.Observe(ok) {
		return ActionNone, false
	}

	log.Warnf("proxy degraded for consecutive checks, authorizing restart")
	return m.authorize(ctx, now, ActionRestartProxyDegraded), true
}

// authorize consults the cooldown gate and, if clear, performs the
// restart. A suppressed restart leaves every per-class counter untouched,
// including the backoff ladder: it remains armed for the next tick.
func (m *Module) authorize(ctx context.Context, now time.Time, candidate Action) Action {
	if !m.Cooldown.Ready(now) {
		log.Warnf("restart suppressed by cooldown (%s)", candidate)
		return ActionDeferCooldown
	}

	if candidate == ActionRestartBackoffExceeded {
		m.Backoff.Reset()
	}

	restartID := uuid.NewString()
	healthy := m.restart(ctx, restartID)
	m.Cooldown.RecordRestart(now)

	if !healthy {
		log.Errorf("restart %s (%s) did not reach healthy within poll window", restartID, candidate)
	}

	return candidate
}

// restart invokes the platform control primitive and polls http_health up
// to six times at 5 s spacing, per the Restart procedure. restartID tags
// every log line from this attempt so an operator can correlate the
// restart, its poll loop and the outcome across a noisy log file.
func (m *Module) restart(ctx context.Context, restartID string) (healthy bool) {
	log.Infof("restart %s: invoking service control", restartID)

	if err := m.Signaler.Restart(ctx); err != nil {
		log.Errorf("restart %s: error restarting gateway: %v", restartID, err)
	}

	for i := 0; i < 6; i++ {
		sleep(ctx, m.RestartPollInterval)

		if m.Signaler.HTTPHealth(ctx) {
			log.Infof("restart %s: healthy after %d poll(s)", restartID, i+1)
			return true
		}
	}

	return false
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
