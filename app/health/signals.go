// Package health implements the GatewayHealth module: a multi-signal
// classifier with exponential backoff and cooldown that decides, once per
// tick, whether the gateway needs to be restarted.
package health

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/fleetwatch/sentinel/app/log"
	"github.com/fleetwatch/sentinel/app/utils"
)

// Signals names the set of cheap, bounded-timeout observations
// GatewayHealth works with. Module.Tick does not build a Signals value: it
// reads each signal on demand through the Signaler interface.
type Signals struct {
	Liveness          bool
	HTTPHealth        bool
	Online            bool
	ExternalReachable bool
	ProxyOK           bool
	ProxyConfigured   bool
	UptimeSeconds     float64
}

// Prober probes these signals by talking to the OS, the gateway's HTTP health
// endpoint, and the network: ping, http_status, process_alive,
// service_restart, uptime_seconds, kept behind one small surface so
// everything else stays portable across platforms.
type Prober struct {
	ServiceLabel     string
	HealthCheckURL   string
	PingTarget       string
	PingTimeout      time.Duration
	ExternalCheckURL string
	ProxyURL         string
	LLMAPICheckURL   string

	client *http.Client
}

// NewProber returns a Prober ready to use.
func NewProber(serviceLabel, healthCheckURL, pingTarget string, pingTimeout time.Duration, externalCheckURL, proxyURL, llmAPICheckURL string) *Prober {
	return &Prober{
		ServiceLabel:     serviceLabel,
		HealthCheckURL:   healthCheckURL,
		PingTarget:       pingTarget,
		PingTimeout:      pingTimeout,
		ExternalCheckURL: externalCheckURL,
		ProxyURL:         proxyURL,
		LLMAPICheckURL:   llmAPICheckURL,
		client:           &http.Client{},
	}
}

// ProcessAlive reports whether a process whose command line contains label
// is currently visible in the OS process table: walks gopsutil's
// cross-platform process table and substring-matches each cmdline.
func ProcessAlive(ctx context.Context, label string) (bool, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("error listing processes: %w", err)
	}

	for _, pid := range pids {
		proc, err := process.NewProcessWithContext(ctx, pid)
		if err != nil {
			continue
		}

		cmdline, err := proc.CmdlineWithContext(ctx)
		if err != nil {
			continue
		}

		if strings.Contains(cmdline, label) {
			return true, nil
		}
	}

	return false, nil
}

// Liveness probes ProcessAlive twice, 5 s apart, and reports alive unless
// both probes come back false.
func (p *Prober) Liveness(ctx context.Context) bool {
	first, err := ProcessAlive(ctx, p.ServiceLabel)
	if err != nil {
		log.Warnf("liveness probe failed: %v", err)
		first = false
	}
	if first {
		return true
	}

	select {
	case <-ctx.Done():
		return false
	case <-time.After(5 * time.Second):
	}

	second, err := ProcessAlive(ctx, p.ServiceLabel)
	if err != nil {
		log.Warnf("liveness probe failed: %v", err)
		return false
	}

	return second
}

// HTTPHealth reports whether a GET to HealthCheckURL returns a status this
// system treats as healthy: 200, 204, 401 or 403. 401/403 prove the HTTP
// stack is alive even if auth is gated.
func (p *Prober) HTTPHealth(ctx context.Context) bool {
	status, err := p.httpStatus(ctx, p.HealthCheckURL, 5*time.Second, "")
	if err != nil {
		log.Warnf("http health probe failed: %v", err)
		return false
	}

	switch status {
	case http.StatusOK, http.StatusNoContent, http.StatusUnauthorized, http.StatusForbidden:
		return true
	default:
		return false
	}
}

// ExternalReachable reports whether a GET to ExternalCheckURL succeeds.
// Used as a stricter post-settle check after a network recovery.
func (p *Prober) ExternalReachable(ctx context.Context) bool {
	status, err := p.httpStatus(ctx, p.ExternalCheckURL, 5*time.Second, "")
	if err != nil {
		log.Warnf("external reachability probe failed: %v", err)
		return false
	}

	return status == http.StatusOK
}

// ProxyOK reports whether the configured proxy is usable: both the proxy
// socket and an external API through it respond with a valid status. When
// no proxy is configured it is considered healthy.
func (p *Prober) ProxyOK(ctx context.Context) bool {
	if p.ProxyURL == "" {
		return true
	}

	status, err := p.httpStatus(ctx, p.LLMAPICheckURL, 8*time.Second, p.ProxyURL)
	if err != nil {
		log.Warnf("proxy probe failed: %v", err)
		return false
	}

	return status > 0 && status < 500
}

func (p *Prober) httpStatus(ctx context.Context, url string, timeout time.Duration, proxyURL string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("error building request for %s: %w", url, err)
	}

	client := p.client
	if proxyURL != "" {
		proxy, err := proxyFunc(proxyURL)
		if err != nil {
			return 0, fmt.Errorf("error parsing proxy url %s: %w", proxyURL, err)
		}

		client = &http.Client{
			Transport: &http.Transport{
				Proxy:           proxy,
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("error requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

// UptimeSeconds returns the monotonic system uptime, used only for wake
// detection.
func UptimeSeconds(ctx context.Context) (float64, error) {
	seconds, err := host.UptimeWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("error reading system uptime: %w", err)
	}

	return float64(seconds), nil
}

// RestartService invokes the platform control primitive for the managed
// gateway. Success is never judged from this call's exit code, only from
// post-restart health polling.
func RestartService(ctx context.Context, label string) error {
	_, err := utils.RunCommand(ctx, restartCommand(label))
	return err
}
