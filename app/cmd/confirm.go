package cmd

import (
	"fmt"

	"github.com/fleetwatch/sentinel/app/health"
	"github.com/fleetwatch/sentinel/app/safeguard"
	"github.com/fleetwatch/sentinel/app/supervisor"
)

// newSafeguardModule builds a ConfigSafeguard module wired to a real
// Prober, for one-shot CLI operations (confirm, rollback, snapshot) that
// don't run the full tick loop.
func newSafeguardModule(cfg *supervisor.Config) (*safeguard.Module, error) {
	prober := health.NewProber(
		cfg.ServiceLabel, cfg.HealthCheckURL, cfg.PingTarget, cfg.PingTimeout,
		cfg.ExternalCheckURL, cfg.ProxyURL, cfg.LLMAPICheckURL,
	)

	return safeguard.NewModule(
		cfg.ConfigPath, cfg.ChecksumPath(), cfg.ArmedTicketPath(), cfg.SnapshotDir(),
		cfg.RollbackTimeout, cfg.SnapshotRetention, prober, prober,
	)
}

var confirmCommand = Command{
	Description: "Confirm the currently armed config change, cancelling its rollback deadline.",

	Target: func(opts Options) error {
		cfg, err := loadConfig(opts)
		if err != nil {
			return err
		}

		sg, err := newSafeguardModule(cfg)
		if err != nil {
			return err
		}
		defer sg.Close()

		wasArmed, err := sg.Confirm()
		if err != nil {
			return err
		}

		if !wasArmed {
			fmt.Println("no config change is currently armed")
			return nil
		}

		fmt.Println("armed config change confirmed")
		return nil
	},
}
