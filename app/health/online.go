package health

import (
	"context"
	"time"

	"github.com/fleetwatch/sentinel/app/utils"
)

// Online reports whether one ICMP echo to PingTarget succeeds within
// PingTimeout. Shells out to the system ping binary via RunCommand
// instead of opening a raw socket, so the supervisor never needs
// elevated privileges for an ICMP probe.
func (p *Prober) Online(ctx context.Context) bool {
	timeout := p.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout+time.Second)
	defer cancel()

	_, err := utils.RunCommand(ctx, pingCommand(p.PingTarget, timeout))
	return err == nil
}
