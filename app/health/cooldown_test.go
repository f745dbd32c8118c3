package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownState(t *testing.T) {
	cooldown := NewCooldownState(2 * time.Minute)
	start := time.Unix(0, 0)

	assert.True(t, cooldown.Ready(start))

	cooldown.RecordRestart(start)
	assert.False(t, cooldown.Ready(start.Add(time.Minute)))
	assert.True(t, cooldown.Ready(start.Add(2*time.Minute)))
}

func TestWakeState(t *testing.T) {
	var wake WakeState

	assert.False(t, wake.Observe(1000, 15))
	assert.False(t, wake.Observe(1015, 15))

	// Reboot: uptime drops.
	assert.True(t, wake.Observe(5, 15))

	// Long suspend: uptime jumps far more than 10x the tick interval.
	assert.True(t, wake.Observe(5+15*20, 15))
}

func TestNetworkState(t *testing.T) {
	var network NetworkState

	assert.Equal(t, TransitionNone, network.Observe(true))
	assert.Equal(t, TransitionWentDown, network.Observe(false))
	assert.True(t, network.WasDown())
	assert.Equal(t, TransitionNone, network.Observe(false))
	assert.Equal(t, TransitionRecovered, network.Observe(true))
	assert.False(t, network.WasDown())
}
