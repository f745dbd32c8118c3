package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffLadderEscalation(t *testing.T) {
	ladder := NewBackoffLadder(30*time.Second, 300*time.Second, 2)
	require.False(t, ladder.Active())

	start := time.Unix(0, 0)
	ladder.Enter(start)
	assert.True(t, ladder.Active())
	assert.Equal(t, 30*time.Second, ladder.Wait())

	// 30 -> 60 -> 120 -> 240, each escalation within BACKOFF_MAX.
	now := start
	for _, want := range []time.Duration{60, 120, 240} {
		now = now.Add(ladder.Wait())
		exceeded := ladder.Escalate(now)
		require.False(t, exceeded)
		assert.Equal(t, want*time.Second, ladder.Wait())
	}

	// Next step (240*2=480) exceeds BACKOFF_MAX=300: restart authorized.
	now = now.Add(ladder.Wait())
	assert.True(t, ladder.Escalate(now))
}

func TestBackoffLadderResetOnRecovery(t *testing.T) {
	ladder := NewBackoffLadder(30*time.Second, 300*time.Second, 2)
	ladder.Enter(time.Unix(0, 0))
	ladder.Reset()

	assert.False(t, ladder.Active())
	assert.Equal(t, time.Duration(0), ladder.Wait())
}

func TestBackoffLadderDue(t *testing.T) {
	ladder := NewBackoffLadder(30*time.Second, 300*time.Second, 2)
	start := time.Unix(0, 0)
	ladder.Enter(start)

	assert.False(t, ladder.Due(start.Add(15*time.Second)))
	assert.True(t, ladder.Due(start.Add(30*time.Second)))
}
