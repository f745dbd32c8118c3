package utils_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetwatch/sentinel/app/utils"
)

func TestRunCommand(t *testing.T) {
	output, err := utils.RunCommand(context.Background(), []string{"echo", "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(output))
}

func TestRunCommandTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := utils.RunCommand(ctx, []string{"sleep", "1"})
	require.Error(t, err)
}

func TestRunCommandFailure(t *testing.T) {
	_, err := utils.RunCommand(context.Background(), []string{"false"})
	require.Error(t, err)
}
