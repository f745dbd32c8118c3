package utils_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetwatch/sentinel/app/utils"
)

func TestLineTailBuffer(t *testing.T) {
	buf := utils.NewLineTailBuffer(2)
	buf.Push("one")
	buf.Push("two")
	buf.Push("three")

	assert.Equal(t, []string{"two", "three"}, buf.Lines())
}

func TestTrimLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sentinel.log")

	lines := []string{"a", "b", "c", "d", "e", "f"}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600))

	require.NoError(t, utils.TrimLogFile(path, 6))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	got := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Equal(t, []string{"d", "e", "f"}, got)

	count, err := utils.CountLines(path)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
