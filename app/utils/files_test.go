package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetwatch/sentinel/app/utils"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checksum")

	require.NoError(t, utils.WriteFileAtomic(path, []byte("first"), 0600))
	assert.FileExists(t, path)
	assert.NoFileExists(t, path+".tmp")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	require.NoError(t, utils.WriteFileAtomic(path, []byte("second"), 0600))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "config.json")
	dst := filepath.Join(dir, "snapshots", "config-20260101-000000-manual.json")

	require.NoError(t, os.WriteFile(src, []byte(`{"a":1}`), 0600))
	require.NoError(t, utils.CopyFile(src, dst, 0600))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
}
