package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	paths, err := NewPaths(PathsConfig{DataDir: "data", LogsDir: "logs"})
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(paths.DataDir))
	assert.True(t, filepath.IsAbs(paths.LogsDir))
}

func TestPaths_EnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths := &Paths{
		DataDir: filepath.Join(base, "data"),
		LogsDir: filepath.Join(base, "logs", "nested"),
	}

	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.DataDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestPaths_GetDataPath(t *testing.T) {
	paths := &Paths{DataDir: "/srv/data", LogsDir: "/srv/logs"}

	assert.Equal(t, filepath.Join("/srv/data", "out.csv"), paths.GetDataPath("out.csv"))
	assert.Equal(t, filepath.Join("/srv/logs", "run.log"), paths.GetLogPath("run.log"))
}
