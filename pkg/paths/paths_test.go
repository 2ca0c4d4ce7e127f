package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	configDir := t.TempDir()
	stateDir := t.TempDir()
	t.Setenv(EnvConfigDir, configDir)
	t.Setenv(EnvStateDir, stateDir)

	assert.Equal(t, configDir, ConfigDir())
	assert.Equal(t, stateDir, StateDir())
	assert.Equal(t, filepath.Join(stateDir, LogFileName), LogFilePath())

	_, ok := UserConfigFile()
	assert.False(t, ok)

	path := filepath.Join(configDir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("[backup]\n"), 0644))
	got, ok := UserConfigFile()
	assert.True(t, ok)
	assert.Equal(t, path, got)
}

func TestDefaultsUseAppDir(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	t.Setenv(EnvStateDir, "")

	assert.Equal(t, AppDirName, filepath.Base(ConfigDir()))
	assert.Equal(t, LogFileName, filepath.Base(LogFilePath()))
}

func TestExpandHome(t *testing.T) {
	home, err := GetHomeDirectory()
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/WindowsBackup", filepath.Join(home, "WindowsBackup")},
		{"/abs/path", "/abs/path"},
		{"D:/WindowsBackup", "D:/WindowsBackup"},
		{"~other/x", "~other/x"},
	}
	for _, tt := range tests {
		got, err := ExpandHome(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
